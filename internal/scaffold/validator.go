package scaffold

import (
	"fmt"
	"os"

	"github.com/dyluth/trove/internal/config"
)

// CheckExisting returns an error if trove.yml already exists in the current
// directory.
func CheckExisting() error {
	if _, err := os.Stat(config.DefaultFileName); err != nil {
		return nil
	}
	return fmt.Errorf("run configuration already initialized\n\nFound existing: %s\n\nUse 'trove init --force' to reinitialize (this will overwrite existing configuration)", config.DefaultFileName)
}
