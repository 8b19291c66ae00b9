package scaffold

import (
	"embed"
	"fmt"
	"os"

	"github.com/dyluth/trove/internal/config"
	"github.com/dyluth/trove/internal/printer"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes a starter trove.yml into the current directory.
// If force is true, an existing trove.yml is replaced.
func Initialize(force bool) error {
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := writeFiles(files); err != nil {
		return err
	}

	return validateCreatedFiles()
}

// handleForce removes existing files if --force was specified
func handleForce() error {
	if _, err := os.Stat(config.DefaultFileName); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", config.DefaultFileName)
		if err := os.Remove(config.DefaultFileName); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultFileName, err)
		}
	}
	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles() ([]FileInfo, error) {
	troveYml, err := templatesFS.ReadFile("templates/trove.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read trove.yml template: %w", err)
	}
	return []FileInfo{{
		Path:        config.DefaultFileName,
		Content:     troveYml,
		Permissions: 0644,
	}}, nil
}

// writeFiles writes all template files to disk
func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles loads the written trove.yml through the normal
// config path so a broken template fails at init time.
func validateCreatedFiles() error {
	if _, _, err := config.Load(config.DefaultFileName); err != nil {
		return fmt.Errorf("created %s is not valid: %w", config.DefaultFileName, err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	printer.Println()
	printer.Success("Successfully initialized trove run configuration!\n")
	printer.Println("\nCreated:")
	printer.Printf("  ✓ %s\n", config.DefaultFileName)
	printer.Println("\nNext steps:")
	printer.Printf("  1. Adjust stage, agents and gems in %s\n", config.DefaultFileName)
	printer.Println("  2. Run 'trove run' to start a simulation")
	printer.Println("  3. Add a redis section and run 'trove watch' to follow it live")
}
