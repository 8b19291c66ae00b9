package instance

import (
	"fmt"
	"os"

	"github.com/dyluth/trove/internal/config"
)

// DefaultRedisPort is the port assumed when no Redis URL is configured.
const DefaultRedisPort = 6379

// GetRedisHost returns the appropriate Redis hostname for the current environment.
// Inside a container it returns "host.docker.internal" to reach the host's
// published ports. Otherwise, it returns "localhost".
func GetRedisHost() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "host.docker.internal"
	}
	return "localhost"
}

// GetRedisURL constructs the full Redis URL for a given port.
func GetRedisURL(port int) string {
	host := GetRedisHost()
	return fmt.Sprintf("redis://%s:%d", host, port)
}

// DefaultRedisURL is the URL used by observers when neither a flag nor
// TROVE_REDIS_URL names one.
func DefaultRedisURL() string {
	if url := os.Getenv(config.EnvRedisURL); url != "" {
		return url
	}
	return GetRedisURL(DefaultRedisPort)
}
