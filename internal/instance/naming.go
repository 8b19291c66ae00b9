package instance

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/dyluth/trove/internal/config"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultNamePrefix is the prefix for auto-generated instance names
	DefaultNamePrefix = "default-"

	// MaxNameLength is the maximum length for an instance name (DNS-compatible)
	MaxNameLength = 63
)

var (
	// NamePattern is the regex pattern for valid instance names
	// Must be DNS-compatible: lowercase alphanumeric, hyphens allowed (but not at start/end)
	// Allows single character or multiple characters with optional hyphens in between
	NamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
)

// ValidateName checks if an instance name is valid according to DNS naming rules.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("instance name too long: %d characters (max: %d)", len(name), MaxNameLength)
	}

	if !NamePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}

	return nil
}

// RandomName returns a throwaway name for runs that are not mirrored.
func RandomName() string {
	return "run-" + strings.SplitN(uuid.New().String(), "-", 2)[0]
}

// GenerateDefaultName generates the next available default-N instance name.
// It scans Redis for the stats hashes of earlier runs and finds the highest
// N in default-N names.
func GenerateDefaultName(ctx context.Context, rdb *redis.Client) (string, error) {
	pattern := blackboard.StatsKey(DefaultNamePrefix + "*")

	highestN := 0
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		name := nameFromStatsKey(iter.Val())
		if !strings.HasPrefix(name, DefaultNamePrefix) {
			continue
		}
		// Extract number after "default-"
		if n, err := strconv.Atoi(strings.TrimPrefix(name, DefaultNamePrefix)); err == nil && n > highestN {
			highestN = n
		}
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("failed to scan instances: %w", err)
	}

	return fmt.Sprintf("%s%d", DefaultNamePrefix, highestN+1), nil
}

// CheckNameCollision checks if a run has already written under the given name.
// Returns true if a collision exists (name is in use).
func CheckNameCollision(ctx context.Context, rdb *redis.Client, instanceName string) (bool, error) {
	n, err := rdb.Exists(ctx, blackboard.StatsKey(instanceName)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check for name collision: %w", err)
	}
	return n > 0, nil
}

// nameFromStatsKey extracts the instance name from trove:{name}:stats.
func nameFromStatsKey(key string) string {
	name, ok := strings.CutPrefix(key, "trove:")
	if !ok {
		return ""
	}
	name, ok = strings.CutSuffix(name, ":stats")
	if !ok {
		return ""
	}
	return name
}

// Resolve picks the instance name for a mirrored run: the explicit value if
// given, then TROVE_INSTANCE_NAME, then the next free default-N name.
func Resolve(ctx context.Context, rdb *redis.Client, explicit string) (string, error) {
	name := explicit
	if name == "" {
		name = os.Getenv(config.EnvInstanceName)
	}
	if name == "" {
		return GenerateDefaultName(ctx, rdb)
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}
