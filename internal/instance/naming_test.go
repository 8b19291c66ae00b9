package instance

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/trove/internal/config"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	testCases := []struct {
		name      string
		inputName string
		wantErr   bool
		errMsg    string
	}{
		{
			name:      "valid simple name",
			inputName: "prod",
			wantErr:   false,
		},
		{
			name:      "valid name with hyphens",
			inputName: "staging-1",
			wantErr:   false,
		},
		{
			name:      "valid name with numbers",
			inputName: "default-123",
			wantErr:   false,
		},
		{
			name:      "empty name",
			inputName: "",
			wantErr:   true,
			errMsg:    "cannot be empty",
		},
		{
			name:      "name with uppercase",
			inputName: "Prod",
			wantErr:   true,
			errMsg:    "must be lowercase",
		},
		{
			name:      "name starting with hyphen",
			inputName: "-prod",
			wantErr:   true,
			errMsg:    "not at start/end",
		},
		{
			name:      "name ending with hyphen",
			inputName: "prod-",
			wantErr:   true,
			errMsg:    "not at start/end",
		},
		{
			name:      "name with underscore",
			inputName: "prod_env",
			wantErr:   true,
			errMsg:    "must be lowercase alphanumeric",
		},
		{
			name:      "name with special characters",
			inputName: "prod@123",
			wantErr:   true,
			errMsg:    "must be lowercase alphanumeric",
		},
		{
			name:      "name too long",
			inputName: "this-is-a-very-long-instance-name-that-exceeds-the-maximum-length-of-63-characters",
			wantErr:   true,
			errMsg:    "too long",
		},
		{
			name:      "single character name",
			inputName: "a",
			wantErr:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.inputName)
			if tc.wantErr {
				assert.Error(t, err)
				if tc.errMsg != "" {
					assert.Contains(t, err.Error(), tc.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateName_MaxLength(t *testing.T) {
	// Test exactly 63 characters (max allowed)
	name63 := "a23456789012345678901234567890123456789012345678901234567890123"
	assert.Len(t, name63, 63)
	err := ValidateName(name63)
	assert.NoError(t, err)

	// Test 64 characters (too long)
	name64 := "a234567890123456789012345678901234567890123456789012345678901234"
	assert.Len(t, name64, 64)
	err = ValidateName(name64)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "too long")
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

func TestGenerateDefaultName(t *testing.T) {
	ctx := context.Background()

	t.Run("first name on empty redis", func(t *testing.T) {
		rdb, _ := setupRedis(t)
		name, err := GenerateDefaultName(ctx, rdb)
		require.NoError(t, err)
		assert.Equal(t, "default-1", name)
	})

	t.Run("next after highest existing", func(t *testing.T) {
		rdb, mr := setupRedis(t)
		mr.HSet(blackboard.StatsKey("default-1"), "movements", "3")
		mr.HSet(blackboard.StatsKey("default-4"), "movements", "3")
		mr.HSet(blackboard.StatsKey("prod"), "movements", "3")
		mr.HSet(blackboard.StatsKey("default-x"), "movements", "3")

		name, err := GenerateDefaultName(ctx, rdb)
		require.NoError(t, err)
		assert.Equal(t, "default-5", name)
	})

	t.Run("redis unavailable", func(t *testing.T) {
		rdb, mr := setupRedis(t)
		mr.Close()
		_, err := GenerateDefaultName(ctx, rdb)
		assert.ErrorContains(t, err, "failed to scan instances")
	})
}

func TestCheckNameCollision(t *testing.T) {
	ctx := context.Background()
	rdb, mr := setupRedis(t)

	taken, err := CheckNameCollision(ctx, rdb, "prod")
	require.NoError(t, err)
	assert.False(t, taken)

	mr.HSet(blackboard.StatsKey("prod"), "finished", "1")
	taken, err = CheckNameCollision(ctx, rdb, "prod")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit name wins", func(t *testing.T) {
		t.Setenv(config.EnvInstanceName, "from-env")
		rdb, _ := setupRedis(t)
		name, err := Resolve(ctx, rdb, "prod")
		require.NoError(t, err)
		assert.Equal(t, "prod", name)
	})

	t.Run("environment before generated", func(t *testing.T) {
		t.Setenv(config.EnvInstanceName, "from-env")
		rdb, _ := setupRedis(t)
		name, err := Resolve(ctx, rdb, "")
		require.NoError(t, err)
		assert.Equal(t, "from-env", name)
	})

	t.Run("generated when unset", func(t *testing.T) {
		t.Setenv(config.EnvInstanceName, "")
		rdb, _ := setupRedis(t)
		name, err := Resolve(ctx, rdb, "")
		require.NoError(t, err)
		assert.Equal(t, "default-1", name)
	})

	t.Run("invalid name rejected", func(t *testing.T) {
		rdb, _ := setupRedis(t)
		_, err := Resolve(ctx, rdb, "Bad_Name")
		assert.Error(t, err)
	})
}

func TestRandomName(t *testing.T) {
	a, b := RandomName(), RandomName()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "run-"))
	assert.NoError(t, ValidateName(a))
}

func TestDefaultRedisURL(t *testing.T) {
	t.Setenv(config.EnvRedisURL, "redis://cache:6380")
	assert.Equal(t, "redis://cache:6380", DefaultRedisURL())

	t.Setenv(config.EnvRedisURL, "")
	assert.Contains(t, DefaultRedisURL(), ":6379")
}
