package printer

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestErrorWithContext(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		context := map[string]string{
			"Config":   "/path/to/trove.yml",
			"Instance": "test-instance",
		}
		err := ErrorWithContext("Test Error", "Explanation", context, []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		context := map[string]string{"Key": "Value"}
		err := ErrorWithContext("Test Error", "Explanation", context, []string{"Fix it"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestSummary(t *testing.T) {
	t.Run("completed run", func(t *testing.T) {
		var buf bytes.Buffer
		Summary(&buf, RunSummary{
			Instance:   "run-1",
			Seed:       42,
			Completed:  true,
			Ticks:      1500,
			Elapsed:    "00:30",
			Delivered:  6,
			TotalGems:  6,
			Collisions: 4,
			Movements:  210,
			Visited:    64,
		})

		out := buf.String()
		assert.Contains(t, out, "All gems delivered")
		assert.Contains(t, out, "Time:       00:30")
		assert.Contains(t, out, "Gems:       6/6")
		assert.Contains(t, out, "Collisions: 4")
		assert.Contains(t, out, "Movements:  210")
	})

	t.Run("stopped run omits empty instance", func(t *testing.T) {
		var buf bytes.Buffer
		Summary(&buf, RunSummary{Delivered: 2, TotalGems: 6, Elapsed: "10:00"})

		out := buf.String()
		assert.Contains(t, out, "2 of 6 gems delivered")
		assert.NotContains(t, out, "Instance:")
	})
}

// Note: The Error and ErrorWithContext functions print formatted output to stderr
// with colors. The error object returned only contains the title for Cobra's error handling.
// This is intentional to avoid duplicate output while providing rich formatted errors.

// captureColor redirects colored output into a buffer for the test.
func captureColor(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	orig := color.Output
	color.Output = buf
	t.Cleanup(func() { color.Output = orig })
	return buf
}

// captureStdout collects everything fn writes to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	fn()
	os.Stdout = orig
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestSuccess(t *testing.T) {
	buf := captureColor(t)

	Success("Mirroring as instance '%s'\n", "prod")
	assert.Contains(t, buf.String(), "✓ Mirroring as instance 'prod'")

	buf.Reset()
	Success("✓ already marked\n")
	assert.Equal(t, 1, strings.Count(buf.String(), "✓"), "prefix is not doubled")
}

func TestStep(t *testing.T) {
	buf := captureColor(t)

	Step("Connecting Redis mirror at %s...\n", "redis://localhost:6379")
	assert.Contains(t, buf.String(), "→ Connecting Redis mirror at redis://localhost:6379...")
}

func TestPlainOutput(t *testing.T) {
	out := captureStdout(t, func() {
		Println("Created:")
		Printf("  ✓ %s\n", "trove.yml")
	})
	assert.Equal(t, "Created:\n  ✓ trove.yml\n", out)
}
