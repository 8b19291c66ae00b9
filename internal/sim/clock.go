package sim

import "fmt"

// Clock accumulates simulated seconds. Once paused it ignores Advance.
type Clock struct {
	elapsed float64
	paused  bool
}

// Advance adds dt seconds unless the clock is paused.
func (c *Clock) Advance(dt float64) {
	if c.paused || dt <= 0 {
		return
	}
	c.elapsed += dt
}

func (c *Clock) Pause()           { c.paused = true }
func (c *Clock) Paused() bool     { return c.paused }
func (c *Clock) Elapsed() float64 { return c.elapsed }

// Format renders the elapsed time as mm:ss. Minutes keep growing past 59.
func (c *Clock) Format() string {
	return FormatElapsed(c.elapsed)
}

// FormatElapsed renders seconds as mm:ss, truncating fractions.
func FormatElapsed(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
