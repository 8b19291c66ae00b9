package filter

import (
	"path/filepath"

	"github.com/dyluth/trove/pkg/blackboard"
)

// Criteria defines filtering criteria for simulation events.
// All filters are ANDed together - an event must match ALL criteria to pass.
type Criteria struct {
	SinceSeconds float64          // simulated time, 0 = no filter
	UntilSeconds float64          // simulated time, 0 = no filter
	TypeGlob     string           // glob pattern for event type, empty = no filter
	Agent        string           // exact match on the reporting agent, empty = no filter
	Color        blackboard.Color // exact match on event color, empty = no filter
}

// Matches returns true if the event matches all filter criteria.
// A nil Criteria matches everything.
func (c *Criteria) Matches(e *blackboard.Event) bool {
	if c == nil {
		return true
	}

	if c.SinceSeconds > 0 && e.SimTime < c.SinceSeconds {
		return false
	}
	if c.UntilSeconds > 0 && e.SimTime > c.UntilSeconds {
		return false
	}

	if c.TypeGlob != "" {
		matched, err := filepath.Match(c.TypeGlob, string(e.Type))
		if err != nil || !matched {
			return false
		}
	}

	if c.Agent != "" && e.Agent != c.Agent {
		return false
	}

	if c.Color != "" && e.Color != c.Color {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c != nil && (c.SinceSeconds > 0 ||
		c.UntilSeconds > 0 ||
		c.TypeGlob != "" ||
		c.Agent != "" ||
		c.Color != "")
}
