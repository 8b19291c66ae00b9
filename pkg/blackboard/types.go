package blackboard

import (
	"fmt"
	"strings"

	"github.com/dyluth/trove/pkg/geom"
	"github.com/google/uuid"
)

// Color is the team an agent, gem or chest belongs to.
type Color string

const (
	ColorRed   Color = "red"
	ColorBlue  Color = "blue"
	ColorGreen Color = "green"
)

// AllColors lists the supported colors in spawn order.
var AllColors = []Color{ColorRed, ColorBlue, ColorGreen}

// Validate checks if the Color is a valid enum value.
func (c Color) Validate() error {
	switch c {
	case ColorRed, ColorBlue, ColorGreen:
		return nil
	default:
		return fmt.Errorf("unknown color: %q", c)
	}
}

// ParseColor accepts any capitalisation of a known color name.
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// GemState is the collection lifecycle of a gem. Delivered is terminal.
type GemState string

const (
	GemUncollected GemState = "uncollected"
	GemCarried     GemState = "carried"
	GemDelivered   GemState = "delivered"
)

// Gem is a collectible spawned on a grid cell. Once picked up it belongs to
// exactly one agent until it is delivered and removed from the simulation.
type Gem struct {
	ID       string    `json:"id"`
	Color    Color     `json:"color"`
	State    GemState  `json:"state"`
	Position geom.Vec3 `json:"position"` // spawn cell, used as the blackboard key
	Carrier  string    `json:"carrier,omitempty"`
}

// NewGem creates an uncollected gem at pos.
func NewGem(color Color, pos geom.Vec3) *Gem {
	return &Gem{
		ID:       uuid.New().String(),
		Color:    color,
		State:    GemUncollected,
		Position: pos,
	}
}

// Collected reports whether the gem has left the uncollected state.
func (g *Gem) Collected() bool {
	return g.State != GemUncollected
}

// Chest is a fixed delivery point for one color.
type Chest struct {
	ID       string    `json:"id"`
	Color    Color     `json:"color"`
	Position geom.Vec3 `json:"position"`
}

// EventType names a simulation occurrence worth reporting.
type EventType string

const (
	EventGemDiscovered EventType = "gem_discovered"
	EventGemReserved   EventType = "gem_reserved"
	EventGemReleased   EventType = "gem_released"
	EventGemCollected  EventType = "gem_collected"
	EventGemDelivered  EventType = "gem_delivered"
	EventCollision     EventType = "collision"
	EventAgentStuck    EventType = "agent_stuck"
	EventManeuver      EventType = "maneuver"
	EventFinished      EventType = "simulation_finished"
)

// Validate checks if the EventType is a valid enum value.
func (t EventType) Validate() error {
	switch t {
	case EventGemDiscovered, EventGemReserved, EventGemReleased, EventGemCollected,
		EventGemDelivered, EventCollision, EventAgentStuck, EventManeuver, EventFinished:
		return nil
	default:
		return fmt.Errorf("unknown event type: %q", t)
	}
}

// Event is a single reportable occurrence. Tick and SimTime are stamped by
// the engine; agents fill in the rest.
type Event struct {
	ID       string    `json:"id"`
	Type     EventType `json:"type"`
	Tick     int64     `json:"tick"`
	SimTime  float64   `json:"sim_time"`
	Agent    string    `json:"agent,omitempty"`
	Color    Color     `json:"color,omitempty"`
	Position geom.Vec3 `json:"position"`
	Detail   string    `json:"detail,omitempty"`
}

// NewEvent creates an event with a fresh ID.
func NewEvent(t EventType, agent string, color Color, pos geom.Vec3) *Event {
	return &Event{
		ID:       uuid.New().String(),
		Type:     t,
		Agent:    agent,
		Color:    color,
		Position: pos,
	}
}

// Validate checks if the Event has valid field values.
func (e *Event) Validate() error {
	if !isValidUUID(e.ID) {
		return fmt.Errorf("invalid event ID: not a valid UUID")
	}
	if err := e.Type.Validate(); err != nil {
		return fmt.Errorf("invalid event type: %w", err)
	}
	if e.Color != "" {
		if err := e.Color.Validate(); err != nil {
			return fmt.Errorf("invalid event color: %w", err)
		}
	}
	if e.Tick < 0 {
		return fmt.Errorf("invalid tick: must be >= 0, got %d", e.Tick)
	}
	return nil
}

// Sink receives events as they happen. Implementations must not retain the
// board or call back into agents.
type Sink interface {
	Emit(e *Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e *Event)

func (f SinkFunc) Emit(e *Event) { f(e) }

// Stats is a point-in-time summary of the run counters.
type Stats struct {
	MissingGems    int     `json:"missing_gems"`
	TotalGems      int     `json:"total_gems"`
	Collisions     int     `json:"collisions"`
	Movements      int     `json:"movements"`
	Visited        int     `json:"visited"`
	Reserved       int     `json:"reserved"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Finished       bool    `json:"finished"`
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
