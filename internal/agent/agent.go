// Package agent implements the per-agent decision loop: exploration target
// selection, gem reservation, pickup and delivery, stuck recovery and the
// yield rule that breaks head-on standoffs between two agents.
//
// Agents never talk to each other. Everything they know about the team comes
// from the shared blackboard, and everything they decide is written back to
// it before the next agent runs.
package agent

import (
	"math/rand"

	"github.com/dyluth/trove/internal/grid"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/dyluth/trove/pkg/geom"
)

// Config holds the tunable behaviour constants.
type Config struct {
	Speed             float64 // units per second
	RotationSpeed     float64 // degrees per second
	ArrivalTolerance  float64 // distance at which a target counts as reached
	StuckThreshold    float64 // seconds without progress before a forced reset
	StuckDistance     float64 // displacement below which the agent counts as not moving
	CollisionCooldown float64 // seconds during which repeated contacts are ignored
	HaltDuration      float64 // seconds the yielding-by-halting agent stands still
	TurnDuration      float64 // seconds the turning agent pauses after its turn
	TurnAngle         float64 // degrees turned when giving way
	StepDistance      float64 // distance stepped after turning; usually one cell
	RandomRetries     int     // cap on random exploration samples
}

// DefaultConfig returns the standard behaviour constants.
func DefaultConfig() Config {
	return Config{
		Speed:             5,
		RotationSpeed:     360,
		ArrivalTolerance:  0.1,
		StuckThreshold:    3,
		StuckDistance:     0.05,
		CollisionCooldown: 0.5,
		HaltDuration:      0.4,
		TurnDuration:      0.3,
		TurnAngle:         90,
		StepDistance:      1,
		RandomRetries:     1000,
	}
}

// Agent is one autonomous collector. All methods must be called from the
// simulation goroutine.
type Agent struct {
	name  string
	color blackboard.Color
	cfg   Config

	world *grid.World
	board *blackboard.Board
	rng   *rand.Rand
	sink  blackboard.Sink

	pos        geom.Vec3
	registered geom.Vec3 // position last written to board.AgentPositions
	orient     geom.Orientation

	target    geom.Vec3
	targetYaw float64
	rotating  bool
	claim     geom.Vec3
	hasClaim  bool

	carried     *blackboard.Gem
	delivering  bool
	reservation Reservation

	stuckTimer float64
	lastPos    geom.Vec3
	cooldown   float64
	maneuver   maneuver
	movements  int
}

// New creates an agent standing at spawn and registers its position on the
// board. The agent starts idle: its first Update picks a target.
func New(name string, color blackboard.Color, spawn geom.Vec3, world *grid.World, board *blackboard.Board, rng *rand.Rand, cfg Config, sink blackboard.Sink) *Agent {
	a := &Agent{
		name:       name,
		color:      color,
		cfg:        cfg,
		world:      world,
		board:      board,
		rng:        rng,
		sink:       sink,
		pos:        spawn,
		registered: spawn,
		target:     spawn,
		lastPos:    spawn,
	}
	board.AgentPositions.Add(spawn)
	return a
}

func (a *Agent) Name() string                  { return a.name }
func (a *Agent) Color() blackboard.Color       { return a.color }
func (a *Agent) Position() geom.Vec3           { return a.pos }
func (a *Agent) Orientation() geom.Orientation { return a.orient }
func (a *Agent) Target() geom.Vec3             { return a.target }
func (a *Agent) Rotating() bool                { return a.rotating }
func (a *Agent) Delivering() bool              { return a.delivering }
func (a *Agent) Reservation() Reservation      { return a.reservation }

// Carrying returns the gem the agent holds, or nil.
func (a *Agent) Carrying() *blackboard.Gem {
	return a.carried
}

// Claim returns the cell this agent has claimed as its next step, if any.
func (a *Agent) Claim() (geom.Vec3, bool) {
	return a.claim, a.hasClaim
}

// Movements is the number of times this agent has picked a new target.
// Sensors use it to re-arm detection after a retarget.
func (a *Agent) Movements() int {
	return a.movements
}

// Speed is the current effective speed: zero while a yield maneuver holds
// the agent in place.
func (a *Agent) Speed() float64 {
	if a.maneuver.active() {
		return 0
	}
	return a.cfg.Speed
}

// Maneuvering reports whether a yield maneuver is in progress.
func (a *Agent) Maneuvering() bool {
	return a.maneuver.active()
}

func (a *Agent) chest() geom.Vec3 {
	return a.board.For(a.color).Chest
}

func (a *Agent) emit(t blackboard.EventType, pos geom.Vec3, detail string) {
	if a.sink == nil {
		return
	}
	e := blackboard.NewEvent(t, a.name, a.color, pos)
	e.Detail = detail
	a.sink.Emit(e)
}
