package agent

import (
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/dyluth/trove/pkg/geom"
)

type maneuverKind int

const (
	maneuverNone maneuverKind = iota
	maneuverHalt
	maneuverTurn
)

// maneuver is a timed yield in progress. While active the agent's speed is
// zero.
type maneuver struct {
	kind      maneuverKind
	remaining float64
}

func (m maneuver) active() bool {
	return m.kind != maneuverNone
}

func (a *Agent) startHalt(peer string) {
	a.maneuver = maneuver{kind: maneuverHalt, remaining: a.cfg.HaltDuration}
	a.emit(blackboard.EventManeuver, a.pos, "halt for "+peer)
}

func (a *Agent) startTurn(peer string) {
	a.maneuver = maneuver{kind: maneuverTurn, remaining: a.cfg.TurnDuration}
	a.orient.Yaw += a.cfg.TurnAngle
	a.rotating = false
	a.emit(blackboard.EventManeuver, a.pos, "turn away from "+peer)
}

// advanceManeuver ticks the maneuver timer. When a turn completes the agent
// gives up its claimed cell and steps one cell in its new facing direction.
func (a *Agent) advanceManeuver(dt float64) {
	if !a.maneuver.active() {
		return
	}
	a.maneuver.remaining -= dt
	if a.maneuver.remaining > 1e-9 {
		return
	}

	kind := a.maneuver.kind
	a.maneuver = maneuver{}
	if kind != maneuverTurn {
		return
	}

	a.releaseClaim()
	a.board.Visited.Add(a.pos)
	step := a.pos.Add(geom.Forward(a.orient.Yaw).Scale(a.cfg.StepDistance))
	a.setNewTarget(a.world.At(a.world.NearestCell(step)))
}
