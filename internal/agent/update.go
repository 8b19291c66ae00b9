package agent

import (
	"fmt"

	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/dyluth/trove/pkg/geom"
)

// Update advances the agent by dt seconds. The order is fixed: refresh the
// shared position, turn or move toward the target, handle arrival, check
// for being stuck, then tick down the collision cooldown and any yield
// maneuver.
func (a *Agent) Update(dt float64) {
	if dt <= 0 {
		return
	}

	a.board.AgentPositions.Move(a.registered, a.pos)
	a.registered = a.pos
	a.orient = a.orient.Upright()

	if a.rotating {
		a.rotate(dt)
	} else {
		a.pos = geom.MoveTowards(a.pos, a.target, a.Speed()*dt)
		if a.pos.Dist(a.target) < a.cfg.ArrivalTolerance {
			a.arrive()
		}
	}

	a.checkStuck(dt)

	if a.cooldown > 0 {
		a.cooldown -= dt
		if a.cooldown < 0 {
			a.cooldown = 0
		}
	}
	a.advanceManeuver(dt)
}

func (a *Agent) rotate(dt float64) {
	a.orient.Yaw = geom.RotateTowards(a.orient.Yaw, a.targetYaw, a.cfg.RotationSpeed*dt)
	if geom.AngleBetween(a.orient.Yaw, a.targetYaw) < 1 {
		a.orient.Yaw = a.targetYaw
		a.rotating = false
	}
}

func (a *Agent) arrive() {
	if a.hasClaim && a.claim == a.target {
		a.releaseClaim()
	}
	if pos, ok := a.reservation.Position(); ok && pos == a.target && a.carried == nil {
		a.releaseReservation("gone before arrival")
	}
	if !a.delivering {
		a.FindNextTarget()
	}
}

func (a *Agent) checkStuck(dt float64) {
	if a.pos.Dist(a.lastPos) >= a.cfg.StuckDistance {
		a.stuckTimer = 0
		a.lastPos = a.pos
		return
	}
	a.stuckTimer += dt
	if a.stuckTimer >= a.cfg.StuckThreshold {
		a.ForceReset()
	}
}

// ForceReset abandons the current plan after the agent failed to make
// progress. A carrying agent heads back to its chest; otherwise any
// reservation is released so another agent can take the gem, and the agent
// moves to a fresh exploration cell. A yield maneuver in progress keeps
// running.
func (a *Agent) ForceReset() {
	a.stuckTimer = 0
	a.lastPos = a.pos
	a.releaseClaim()
	a.emit(blackboard.EventAgentStuck, a.pos, fmt.Sprintf("target %s", a.target))

	if a.carried != nil {
		a.delivering = true
		a.setNewTarget(a.chest())
		return
	}
	a.releaseReservation("stuck")
	a.setNewTarget(a.FindUnvisitedNeighbor())
}

// setNewTarget points the agent at t and starts turning toward it. Every
// call counts as one movement decision.
func (a *Agent) setNewTarget(t geom.Vec3) {
	if a.hasClaim && a.claim != t {
		a.releaseClaim()
	}
	a.board.RecordMovement()
	a.movements++
	a.target = t

	dir := t.Sub(a.pos)
	dir.Y = 0
	if dir.IsZero() {
		a.rotating = false
		return
	}
	a.targetYaw = geom.YawTowards(dir)
	a.rotating = true
}
