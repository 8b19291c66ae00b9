package agent

import (
	"math"

	"github.com/dyluth/trove/pkg/geom"
)

// FindNextTarget picks what to do after reaching a target. In priority
// order: deliver a carried gem, go to the nearest free gem of the agent's
// color, or explore an adjacent cell.
func (a *Agent) FindNextTarget() {
	if a.carried != nil {
		a.delivering = true
		a.setNewTarget(a.chest())
		return
	}

	if pos, ok := a.nextGem(); ok {
		a.setNewTarget(pos)
		return
	}

	next := a.FindUnvisitedNeighbor()
	a.setNewTarget(next)
	a.board.Visited.Add(next)
}

// nextGem returns the gem to head for. A reservation whose gem is still
// waiting in the found list is kept; otherwise the nearest unreserved gem
// is reserved.
func (a *Agent) nextGem() (geom.Vec3, bool) {
	found := a.board.For(a.color).Found
	if pos, ok := a.reservation.Position(); ok {
		if found.Contains(pos) {
			return pos, true
		}
		a.releaseReservation("no longer listed")
	}

	best, ok := a.nearestUnreserved()
	if !ok {
		return geom.Zero, false
	}
	a.reserve(best)
	return best, true
}

// nearestUnreserved scans the found list in insertion order; the earliest
// entry wins a distance tie.
func (a *Agent) nearestUnreserved() (geom.Vec3, bool) {
	var best geom.Vec3
	minDist := math.Inf(1)
	ok := false
	for _, p := range a.board.For(a.color).Found.Items() {
		if a.board.Reserved.Contains(p) {
			continue
		}
		if d := a.pos.Dist(p); d < minDist {
			minDist = d
			best = p
			ok = true
		}
	}
	return best, ok
}

// FindUnvisitedNeighbor claims the first neighbouring cell, in the fixed
// +row, +col, -row, -col order, that no agent has visited, claimed or
// occupies and that is not blocked for this agent's color. With no such
// neighbour it falls back to a random cell that is not a chest.
func (a *Agent) FindUnvisitedNeighbor() geom.Vec3 {
	cur := a.world.NearestCell(a.pos)
	blocked := a.board.For(a.color).Blocked

	for _, n := range a.world.Neighbors(cur) {
		p := a.world.At(n)
		if a.board.Visited.Contains(p) ||
			a.board.AgentNext.Contains(p) ||
			a.board.AgentPositions.Contains(p) ||
			blocked.Contains(p) {
			continue
		}
		a.releaseClaim()
		a.board.AgentNext.Add(p)
		a.claim = p
		a.hasClaim = true
		return p
	}

	return a.randomExplorationCell()
}

// randomExplorationCell samples a non-chest cell, staying on the current
// target if sampling gives up.
func (a *Agent) randomExplorationCell() geom.Vec3 {
	if p, ok := a.world.RandomCell(a.rng, a.board.IsChest, a.cfg.RandomRetries); ok {
		return p
	}
	return a.target
}

func (a *Agent) releaseClaim() {
	if !a.hasClaim {
		return
	}
	a.board.AgentNext.Remove(a.claim)
	a.hasClaim = false
}
