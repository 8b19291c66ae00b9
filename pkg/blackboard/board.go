package blackboard

import "github.com/dyluth/trove/pkg/geom"

// ColorBoard groups the per-color knowledge: gems of this color that have
// been seen but not collected, cells this color must not target, and the
// color's delivery chest.
type ColorBoard struct {
	Color    Color
	Found    *PositionQueue
	Blocked  *PositionSet
	Chest    geom.Vec3
	HasChest bool
}

// Board is the shared coordination state for one run. It is created by the
// simulation engine and handed to every agent.
//
// Board has no internal locking. The engine steps agents one at a time and
// every decision runs to completion before the next one starts; callers that
// step agents in parallel must serialise access themselves.
type Board struct {
	// Visited only grows: cells any agent has targeted or passed through.
	Visited *PositionSet
	// AgentPositions holds every agent's current position, refreshed each tick.
	AgentPositions *PositionBag
	// AgentNext holds cells claimed as a movement target but not yet reached.
	AgentNext *PositionSet
	// Reserved holds gem positions some agent is travelling to pick up.
	Reserved *PositionSet

	MissingGems int
	TotalGems   int
	Collisions  int
	Movements   int

	colors map[Color]*ColorBoard
	order  []Color
}

// NewBoard creates an empty board for the given colors.
func NewBoard(colors []Color) *Board {
	b := &Board{
		Visited:        NewPositionSet(),
		AgentPositions: NewPositionBag(),
		AgentNext:      NewPositionSet(),
		Reserved:       NewPositionSet(),
		colors:         make(map[Color]*ColorBoard, len(colors)),
	}
	for _, c := range colors {
		b.For(c)
	}
	return b
}

// For returns the per-color view, creating it on first use.
func (b *Board) For(c Color) *ColorBoard {
	cb, ok := b.colors[c]
	if !ok {
		cb = &ColorBoard{
			Color:   c,
			Found:   NewPositionQueue(),
			Blocked: NewPositionSet(),
		}
		b.colors[c] = cb
		b.order = append(b.order, c)
	}
	return cb
}

// Colors returns the colors known to the board in registration order.
func (b *Board) Colors() []Color {
	out := make([]Color, len(b.order))
	copy(out, b.order)
	return out
}

// RegisterChest records the delivery point for color. The chest cell is
// marked visited and blocked for every color, its own included: agents
// reach their chest through delivery targeting, never through exploration.
func (b *Board) RegisterChest(color Color, pos geom.Vec3) {
	cb := b.For(color)
	cb.Chest = pos
	cb.HasChest = true
	b.Visited.Add(pos)
	for _, c := range b.order {
		b.colors[c].Blocked.Add(pos)
	}
}

// IsChest reports whether pos is any registered chest position.
func (b *Board) IsChest(pos geom.Vec3) bool {
	for _, c := range b.order {
		cb := b.colors[c]
		if cb.HasChest && cb.Chest == pos {
			return true
		}
	}
	return false
}

// SeedGems sets the number of gems that must be delivered to finish.
func (b *Board) SeedGems(n int) {
	b.TotalGems = n
	b.MissingGems = n
}

// BlockForOthers marks a gem of gemColor as an obstacle for every other
// color. Returns true if any blocked set changed.
func (b *Board) BlockForOthers(gemColor Color, pos geom.Vec3) bool {
	changed := false
	for _, c := range b.order {
		if c == gemColor {
			continue
		}
		if b.colors[c].Blocked.Add(pos) {
			changed = true
		}
	}
	return changed
}

// UnblockForOthers undoes BlockForOthers once the gem has been collected.
func (b *Board) UnblockForOthers(gemColor Color, pos geom.Vec3) {
	for _, c := range b.order {
		if c == gemColor {
			continue
		}
		b.colors[c].Blocked.Remove(pos)
	}
}

// Deliver records one delivered gem and returns how many remain. The
// counter never goes below zero.
func (b *Board) Deliver() int {
	if b.MissingGems > 0 {
		b.MissingGems--
	}
	return b.MissingGems
}

func (b *Board) RecordCollision() {
	b.Collisions++
}

func (b *Board) RecordMovement() {
	b.Movements++
}

// Snapshot returns the current counters. ElapsedSeconds and Finished are
// left for the engine to fill in.
func (b *Board) Snapshot() Stats {
	return Stats{
		MissingGems: b.MissingGems,
		TotalGems:   b.TotalGems,
		Collisions:  b.Collisions,
		Movements:   b.Movements,
		Visited:     b.Visited.Len(),
		Reserved:    b.Reserved.Len(),
	}
}
