package agent

import (
	"fmt"

	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/dyluth/trove/pkg/geom"
)

// Category is the kind of object a sensor reports.
type Category int

const (
	CategoryGem Category = iota
	CategoryChest
	CategoryPeer
)

func (c Category) String() string {
	switch c {
	case CategoryGem:
		return "gem"
	case CategoryChest:
		return "chest"
	case CategoryPeer:
		return "peer"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Sighting describes one object entering a sensor zone. Exactly one of Gem,
// Chest or Peer is set, matching Category.
type Sighting struct {
	Category Category
	Gem      *blackboard.Gem
	Chest    *blackboard.Chest
	Peer     string
	Position geom.Vec3
}

// OnZoneEnter handles an object entering the detection zone.
func (a *Agent) OnZoneEnter(s Sighting) {
	switch s.Category {
	case CategoryChest:
		if s.Chest != nil && a.carried != nil && s.Chest.Color == a.color {
			a.deliver()
		}
	case CategoryGem:
		if s.Gem != nil {
			a.onGem(s.Gem)
		}
	}
}

// OnObstacle handles another agent entering the front cone. The agent whose
// name sorts first turns aside and steps away; the other halts briefly.
// Both sides apply the rule independently and always agree on the roles.
func (a *Agent) OnObstacle(peer string) {
	if a.cooldown > 0 {
		return
	}
	a.cooldown = a.cfg.CollisionCooldown
	if a.name < peer {
		a.startTurn(peer)
	} else {
		a.startHalt(peer)
	}
}

// OnContact handles physical contact. The contact is first treated as a
// detection, then counted as a collision unless it was the agent picking up
// its own gem or the cooldown is still running.
func (a *Agent) OnContact(s Sighting) {
	pickup := s.Category == CategoryGem && s.Gem != nil &&
		s.Gem.Color == a.color && a.carried == nil

	a.OnZoneEnter(s)

	if s.Category != CategoryPeer && s.Category != CategoryGem {
		return
	}
	if pickup || a.cooldown > 0 {
		return
	}
	a.cooldown = a.cfg.CollisionCooldown
	a.board.RecordCollision()
	detail := s.Category.String()
	if s.Category == CategoryPeer {
		detail = s.Peer
	}
	a.emit(blackboard.EventCollision, a.pos, detail)
}

func (a *Agent) onGem(g *blackboard.Gem) {
	pos := g.Position

	if g.Color != a.color {
		a.board.BlockForOthers(g.Color, pos)
		a.board.Visited.Add(pos)
		if a.board.For(g.Color).Found.Add(pos) {
			e := blackboard.NewEvent(blackboard.EventGemDiscovered, a.name, g.Color, pos)
			e.Detail = "spotted for " + string(g.Color)
			a.emitEvent(e)
		}
		return
	}

	if g.Collected() {
		return
	}

	if a.carried != nil {
		// Hands are full: remember it so a teammate can come for it.
		a.board.BlockForOthers(g.Color, pos)
		if a.board.For(a.color).Found.Add(pos) {
			a.emit(blackboard.EventGemDiscovered, pos, "hands full")
		}
		return
	}

	a.collect(g)
}

func (a *Agent) collect(g *blackboard.Gem) {
	pos := g.Position
	g.State = blackboard.GemCarried
	g.Carrier = a.name
	a.carried = g

	a.board.Visited.Add(pos)
	a.board.For(a.color).Found.Remove(pos)
	a.board.UnblockForOthers(a.color, pos)
	a.releaseReservation("collected")
	a.emit(blackboard.EventGemCollected, pos, g.ID)

	a.delivering = true
	a.setNewTarget(a.chest())
}

func (a *Agent) deliver() {
	g := a.carried
	g.State = blackboard.GemDelivered
	a.carried = nil
	a.delivering = false
	a.releaseReservation("delivered")

	remaining := a.board.Deliver()
	a.emit(blackboard.EventGemDelivered, a.pos, fmt.Sprintf("%d remaining", remaining))

	next := a.FindUnvisitedNeighbor()
	a.setNewTarget(next)
	a.board.Visited.Add(next)
}

func (a *Agent) emitEvent(e *blackboard.Event) {
	if a.sink != nil {
		a.sink.Emit(e)
	}
}
