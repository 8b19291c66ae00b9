package sim

import (
	"github.com/dyluth/trove/internal/agent"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/dyluth/trove/pkg/geom"
)

// SensorRanges sizes the proximity zones in world units.
type SensorRanges struct {
	Detection  float64
	Contact    float64
	FrontRange float64
	FrontAngle float64 // half-angle in degrees
}

// zones is what one agent currently perceives, keyed by object.
type zones struct {
	detected  map[string]bool
	contact   map[string]bool
	front     map[string]bool
	movements int
}

func newZones() *zones {
	return &zones{
		detected: make(map[string]bool),
		contact:  make(map[string]bool),
		front:    make(map[string]bool),
	}
}

// Sensor replaces physics triggers with distance checks. Handlers fire only
// when an object enters a zone. An agent's detection zone is re-armed every
// time the agent picks a new target, so objects it is already standing next
// to are reported again.
type Sensor struct {
	ranges SensorRanges
	state  map[string]*zones
}

// NewSensor creates a sensor with the given ranges.
func NewSensor(r SensorRanges) *Sensor {
	return &Sensor{ranges: r, state: make(map[string]*zones)}
}

// Scan runs one sensing pass over every agent in order. Object state is
// read at the moment each handler is about to fire, so a gem collected
// earlier in the pass is not reported again.
func (s *Sensor) Scan(agents []*agent.Agent, gems []*blackboard.Gem, chests []*blackboard.Chest) {
	for _, a := range agents {
		z := s.zonesFor(a)
		if z.movements != a.Movements() {
			z.detected = make(map[string]bool)
			z.movements = a.Movements()
		}
		s.scanDetection(a, z, gems, chests)
		s.scanContact(a, z, agents, gems)
		s.scanFront(a, z, agents)
	}
}

func (s *Sensor) zonesFor(a *agent.Agent) *zones {
	z, ok := s.state[a.Name()]
	if !ok {
		z = newZones()
		z.movements = a.Movements()
		s.state[a.Name()] = z
	}
	return z
}

func (s *Sensor) scanDetection(a *agent.Agent, z *zones, gems []*blackboard.Gem, chests []*blackboard.Chest) {
	now := make(map[string]bool)
	pos := a.Position()

	for _, c := range chests {
		if pos.Dist(c.Position) > s.ranges.Detection {
			continue
		}
		key := "chest:" + c.ID
		now[key] = true
		if !z.detected[key] {
			a.OnZoneEnter(agent.Sighting{Category: agent.CategoryChest, Chest: c, Position: c.Position})
		}
	}

	for _, g := range gems {
		if g.Collected() || pos.Dist(g.Position) > s.ranges.Detection {
			continue
		}
		key := "gem:" + g.ID
		now[key] = true
		if !z.detected[key] {
			a.OnZoneEnter(agent.Sighting{Category: agent.CategoryGem, Gem: g, Position: g.Position})
		}
	}

	// The handlers may have retargeted the agent; in that case the next
	// pass starts from an empty zone anyway.
	z.detected = now
}

func (s *Sensor) scanContact(a *agent.Agent, z *zones, agents []*agent.Agent, gems []*blackboard.Gem) {
	now := make(map[string]bool)
	pos := a.Position()

	for _, g := range gems {
		if g.Collected() || pos.Dist(g.Position) > s.ranges.Contact {
			continue
		}
		key := "gem:" + g.ID
		now[key] = true
		if !z.contact[key] {
			a.OnContact(agent.Sighting{Category: agent.CategoryGem, Gem: g, Position: g.Position})
		}
	}

	for _, peer := range agents {
		if peer == a || pos.Dist(peer.Position()) > s.ranges.Contact {
			continue
		}
		key := "peer:" + peer.Name()
		now[key] = true
		if !z.contact[key] {
			a.OnContact(agent.Sighting{Category: agent.CategoryPeer, Peer: peer.Name(), Position: peer.Position()})
		}
	}

	z.contact = now
}

func (s *Sensor) scanFront(a *agent.Agent, z *zones, agents []*agent.Agent) {
	now := make(map[string]bool)
	pos := a.Position()
	yaw := a.Orientation().Yaw

	for _, peer := range agents {
		if peer == a {
			continue
		}
		dir := peer.Position().Sub(pos)
		dir.Y = 0
		d := dir.Len()
		if d > s.ranges.FrontRange {
			continue
		}
		if d > 0 && geom.AngleBetween(yaw, geom.YawTowards(dir)) > s.ranges.FrontAngle {
			continue
		}
		key := "peer:" + peer.Name()
		now[key] = true
		if !z.front[key] {
			a.OnObstacle(peer.Name())
		}
	}

	z.front = now
}
