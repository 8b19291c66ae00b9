// Package blackboard provides the shared coordination state for trove agents.
//
// # Overview
//
// The blackboard is the one place agents learn from each other. No agent
// talks to another directly: each tick an agent reads what the team knows
// (which cells were explored, which gems were spotted, which gems are already
// spoken for) and writes back what it just learned or decided.
//
// # Core Concepts
//
// Visited cells grow monotonically and steer exploration away from ground
// already covered.
//
// Blocked cells are kept per color. A gem of one color is an obstacle for
// every other color until its own color collects it. Chests block every
// color.
//
// Found gems are kept per color in discovery order. An agent that has
// nothing to carry reserves the nearest unreserved gem of its color, so two
// agents never converge on the same pickup.
//
// Claimed next cells stop two agents from choosing the same free cell as
// their next step.
//
// # Redis Mirror
//
// A run can optionally be mirrored to Redis so that `trove watch` can follow
// it from another process. All keys follow trove:{instance_name}:{entity}.
//
// Stats: trove:{instance_name}:stats (hash)
// Visited: trove:{instance_name}:visited (set of "x,y,z")
// Reserved: trove:{instance_name}:reserved (set of "x,y,z")
// Found: trove:{instance_name}:found:{color} (list of "x,y,z")
//
// Events: trove:{instance_name}:sim_events (Pub/Sub, JSON)
//
// # Usage Example
//
//	board := blackboard.NewBoard(blackboard.AllColors)
//	board.RegisterChest(blackboard.ColorRed, geom.V(-4, 0, -4))
//	board.SeedGems(3)
//
//	red := board.For(blackboard.ColorRed)
//	red.Found.Add(geom.V(1.5, 0, 0.5))
package blackboard
