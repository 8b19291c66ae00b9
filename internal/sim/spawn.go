package sim

import (
	"fmt"
	"log"

	"github.com/dyluth/trove/internal/agent"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/dyluth/trove/pkg/geom"
	"github.com/google/uuid"
)

// spawnChests puts one chest per color in the corners of the usable area,
// in color order.
func (e *Engine) spawnChests() {
	corners := e.world.Corners()
	for i, color := range e.colors {
		pos := corners[i%len(corners)]
		chest := &blackboard.Chest{ID: uuid.New().String(), Color: color, Position: pos}
		e.chests = append(e.chests, chest)
		e.board.RegisterChest(color, pos)
	}
}

// spawnAgents places agents on random free cells, assigning colors round
// robin. Spawn cells count as visited.
func (e *Engine) spawnAgents(occupied map[geom.Vec3]bool) {
	perColor := make(map[blackboard.Color]int)
	cfg := e.agentConfig()

	for i := 0; i < e.cfg.Agents.Count; i++ {
		color := e.colors[i%len(e.colors)]
		pos, ok := e.world.RandomFree(e.rng, occupied)
		if !ok {
			log.Printf("[Sim] No free position for %s agent, skipping", color)
			continue
		}
		occupied[pos] = true
		perColor[color]++

		name := fmt.Sprintf("%s-%d", color, perColor[color])
		e.agents = append(e.agents, agent.New(name, color, pos, e.world, e.board, e.rng, cfg, e))
		e.board.Visited.Add(pos)
	}
}

// spawnGems places gems of every color on random free cells and returns how
// many were placed.
func (e *Engine) spawnGems(occupied map[geom.Vec3]bool) int {
	placed := 0
	for _, color := range e.colors {
		for k := 0; k < e.cfg.Gems.PerColor; k++ {
			pos, ok := e.world.RandomFree(e.rng, occupied)
			if !ok {
				log.Printf("[Sim] No free position for %s gem, skipping", color)
				continue
			}
			occupied[pos] = true
			e.gems = append(e.gems, blackboard.NewGem(color, pos))
			placed++
		}
	}
	return placed
}

func (e *Engine) agentConfig() agent.Config {
	b := e.cfg.Behaviour
	cfg := agent.DefaultConfig()
	cfg.Speed = b.Speed
	cfg.RotationSpeed = b.RotationSpeed
	cfg.ArrivalTolerance = b.ArrivalTolerance
	cfg.StuckThreshold = b.StuckThreshold
	cfg.StuckDistance = b.StuckDistance
	cfg.CollisionCooldown = b.CollisionCooldown
	cfg.HaltDuration = b.HaltDuration
	cfg.TurnDuration = b.TurnDuration
	cfg.TurnAngle = b.TurnAngle
	cfg.StepDistance = e.world.CellSize()
	return cfg
}
