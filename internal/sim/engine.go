// Package sim runs a complete gem-collecting scenario: it lays out the
// world, spawns chests, agents and gems, and steps every agent through a
// single-threaded tick loop until all gems are delivered.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/dyluth/trove/internal/agent"
	"github.com/dyluth/trove/internal/config"
	"github.com/dyluth/trove/internal/grid"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/dyluth/trove/pkg/geom"
)

// Options carries the optional collaborators of an engine.
type Options struct {
	InstanceName string          // used in structured logs and Redis keys
	Mirror       *Mirror         // nil disables the Redis mirror
	Metrics      *Metrics        // nil disables Prometheus collection
	Sink         blackboard.Sink // receives every event after it is stamped
	Quiet        bool            // suppresses per-event structured logs
}

// Result summarises a finished or interrupted run.
type Result struct {
	Completed bool
	Ticks     int64
	Seed      int64
	Elapsed   string
	Stats     blackboard.Stats
}

// Engine owns every piece of run state. It is not safe for concurrent use:
// Step and Run must be called from one goroutine.
type Engine struct {
	cfg          *config.TroveConfig
	instanceName string
	seed         int64

	world  *grid.World
	board  *blackboard.Board
	rng    *rand.Rand
	colors []blackboard.Color

	agents []*agent.Agent
	gems   []*blackboard.Gem
	chests []*blackboard.Chest

	sensor  *Sensor
	clock   *Clock
	watcher *Watcher

	mirror  *Mirror
	metrics *Metrics
	sink    blackboard.Sink
	quiet   bool

	pending  []*blackboard.Event
	tick     int64
	finished bool
}

// NewEngine builds the world and spawns everything for one run. A zero seed
// in the config is replaced with one taken from the clock.
func NewEngine(cfg *config.TroveConfig, opts Options) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	world, err := grid.Build(cfg.Stage.Width, cfg.Stage.Depth, cfg.Stage.CellSize, cfg.Stage.Margin, geom.Zero)
	if err != nil {
		return nil, fmt.Errorf("failed to build grid: %w", err)
	}

	seed := cfg.Run.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	colors := cfg.ActiveColors()
	e := &Engine{
		cfg:          cfg,
		instanceName: opts.InstanceName,
		seed:         seed,
		world:        world,
		board:        blackboard.NewBoard(colors),
		rng:          rand.New(rand.NewSource(seed)),
		colors:       colors,
		clock:        &Clock{},
		mirror:       opts.Mirror,
		metrics:      opts.Metrics,
		sink:         opts.Sink,
		quiet:        opts.Quiet,
	}

	cell := world.CellSize()
	e.sensor = NewSensor(SensorRanges{
		Detection:  cfg.Sensing.DetectionRadius * cell,
		Contact:    cfg.Sensing.ContactRadius * cell,
		FrontRange: cfg.Sensing.FrontRange * cell,
		FrontAngle: cfg.Sensing.FrontAngle,
	})
	e.watcher = NewWatcher(e.finish)

	e.spawnChests()
	occupied := make(map[geom.Vec3]bool)
	e.spawnAgents(occupied)
	placed := e.spawnGems(occupied)
	e.board.SeedGems(placed)

	sort.Slice(e.agents, func(i, j int) bool {
		return e.agents[i].Name() < e.agents[j].Name()
	})

	e.logEvent("simulation_started", map[string]interface{}{
		"seed":   seed,
		"rows":   world.Rows(),
		"cols":   world.Cols(),
		"origin": world.Origin().String(),
		"agents": len(e.agents),
		"gems":   placed,
		"colors": len(colors),
	})

	return e, nil
}

func (e *Engine) World() *grid.World          { return e.world }
func (e *Engine) Board() *blackboard.Board    { return e.board }
func (e *Engine) Agents() []*agent.Agent      { return e.agents }
func (e *Engine) Gems() []*blackboard.Gem     { return e.gems }
func (e *Engine) Chests() []*blackboard.Chest { return e.chests }
func (e *Engine) Clock() *Clock               { return e.clock }
func (e *Engine) Seed() int64                 { return e.seed }
func (e *Engine) Tick() int64                 { return e.tick }
func (e *Engine) Finished() bool              { return e.finished }

// Stats returns the current counters with the clock reading filled in.
func (e *Engine) Stats() blackboard.Stats {
	s := e.board.Snapshot()
	s.ElapsedSeconds = e.clock.Elapsed()
	s.Finished = e.finished
	return s
}

// Emit implements blackboard.Sink. Events raised during a tick are stamped
// and queued, then delivered once the tick's decisions are complete.
func (e *Engine) Emit(ev *blackboard.Event) {
	ev.Tick = e.tick
	ev.SimTime = e.clock.Elapsed()
	e.pending = append(e.pending, ev)
}

// Step runs one global tick: sensing, every agent's update in name order,
// then the end-of-run check. It returns false once the run has finished, and
// does nothing after that.
func (e *Engine) Step(ctx context.Context) bool {
	if e.finished {
		return false
	}

	e.tick++
	dt := e.cfg.Run.Tick

	e.sensor.Scan(e.agents, e.gems, e.chests)
	for _, a := range e.agents {
		a.Update(dt)
	}
	e.clock.Advance(dt)
	e.watcher.Check(e.board)

	e.flush(ctx)

	stats := e.Stats()
	if e.metrics != nil {
		e.metrics.ObserveTick(stats)
	}
	if e.mirror != nil && (e.finished || e.mirror.Due(e.tick)) {
		if err := e.mirror.Sync(ctx, e.board, stats); err != nil {
			log.Printf("[Sim] Mirror sync failed at tick %d: %v", e.tick, err)
		}
	}

	return !e.finished
}

// Run steps the simulation until every gem is delivered, the tick limit is
// reached or ctx is cancelled. With run.realtime set each tick waits for a
// wall-clock tick of the same length.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	log.Printf("[Sim] Starting run for instance '%s' (seed %d)", e.instanceName, e.seed)

	var pace <-chan time.Time
	if e.cfg.Run.Realtime {
		ticker := time.NewTicker(time.Duration(e.cfg.Run.Tick * float64(time.Second)))
		defer ticker.Stop()
		pace = ticker.C
	}

	for !e.finished {
		if e.cfg.Run.MaxTicks > 0 && e.tick >= int64(e.cfg.Run.MaxTicks) {
			log.Printf("[Sim] Tick limit %d reached with %d gems missing", e.cfg.Run.MaxTicks, e.board.MissingGems)
			e.logEvent("tick_limit_reached", map[string]interface{}{
				"ticks":        e.tick,
				"missing_gems": e.board.MissingGems,
			})
			break
		}

		select {
		case <-ctx.Done():
			log.Printf("[Sim] Shutting down...")
			return e.result(), nil
		default:
		}

		if pace != nil {
			select {
			case <-ctx.Done():
				log.Printf("[Sim] Shutting down...")
				return e.result(), nil
			case <-pace:
			}
		}

		e.Step(ctx)
	}

	if e.mirror != nil && !e.finished {
		if err := e.mirror.Sync(ctx, e.board, e.Stats()); err != nil {
			log.Printf("[Sim] Final mirror sync failed: %v", err)
		}
	}

	return e.result(), nil
}

func (e *Engine) result() *Result {
	return &Result{
		Completed: e.finished,
		Ticks:     e.tick,
		Seed:      e.seed,
		Elapsed:   e.clock.Format(),
		Stats:     e.Stats(),
	}
}

// finish runs exactly once, when the watcher sees no gems missing.
func (e *Engine) finish() {
	e.finished = true
	e.clock.Pause()

	s := e.board.Snapshot()
	log.Printf("[Sim] All gems delivered in %s: collisions=%d movements=%d",
		e.clock.Format(), s.Collisions, s.Movements)

	ev := blackboard.NewEvent(blackboard.EventFinished, "", "", geom.Zero)
	ev.Detail = fmt.Sprintf("collisions=%d time=%s movements=%d", s.Collisions, e.clock.Format(), s.Movements)
	e.Emit(ev)
}

// flush delivers the events queued during the current tick.
func (e *Engine) flush(ctx context.Context) {
	for _, ev := range e.pending {
		if !e.quiet {
			e.logEvent(string(ev.Type), map[string]interface{}{
				"tick":     ev.Tick,
				"sim_time": ev.SimTime,
				"agent":    ev.Agent,
				"color":    ev.Color,
				"position": ev.Position.String(),
				"detail":   ev.Detail,
			})
		}
		if e.metrics != nil {
			e.metrics.ObserveEvent(ev)
		}
		if e.mirror != nil {
			e.mirror.Publish(ctx, ev)
		}
		if e.sink != nil {
			e.sink.Emit(ev)
		}
	}
	e.pending = e.pending[:0]
}

// logEvent logs a structured event in JSON format.
func (e *Engine) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "sim"
	data["event_type"] = eventType
	data["instance"] = e.instanceName

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Sim] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
