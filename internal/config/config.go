package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "trove.yml"

// Environment overrides applied by ApplyEnv.
const (
	EnvRedisURL     = "TROVE_REDIS_URL"
	EnvInstanceName = "TROVE_INSTANCE_NAME"
)

// TroveConfig represents the top-level trove.yml configuration
type TroveConfig struct {
	Version   string          `yaml:"version"`
	Stage     StageConfig     `yaml:"stage"`
	Agents    AgentsConfig    `yaml:"agents"`
	Gems      GemsConfig      `yaml:"gems"`
	Colors    int             `yaml:"colors"` // number of teams, 1-3, taken in red/blue/green order
	Behaviour BehaviourConfig `yaml:"behaviour"`
	Sensing   SensingConfig   `yaml:"sensing"`
	Run       RunConfig       `yaml:"run"`
	Redis     *RedisConfig    `yaml:"redis,omitempty"` // optional mirror for external observers
}

// StageConfig describes the floor the lattice is laid on
type StageConfig struct {
	Width    float64 `yaml:"width"`     // along X
	Depth    float64 `yaml:"depth"`     // along Z
	CellSize float64 `yaml:"cell_size"` // default: agent size
	Margin   float64 `yaml:"margin"`    // share of each dimension kept clear, default 0.2
}

// AgentsConfig sets the team size
type AgentsConfig struct {
	Count int     `yaml:"count"` // total across all colors, at least 3
	Size  float64 `yaml:"size"`
}

// GemsConfig sets how many gems spawn
type GemsConfig struct {
	PerColor int     `yaml:"per_color"`
	Size     float64 `yaml:"size"` // clamped to [0.5, 2] x agent size
}

// BehaviourConfig holds the agent decision constants
type BehaviourConfig struct {
	Speed             float64 `yaml:"speed"`
	RotationSpeed     float64 `yaml:"rotation_speed"`
	ArrivalTolerance  float64 `yaml:"arrival_tolerance"`
	StuckThreshold    float64 `yaml:"stuck_threshold"`
	StuckDistance     float64 `yaml:"stuck_distance"`
	CollisionCooldown float64 `yaml:"collision_cooldown"`
	HaltDuration      float64 `yaml:"halt_duration"`
	TurnDuration      float64 `yaml:"turn_duration"`
	TurnAngle         float64 `yaml:"turn_angle"`
}

// SensingConfig sizes the proximity zones. Radii and range are in cells.
type SensingConfig struct {
	DetectionRadius float64 `yaml:"detection_radius"`
	ContactRadius   float64 `yaml:"contact_radius"`
	FrontRange      float64 `yaml:"front_range"`
	FrontAngle      float64 `yaml:"front_angle"` // half-angle of the front cone in degrees
}

// RunConfig controls the tick loop
type RunConfig struct {
	Seed     int64   `yaml:"seed"` // 0 picks a seed from the clock
	Tick     float64 `yaml:"tick"` // simulated seconds per tick
	MaxTicks int     `yaml:"max_ticks"`
	Realtime bool    `yaml:"realtime"`
}

// RedisConfig enables the Redis mirror
type RedisConfig struct {
	URL       string `yaml:"url"`
	Instance  string `yaml:"instance,omitempty"`
	SyncEvery int    `yaml:"sync_every,omitempty"` // ticks between set snapshots, default 50
}

// Default returns the built-in configuration.
func Default() *TroveConfig {
	c := &TroveConfig{Version: "1.0"}
	c.applyDefaults()
	return c
}

// applyDefaults fills every unset field.
func (c *TroveConfig) applyDefaults() {
	if c.Agents.Size == 0 {
		c.Agents.Size = 1
	}
	if c.Agents.Count == 0 {
		c.Agents.Count = 3
	}
	if c.Stage.Width == 0 {
		c.Stage.Width = 20
	}
	if c.Stage.Depth == 0 {
		c.Stage.Depth = 20
	}
	if c.Stage.CellSize == 0 {
		c.Stage.CellSize = 1
		if c.Agents.Size > 0 {
			c.Stage.CellSize = c.Agents.Size
		}
	}
	if c.Stage.Margin == 0 {
		c.Stage.Margin = 0.2
	}
	if c.Gems.PerColor == 0 {
		c.Gems.PerColor = 2
	}
	if c.Gems.Size == 0 {
		c.Gems.Size = 0.5 * c.Agents.Size
	}
	if c.Colors == 0 {
		c.Colors = 3
	}

	b := &c.Behaviour
	setDefault(&b.Speed, 5)
	setDefault(&b.RotationSpeed, 360)
	setDefault(&b.ArrivalTolerance, 0.1)
	setDefault(&b.StuckThreshold, 3)
	setDefault(&b.StuckDistance, 0.05)
	setDefault(&b.CollisionCooldown, 0.5)
	setDefault(&b.HaltDuration, 0.4)
	setDefault(&b.TurnDuration, 0.3)
	setDefault(&b.TurnAngle, 90)

	s := &c.Sensing
	setDefault(&s.DetectionRadius, 1.2)
	setDefault(&s.ContactRadius, 0.5)
	setDefault(&s.FrontRange, 0.9)
	setDefault(&s.FrontAngle, 45)

	setDefault(&c.Run.Tick, 0.02)
	if c.Run.MaxTicks == 0 {
		c.Run.MaxTicks = 90000
	}

	if c.Redis != nil && c.Redis.SyncEvery == 0 {
		c.Redis.SyncEvery = 50
	}
}

func setDefault(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

// Clamp forces the scenario sizes into the ranges the simulation supports
// and returns a note for every value it changed.
func (c *TroveConfig) Clamp() []string {
	var notes []string
	note := func(format string, args ...interface{}) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	if c.Agents.Size <= 0 {
		note("agents.size %v raised to 1", c.Agents.Size)
		c.Agents.Size = 1
	}
	minStage := 5 * c.Agents.Size
	if c.Stage.Width < minStage {
		note("stage.width %v raised to %v", c.Stage.Width, minStage)
		c.Stage.Width = minStage
	}
	if c.Stage.Depth < minStage {
		note("stage.depth %v raised to %v", c.Stage.Depth, minStage)
		c.Stage.Depth = minStage
	}
	if lo := 0.5 * c.Agents.Size; c.Gems.Size < lo {
		note("gems.size %v raised to %v", c.Gems.Size, lo)
		c.Gems.Size = lo
	} else if hi := 2 * c.Agents.Size; c.Gems.Size > hi {
		note("gems.size %v lowered to %v", c.Gems.Size, hi)
		c.Gems.Size = hi
	}
	if c.Gems.PerColor < 1 {
		note("gems.per_color %d raised to 1", c.Gems.PerColor)
		c.Gems.PerColor = 1
	}
	if c.Agents.Count < 3 {
		note("agents.count %d raised to 3", c.Agents.Count)
		c.Agents.Count = 3
	}
	if c.Colors > len(blackboard.AllColors) {
		note("colors %d lowered to %d", c.Colors, len(blackboard.AllColors))
		c.Colors = len(blackboard.AllColors)
	} else if c.Colors < 1 {
		note("colors %d raised to 1", c.Colors)
		c.Colors = 1
	}
	return notes
}

// ActiveColors returns the colors in play, in spawn order.
func (c *TroveConfig) ActiveColors() []blackboard.Color {
	n := c.Colors
	if n < 1 {
		n = 1
	}
	if n > len(blackboard.AllColors) {
		n = len(blackboard.AllColors)
	}
	out := make([]blackboard.Color, n)
	copy(out, blackboard.AllColors[:n])
	return out
}

// TotalGems is the number of gems the scenario asks for.
func (c *TroveConfig) TotalGems() int {
	return c.Gems.PerColor * len(c.ActiveColors())
}

// Validate performs strict validation on the configuration
func (c *TroveConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Stage.CellSize <= 0 {
		return fmt.Errorf("stage.cell_size must be > 0, got %v", c.Stage.CellSize)
	}
	if c.Stage.Margin < 0 || c.Stage.Margin >= 1 {
		return fmt.Errorf("stage.margin must be in [0, 1), got %v", c.Stage.Margin)
	}

	b := c.Behaviour
	positive := map[string]float64{
		"behaviour.speed":              b.Speed,
		"behaviour.rotation_speed":     b.RotationSpeed,
		"behaviour.arrival_tolerance":  b.ArrivalTolerance,
		"behaviour.stuck_threshold":    b.StuckThreshold,
		"behaviour.stuck_distance":     b.StuckDistance,
		"behaviour.collision_cooldown": b.CollisionCooldown,
		"behaviour.halt_duration":      b.HaltDuration,
		"behaviour.turn_duration":      b.TurnDuration,
		"sensing.detection_radius":     c.Sensing.DetectionRadius,
		"sensing.contact_radius":       c.Sensing.ContactRadius,
		"sensing.front_range":          c.Sensing.FrontRange,
		"run.tick":                     c.Run.Tick,
	}
	for _, field := range sortedKeys(positive) {
		if positive[field] <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", field, positive[field])
		}
	}

	if c.Sensing.FrontAngle <= 0 || c.Sensing.FrontAngle > 180 {
		return fmt.Errorf("sensing.front_angle must be in (0, 180], got %v", c.Sensing.FrontAngle)
	}
	if c.Sensing.ContactRadius > c.Sensing.DetectionRadius {
		return fmt.Errorf("sensing.contact_radius (%v) must not exceed sensing.detection_radius (%v)",
			c.Sensing.ContactRadius, c.Sensing.DetectionRadius)
	}
	if c.Run.MaxTicks < 0 {
		return fmt.Errorf("run.max_ticks must be >= 0, got %d", c.Run.MaxTicks)
	}

	if c.Redis != nil {
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required when the redis section is present")
		}
		if _, err := redis.ParseURL(c.Redis.URL); err != nil {
			return fmt.Errorf("invalid redis.url: %w", err)
		}
		if c.Redis.SyncEvery < 1 {
			return fmt.Errorf("redis.sync_every must be >= 1, got %d", c.Redis.SyncEvery)
		}
	}

	return nil
}

// ApplyEnv overrides the Redis settings from the environment. Setting
// TROVE_REDIS_URL enables the mirror even without a redis section.
func (c *TroveConfig) ApplyEnv() {
	if url := os.Getenv(EnvRedisURL); url != "" {
		if c.Redis == nil {
			c.Redis = &RedisConfig{}
		}
		c.Redis.URL = url
	}
	if name := os.Getenv(EnvInstanceName); name != "" && c.Redis != nil {
		c.Redis.Instance = name
	}
	if c.Redis != nil && c.Redis.SyncEvery == 0 {
		c.Redis.SyncEvery = 50
	}
}

// Load reads trove.yml from the specified path, fills in defaults, clamps
// the scenario sizes and validates the result. Clamp notes are returned so
// the caller can report them.
func Load(path string) (*TroveConfig, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config TroveConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.applyDefaults()
	config.ApplyEnv()
	notes := config.Clamp()

	if err := config.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, notes, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
