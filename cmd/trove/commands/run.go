package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/trove/internal/config"
	"github.com/dyluth/trove/internal/instance"
	"github.com/dyluth/trove/internal/printer"
	"github.com/dyluth/trove/internal/sim"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	runConfigPath  string
	runSeed        int64
	runMaxTicks    int
	runRealtime    bool
	runRedisURL    string
	runName        string
	runMetricsAddr string
	runQuiet       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation until every gem is delivered",
	Long: `Run a gem-collecting simulation.

Reads trove.yml from the current directory (or --config). Without a config
file the built-in defaults are used.

When a Redis URL is given (--redis-url, TROVE_REDIS_URL or the redis section
of trove.yml) every event is published and the blackboard is mirrored so the
run can be followed with 'trove watch'.

Examples:
  # Run with the defaults and a fixed seed
  trove run --seed 42

  # Mirror to Redis and expose Prometheus metrics
  trove run --redis-url redis://localhost:6379 --metrics-addr :9090

  # Watch it unfold at wall-clock speed
  trove run --realtime`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", config.DefaultFileName, "Path to run configuration")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Random seed (0 uses the config value or the clock)")
	runCmd.Flags().IntVar(&runMaxTicks, "max-ticks", 0, "Stop after this many ticks (0 uses the config value)")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "Pace ticks at wall-clock speed")
	runCmd.Flags().StringVar(&runRedisURL, "redis-url", "", "Mirror the run to this Redis server")
	runCmd.Flags().StringVarP(&runName, "name", "n", "", "Instance name for the Redis mirror (auto-generated if omitted)")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve /healthz and /metrics on this address")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress per-event structured logs")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(runConfigPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := sim.Options{Quiet: runQuiet}

	var bbClient *blackboard.Client
	if cfg.Redis != nil {
		printer.Step("Connecting Redis mirror at %s...\n", cfg.Redis.URL)
		bbClient, err = connectMirror(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer bbClient.Close()
		opts.InstanceName = bbClient.InstanceName()
		opts.Mirror = sim.NewMirror(bbClient, cfg.Redis.SyncEvery)
		printer.Success("Mirroring as instance '%s'\n", opts.InstanceName)
	} else {
		opts.InstanceName = runName
		if opts.InstanceName == "" {
			opts.InstanceName = instance.RandomName()
		}
	}

	if runMetricsAddr != "" {
		printer.Step("Starting metrics server on %s...\n", runMetricsAddr)
		opts.Metrics = sim.NewMetrics()
		health := sim.NewHealthServer(runMetricsAddr, bbClient, opts.Metrics)
		if err := health.Start(); err != nil {
			return printer.Error(
				"metrics server failed to start",
				fmt.Sprintf("Error: %v", err),
				[]string{"Pick a free address:\n  trove run --metrics-addr :9091"},
			)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			health.Shutdown(shutdownCtx)
		}()
		printer.Info("Serving /healthz and /metrics on %s\n", health.Addr())
	}

	engine, err := sim.NewEngine(cfg, opts)
	if err != nil {
		return printer.Error("invalid configuration", err.Error(), nil)
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	printer.Summary(os.Stdout, printer.RunSummary{
		Instance:   opts.InstanceName,
		Seed:       result.Seed,
		Completed:  result.Completed,
		Ticks:      result.Ticks,
		Elapsed:    result.Elapsed,
		Delivered:  result.Stats.TotalGems - result.Stats.MissingGems,
		TotalGems:  result.Stats.TotalGems,
		Collisions: result.Stats.Collisions,
		Movements:  result.Stats.Movements,
		Visited:    result.Stats.Visited,
	})
	return nil
}

// loadRunConfig reads the config file, falling back to the built-in
// defaults when the default file is absent. An explicitly named file must
// exist.
func loadRunConfig(path string, explicit bool) (*config.TroveConfig, error) {
	cfg, notes, err := config.Load(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, printer.ErrorWithContext(
				"failed to load configuration",
				err.Error(),
				map[string]string{"Config": path},
				[]string{"Create a starter file:\n  trove init"},
			)
		}
		cfg = config.Default()
		cfg.ApplyEnv()
		notes = cfg.Clamp()
	}

	for _, note := range notes {
		printer.Warning("%s\n", note)
	}
	return cfg, nil
}

// applyRunFlags lets command-line flags override the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.TroveConfig) {
	if runSeed != 0 {
		cfg.Run.Seed = runSeed
	}
	if runMaxTicks > 0 {
		cfg.Run.MaxTicks = runMaxTicks
	}
	if cmd.Flags().Changed("realtime") {
		cfg.Run.Realtime = runRealtime
	}
	if runRedisURL != "" {
		if cfg.Redis == nil {
			cfg.Redis = &config.RedisConfig{SyncEvery: 50}
		}
		cfg.Redis.URL = runRedisURL
	}
	if runName != "" && cfg.Redis != nil {
		cfg.Redis.Instance = runName
	}
}

// connectMirror resolves the instance name and returns a connected
// blackboard client.
func connectMirror(ctx context.Context, rc *config.RedisConfig) (*blackboard.Client, error) {
	redisOpts, err := redis.ParseURL(rc.URL)
	if err != nil {
		return nil, printer.Error(
			"invalid Redis URL",
			fmt.Sprintf("Could not parse %q: %v", rc.URL, err),
			[]string{"Use the form redis://host:port/db"},
		)
	}

	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", rc.URL),
			map[string]string{"Error": err.Error()},
			[]string{
				"Start a local Redis:\n  docker run -d -p 6379:6379 redis:7-alpine",
				"Or run without the mirror by omitting --redis-url",
			},
		)
	}

	name, err := instance.Resolve(ctx, rdb, rc.Instance)
	if err != nil {
		return nil, printer.Error("invalid instance name", err.Error(), nil)
	}

	taken, err := instance.CheckNameCollision(ctx, rdb, name)
	if err != nil {
		return nil, err
	}
	if taken {
		printer.Warning("Instance '%s' has data from an earlier run; it will be overwritten\n", name)
	}

	return blackboard.NewClient(redisOpts, name)
}
