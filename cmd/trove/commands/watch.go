package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/trove/internal/config"
	"github.com/dyluth/trove/internal/filter"
	"github.com/dyluth/trove/internal/instance"
	"github.com/dyluth/trove/internal/printer"
	"github.com/dyluth/trove/internal/timespec"
	"github.com/dyluth/trove/internal/watch"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	watchInstanceName string
	watchOutputFormat string
	watchRedisURL     string
	watchStatsOnly    bool
	watchTypeGlob     string
	watchAgent        string
	watchColor        string
	watchSince        string
	watchUntil        string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a mirrored run in real time",
	Long: `Follow a run that was started with a Redis mirror.

Streams gem discoveries, reservations, pickups, deliveries, collisions and
maneuvers as they happen, then prints the final statistics when the run
finishes.

Output Formats:
  default - Human-readable output with simulated time and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch a named run
  trove watch --name default-1

  # Print the current statistics once
  trove watch --name default-1 --stats

  # Only deliveries by the red team after the first minute
  trove watch --name default-1 --type 'gem_deliver*' --color red --since 01:00

  # Export events as JSON
  trove watch --name default-1 --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchInstanceName, "name", "n", "", "Target instance name (defaults to TROVE_INSTANCE_NAME)")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().StringVar(&watchRedisURL, "redis-url", "", "Redis server the run is mirrored to (defaults to TROVE_REDIS_URL or localhost)")
	watchCmd.Flags().BoolVar(&watchStatsOnly, "stats", false, "Print the current statistics and exit")
	watchCmd.Flags().StringVar(&watchTypeGlob, "type", "", "Only show event types matching this glob (e.g. 'gem_*')")
	watchCmd.Flags().StringVar(&watchAgent, "agent", "", "Only show events reported by this agent")
	watchCmd.Flags().StringVar(&watchColor, "color", "", "Only show events of this color")
	watchCmd.Flags().StringVar(&watchSince, "since", "", "Only show events after this simulated time (e.g. '30s' or '01:30')")
	watchCmd.Flags().StringVar(&watchUntil, "until", "", "Only show events before this simulated time")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	criteria, err := buildWatchCriteria()
	if err != nil {
		return printer.Error("invalid filter", err.Error(), nil)
	}

	targetInstanceName := watchInstanceName
	if targetInstanceName == "" {
		targetInstanceName = os.Getenv(config.EnvInstanceName)
	}
	if targetInstanceName == "" {
		return printer.Error(
			"no instance name",
			"Tell watch which run to follow.",
			[]string{
				"Name the run:\n  trove watch --name <instance-name>",
				fmt.Sprintf("Or set %s", config.EnvInstanceName),
			},
		)
	}
	if err := instance.ValidateName(targetInstanceName); err != nil {
		return printer.Error("invalid instance name", err.Error(), nil)
	}

	redisURL := watchRedisURL
	if redisURL == "" {
		redisURL = instance.DefaultRedisURL()
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	bbClient, err := blackboard.NewClient(redisOpts, targetInstanceName)
	if err != nil {
		return fmt.Errorf("failed to create blackboard client: %w", err)
	}
	defer bbClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bbClient.Ping(ctx); err != nil {
		return printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", redisURL),
			map[string]string{"Instance": targetInstanceName},
			[]string{"Check the server is running and the URL matches the one given to 'trove run'"},
		)
	}

	if watchStatsOnly {
		err := watch.PrintStats(ctx, bbClient, outputFormat, os.Stdout)
		if blackboard.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("no statistics for instance '%s'", targetInstanceName),
				"The run has not written a snapshot yet, or the name is wrong.",
				[]string{fmt.Sprintf("Start a mirrored run:\n  trove run --redis-url %s --name %s", redisURL, targetInstanceName)},
			)
		}
		return err
	}

	return watch.StreamActivity(ctx, bbClient, targetInstanceName, outputFormat, criteria, os.Stdout)
}

// buildWatchCriteria turns the filter flags into event criteria.
func buildWatchCriteria() (*filter.Criteria, error) {
	since, until, err := timespec.ParseRange(watchSince, watchUntil)
	if err != nil {
		return nil, err
	}

	criteria := &filter.Criteria{
		SinceSeconds: since,
		UntilSeconds: until,
		TypeGlob:     watchTypeGlob,
		Agent:        watchAgent,
	}
	if watchColor != "" {
		color, err := blackboard.ParseColor(watchColor)
		if err != nil {
			return nil, err
		}
		criteria.Color = color
	}
	return criteria, nil
}
