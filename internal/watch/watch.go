package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dyluth/trove/internal/filter"
	"github.com/dyluth/trove/pkg/blackboard"
)

// OutputFormat selects how streamed events are written.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSON    OutputFormat = "json"
)

// finishGrace bounds how long StreamActivity waits for the final stats
// snapshot after the finish event arrives.
const finishGrace = 2 * time.Second

type formatter interface {
	FormatEvent(e *blackboard.Event) error
	FormatStats(s blackboard.Stats) error
}

func newFormatter(format OutputFormat, w io.Writer) formatter {
	if format == OutputFormatJSON {
		return &jsonFormatter{writer: w}
	}
	return &defaultFormatter{writer: w}
}

// StreamActivity follows a run's event channel and writes each event that
// passes criteria to w until the run finishes or ctx is cancelled. The finish
// event is always written, followed by the final stats snapshot. A nil
// criteria passes everything.
func StreamActivity(ctx context.Context, client *blackboard.Client, instanceName string, format OutputFormat, criteria *filter.Criteria, w io.Writer) error {
	sub, err := client.SubscribeEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}
	defer sub.Close()

	f := newFormatter(format, w)
	if format == OutputFormatDefault {
		fmt.Fprintf(w, "👀 Watching instance '%s' (Ctrl+C to stop)\n", instanceName)
	}

	errs := sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[Watch] %v", err)

		case e, ok := <-sub.Events():
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("event subscription closed")
			}
			finished := e.Type == blackboard.EventFinished
			if !finished && !criteria.Matches(e) {
				continue
			}
			if err := f.FormatEvent(e); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
			if !finished {
				continue
			}

			stats, err := PollForFinish(ctx, client, finishGrace)
			if err != nil {
				log.Printf("[Watch] Final stats unavailable: %v", err)
				return nil
			}
			return f.FormatStats(stats)
		}
	}
}

// PrintStats writes the run's current stats snapshot once.
func PrintStats(ctx context.Context, client *blackboard.Client, format OutputFormat, w io.Writer) error {
	stats, err := client.GetStats(ctx)
	if err != nil {
		return err
	}
	return newFormatter(format, w).FormatStats(stats)
}

// PollForFinish polls the stats hash until it reports a finished run.
// Returns the final stats or an error if timeout occurs.
// Polls every 200ms for the specified timeout duration.
func PollForFinish(ctx context.Context, client *blackboard.Client, timeout time.Duration) (blackboard.Stats, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return blackboard.Stats{}, ctx.Err()

		case <-timeoutCh:
			return blackboard.Stats{}, fmt.Errorf("timeout waiting for final stats after %v", timeout)

		case <-ticker.C:
			stats, err := client.GetStats(ctx)
			if err != nil {
				if blackboard.IsNotFound(err) {
					continue
				}
				return blackboard.Stats{}, fmt.Errorf("failed to query stats: %w", err)
			}
			if stats.Finished {
				return stats, nil
			}
		}
	}
}

type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) FormatEvent(e *blackboard.Event) error {
	var line string
	switch e.Type {
	case blackboard.EventGemDiscovered:
		line = fmt.Sprintf("💎 Gem discovered: by=%s, color=%s, at=%s", e.Agent, e.Color, e.Position)
	case blackboard.EventGemReserved:
		line = fmt.Sprintf("📌 Gem reserved: by=%s, at=%s", e.Agent, e.Position)
	case blackboard.EventGemReleased:
		line = fmt.Sprintf("🔓 Reservation released: by=%s, at=%s", e.Agent, e.Position)
	case blackboard.EventGemCollected:
		line = fmt.Sprintf("✋ Gem collected: by=%s, color=%s, at=%s", e.Agent, e.Color, e.Position)
	case blackboard.EventGemDelivered:
		line = fmt.Sprintf("📦 Gem delivered: by=%s, color=%s", e.Agent, e.Color)
	case blackboard.EventCollision:
		line = fmt.Sprintf("💥 Collision: by=%s, at=%s", e.Agent, e.Position)
	case blackboard.EventAgentStuck:
		line = fmt.Sprintf("🪨 Agent stuck: %s at=%s", e.Agent, e.Position)
	case blackboard.EventManeuver:
		line = fmt.Sprintf("↪️  Maneuver: by=%s", e.Agent)
	case blackboard.EventFinished:
		line = "🎉 Simulation finished"
	default:
		line = fmt.Sprintf("❔ %s: by=%s", e.Type, e.Agent)
	}
	if e.Detail != "" {
		line += " (" + e.Detail + ")"
	}

	_, err := fmt.Fprintf(f.writer, "[%s #%d] %s\n", formatSimTime(e.SimTime), e.Tick, line)
	return err
}

func (f *defaultFormatter) FormatStats(s blackboard.Stats) error {
	delivered := s.TotalGems - s.MissingGems
	_, err := fmt.Fprintf(f.writer,
		"📊 Stats: delivered=%d/%d, collisions=%d, movements=%d, visited=%d, reserved=%d, time=%s, finished=%t\n",
		delivered, s.TotalGems, s.Collisions, s.Movements, s.Visited, s.Reserved,
		formatSimTime(s.ElapsedSeconds), s.Finished)
	return err
}

type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) FormatEvent(e *blackboard.Event) error {
	return f.writeLine(map[string]interface{}{
		"event": e.Type,
		"data":  e,
	})
}

func (f *jsonFormatter) FormatStats(s blackboard.Stats) error {
	return f.writeLine(map[string]interface{}{
		"event": "stats",
		"data":  s,
	})
}

func (f *jsonFormatter) writeLine(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}

// formatSimTime renders simulated seconds as mm:ss.
func formatSimTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
