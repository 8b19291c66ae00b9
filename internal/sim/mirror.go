package sim

import (
	"context"
	"fmt"
	"log"

	"github.com/dyluth/trove/pkg/blackboard"
)

// Mirror copies a run's blackboard to Redis. Failures are logged and never
// stop the simulation.
type Mirror struct {
	client    *blackboard.Client
	syncEvery int64
}

// NewMirror creates a mirror that snapshots the board every syncEvery ticks.
func NewMirror(client *blackboard.Client, syncEvery int) *Mirror {
	if syncEvery < 1 {
		syncEvery = 1
	}
	return &Mirror{client: client, syncEvery: int64(syncEvery)}
}

func (m *Mirror) Client() *blackboard.Client {
	return m.client
}

// Due reports whether a snapshot should be taken after tick.
func (m *Mirror) Due(tick int64) bool {
	return tick%m.syncEvery == 0
}

// Publish forwards one event to subscribers.
func (m *Mirror) Publish(ctx context.Context, e *blackboard.Event) {
	if err := m.client.PublishEvent(ctx, e); err != nil {
		log.Printf("[Mirror] Failed to publish %s event: %v", e.Type, err)
	}
}

// Sync writes the counters and the board's sets.
func (m *Mirror) Sync(ctx context.Context, b *blackboard.Board, s blackboard.Stats) error {
	if err := m.client.WriteStats(ctx, s); err != nil {
		return err
	}
	if err := m.client.SyncSets(ctx, b); err != nil {
		return fmt.Errorf("failed to mirror board: %w", err)
	}
	return nil
}
