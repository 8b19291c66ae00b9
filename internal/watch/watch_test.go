package watch

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/trove/internal/filter"
	"github.com/dyluth/trove/internal/testutil"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/dyluth/trove/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) (*blackboard.Client, *miniredis.Miniredis) {
	return testutil.NewBlackboard(t, "test-instance")
}

func TestPollForFinish(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stats when already finished", func(t *testing.T) {
		client, _ := setupClient(t)
		require.NoError(t, client.WriteStats(ctx, blackboard.Stats{TotalGems: 3, Finished: true}))

		stats, err := PollForFinish(ctx, client, 2*time.Second)
		require.NoError(t, err)
		assert.True(t, stats.Finished)
		assert.Equal(t, 3, stats.TotalGems)
	})

	t.Run("returns stats when finished after delay", func(t *testing.T) {
		client, _ := setupClient(t)
		require.NoError(t, client.WriteStats(ctx, blackboard.Stats{TotalGems: 3, MissingGems: 1}))

		go func() {
			time.Sleep(300 * time.Millisecond)
			client.WriteStats(ctx, blackboard.Stats{TotalGems: 3, Finished: true})
		}()

		stats, err := PollForFinish(ctx, client, 2*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.MissingGems)
	})

	t.Run("times out while running", func(t *testing.T) {
		client, _ := setupClient(t)
		require.NoError(t, client.WriteStats(ctx, blackboard.Stats{TotalGems: 3, MissingGems: 2}))

		_, err := PollForFinish(ctx, client, 500*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout waiting for final stats")
	})

	t.Run("times out when nothing written", func(t *testing.T) {
		client, _ := setupClient(t)
		_, err := PollForFinish(ctx, client, 500*time.Millisecond)
		assert.ErrorContains(t, err, "timeout")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		client, _ := setupClient(t)
		cctx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(100 * time.Millisecond)
			cancel()
		}()

		_, err := PollForFinish(cctx, client, 5*time.Second)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStreamActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("streams until the run finishes", func(t *testing.T) {
		client, mr := setupClient(t)
		channel := blackboard.SimEventsChannel("test-instance")

		var buf bytes.Buffer
		done := make(chan error, 1)
		go func() {
			done <- StreamActivity(ctx, client, "test-instance", OutputFormatDefault, nil, &buf)
		}()

		testutil.WaitForSubscriber(t, mr, channel)

		require.NoError(t, client.WriteStats(ctx, blackboard.Stats{TotalGems: 1, Collisions: 2, Finished: true}))

		collected := blackboard.NewEvent(blackboard.EventGemCollected, "red-1", blackboard.ColorRed, geom.V(1.5, 0, 0.5))
		collected.Tick = 10
		require.NoError(t, client.PublishEvent(ctx, collected))
		require.NoError(t, client.PublishEvent(ctx, blackboard.NewEvent(blackboard.EventFinished, "", "", geom.Zero)))

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("stream did not stop after finish event")
		}

		output := buf.String()
		assert.Contains(t, output, "Watching instance 'test-instance'")
		assert.Contains(t, output, "✋ Gem collected: by=red-1")
		assert.Contains(t, output, "#10]")
		assert.Contains(t, output, "🎉 Simulation finished")
		assert.Contains(t, output, "delivered=1/1")
		assert.Contains(t, output, "collisions=2")
	})

	t.Run("returns nil on cancellation", func(t *testing.T) {
		client, _ := setupClient(t)
		cctx, cancel := context.WithCancel(ctx)

		done := make(chan error, 1)
		go func() {
			done <- StreamActivity(cctx, client, "test-instance", OutputFormatJSON, nil, &bytes.Buffer{})
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("stream did not stop on cancel")
		}
	})

	t.Run("applies filter criteria but always shows finish", func(t *testing.T) {
		client, mr := setupClient(t)
		channel := blackboard.SimEventsChannel("test-instance")
		criteria := &filter.Criteria{Agent: "blue-1"}

		var buf bytes.Buffer
		done := make(chan error, 1)
		go func() {
			done <- StreamActivity(ctx, client, "test-instance", OutputFormatJSON, criteria, &buf)
		}()

		testutil.WaitForSubscriber(t, mr, channel)
		require.NoError(t, client.WriteStats(ctx, blackboard.Stats{TotalGems: 2, Finished: true}))

		require.NoError(t, client.PublishEvent(ctx, blackboard.NewEvent(blackboard.EventCollision, "red-1", blackboard.ColorRed, geom.Zero)))
		require.NoError(t, client.PublishEvent(ctx, blackboard.NewEvent(blackboard.EventCollision, "blue-1", blackboard.ColorBlue, geom.Zero)))
		require.NoError(t, client.PublishEvent(ctx, blackboard.NewEvent(blackboard.EventFinished, "", "", geom.Zero)))

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("stream did not stop after finish event")
		}

		output := buf.String()
		assert.NotContains(t, output, `"agent":"red-1"`)
		assert.Contains(t, output, `"agent":"blue-1"`)
		assert.Contains(t, output, `"event":"simulation_finished"`)
		assert.Contains(t, output, `"event":"stats"`)
	})
}

func TestPrintStats(t *testing.T) {
	ctx := context.Background()
	client, _ := setupClient(t)

	err := PrintStats(ctx, client, OutputFormatDefault, &bytes.Buffer{})
	assert.True(t, blackboard.IsNotFound(err))

	require.NoError(t, client.WriteStats(ctx, blackboard.Stats{TotalGems: 6, MissingGems: 2, Movements: 40}))
	var buf bytes.Buffer
	require.NoError(t, PrintStats(ctx, client, OutputFormatJSON, &buf))
	assert.Contains(t, buf.String(), `"event":"stats"`)
	assert.Contains(t, buf.String(), `"movements":40`)
}

func TestFormatters(t *testing.T) {
	pos := geom.V(2.5, 0, -1.5)

	tests := []struct {
		name     string
		event    *blackboard.Event
		expected []string
	}{
		{
			name:     "gem_discovered",
			event:    &blackboard.Event{Type: blackboard.EventGemDiscovered, Agent: "red-1", Color: blackboard.ColorBlue, Position: pos, Detail: "spotted for blue"},
			expected: []string{"💎 Gem discovered", "by=red-1", "color=blue", "(2.50, 0.00, -1.50)", "(spotted for blue)"},
		},
		{
			name:     "gem_reserved",
			event:    &blackboard.Event{Type: blackboard.EventGemReserved, Agent: "blue-2", Position: pos},
			expected: []string{"📌 Gem reserved", "by=blue-2"},
		},
		{
			name:     "gem_released",
			event:    &blackboard.Event{Type: blackboard.EventGemReleased, Agent: "blue-2", Position: pos, Detail: "collected"},
			expected: []string{"🔓 Reservation released", "(collected)"},
		},
		{
			name:     "gem_delivered",
			event:    &blackboard.Event{Type: blackboard.EventGemDelivered, Agent: "green-1", Color: blackboard.ColorGreen, Detail: "2 remaining"},
			expected: []string{"📦 Gem delivered", "by=green-1", "(2 remaining)"},
		},
		{
			name:     "collision",
			event:    &blackboard.Event{Type: blackboard.EventCollision, Agent: "red-1", Position: pos, Detail: "blue-1"},
			expected: []string{"💥 Collision", "(blue-1)"},
		},
		{
			name:     "agent_stuck",
			event:    &blackboard.Event{Type: blackboard.EventAgentStuck, Agent: "red-1", Position: pos},
			expected: []string{"🪨 Agent stuck: red-1"},
		},
		{
			name:     "maneuver",
			event:    &blackboard.Event{Type: blackboard.EventManeuver, Agent: "red-1", Detail: "halt for blue-1"},
			expected: []string{"↪️  Maneuver: by=red-1", "(halt for blue-1)"},
		},
		{
			name:     "simulation_finished with sim time",
			event:    &blackboard.Event{Type: blackboard.EventFinished, Tick: 3750, SimTime: 75, Detail: "collisions=0"},
			expected: []string{"[01:15 #3750]", "🎉 Simulation finished"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter := &defaultFormatter{writer: &buf}

			require.NoError(t, formatter.FormatEvent(tt.event))

			output := buf.String()
			for _, want := range tt.expected {
				assert.Contains(t, output, want)
			}
		})
	}

	t.Run("jsonFormatter formats events", func(t *testing.T) {
		var buf bytes.Buffer
		formatter := &jsonFormatter{writer: &buf}

		e := blackboard.NewEvent(blackboard.EventGemDelivered, "red-1", blackboard.ColorRed, pos)
		require.NoError(t, formatter.FormatEvent(e))

		output := buf.String()
		assert.Contains(t, output, `"event":"gem_delivered"`)
		assert.Contains(t, output, `"agent":"red-1"`)
		assert.Contains(t, output, `"position":{"x":2.5,"y":0,"z":-1.5}`)
		assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
	})
}
