package blackboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Client mirrors a run's blackboard to Redis for external observers.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new blackboard client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: run identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// InstanceName returns the namespace this client writes under.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// PublishEvent validates an event and publishes it as JSON on the
// instance's sim_events channel.
func (c *Client) PublishEvent(ctx context.Context, e *Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := c.rdb.Publish(ctx, SimEventsChannel(c.instanceName), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// WriteStats replaces the statistics hash for this instance.
func (c *Client) WriteStats(ctx context.Context, s Stats) error {
	if err := c.rdb.HSet(ctx, StatsKey(c.instanceName), StatsToHash(s)).Err(); err != nil {
		return fmt.Errorf("failed to write stats to Redis: %w", err)
	}
	return nil
}

// GetStats reads the statistics hash.
// Returns redis.Nil if no stats have been written yet; use IsNotFound to check.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	hash, err := c.rdb.HGetAll(ctx, StatsKey(c.instanceName)).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read stats from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hash) == 0 {
		return Stats{}, redis.Nil
	}

	s, err := HashToStats(hash)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to deserialize stats: %w", err)
	}
	return s, nil
}

// SyncSets replaces the mirrored visited, reserved and found-gem
// collections with the board's current contents in a single transaction.
func (c *Client) SyncSets(ctx context.Context, b *Board) error {
	visitedKey := VisitedKey(c.instanceName)
	reservedKey := ReservedKey(c.instanceName)

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, visitedKey, reservedKey)
		if members := setMembers(b.Visited); len(members) > 0 {
			pipe.SAdd(ctx, visitedKey, members...)
		}
		if members := setMembers(b.Reserved); len(members) > 0 {
			pipe.SAdd(ctx, reservedKey, members...)
		}
		for _, color := range b.Colors() {
			key := FoundKey(c.instanceName, color)
			pipe.Del(ctx, key)
			found := b.For(color).Found.Items()
			if len(found) == 0 {
				continue
			}
			members := make([]interface{}, 0, len(found))
			for _, p := range found {
				members = append(members, PositionMember(p))
			}
			pipe.RPush(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sync blackboard sets: %w", err)
	}
	return nil
}

// CountVisited returns the size of the mirrored visited set.
func (c *Client) CountVisited(ctx context.Context) (int64, error) {
	n, err := c.rdb.SCard(ctx, VisitedKey(c.instanceName)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count visited cells: %w", err)
	}
	return n, nil
}

// IsReserved reports whether member is in the mirrored reservation set.
func (c *Client) IsReserved(ctx context.Context, member string) (bool, error) {
	ok, err := c.rdb.SIsMember(ctx, ReservedKey(c.instanceName), member).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check reservation: %w", err)
	}
	return ok, nil
}

// FoundGems returns the mirrored found-gem list for a color in order.
func (c *Client) FoundGems(ctx context.Context, color Color) ([]string, error) {
	members, err := c.rdb.LRange(ctx, FoundKey(c.instanceName, color), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read found gems: %w", err)
	}
	return members, nil
}

func setMembers(s *PositionSet) []interface{} {
	items := s.Items()
	out := make([]interface{}, 0, len(items))
	for _, p := range items {
		out = append(out, PositionMember(p))
	}
	return out
}

// Subscription represents an active Pub/Sub subscription to simulation events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of simulation events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures; the subscription continues after them.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEvents subscribes to simulation events for this instance.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 64). Redis Pub/Sub is
// at-most-once, so a slow subscriber may miss events.
func (c *Client) SubscribeEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, SimEventsChannel(c.instanceName))

	// Wait for the subscription to be confirmed so no early events are lost
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to sim events: %w", err)
	}

	eventsChan := make(chan *Event, 64)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal sim event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
