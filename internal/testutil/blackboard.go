// Package testutil holds shared fixtures for tests that talk to Redis.
package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// NewBlackboard starts an in-process Redis and returns a blackboard client
// namespaced to instanceName. Both are closed when the test ends.
func NewBlackboard(t *testing.T, instanceName string) (*blackboard.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := blackboard.NewClient(&redis.Options{Addr: mr.Addr()}, instanceName)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

// WaitForSubscriber blocks until channel has at least one subscriber, so a
// publish issued afterwards is not lost.
func WaitForSubscriber(t *testing.T, mr *miniredis.Miniredis, channel string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] > 0
	}, 2*time.Second, 10*time.Millisecond, "no subscriber on %s", channel)
}
