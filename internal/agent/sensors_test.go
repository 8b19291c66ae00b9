package agent

import (
	"testing"

	"github.com/dyluth/trove/internal/grid"
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gemSighting(g *blackboard.Gem) Sighting {
	return Sighting{Category: CategoryGem, Gem: g, Position: g.Position}
}

func chestSighting(b *blackboard.Board, c blackboard.Color) Sighting {
	pos := b.For(c).Chest
	return Sighting{Category: CategoryChest, Chest: &blackboard.Chest{ID: "chest-" + string(c), Color: c, Position: pos}, Position: pos}
}

func TestForeignGemIsBlockedForOthers(t *testing.T) {
	w, b := setupWorld(t)
	rec := &recorder{}
	red := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 2, Col: 2}, rec)

	pos := w.At(grid.Cell{Row: 3, Col: 2})
	blue := blackboard.NewGem(blackboard.ColorBlue, pos)

	red.OnZoneEnter(gemSighting(blue))

	assert.True(t, b.For(blackboard.ColorBlue).Found.Contains(pos))
	assert.True(t, b.For(blackboard.ColorRed).Blocked.Contains(pos))
	assert.True(t, b.For(blackboard.ColorGreen).Blocked.Contains(pos))
	assert.False(t, b.For(blackboard.ColorBlue).Blocked.Contains(pos), "own color must never be blocked by its gem")
	assert.True(t, b.Visited.Contains(pos))
	assert.Nil(t, red.Carrying())

	discovered := rec.last(blackboard.EventGemDiscovered)
	require.NotNil(t, discovered)
	assert.Equal(t, blackboard.ColorBlue, discovered.Color)

	t.Run("repeat sightings change nothing", func(t *testing.T) {
		red.OnZoneEnter(gemSighting(blue))
		assert.Equal(t, 1, b.For(blackboard.ColorBlue).Found.Len())
		assert.Equal(t, 1, rec.count(blackboard.EventGemDiscovered))
	})
}

func TestCollectOwnGem(t *testing.T) {
	w, b := setupWorld(t)
	rec := &recorder{}
	pos := w.At(grid.Cell{Row: 3, Col: 2})
	gem := blackboard.NewGem(blackboard.ColorBlue, pos)

	red := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 2, Col: 2}, &recorder{})
	red.OnZoneEnter(gemSighting(gem))

	blue := newAgent(w, b, "blue-1", blackboard.ColorBlue, grid.Cell{Row: 4, Col: 2}, rec)
	blue.FindNextTarget()
	require.True(t, b.Reserved.Contains(pos))

	blue.OnZoneEnter(gemSighting(gem))

	assert.Same(t, gem, blue.Carrying())
	assert.Equal(t, blackboard.GemCarried, gem.State)
	assert.Equal(t, "blue-1", gem.Carrier)
	assert.True(t, blue.Delivering())
	assert.Equal(t, b.For(blackboard.ColorBlue).Chest, blue.Target())

	assert.False(t, b.For(blackboard.ColorBlue).Found.Contains(pos))
	assert.False(t, b.For(blackboard.ColorRed).Blocked.Contains(pos))
	assert.False(t, b.For(blackboard.ColorGreen).Blocked.Contains(pos))
	assert.False(t, b.Reserved.Contains(pos))
	assert.False(t, blue.Reservation().Held())
	assert.Equal(t, 1, rec.count(blackboard.EventGemCollected))

	t.Run("a carried gem is not collected twice", func(t *testing.T) {
		other := newAgent(w, b, "blue-2", blackboard.ColorBlue, grid.Cell{Row: 5, Col: 5}, &recorder{})
		other.OnZoneEnter(gemSighting(gem))
		assert.Nil(t, other.Carrying())
		assert.Equal(t, "blue-1", gem.Carrier)
	})
}

func TestOwnGemWhileCarrying(t *testing.T) {
	w, b := setupWorld(t)
	a := newAgent(w, b, "green-1", blackboard.ColorGreen, grid.Cell{Row: 4, Col: 4}, &recorder{})

	first := blackboard.NewGem(blackboard.ColorGreen, w.At(grid.Cell{Row: 4, Col: 5}))
	second := blackboard.NewGem(blackboard.ColorGreen, w.At(grid.Cell{Row: 5, Col: 4}))

	a.OnZoneEnter(gemSighting(first))
	a.OnZoneEnter(gemSighting(second))

	assert.Same(t, first, a.Carrying())
	assert.Equal(t, blackboard.GemUncollected, second.State)
	assert.True(t, b.For(blackboard.ColorGreen).Found.Contains(second.Position))
	assert.False(t, b.For(blackboard.ColorGreen).Blocked.Contains(second.Position))
	assert.True(t, b.For(blackboard.ColorRed).Blocked.Contains(second.Position))
}

func TestDeliver(t *testing.T) {
	w, b := setupWorld(t)
	b.SeedGems(2)
	rec := &recorder{}
	a := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 0, Col: 0}, rec)

	gem := blackboard.NewGem(blackboard.ColorRed, w.At(grid.Cell{Row: 0, Col: 1}))
	a.OnZoneEnter(gemSighting(gem))
	require.NotNil(t, a.Carrying())

	t.Run("wrong chest is ignored", func(t *testing.T) {
		a.OnZoneEnter(chestSighting(b, blackboard.ColorBlue))
		assert.NotNil(t, a.Carrying())
		assert.Equal(t, 2, b.MissingGems)
	})

	t.Run("waits at the chest until it is detected", func(t *testing.T) {
		run(a, 2)
		assert.Equal(t, b.For(blackboard.ColorRed).Chest, a.Position())
		assert.Equal(t, b.For(blackboard.ColorRed).Chest, a.Target())
		assert.True(t, a.Delivering())
	})

	t.Run("own chest delivers", func(t *testing.T) {
		a.OnZoneEnter(chestSighting(b, blackboard.ColorRed))

		assert.Nil(t, a.Carrying())
		assert.False(t, a.Delivering())
		assert.Equal(t, blackboard.GemDelivered, gem.State)
		assert.Equal(t, 1, b.MissingGems)
		assert.NotEqual(t, b.For(blackboard.ColorRed).Chest, a.Target())

		delivered := rec.last(blackboard.EventGemDelivered)
		require.NotNil(t, delivered)
		assert.Equal(t, "1 remaining", delivered.Detail)
	})

	t.Run("empty-handed chest visit does nothing", func(t *testing.T) {
		a.OnZoneEnter(chestSighting(b, blackboard.ColorRed))
		assert.Equal(t, 1, b.MissingGems)
	})
}

func TestYield(t *testing.T) {
	w, b := setupWorld(t)
	alpha := newAgent(w, b, "alpha", blackboard.ColorRed, grid.Cell{Row: 2, Col: 2}, &recorder{})
	bravo := newAgent(w, b, "bravo", blackboard.ColorRed, grid.Cell{Row: 2, Col: 4}, &recorder{})

	// Send alpha toward +col so it faces bravo.
	b.Visited.Add(w.At(grid.Cell{Row: 3, Col: 2}))
	alpha.Update(tick)
	alpha.Update(tick)
	require.Equal(t, w.At(grid.Cell{Row: 2, Col: 3}), alpha.Target())
	require.False(t, alpha.Rotating())

	alpha.OnObstacle("bravo")
	bravo.OnObstacle("alpha")

	t.Run("smaller name turns aside", func(t *testing.T) {
		assert.True(t, alpha.Maneuvering())
		assert.InDelta(t, 90.0, alpha.Orientation().Yaw, 1e-9)
		assert.Zero(t, alpha.Speed())
	})

	t.Run("larger name halts", func(t *testing.T) {
		assert.True(t, bravo.Maneuvering())
		assert.InDelta(t, 0.0, bravo.Orientation().Yaw, 1e-9)
		assert.Zero(t, bravo.Speed())
	})

	t.Run("cooldown ignores repeat detections", func(t *testing.T) {
		alpha.OnObstacle("bravo")
		assert.InDelta(t, 90.0, alpha.Orientation().Yaw, 1e-9)
	})

	start := alpha.Position()
	run(alpha, 0.3)
	run(bravo, 0.3)

	t.Run("turner steps one cell in its new heading", func(t *testing.T) {
		assert.False(t, alpha.Maneuvering())
		assert.Equal(t, start, alpha.Position())
		assert.Equal(t, w.At(grid.Cell{Row: 3, Col: 2}), alpha.Target())
		assert.False(t, b.AgentNext.Contains(w.At(grid.Cell{Row: 2, Col: 3})), "abandoned claim is released")
		assert.True(t, b.Visited.Contains(start))
		assert.Equal(t, 5.0, alpha.Speed())
	})

	t.Run("halter is still waiting", func(t *testing.T) {
		assert.True(t, bravo.Maneuvering())
		assert.Zero(t, bravo.Speed())
	})

	run(bravo, 0.1)

	t.Run("halter resumes after its halt", func(t *testing.T) {
		assert.False(t, bravo.Maneuvering())
		assert.Equal(t, 5.0, bravo.Speed())
	})
}

func TestOnContact(t *testing.T) {
	t.Run("peer contact counts once per cooldown", func(t *testing.T) {
		w, b := setupWorld(t)
		rec := &recorder{}
		a := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 2, Col: 2}, rec)
		peer := Sighting{Category: CategoryPeer, Peer: "blue-1"}

		a.OnContact(peer)
		a.OnContact(peer)
		assert.Equal(t, 1, b.Collisions)

		run(a, 0.6)
		a.OnContact(peer)
		assert.Equal(t, 2, b.Collisions)
		assert.Equal(t, "blue-1", rec.last(blackboard.EventCollision).Detail)
	})

	t.Run("cooldown settles at exactly zero", func(t *testing.T) {
		w, b := setupWorld(t)
		a := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 2, Col: 2}, &recorder{})

		a.OnContact(Sighting{Category: CategoryPeer, Peer: "blue-1"})
		require.Equal(t, 0.5, a.cooldown)

		for i := 0; i < 40; i++ {
			a.Update(0.02)
		}
		assert.Equal(t, 0.0, a.cooldown)
	})

	t.Run("picking up an own gem is not a collision", func(t *testing.T) {
		w, b := setupWorld(t)
		a := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 2, Col: 2}, &recorder{})
		gem := blackboard.NewGem(blackboard.ColorRed, w.At(grid.Cell{Row: 2, Col: 3}))

		a.OnContact(gemSighting(gem))
		assert.Same(t, gem, a.Carrying())
		assert.Zero(t, b.Collisions)
	})

	t.Run("bumping a foreign gem counts", func(t *testing.T) {
		w, b := setupWorld(t)
		a := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 2, Col: 2}, &recorder{})
		gem := blackboard.NewGem(blackboard.ColorGreen, w.At(grid.Cell{Row: 2, Col: 3}))

		a.OnContact(gemSighting(gem))
		assert.Equal(t, 1, b.Collisions)
		assert.True(t, b.For(blackboard.ColorGreen).Found.Contains(gem.Position))
	})

	t.Run("chest contact is not a collision", func(t *testing.T) {
		w, b := setupWorld(t)
		a := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 0, Col: 0}, &recorder{})
		a.OnContact(chestSighting(b, blackboard.ColorBlue))
		assert.Zero(t, b.Collisions)
	})
}

func TestForceReset(t *testing.T) {
	t.Run("releases reservation and claim", func(t *testing.T) {
		w, b := setupWorld(t)
		rec := &recorder{}
		a := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 2, Col: 2}, rec)

		a.Update(tick)
		oldClaim, ok := a.Claim()
		require.True(t, ok)

		gem := w.At(grid.Cell{Row: 6, Col: 6})
		b.For(blackboard.ColorRed).Found.Add(gem)
		a.reserve(gem)

		a.ForceReset()

		assert.False(t, b.Reserved.Contains(gem))
		assert.False(t, a.Reservation().Held())
		assert.False(t, b.AgentNext.Contains(oldClaim))
		assert.Equal(t, 1, rec.count(blackboard.EventAgentStuck))
		assert.NotEqual(t, oldClaim, a.Target())
	})

	t.Run("carrier heads back to its chest", func(t *testing.T) {
		w, b := setupWorld(t)
		a := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 2, Col: 2}, &recorder{})
		a.OnZoneEnter(gemSighting(blackboard.NewGem(blackboard.ColorRed, w.At(grid.Cell{Row: 2, Col: 3}))))

		a.ForceReset()
		assert.True(t, a.Delivering())
		assert.Equal(t, b.For(blackboard.ColorRed).Chest, a.Target())
	})

	t.Run("triggers after standing still past the threshold", func(t *testing.T) {
		w, b := setupWorld(t)
		rec := &recorder{}
		a := newAgent(w, b, "red-1", blackboard.ColorRed, grid.Cell{Row: 0, Col: 0}, rec)
		a.OnZoneEnter(gemSighting(blackboard.NewGem(blackboard.ColorRed, w.At(grid.Cell{Row: 0, Col: 1}))))

		// No chest sighting arrives, so the carrier parks on its chest.
		run(a, 2)
		assert.Zero(t, rec.count(blackboard.EventAgentStuck))
		run(a, 3)
		assert.GreaterOrEqual(t, rec.count(blackboard.EventAgentStuck), 1)
		assert.Equal(t, b.For(blackboard.ColorRed).Chest, a.Target())
	})
}
