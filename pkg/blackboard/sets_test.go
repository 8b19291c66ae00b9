package blackboard

import (
	"testing"

	"github.com/dyluth/trove/pkg/geom"
	"github.com/stretchr/testify/assert"
)

func TestPositionSet(t *testing.T) {
	s := NewPositionSet()
	p := geom.V(1, 0, 1)

	t.Run("add is idempotent", func(t *testing.T) {
		assert.True(t, s.Add(p))
		assert.False(t, s.Add(p))
		assert.Equal(t, 1, s.Len())
		assert.True(t, s.Contains(p))
	})

	t.Run("removing an absent entry is a no-op", func(t *testing.T) {
		assert.False(t, s.Remove(geom.V(9, 9, 9)))
		assert.Equal(t, 1, s.Len())
	})

	t.Run("remove", func(t *testing.T) {
		assert.True(t, s.Remove(p))
		assert.False(t, s.Contains(p))
		assert.Empty(t, s.Items())
	})
}

func TestPositionBag(t *testing.T) {
	b := NewPositionBag()
	p := geom.V(0, 0, 0)
	q := geom.V(1, 0, 0)

	b.Add(p)
	b.Add(p)
	assert.Equal(t, 2, b.Count(p))
	assert.Equal(t, 2, b.Len())

	b.Move(p, q)
	assert.Equal(t, 1, b.Count(p))
	assert.True(t, b.Contains(q))
	assert.Equal(t, 2, b.Len())

	assert.True(t, b.Remove(p))
	assert.False(t, b.Contains(p))
	assert.False(t, b.Remove(p))
	assert.Equal(t, 1, b.Len())
}

func TestPositionQueue(t *testing.T) {
	q := NewPositionQueue()
	a, b, c := geom.V(1, 0, 0), geom.V(2, 0, 0), geom.V(3, 0, 0)

	assert.True(t, q.Add(a))
	assert.True(t, q.Add(b))
	assert.True(t, q.Add(c))
	assert.False(t, q.Add(b))
	assert.Equal(t, []geom.Vec3{a, b, c}, q.Items())

	assert.True(t, q.Remove(b))
	assert.False(t, q.Remove(b))
	assert.Equal(t, []geom.Vec3{a, c}, q.Items())
	assert.False(t, q.Contains(b))

	// Items is a copy
	items := q.Items()
	items[0] = geom.V(7, 7, 7)
	assert.Equal(t, a, q.Items()[0])
}
