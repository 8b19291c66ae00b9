package blackboard

import "github.com/dyluth/trove/pkg/geom"

// PositionSet is an unordered set of positions. Add is idempotent and
// removing an absent entry is a no-op.
type PositionSet struct {
	m map[geom.Vec3]struct{}
}

// NewPositionSet creates an empty set.
func NewPositionSet() *PositionSet {
	return &PositionSet{m: make(map[geom.Vec3]struct{})}
}

// Add inserts p and reports whether the set changed.
func (s *PositionSet) Add(p geom.Vec3) bool {
	if _, ok := s.m[p]; ok {
		return false
	}
	s.m[p] = struct{}{}
	return true
}

// Remove deletes p and reports whether it was present.
func (s *PositionSet) Remove(p geom.Vec3) bool {
	if _, ok := s.m[p]; !ok {
		return false
	}
	delete(s.m, p)
	return true
}

func (s *PositionSet) Contains(p geom.Vec3) bool {
	_, ok := s.m[p]
	return ok
}

func (s *PositionSet) Len() int {
	return len(s.m)
}

// Items returns the members in no particular order.
func (s *PositionSet) Items() []geom.Vec3 {
	out := make([]geom.Vec3, 0, len(s.m))
	for p := range s.m {
		out = append(out, p)
	}
	return out
}

// PositionBag is a multiset: two agents standing on the same spot are two
// entries, and removing one leaves the other.
type PositionBag struct {
	m   map[geom.Vec3]int
	len int
}

// NewPositionBag creates an empty bag.
func NewPositionBag() *PositionBag {
	return &PositionBag{m: make(map[geom.Vec3]int)}
}

// Add inserts one occurrence of p.
func (b *PositionBag) Add(p geom.Vec3) {
	b.m[p]++
	b.len++
}

// Remove deletes one occurrence of p, if any.
func (b *PositionBag) Remove(p geom.Vec3) bool {
	n, ok := b.m[p]
	if !ok {
		return false
	}
	if n == 1 {
		delete(b.m, p)
	} else {
		b.m[p] = n - 1
	}
	b.len--
	return true
}

// Move replaces one occurrence of from with to.
func (b *PositionBag) Move(from, to geom.Vec3) {
	b.Remove(from)
	b.Add(to)
}

func (b *PositionBag) Contains(p geom.Vec3) bool {
	return b.m[p] > 0
}

// Count returns the number of occurrences of p.
func (b *PositionBag) Count(p geom.Vec3) int {
	return b.m[p]
}

func (b *PositionBag) Len() int {
	return b.len
}

// PositionQueue is an insertion-ordered set. Order matters: nearest-entry
// scans keep the earliest entry on ties.
type PositionQueue struct {
	items []geom.Vec3
	index map[geom.Vec3]struct{}
}

// NewPositionQueue creates an empty queue.
func NewPositionQueue() *PositionQueue {
	return &PositionQueue{index: make(map[geom.Vec3]struct{})}
}

// Add appends p unless it is already queued and reports whether it was
// appended.
func (q *PositionQueue) Add(p geom.Vec3) bool {
	if _, ok := q.index[p]; ok {
		return false
	}
	q.index[p] = struct{}{}
	q.items = append(q.items, p)
	return true
}

// Remove deletes p, preserving the order of the remaining entries.
func (q *PositionQueue) Remove(p geom.Vec3) bool {
	if _, ok := q.index[p]; !ok {
		return false
	}
	delete(q.index, p)
	for i, item := range q.items {
		if item == p {
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	return true
}

func (q *PositionQueue) Contains(p geom.Vec3) bool {
	_, ok := q.index[p]
	return ok
}

func (q *PositionQueue) Len() int {
	return len(q.items)
}

// Items returns a copy of the entries in insertion order.
func (q *PositionQueue) Items() []geom.Vec3 {
	out := make([]geom.Vec3, len(q.items))
	copy(out, q.items)
	return out
}
