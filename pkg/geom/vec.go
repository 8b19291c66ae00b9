// Package geom holds the small amount of vector and heading math the
// simulation needs: positions on the ground plane, straight-line moves and
// yaw-only rotation.
package geom

import (
	"fmt"
	"math"
)

// Vec3 is a world-space position. Y is the vertical axis; agents move on the
// X/Z plane. Vec3 is comparable and is used directly as a set key, so
// positions that must match (grid cells, gem spawns) are always produced by
// the same arithmetic rather than compared with a tolerance.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Zero is the origin.
var Zero = Vec3{}

// V is shorthand for constructing a Vec3.
func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

// Len returns the Euclidean length.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dist returns the Euclidean distance between two positions.
func (v Vec3) Dist(o Vec3) float64 {
	return v.Sub(o).Len()
}

// Normalized returns the unit vector in the direction of v, or Zero when v
// has no length.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return Zero
	}
	return v.Scale(1 / l)
}

func (v Vec3) IsZero() bool {
	return v == Zero
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// MoveTowards moves current toward target by at most maxDelta. When the
// remaining distance fits inside maxDelta the exact target is returned, so
// an agent at rest sits precisely on its target cell.
func MoveTowards(current, target Vec3, maxDelta float64) Vec3 {
	diff := target.Sub(current)
	dist := diff.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	if maxDelta <= 0 {
		return current
	}
	return current.Add(diff.Scale(maxDelta / dist))
}
