package geom

import "math"

// Orientation is an Euler rotation in degrees. Only Yaw is meaningful for a
// ground agent; Pitch and Roll accumulate drift and are cleared every tick.
type Orientation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Upright returns o with the tilt components forced to zero.
func (o Orientation) Upright() Orientation {
	return Orientation{Yaw: NormalizeYaw(o.Yaw)}
}

// NormalizeYaw maps an angle into [0, 360).
func NormalizeYaw(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// DeltaAngle returns the shortest signed difference target-current in
// degrees, in the range (-180, 180].
func DeltaAngle(current, target float64) float64 {
	d := math.Mod(target-current, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// YawTowards returns the heading that faces along dir. Heading 0 faces +Z
// and heading 90 faces +X.
func YawTowards(dir Vec3) float64 {
	return NormalizeYaw(math.Atan2(dir.X, dir.Z) * 180 / math.Pi)
}

// Forward returns the unit vector an agent with the given heading faces.
func Forward(yaw float64) Vec3 {
	rad := yaw * math.Pi / 180
	return Vec3{X: math.Sin(rad), Z: math.Cos(rad)}
}

// RotateTowards turns current toward target by at most maxDelta degrees
// along the shorter arc.
func RotateTowards(current, target, maxDelta float64) float64 {
	d := DeltaAngle(current, target)
	if math.Abs(d) <= maxDelta {
		return NormalizeYaw(target)
	}
	if d > 0 {
		return NormalizeYaw(current + maxDelta)
	}
	return NormalizeYaw(current - maxDelta)
}

// AngleBetween returns the absolute angular distance in degrees.
func AngleBetween(a, b float64) float64 {
	return math.Abs(DeltaAngle(a, b))
}
