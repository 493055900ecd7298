// Package geometry holds the shape, pose and bounding-volume primitives shared
// by the broad-phase and narrow-phase. All math is float32 on raylib vectors.
package geometry

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

var (
	Up      = rl.Vector3{X: 0, Y: 1, Z: 0}
	Right   = rl.Vector3{X: 1, Y: 0, Z: 0}
	Forward = rl.Vector3{X: 0, Y: 0, Z: 1}
)

// Cross computes the cross product of two vectors
func Cross(a, b rl.Vector3) rl.Vector3 {
	return rl.Vector3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Dot is a shorthand for rl.Vector3DotProduct.
func Dot(a, b rl.Vector3) float32 {
	return rl.Vector3DotProduct(a, b)
}

// LengthSqr returns the squared length of v.
func LengthSqr(v rl.Vector3) float32 {
	return Dot(v, v)
}

// NormalizeOr returns v normalized, or fallback when v is (nearly) zero or not finite.
func NormalizeOr(v, fallback rl.Vector3) rl.Vector3 {
	l := math32.Sqrt(LengthSqr(v))
	if l < 1e-12 || !IsFinite(v) {
		return fallback
	}
	return rl.Vector3Scale(v, 1/l)
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v rl.Vector3) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// IsZero reports whether v is exactly the zero vector.
func IsZero(v rl.Vector3) bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Perpendicular returns some unit vector orthogonal to v.
func Perpendicular(v rl.Vector3) rl.Vector3 {
	axis := Right
	if Abs(v.X) > Abs(v.Y) {
		axis = Up
	}
	return NormalizeOr(Cross(v, axis), Forward)
}

// Component returns the i-th component (0=X, 1=Y, 2=Z).
func Component(v rl.Vector3, i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func finite(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}

// Abs is math32.Abs, re-exported for callers that only import geometry.
func Abs(x float32) float32 {
	return math32.Abs(x)
}

// Clamp restricts a value to a range
func Clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
