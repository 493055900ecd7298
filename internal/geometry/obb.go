package geometry

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OBB represents an Oriented Bounding Box
type OBB struct {
	Center   rl.Vector3    // World-space center
	HalfSize rl.Vector3    // Half-extents along local axes
	Axes     [3]rl.Vector3 // Local X, Y, Z axes (rotated)
}

// NewOBB places a box of the given half extents at pose.
func NewOBB(halfSize rl.Vector3, pose Pose) OBB {
	return OBB{
		Center:   pose.Position,
		HalfSize: halfSize,
		Axes: [3]rl.Vector3{
			pose.Rotate(Right),
			pose.Rotate(Up),
			pose.Rotate(Forward),
		},
	}
}

// AABB returns the tight axis-aligned box around the OBB.
func (o OBB) AABB() AABB {
	var half rl.Vector3
	for i, h := range [3]float32{o.HalfSize.X, o.HalfSize.Y, o.HalfSize.Z} {
		ax := o.Axes[i]
		half.X += h * math32.Abs(ax.X)
		half.Y += h * math32.Abs(ax.Y)
		half.Z += h * math32.Abs(ax.Z)
	}
	return AABBFromHalfExtents(o.Center, half)
}

// ResolveOBB returns the minimum translation vector that pushes a out of b and
// the penetration depth along it. Returns a zero vector if the boxes do not overlap.
func (a OBB) ResolveOBB(b OBB) (rl.Vector3, float32) {
	axis, depth, ok := a.minimumSeparation(b)
	if !ok {
		return rl.Vector3{}, 0
	}
	return rl.Vector3Scale(axis, depth), depth
}

// minimumSeparation walks the 15 SAT axes (3 face normals each, 9 edge
// crosses) and returns the unit axis with the smallest overlap, oriented to
// push a away from b. ok is false as soon as a separating axis is found.
func (a OBB) minimumSeparation(b OBB) (rl.Vector3, float32, bool) {
	t := rl.Vector3Subtract(b.Center, a.Center)
	minPenetration := float32(math32.MaxFloat32)
	var best rl.Vector3

	testAxis := func(axis rl.Vector3) bool {
		if LengthSqr(axis) < 1e-8 {
			return true // parallel edges
		}
		axis = rl.Vector3Normalize(axis)

		dist := Dot(t, axis)
		penetration := a.project(axis) + b.project(axis) - math32.Abs(dist)
		if penetration < 0 {
			return false
		}
		if penetration < minPenetration {
			minPenetration = penetration
			if dist < 0 {
				best = axis
			} else {
				best = rl.Vector3Negate(axis)
			}
		}
		return true
	}

	for i := 0; i < 3; i++ {
		if !testAxis(a.Axes[i]) || !testAxis(b.Axes[i]) {
			return rl.Vector3{}, 0, false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !testAxis(Cross(a.Axes[i], b.Axes[j])) {
				return rl.Vector3{}, 0, false
			}
		}
	}
	return best, minPenetration, true
}

// project returns the OBB's half-width projected onto axis.
func (o OBB) project(axis rl.Vector3) float32 {
	return o.HalfSize.X*math32.Abs(Dot(o.Axes[0], axis)) +
		o.HalfSize.Y*math32.Abs(Dot(o.Axes[1], axis)) +
		o.HalfSize.Z*math32.Abs(Dot(o.Axes[2], axis))
}
