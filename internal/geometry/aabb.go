package geometry

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min rl.Vector3
	Max rl.Vector3
}

// AABBFromHalfExtents creates an AABB from a center point and half extents.
func AABBFromHalfExtents(center, half rl.Vector3) AABB {
	return AABB{
		Min: rl.Vector3Subtract(center, half),
		Max: rl.Vector3Add(center, half),
	}
}

// PointAABB is the degenerate box around a single point.
func PointAABB(p rl.Vector3) AABB {
	return AABB{Min: p, Max: p}
}

// EmptyAABB returns an inverted box that any Union replaces.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: rl.Vector3{X: inf, Y: inf, Z: inf},
		Max: rl.Vector3{X: -inf, Y: -inf, Z: -inf},
	}
}

func (a AABB) Intersects(b AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

func (a AABB) Union(b AABB) AABB {
	return AABB{Min: rl.Vector3Min(a.Min, b.Min), Max: rl.Vector3Max(a.Max, b.Max)}
}

// AddPoint grows the box to include p.
func (a AABB) AddPoint(p rl.Vector3) AABB {
	return AABB{Min: rl.Vector3Min(a.Min, p), Max: rl.Vector3Max(a.Max, p)}
}

// Expand grows the box by margin on every side.
func (a AABB) Expand(margin float32) AABB {
	return a.ExpandBy(rl.Vector3{X: margin, Y: margin, Z: margin})
}

// ExpandBy grows the box by half on every side (a Minkowski sum with a box of half extents half).
func (a AABB) ExpandBy(half rl.Vector3) AABB {
	return AABB{Min: rl.Vector3Subtract(a.Min, half), Max: rl.Vector3Add(a.Max, half)}
}

func (a AABB) Translate(d rl.Vector3) AABB {
	return AABB{Min: rl.Vector3Add(a.Min, d), Max: rl.Vector3Add(a.Max, d)}
}

// Extrude returns the box swept along d: the union of a and a moved by d.
func (a AABB) Extrude(d rl.Vector3) AABB {
	return a.Union(a.Translate(d))
}

func (a AABB) Center() rl.Vector3 {
	return rl.Vector3Scale(rl.Vector3Add(a.Min, a.Max), 0.5)
}

func (a AABB) HalfExtents() rl.Vector3 {
	return rl.Vector3Scale(rl.Vector3Subtract(a.Max, a.Min), 0.5)
}

// IsValid reports whether the box is finite and not inverted.
func (a AABB) IsValid() bool {
	return IsFinite(a.Min) && IsFinite(a.Max) &&
		a.Min.X <= a.Max.X && a.Min.Y <= a.Max.Y && a.Min.Z <= a.Max.Z
}
