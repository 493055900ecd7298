package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Kind tags the Shape variant.
type Kind uint8

const (
	KindSphere Kind = iota
	KindCapsule
	KindCuboid
	KindConvexHull
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindCapsule:
		return "capsule"
	case KindCuboid:
		return "cuboid"
	case KindConvexHull:
		return "convex_hull"
	case KindCompound:
		return "compound"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Shape is an immutable collision shape. Only the fields of its Kind are set;
// the zero Shape is a sphere of radius 0, i.e. a point.
type Shape struct {
	kind        Kind
	radius      float32
	halfHeight  float32
	halfExtents rl.Vector3
	points      []rl.Vector3
	children    []Child
}

// Child is one part of a compound shape, placed relative to the compound's frame.
type Child struct {
	Shape Shape
	Pose  Pose
}

func Sphere(radius float32) Shape {
	return Shape{kind: KindSphere, radius: radius}
}

// Capsule builds a capsule whose segment runs along local Y from -halfHeight to +halfHeight.
func Capsule(halfHeight, radius float32) Shape {
	return Shape{kind: KindCapsule, halfHeight: halfHeight, radius: radius}
}

func Cuboid(halfExtents rl.Vector3) Shape {
	return Shape{kind: KindCuboid, halfExtents: halfExtents}
}

// ConvexHull builds a hull over the given local points. The points are copied.
func ConvexHull(points ...rl.Vector3) Shape {
	return Shape{kind: KindConvexHull, points: append([]rl.Vector3(nil), points...)}
}

// Compound builds a shape out of children. Nested compounds are allowed.
func Compound(children ...Child) Shape {
	return Shape{kind: KindCompound, children: append([]Child(nil), children...)}
}

func (s Shape) Kind() Kind { return s.kind }
func (s Shape) Radius() float32 { return s.radius }
func (s Shape) HalfHeight() float32 { return s.halfHeight }
func (s Shape) HalfExtents() rl.Vector3 { return s.halfExtents }
func (s Shape) Points() []rl.Vector3 { return append([]rl.Vector3(nil), s.points...) }

func (s Shape) String() string {
	switch s.kind {
	case KindSphere:
		return fmt.Sprintf("Sphere(r=%.3g)", s.radius)
	case KindCapsule:
		return fmt.Sprintf("Capsule(hh=%.3g, r=%.3g)", s.halfHeight, s.radius)
	case KindCuboid:
		return fmt.Sprintf("Cuboid(%.3g, %.3g, %.3g)", s.halfExtents.X, s.halfExtents.Y, s.halfExtents.Z)
	case KindConvexHull:
		return fmt.Sprintf("ConvexHull(%d points)", len(s.points))
	case KindCompound:
		return fmt.Sprintf("Compound(%d children)", len(s.children))
	}
	return s.kind.String()
}

// Normalized maps invalid parameters to a well-defined shape: negative or
// non-finite lengths become 0, non-finite hull points are dropped, an empty
// hull or compound becomes a point. The bool reports whether anything changed.
func (s Shape) Normalized() (Shape, bool) {
	switch s.kind {
	case KindSphere:
		r, bad := sanitizeLength(s.radius)
		return Sphere(r), bad
	case KindCapsule:
		hh, badH := sanitizeLength(s.halfHeight)
		r, badR := sanitizeLength(s.radius)
		return Capsule(hh, r), badH || badR
	case KindCuboid:
		x, bx := sanitizeLength(s.halfExtents.X)
		y, by := sanitizeLength(s.halfExtents.Y)
		z, bz := sanitizeLength(s.halfExtents.Z)
		return Cuboid(rl.Vector3{X: x, Y: y, Z: z}), bx || by || bz
	case KindConvexHull:
		pts := make([]rl.Vector3, 0, len(s.points))
		for _, p := range s.points {
			if IsFinite(p) {
				pts = append(pts, p)
			}
		}
		if len(pts) == 0 {
			return Sphere(0), true
		}
		return Shape{kind: KindConvexHull, points: pts}, len(pts) != len(s.points)
	case KindCompound:
		if len(s.children) == 0 {
			return Sphere(0), true
		}
		degenerate := false
		children := make([]Child, len(s.children))
		for i, c := range s.children {
			shape, bad := c.Shape.Normalized()
			pose := c.Pose
			if !pose.IsValid() {
				pose, bad = Identity(), true
			}
			children[i] = Child{Shape: shape, Pose: pose}
			degenerate = degenerate || bad
		}
		return Shape{kind: KindCompound, children: children}, degenerate
	}
	return Sphere(0), true
}

func sanitizeLength(x float32) (float32, bool) {
	if math32.IsNaN(x) || math32.IsInf(x, 0) || x < 0 {
		return 0, true
	}
	return x, false
}
