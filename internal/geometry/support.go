package geometry

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Margin is the rounding radius swept around a convex shape's core:
// the radius for spheres and capsules, 0 for cuboids and hulls.
func (s Shape) Margin() float32 {
	switch s.kind {
	case KindSphere, KindCapsule:
		return s.radius
	}
	return 0
}

// CoreSupport returns the local-space point of the shape's core (the shape
// without its margin) farthest along dir. Compounds have no single core and
// return the origin.
func (s Shape) CoreSupport(dir rl.Vector3) rl.Vector3 {
	switch s.kind {
	case KindCapsule:
		if dir.Y >= 0 {
			return rl.Vector3{Y: s.halfHeight}
		}
		return rl.Vector3{Y: -s.halfHeight}
	case KindCuboid:
		return rl.Vector3{
			X: signedExtent(dir.X, s.halfExtents.X),
			Y: signedExtent(dir.Y, s.halfExtents.Y),
			Z: signedExtent(dir.Z, s.halfExtents.Z),
		}
	case KindConvexHull:
		if len(s.points) == 0 {
			return rl.Vector3{}
		}
		best := s.points[0]
		bestDot := Dot(best, dir)
		for _, p := range s.points[1:] {
			if d := Dot(p, dir); d > bestDot {
				best, bestDot = p, d
			}
		}
		return best
	}
	return rl.Vector3{}
}

// Support returns the local-space boundary point farthest along dir.
func (s Shape) Support(dir rl.Vector3) rl.Vector3 {
	core := s.CoreSupport(dir)
	if m := s.Margin(); m > 0 {
		core = rl.Vector3Add(core, rl.Vector3Scale(NormalizeOr(dir, Up), m))
	}
	return core
}

// Core splits the shape into its margin-free core and the margin radius.
// A sphere's core is a point, a capsule's a segment.
func (s Shape) Core() (Shape, float32) {
	m := s.Margin()
	if m == 0 {
		return s, 0
	}
	core := s
	core.radius = 0
	return core, m
}

func signedExtent(d, h float32) float32 {
	if d < 0 {
		return -h
	}
	return h
}

// Placed is a convex shape positioned in the world, the unit narrow-phase works on.
type Placed struct {
	Shape Shape
	Pose  Pose
}

// Core splits the placed shape into its core, placed the same way, and the margin.
func (p Placed) Core() (Placed, float32) {
	core, m := p.Shape.Core()
	return Placed{Shape: core, Pose: p.Pose}, m
}

// Support is the world-space support of the full shape along a world direction.
func (p Placed) Support(dir rl.Vector3) rl.Vector3 {
	return p.Pose.Transform(p.Shape.Support(p.Pose.InverseRotate(dir)))
}

func (p Placed) Margin() float32 {
	return p.Shape.Margin()
}

// Center is a point inside the core, used to seed searches.
func (p Placed) Center() rl.Vector3 {
	if p.Shape.kind == KindConvexHull && len(p.Shape.points) > 0 {
		var sum rl.Vector3
		for _, pt := range p.Shape.points {
			sum = rl.Vector3Add(sum, pt)
		}
		return p.Pose.Transform(rl.Vector3Scale(sum, 1/float32(len(p.Shape.points))))
	}
	return p.Pose.Position
}

// Translated returns the placed shape moved by d.
func (p Placed) Translated(d rl.Vector3) Placed {
	p.Pose = p.Pose.Translated(d)
	return p
}

// Flatten appends every convex leaf of shape (placed under pose) to dst.
// Compound children are composed with their parent pose.
func Flatten(dst []Placed, shape Shape, pose Pose) []Placed {
	if shape.kind != KindCompound {
		return append(dst, Placed{Shape: shape, Pose: pose})
	}
	for _, c := range shape.children {
		dst = Flatten(dst, c.Shape, pose.Mul(c.Pose))
	}
	return dst
}
