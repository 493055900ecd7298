package geometry

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Bounds returns the world-space AABB of shape placed at pose. It is exact for
// spheres, capsules and cuboids and conservative for hulls and compounds.
func Bounds(shape Shape, pose Pose) AABB {
	switch shape.kind {
	case KindSphere:
		return PointAABB(pose.Position).Expand(shape.radius)
	case KindCapsule:
		top := pose.Transform(rl.Vector3{Y: shape.halfHeight})
		bottom := pose.Transform(rl.Vector3{Y: -shape.halfHeight})
		return PointAABB(top).AddPoint(bottom).Expand(shape.radius)
	case KindCuboid:
		return NewOBB(shape.halfExtents, pose).AABB()
	case KindConvexHull:
		if len(shape.points) == 0 {
			return PointAABB(pose.Position)
		}
		box := EmptyAABB()
		for _, p := range shape.points {
			box = box.AddPoint(pose.Transform(p))
		}
		return box
	case KindCompound:
		if len(shape.children) == 0 {
			return PointAABB(pose.Position)
		}
		box := EmptyAABB()
		for _, c := range shape.children {
			box = box.Union(Bounds(c.Shape, pose.Mul(c.Pose)))
		}
		return box
	}
	return PointAABB(pose.Position)
}

// SweptBounds is the AABB of shape moved from pose along delta.
func SweptBounds(shape Shape, pose Pose, delta rl.Vector3) AABB {
	return Bounds(shape, pose).Extrude(delta)
}
