package geometry

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func assertVecNear(t *testing.T, want, got rl.Vector3, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "X")
	assert.InDelta(t, want.Y, got.Y, delta, "Y")
	assert.InDelta(t, want.Z, got.Z, delta, "Z")
}

func TestZeroShapeIsPoint(t *testing.T) {
	var s Shape
	assert.Equal(t, KindSphere, s.Kind())
	assert.Equal(t, float32(0), s.Radius())
	assertVecNear(t, rl.Vector3{}, s.Support(rl.Vector3{X: 1}), 0)
}

func TestSupportMapping(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		dir   rl.Vector3
		want  rl.Vector3
	}{
		{"sphere", Sphere(2), rl.Vector3{Y: 3}, rl.Vector3{Y: 2}},
		{"capsule up", Capsule(0.5, 0.4), rl.Vector3{Y: 1}, rl.Vector3{Y: 0.9}},
		{"capsule down", Capsule(0.5, 0.4), rl.Vector3{Y: -1}, rl.Vector3{Y: -0.9}},
		{"capsule side", Capsule(0.5, 0.4), rl.Vector3{X: 1, Y: 0.0001}, rl.Vector3{X: 0.4, Y: 0.5}},
		{"cuboid corner", Cuboid(rl.Vector3{X: 1, Y: 2, Z: 3}), rl.Vector3{X: 1, Y: -1, Z: 1}, rl.Vector3{X: 1, Y: -2, Z: 3}},
		{"hull", ConvexHull(rl.Vector3{}, rl.Vector3{X: 1}, rl.Vector3{Y: 1}), rl.Vector3{Y: 1}, rl.Vector3{Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertVecNear(t, tt.want, tt.shape.Support(tt.dir), 1e-4)
		})
	}
}

func TestNormalizedClampsInvalidParameters(t *testing.T) {
	s, bad := Sphere(-1).Normalized()
	assert.True(t, bad)
	assert.Equal(t, float32(0), s.Radius())

	c, bad := Capsule(math32.NaN(), 0.4).Normalized()
	assert.True(t, bad)
	assert.Equal(t, float32(0), c.HalfHeight())
	assert.Equal(t, float32(0.4), c.Radius())

	h, bad := ConvexHull().Normalized()
	assert.True(t, bad)
	assert.Equal(t, KindSphere, h.Kind())

	cmp, bad := Compound().Normalized()
	assert.True(t, bad)
	assert.Equal(t, KindSphere, cmp.Kind())

	ok, bad := Capsule(0.5, 0.4).Normalized()
	assert.False(t, bad)
	assert.Equal(t, Capsule(0.5, 0.4), ok)
}

func TestShapeIsImmutable(t *testing.T) {
	points := []rl.Vector3{{X: 1}, {Y: 1}}
	hull := ConvexHull(points...)
	points[0] = rl.Vector3{X: 100}

	assert.Equal(t, rl.Vector3{X: 1}, hull.Points()[0])

	got := hull.Points()
	got[1] = rl.Vector3{Y: 100}
	assert.Equal(t, rl.Vector3{Y: 1}, hull.Points()[1])
}

func TestBoundsCapsule(t *testing.T) {
	box := Bounds(Capsule(0.5, 0.4), At(rl.Vector3{Y: 1}))
	assertVecNear(t, rl.Vector3{X: -0.4, Y: 0.1, Z: -0.4}, box.Min, 1e-5)
	assertVecNear(t, rl.Vector3{X: 0.4, Y: 1.9, Z: 0.4}, box.Max, 1e-5)
}

func TestBoundsRotatedCuboid(t *testing.T) {
	rot := rl.QuaternionFromAxisAngle(Up, math.Pi/4)
	pose := NewPose(rl.Vector3{}, rot)
	box := Bounds(Cuboid(rl.Vector3{X: 1, Y: 1, Z: 1}), pose)

	assert.InDelta(t, math.Sqrt2, box.Max.X, 1e-4)
	assert.InDelta(t, 1, box.Max.Y, 1e-4)

	// Every corner of the box must lie inside its AABB
	for i := 0; i < 8; i++ {
		local := rl.Vector3{X: -1, Y: -1, Z: -1}
		if i&1 != 0 {
			local.X = 1
		}
		if i&2 != 0 {
			local.Y = 1
		}
		if i&4 != 0 {
			local.Z = 1
		}
		c := pose.Transform(local)
		assert.True(t, box.Expand(1e-4).Intersects(PointAABB(c)), "corner %v outside %v", c, box)
	}
}

func TestBoundsCompound(t *testing.T) {
	shape := Compound(
		Child{Shape: Sphere(1), Pose: At(rl.Vector3{X: -2})},
		Child{Shape: Sphere(1), Pose: At(rl.Vector3{X: 2})},
	)
	box := Bounds(shape, At(rl.Vector3{Y: 10}))
	assertVecNear(t, rl.Vector3{X: -3, Y: 9, Z: -1}, box.Min, 1e-5)
	assertVecNear(t, rl.Vector3{X: 3, Y: 11, Z: 1}, box.Max, 1e-5)
}

func TestFlattenComposesPoses(t *testing.T) {
	inner := Compound(Child{Shape: Sphere(0.5), Pose: At(rl.Vector3{Z: 1})})
	outer := Compound(Child{Shape: inner, Pose: At(rl.Vector3{X: 1})})

	leaves := Flatten(nil, outer, At(rl.Vector3{Y: 1}))
	if assert.Len(t, leaves, 1) {
		assertVecNear(t, rl.Vector3{X: 1, Y: 1, Z: 1}, leaves[0].Pose.Position, 1e-6)
		assert.Equal(t, KindSphere, leaves[0].Shape.Kind())
	}
}

func TestPoseRoundTrip(t *testing.T) {
	pose := NewPose(rl.Vector3{X: 1, Y: 2, Z: 3}, rl.QuaternionFromAxisAngle(rl.Vector3{X: 1, Y: 1}, 0.7))
	v := rl.Vector3{X: 0.3, Y: -0.2, Z: 0.9}
	assertVecNear(t, v, pose.InverseRotate(pose.Rotate(v)), 1e-5)

	var zero Pose
	assertVecNear(t, v, zero.Rotate(v), 0)
}

func TestCoreSplitsMargin(t *testing.T) {
	core, m := Capsule(0.5, 0.4).Core()
	assert.Equal(t, float32(0.4), m)
	assert.Equal(t, KindCapsule, core.Kind())
	assert.Zero(t, core.Margin())
	assert.Equal(t, rl.Vector3{Y: 0.5}, core.Support(rl.Vector3{X: 1, Y: 1}))

	box := Cuboid(rl.Vector3{X: 1, Y: 1, Z: 1})
	core, m = box.Core()
	assert.Zero(t, m)
	assert.Equal(t, box, core)

	placed, m := Placed{Shape: Sphere(2), Pose: At(rl.Vector3{X: 3})}.Core()
	assert.Equal(t, float32(2), m)
	assert.Equal(t, rl.Vector3{X: 3}, placed.Support(rl.Vector3{X: 1}))
}
