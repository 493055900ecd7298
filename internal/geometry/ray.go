package geometry

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// RayHit is where a ray enters a volume. A ray starting inside reports Distance 0
// and a zero Normal.
type RayHit struct {
	Point    rl.Vector3
	Normal   rl.Vector3
	Distance float32
}

// RaySlab intersects the ray origin + t*direction, t in [0, maxDistance], with the box
// using the slab method. direction should be unit length for Distance to be metric;
// a zero direction degenerates to a containment test.
func (a AABB) RaySlab(origin, direction rl.Vector3, maxDistance float32) (RayHit, bool) {
	tmin := math32.Inf(-1)
	tmax := math32.Inf(1)
	var normal rl.Vector3

	for axis := 0; axis < 3; axis++ {
		o := Component(origin, axis)
		d := Component(direction, axis)
		lo := Component(a.Min, axis)
		hi := Component(a.Max, axis)

		if d == 0 {
			if o < lo || o > hi {
				return RayHit{}, false
			}
			continue
		}

		t1 := (lo - o) / d
		t2 := (hi - o) / d
		sign := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			normal = axisVector(axis, sign)
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return RayHit{}, false
		}
	}

	if tmax < 0 || tmin > maxDistance {
		return RayHit{}, false
	}
	if tmin <= 0 {
		return RayHit{Point: origin}, true
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, tmin))
	return RayHit{Point: point, Normal: normal, Distance: tmin}, true
}

func axisVector(axis int, sign float32) rl.Vector3 {
	switch axis {
	case 0:
		return rl.Vector3{X: sign}
	case 1:
		return rl.Vector3{Y: sign}
	default:
		return rl.Vector3{Z: sign}
	}
}

// RaySphere intersects a unit-direction ray with a sphere. A ray starting inside the
// sphere reports Distance 0 and the outward normal at the origin.
func RaySphere(origin, direction, center rl.Vector3, radius, maxDistance float32) (RayHit, bool) {
	oc := rl.Vector3Subtract(origin, center)
	c := Dot(oc, oc) - radius*radius
	if c <= 0 {
		return RayHit{Point: origin, Normal: NormalizeOr(oc, Up)}, true
	}

	a := Dot(direction, direction)
	if a == 0 {
		return RayHit{}, false
	}
	b := 2.0 * Dot(oc, direction)

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return RayHit{}, false
	}

	t := (-b - math32.Sqrt(discriminant)) / (2 * a)
	if t < 0 || t > maxDistance {
		return RayHit{}, false
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	normal := NormalizeOr(rl.Vector3Subtract(point, center), Up)

	return RayHit{Point: point, Normal: normal, Distance: t}, true
}
