package narrowphase

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"shapecast/internal/geometry"
)

// vertex is a point of the Minkowski difference A - B together with the
// support points that produced it, so witnesses can be recovered.
type vertex struct {
	w, a, b rl.Vector3
}

func support(a, b geometry.Placed, dir rl.Vector3) vertex {
	pa := a.Support(dir)
	pb := b.Support(rl.Vector3Negate(dir))
	return vertex{w: rl.Vector3Subtract(pa, pb), a: pa, b: pb}
}

// simplex holds 1-4 vertices. Size progression: point, segment, triangle, tetrahedron.
type simplex struct {
	v      [4]vertex
	lambda [4]float32
	n      int
}

func (s *simplex) add(v vertex) {
	s.v[s.n] = v
	s.n++
}

func (s *simplex) contains(w rl.Vector3) bool {
	for i := 0; i < s.n; i++ {
		if geometry.LengthSqr(rl.Vector3Subtract(s.v[i].w, w)) < 1e-12 {
			return true
		}
	}
	return false
}

// witnesses combines the support points with the barycentric weights of the
// last closest-point computation.
func (s *simplex) witnesses() (pa, pb rl.Vector3) {
	for i := 0; i < s.n; i++ {
		pa = rl.Vector3Add(pa, rl.Vector3Scale(s.v[i].a, s.lambda[i]))
		pb = rl.Vector3Add(pb, rl.Vector3Scale(s.v[i].b, s.lambda[i]))
	}
	return pa, pb
}

func (s *simplex) keep(idx ...int) {
	var next simplex
	for _, i := range idx {
		next.v[next.n] = s.v[i]
		next.n++
	}
	*s = next
}

// closest reduces the simplex to the smallest sub-simplex supporting the
// point closest to the origin and returns that point. inside is true when the
// origin lies within a full tetrahedron.
func (s *simplex) closest() (v rl.Vector3, inside bool) {
	switch s.n {
	case 1:
		s.lambda[0] = 1
		return s.v[0].w, false
	case 2:
		return s.closestSegment(0, 1), false
	case 3:
		return s.closestTriangle(0, 1, 2), false
	}
	return s.closestTetrahedron()
}

func (s *simplex) closestSegment(i, j int) rl.Vector3 {
	a, b := s.v[i].w, s.v[j].w
	ab := rl.Vector3Subtract(b, a)
	den := geometry.LengthSqr(ab)
	t := float32(0)
	if den > 1e-12 {
		t = -geometry.Dot(a, ab) / den
	}
	switch {
	case t <= 0:
		s.keep(i)
		s.lambda[0] = 1
		return a
	case t >= 1:
		s.keep(j)
		s.lambda[0] = 1
		return b
	}
	s.keep(i, j)
	s.lambda[0], s.lambda[1] = 1-t, t
	return rl.Vector3Add(a, rl.Vector3Scale(ab, t))
}

// closestTriangle follows the Voronoi-region walk from Ericson,
// "Real-Time Collision Detection" 5.1.5, with the query point at the origin.
func (s *simplex) closestTriangle(i, j, k int) rl.Vector3 {
	a, b, c := s.v[i].w, s.v[j].w, s.v[k].w
	ab := rl.Vector3Subtract(b, a)
	ac := rl.Vector3Subtract(c, a)
	ap := rl.Vector3Negate(a)

	d1 := geometry.Dot(ab, ap)
	d2 := geometry.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		s.keep(i)
		s.lambda[0] = 1
		return a
	}

	bp := rl.Vector3Negate(b)
	d3 := geometry.Dot(ab, bp)
	d4 := geometry.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		s.keep(j)
		s.lambda[0] = 1
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := d1 / (d1 - d3)
		s.keep(i, j)
		s.lambda[0], s.lambda[1] = 1-t, t
		return rl.Vector3Add(a, rl.Vector3Scale(ab, t))
	}

	cp := rl.Vector3Negate(c)
	d5 := geometry.Dot(ab, cp)
	d6 := geometry.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		s.keep(k)
		s.lambda[0] = 1
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := d2 / (d2 - d6)
		s.keep(i, k)
		s.lambda[0], s.lambda[1] = 1-t, t
		return rl.Vector3Add(a, rl.Vector3Scale(ac, t))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		t := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		s.keep(j, k)
		s.lambda[0], s.lambda[1] = 1-t, t
		return rl.Vector3Add(b, rl.Vector3Scale(rl.Vector3Subtract(c, b), t))
	}

	sum := va + vb + vc
	if geometry.Abs(sum) < 1e-20 {
		// Collinear points: fall back to the best edge
		return s.closestEdgeOf(i, j, k)
	}
	denom := 1 / sum
	v := vb * denom
	w := vc * denom
	s.keep(i, j, k)
	s.lambda[0], s.lambda[1], s.lambda[2] = 1-v-w, v, w
	return rl.Vector3Add(a, rl.Vector3Add(rl.Vector3Scale(ab, v), rl.Vector3Scale(ac, w)))
}

func (s *simplex) closestEdgeOf(i, j, k int) rl.Vector3 {
	orig := *s
	var best simplex
	var bestV rl.Vector3
	bestD := float32(-1)
	for _, e := range [3][2]int{{i, j}, {j, k}, {i, k}} {
		*s = orig
		v := s.closestSegment(e[0], e[1])
		if d := geometry.LengthSqr(v); bestD < 0 || d < bestD {
			best, bestV, bestD = *s, v, d
		}
	}
	*s = best
	return bestV
}

// closestTetrahedron checks each face the origin lies outside of and keeps the
// closest; if the origin is behind every face it is contained.
func (s *simplex) closestTetrahedron() (rl.Vector3, bool) {
	faces := [4][4]int{
		{0, 1, 2, 3},
		{0, 2, 3, 1},
		{0, 3, 1, 2},
		{1, 3, 2, 0},
	}
	orig := *s
	var best simplex
	var bestV rl.Vector3
	bestD := float32(-1)

	for _, f := range faces {
		if !originOutsideFace(orig.v[f[0]].w, orig.v[f[1]].w, orig.v[f[2]].w, orig.v[f[3]].w) {
			continue
		}
		*s = orig
		v := s.closestTriangle(f[0], f[1], f[2])
		if d := geometry.LengthSqr(v); bestD < 0 || d < bestD {
			best, bestV, bestD = *s, v, d
		}
	}
	if bestD < 0 {
		*s = orig
		return rl.Vector3{}, true
	}
	*s = best
	return bestV, false
}

// originOutsideFace reports whether the origin and d lie on opposite sides of
// the plane through a, b, c. Degenerate (flat) tetrahedra report true so the
// face still gets tested.
func originOutsideFace(a, b, c, d rl.Vector3) bool {
	n := geometry.Cross(rl.Vector3Subtract(b, a), rl.Vector3Subtract(c, a))
	signP := geometry.Dot(rl.Vector3Negate(a), n)
	signD := geometry.Dot(rl.Vector3Subtract(d, a), n)
	if signD*signD < 1e-20 {
		return true
	}
	return signP*signD < 0
}
