package narrowphase

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"shapecast/internal/geometry"
)

const (
	// epaMaxIterations limits polytope expansion. Typical convergence is 5-15 iterations.
	epaMaxIterations = 64

	// epaTolerance is the distance improvement below which the closest face is final.
	epaTolerance = 1e-4
)

// penetration is how deep A sits inside B and the direction that gets it out.
type penetration struct {
	depth  float32
	normal rl.Vector3 // unit, from B toward A: moving A along it separates the pair
	pointA rl.Vector3 // deepest point of A
	pointB rl.Vector3 // matching point on B's surface
	// fallback is set when the polytope could not be expanded and the depth is
	// a projection estimate.
	fallback bool
}

// penetrate resolves an overlapping pair. Shallow overlaps (cores apart,
// margins crossing) are exact; box pairs use SAT; everything else runs EPA.
func penetrate(a, b geometry.Placed, d DistanceResult) penetration {
	if !d.core.overlap {
		depth := a.Margin() + b.Margin() - d.core.distance
		if depth < 0 {
			depth = 0
		}
		return penetration{depth: depth, normal: d.Normal, pointA: d.PointA, pointB: d.PointB}
	}

	if a.Shape.Kind() == geometry.KindCuboid && b.Shape.Kind() == geometry.KindCuboid {
		obbA := geometry.NewOBB(a.Shape.HalfExtents(), a.Pose)
		obbB := geometry.NewOBB(b.Shape.HalfExtents(), b.Pose)
		if mtv, depth := obbA.ResolveOBB(obbB); depth > 0 {
			n := geometry.NormalizeOr(mtv, geometry.Up)
			pa := a.Support(rl.Vector3Negate(n))
			return penetration{
				depth:  depth,
				normal: n,
				pointA: pa,
				pointB: rl.Vector3Add(pa, rl.Vector3Scale(n, depth)),
			}
		}
	}

	if p, ok := expandPolytope(a, b, d.core.simplex); ok {
		return p
	}
	return projectionEstimate(a, b)
}

// projectionEstimate measures the overlap of both shapes projected on the
// center-to-center axis. It is an upper bound used only when EPA cannot run.
func projectionEstimate(a, b geometry.Placed) penetration {
	n := geometry.NormalizeOr(rl.Vector3Subtract(a.Center(), b.Center()), geometry.Up)
	pa := a.Support(rl.Vector3Negate(n))
	pb := b.Support(n)
	depth := geometry.Dot(rl.Vector3Subtract(pb, pa), n)
	if depth < 0 {
		depth = 0
	}
	return penetration{depth: depth, normal: n, pointA: pa, pointB: pb, fallback: true}
}

type epaFace struct {
	i, j, k int
	normal  rl.Vector3 // outward, away from the polytope interior
	dist    float32    // distance of the face plane from the origin
}

type polytope struct {
	verts    []vertex
	faces    []epaFace
	interior rl.Vector3
}

func (p *polytope) makeFace(i, j, k int) (epaFace, bool) {
	a, b, c := p.verts[i].w, p.verts[j].w, p.verts[k].w
	n := geometry.Cross(rl.Vector3Subtract(b, a), rl.Vector3Subtract(c, a))
	if geometry.LengthSqr(n) < 1e-20 {
		return epaFace{}, false
	}
	n = rl.Vector3Normalize(n)
	if geometry.Dot(n, rl.Vector3Subtract(a, p.interior)) < 0 {
		n = rl.Vector3Negate(n)
		j, k = k, j
	}
	return epaFace{i: i, j: j, k: k, normal: n, dist: geometry.Dot(n, a)}, true
}

func (p *polytope) closestFace() int {
	best := 0
	for i := 1; i < len(p.faces); i++ {
		if p.faces[i].dist < p.faces[best].dist {
			best = i
		}
	}
	return best
}

// expandPolytope runs the Expanding Polytope Algorithm on the full shapes,
// seeded with the GJK simplex.
func expandPolytope(a, b geometry.Placed, s simplex) (penetration, bool) {
	p, ok := newPolytope(seedTetrahedron(a, b))
	if !ok || !p.enclosesOrigin() {
		verts, ok := blowUp(a, b, s)
		if !ok {
			return penetration{}, false
		}
		if p, ok = newPolytope(verts); !ok {
			return penetration{}, false
		}
	}

	for iter := 0; iter < epaMaxIterations; iter++ {
		closest := p.faces[p.closestFace()]
		w := support(a, b, closest.normal)
		if geometry.Dot(w.w, closest.normal)-closest.dist < epaTolerance {
			return p.result(closest), true
		}
		if !p.expand(w) {
			return p.result(closest), true
		}
		if len(p.faces) == 0 {
			return penetration{}, false
		}
	}
	return p.result(p.faces[p.closestFace()]), true
}

func newPolytope(verts []vertex) (*polytope, bool) {
	p := &polytope{verts: verts}
	for _, v := range verts {
		p.interior = rl.Vector3Add(p.interior, v.w)
	}
	p.interior = rl.Vector3Scale(p.interior, 0.25)

	for _, f := range [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}} {
		if face, ok := p.makeFace(f[0], f[1], f[2]); ok {
			p.faces = append(p.faces, face)
		}
	}
	return p, len(p.faces) == 4
}

// enclosesOrigin reports whether the origin is strictly inside every face.
func (p *polytope) enclosesOrigin() bool {
	for _, f := range p.faces {
		if f.dist <= 1e-6 {
			return false
		}
	}
	return true
}

// seedTetrahedron samples the full Minkowski difference along the vertex
// directions of a regular tetrahedron. When it encloses the origin it is a
// better start than a GJK simplex that ended on the origin.
func seedTetrahedron(a, b geometry.Placed) []vertex {
	dirs := [4]rl.Vector3{
		{X: 1, Y: 1, Z: 1},
		{X: -1, Y: -1, Z: 1},
		{X: -1, Y: 1, Z: -1},
		{X: 1, Y: -1, Z: -1},
	}
	verts := make([]vertex, 4)
	for i, d := range dirs {
		verts[i] = support(a, b, d)
	}
	return verts
}

// expand adds w to the polytope, replacing every face that can see it with a
// fan of faces built on the horizon.
func (p *polytope) expand(w vertex) bool {
	idx := len(p.verts)
	p.verts = append(p.verts, w)

	var horizon [][2]int
	addEdge := func(i, j int) {
		for n, e := range horizon {
			if e[0] == j && e[1] == i {
				horizon = append(horizon[:n], horizon[n+1:]...)
				return
			}
		}
		horizon = append(horizon, [2]int{i, j})
	}

	kept := make([]epaFace, 0, len(p.faces)+4)
	removed := 0
	for _, f := range p.faces {
		if geometry.Dot(f.normal, rl.Vector3Subtract(w.w, p.verts[f.i].w)) > 1e-7 {
			addEdge(f.i, f.j)
			addEdge(f.j, f.k)
			addEdge(f.k, f.i)
			removed++
			continue
		}
		kept = append(kept, f)
	}
	if removed == 0 {
		p.verts = p.verts[:idx]
		return false
	}

	for _, e := range horizon {
		if face, ok := p.makeFace(e[0], e[1], idx); ok {
			kept = append(kept, face)
		}
	}
	p.faces = kept
	return true
}

func (p *polytope) result(f epaFace) penetration {
	depth := f.dist
	if depth < 0 {
		depth = 0
	}
	a, b, c := p.verts[f.i], p.verts[f.j], p.verts[f.k]
	u, v, w := barycentric(rl.Vector3Scale(f.normal, f.dist), a.w, b.w, c.w)

	pa := rl.Vector3Add(rl.Vector3Add(rl.Vector3Scale(a.a, u), rl.Vector3Scale(b.a, v)), rl.Vector3Scale(c.a, w))
	pb := rl.Vector3Add(rl.Vector3Add(rl.Vector3Scale(a.b, u), rl.Vector3Scale(b.b, v)), rl.Vector3Scale(c.b, w))
	return penetration{
		depth:  depth,
		normal: rl.Vector3Negate(f.normal),
		pointA: pa,
		pointB: pb,
	}
}

func barycentric(p, a, b, c rl.Vector3) (u, v, w float32) {
	v0 := rl.Vector3Subtract(b, a)
	v1 := rl.Vector3Subtract(c, a)
	v2 := rl.Vector3Subtract(p, a)
	d00 := geometry.Dot(v0, v0)
	d01 := geometry.Dot(v0, v1)
	d11 := geometry.Dot(v1, v1)
	d20 := geometry.Dot(v2, v0)
	d21 := geometry.Dot(v2, v1)
	denom := d00*d11 - d01*d01
	if geometry.Abs(denom) < 1e-20 {
		return 1, 0, 0
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	return 1 - v - w, v, w
}

// blowUp grows a GJK simplex that ended below full dimension into a
// tetrahedron by searching extra support directions.
func blowUp(a, b geometry.Placed, s simplex) ([]vertex, bool) {
	verts := make([]vertex, s.n, 4)
	copy(verts, s.v[:s.n])
	if len(verts) == 0 {
		verts = append(verts, support(a, b, geometry.Right))
	}

	if len(verts) == 1 {
		for _, d := range axisDirections() {
			v := support(a, b, d)
			if geometry.LengthSqr(rl.Vector3Subtract(v.w, verts[0].w)) > 1e-10 {
				verts = append(verts, v)
				break
			}
		}
	}

	if len(verts) == 2 {
		axis := geometry.NormalizeOr(rl.Vector3Subtract(verts[1].w, verts[0].w), geometry.Right)
		p := geometry.Perpendicular(axis)
		q := geometry.Cross(axis, p)
		for _, d := range []rl.Vector3{p, rl.Vector3Negate(p), q, rl.Vector3Negate(q)} {
			v := support(a, b, d)
			off := rl.Vector3Subtract(v.w, verts[0].w)
			if geometry.LengthSqr(geometry.Cross(off, axis)) > 1e-10 {
				verts = append(verts, v)
				break
			}
		}
	}

	if len(verts) == 3 {
		n := geometry.NormalizeOr(geometry.Cross(
			rl.Vector3Subtract(verts[1].w, verts[0].w),
			rl.Vector3Subtract(verts[2].w, verts[0].w),
		), geometry.Up)
		for _, d := range []rl.Vector3{n, rl.Vector3Negate(n)} {
			v := support(a, b, d)
			if geometry.Abs(geometry.Dot(rl.Vector3Subtract(v.w, verts[0].w), n)) > 1e-5 {
				verts = append(verts, v)
				break
			}
		}
	}

	return verts, len(verts) == 4
}

func axisDirections() []rl.Vector3 {
	return []rl.Vector3{
		geometry.Right, rl.Vector3Negate(geometry.Right),
		geometry.Up, rl.Vector3Negate(geometry.Up),
		geometry.Forward, rl.Vector3Negate(geometry.Forward),
	}
}
