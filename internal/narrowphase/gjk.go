package narrowphase

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"shapecast/internal/geometry"
)

const (
	// gjkMaxIterations bounds the distance search. Typical convergence is 3-8 iterations.
	gjkMaxIterations = 64

	// gjkRelativeTolerance stops the search once the duality gap |v|^2 - v.w
	// falls below this fraction of |v|^2.
	gjkRelativeTolerance = 1e-5

	// gjkOverlapTolerance is the squared core distance treated as touching cores.
	gjkOverlapTolerance = 1e-10
)

// coreResult is the outcome of GJK on the cores (margins excluded).
type coreResult struct {
	distance  float32    // distance between cores, 0 when they overlap
	lower     float32    // lower bound on the core distance, max over v.w/|v|
	v         rl.Vector3 // closest point of A-B to the origin (pa - pb)
	pa, pb    rl.Vector3 // witness points on the cores
	overlap   bool
	converged bool
	simplex   simplex
}

// gjkDistance runs the Gilbert-Johnson-Keerthi distance algorithm on two
// placed convex shapes, normally their margin-free cores.
func gjkDistance(a, b geometry.Placed) coreResult {
	dir := rl.Vector3Subtract(a.Center(), b.Center())
	if geometry.LengthSqr(dir) < 1e-12 {
		dir = geometry.Right
	}

	var s simplex
	first := support(a, b, rl.Vector3Negate(dir))
	s.add(first)
	s.lambda[0] = 1
	v := first.w
	vv := geometry.LengthSqr(v)
	var lower float32

	for i := 0; i < gjkMaxIterations; i++ {
		if vv <= gjkOverlapTolerance {
			return overlapResult(s)
		}

		w := support(a, b, rl.Vector3Negate(v))
		vw := geometry.Dot(v, w.w)
		// Every point of A-B lies on the far side of the plane through w
		// with normal v, so v.w/|v| never exceeds the true distance.
		lower = max(lower, vw/math32.Sqrt(vv))

		// Duality gap: no support point gets meaningfully closer than v
		if vv-vw <= gjkRelativeTolerance*vv || s.contains(w.w) {
			return separatedResult(s, v, lower, true)
		}

		prev := s
		s.add(w)
		next, inside := s.closest()
		if inside {
			return overlapResult(s)
		}

		nextVV := geometry.LengthSqr(next)
		if nextVV >= vv {
			// No progress; numerical floor reached
			return separatedResult(prev, v, lower, true)
		}
		v, vv = next, nextVV
	}

	if vv <= gjkOverlapTolerance {
		return overlapResult(s)
	}
	return separatedResult(s, v, lower, false)
}

func overlapResult(s simplex) coreResult {
	pa, pb := s.witnesses()
	return coreResult{pa: pa, pb: pb, overlap: true, converged: true, simplex: s}
}

func separatedResult(s simplex, v rl.Vector3, lower float32, converged bool) coreResult {
	pa, pb := s.witnesses()
	dist := math32.Sqrt(geometry.LengthSqr(v))
	return coreResult{
		distance:  dist,
		lower:     min(lower, dist),
		v:         v,
		pa:        pa,
		pb:        pb,
		converged: converged,
		simplex:   s,
	}
}

// DistanceResult describes the separation of two shapes.
type DistanceResult struct {
	// Distance is the gap between the full shapes; 0 when they touch or overlap.
	// It is GJK's upper estimate: the true gap may be smaller by the solver
	// tolerance.
	Distance float32
	// Lower is a conservative lower bound on the true gap.
	Lower float32
	// Normal is the unit separation direction, pointing from B toward A.
	Normal rl.Vector3
	// PointA and PointB are the closest points on each shape's surface.
	PointA, PointB rl.Vector3
	Overlapping    bool
	Converged      bool

	core coreResult
}

// distance measures two convex placed shapes: GJK on the cores, then the
// margins are peeled off.
func distance(a, b geometry.Placed) DistanceResult {
	coreA, ma := a.Core()
	coreB, mb := b.Core()
	core := gjkDistance(coreA, coreB)
	margin := ma + mb

	if core.overlap {
		return DistanceResult{
			Normal:      geometry.NormalizeOr(rl.Vector3Subtract(a.Center(), b.Center()), geometry.Up),
			PointA:      core.pa,
			PointB:      core.pb,
			Overlapping: true,
			Converged:   true,
			core:        core,
		}
	}

	n := rl.Vector3Scale(core.v, 1/core.distance)
	gap := core.distance - margin
	res := DistanceResult{
		Normal:    n,
		PointA:    rl.Vector3Subtract(core.pa, rl.Vector3Scale(n, ma)),
		PointB:    rl.Vector3Add(core.pb, rl.Vector3Scale(n, mb)),
		Converged: core.converged,
		core:      core,
	}
	if gap > 0 {
		res.Distance = gap
		res.Lower = max(core.lower-margin, 0)
	} else {
		res.Overlapping = gap < 0
	}
	return res
}
