package narrowphase

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"shapecast/internal/geometry"
)

// minClosingSpeed is the approach rate below which the caster is considered
// to move parallel to, or away from, the target.
const minClosingSpeed = 1e-6

// Sweep moves caster from casterPose along direction for up to maxDistance
// and finds its first contact with target. direction need not be unit length;
// the returned Contact.Distance is measured along the normalized direction.
// A zero direction or distance degrades to Overlap.
func (s *Solver) Sweep(
	caster geometry.Shape, casterPose geometry.Pose,
	direction rl.Vector3, maxDistance float32,
	target geometry.Shape, targetPose geometry.Pose,
) (Contact, Status) {
	length := math32.Sqrt(geometry.LengthSqr(direction))
	if !(length > 1e-12) || !(maxDistance > 0) {
		if c, ok := s.Overlap(caster, casterPose, target, targetPose); ok {
			return c, Hit
		}
		return Contact{}, Miss
	}
	dir := rl.Vector3Scale(direction, 1/length)
	travel := rl.Vector3Scale(dir, maxDistance)

	var (
		best   Contact
		status = Miss
	)
	targets := geometry.Flatten(nil, target, targetPose)
	for _, a := range geometry.Flatten(nil, caster, casterPose) {
		swept := geometry.SweptBounds(a.Shape, a.Pose, travel).Expand(s.cfg.Epsilon)
		for _, b := range targets {
			if !swept.Intersects(geometry.Bounds(b.Shape, b.Pose)) {
				continue
			}
			c, st := s.sweepConvex(a, b, dir, maxDistance)
			switch st {
			case Hit:
				if status != Hit || earlier(c, best) {
					best, status = c, Hit
				}
			case NotConverged:
				if status == Miss {
					status = NotConverged
				}
			}
		}
	}
	if status != Hit {
		return Contact{}, status
	}
	return best, status
}

func earlier(c, best Contact) bool {
	if c.Distance != best.Distance {
		return c.Distance < best.Distance
	}
	return c.Penetration > best.Penetration
}

// sweepConvex runs conservative advancement for one convex pair. Along a
// straight translation the gap is convex in the travelled distance, so
// stepping by a lower bound of the gap over the closing speed never passes
// the first contact.
func (s *Solver) sweepConvex(a, b geometry.Placed, dir rl.Vector3, maxDistance float32) (Contact, Status) {
	if a.Shape.Kind() == geometry.KindSphere && b.Shape.Kind() == geometry.KindSphere {
		return s.sweepSpheres(a, b, dir, maxDistance)
	}

	eps := s.cfg.Epsilon
	var (
		t, prevT float32
		prev     DistanceResult
	)
	for i := 0; i < s.cfg.MaxIterations; i++ {
		d := distance(a.Translated(rl.Vector3Scale(dir, t)), b)
		if d.Overlapping {
			if i == 0 {
				c := penetrationContact(penetrate(a, b, d))
				return c, Hit
			}
			// Rounding carried the step past contact. An overlapping result
			// has no usable normal, so search back toward the last
			// separated position.
			return s.refineContact(a, b, dir, prevT, prev, t, s.cfg.MaxIterations-i), Hit
		}
		if !d.Converged {
			return Contact{Distance: t}, NotConverged
		}
		if d.Distance <= eps {
			return touchingContact(d, t), Hit
		}

		closing := -geometry.Dot(dir, d.Normal)
		if closing <= minClosingSpeed {
			return Contact{}, Miss
		}
		step := (d.Lower - 0.5*eps) / closing
		if step <= 0 {
			// Gap within GJK tolerance of eps
			return touchingContact(d, t), Hit
		}
		prevT, prev = t, d
		t += step
		if t > maxDistance {
			return Contact{}, Miss
		}
	}
	return Contact{Distance: t}, NotConverged
}

// refineContact bisects between a separated position lo (with result sep)
// and an overlapping position hi. It returns the first sample that touches
// within epsilon, or the closest separated sample when the budget runs out.
func (s *Solver) refineContact(a, b geometry.Placed, dir rl.Vector3, lo float32, sep DistanceResult, hi float32, budget int) Contact {
	for range max(budget, 1) {
		mid := lo + 0.5*(hi-lo)
		if mid <= lo || mid >= hi {
			break
		}
		d := distance(a.Translated(rl.Vector3Scale(dir, mid)), b)
		switch {
		case d.Overlapping:
			hi = mid
		case d.Distance <= s.cfg.Epsilon:
			return touchingContact(d, mid)
		default:
			lo, sep = mid, d
		}
	}
	return touchingContact(sep, lo)
}

// sweepSpheres is the analytic path: a ray from the caster centre against
// the target grown by the caster radius.
func (s *Solver) sweepSpheres(a, b geometry.Placed, dir rl.Vector3, maxDistance float32) (Contact, Status) {
	ra, rb := a.Margin(), b.Margin()
	ca, cb := a.Pose.Position, b.Pose.Position
	offset := rl.Vector3Subtract(ca, cb)
	gap := math32.Sqrt(geometry.LengthSqr(offset)) - ra - rb

	if gap <= s.cfg.Epsilon {
		n := geometry.NormalizeOr(offset, geometry.Up)
		c := Contact{
			Point:       rl.Vector3Add(cb, rl.Vector3Scale(n, rb)),
			CasterPoint: rl.Vector3Subtract(ca, rl.Vector3Scale(n, ra)),
			Normal:      n,
		}
		if gap < 0 {
			c.Penetration = -gap
		}
		return c, Hit
	}

	hit, ok := geometry.RaySphere(ca, dir, cb, ra+rb, maxDistance)
	if !ok {
		return Contact{}, Miss
	}
	point := rl.Vector3Add(cb, rl.Vector3Scale(hit.Normal, rb))
	return Contact{
		Distance:    hit.Distance,
		Point:       point,
		CasterPoint: point,
		Normal:      hit.Normal,
	}, Hit
}
