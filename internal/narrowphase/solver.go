// Package narrowphase computes exact distances, penetrations and sweep
// contacts between convex shapes and compounds of them.
package narrowphase

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"shapecast/internal/geometry"
)

// Config tunes the iterative solvers.
type Config struct {
	// MaxIterations caps conservative advancement steps per shape pair.
	MaxIterations int `mapstructure:"maxIterations"`
	// Epsilon is the contact distance: a gap at or below it is a hit.
	Epsilon float32 `mapstructure:"epsilon"`
}

func DefaultConfig() Config {
	return Config{MaxIterations: 64, Epsilon: 1e-4}
}

// Status is the outcome of a sweep.
type Status uint8

const (
	Miss Status = iota
	Hit
	// NotConverged means the iteration cap was reached. Callers treat it as a miss.
	NotConverged
)

func (s Status) String() string {
	switch s {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case NotConverged:
		return "not-converged"
	}
	return "unknown"
}

// Contact is where a moving caster first touches a target.
type Contact struct {
	// Distance travelled along the unit sweep direction before contact.
	Distance float32
	// Point is the contact point on the target surface.
	Point rl.Vector3
	// CasterPoint is the matching point on the caster at contact.
	CasterPoint rl.Vector3
	// Normal points away from the target, toward the caster.
	Normal rl.Vector3
	// Penetration is the overlap depth when the shapes already intersect at
	// the start pose, 0 otherwise.
	Penetration float32
	// Fallback is set when Penetration is an estimate.
	Fallback bool
}

// Solver runs the narrow-phase. It holds no mutable state and is safe for
// concurrent use.
type Solver struct {
	cfg Config
}

// NewSolver returns a solver; zero or invalid settings fall back to defaults.
func NewSolver(cfg Config) *Solver {
	def := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if !(cfg.Epsilon > 0) || math32.IsInf(cfg.Epsilon, 0) {
		cfg.Epsilon = def.Epsilon
	}
	return &Solver{cfg: cfg}
}

func (s *Solver) Config() Config { return s.cfg }

// Distance measures the gap between two shapes. For compounds the closest
// leaf pair wins; any overlapping pair makes the result overlapping.
func (s *Solver) Distance(a geometry.Shape, poseA geometry.Pose, b geometry.Shape, poseB geometry.Pose) DistanceResult {
	var (
		best  DistanceResult
		found bool
	)
	for _, la := range geometry.Flatten(nil, a, poseA) {
		for _, lb := range geometry.Flatten(nil, b, poseB) {
			d := distance(la, lb)
			if !found || closer(d, best) {
				best, found = d, true
			}
		}
	}
	return best
}

func closer(d, best DistanceResult) bool {
	if d.Overlapping != best.Overlapping {
		return d.Overlapping
	}
	return d.Distance < best.Distance
}

// Penetration reports the deepest overlap between two shapes. ok is false
// when they do not intersect.
func (s *Solver) Penetration(a geometry.Shape, poseA geometry.Pose, b geometry.Shape, poseB geometry.Pose) (Contact, bool) {
	var (
		best Contact
		ok   bool
	)
	for _, la := range geometry.Flatten(nil, a, poseA) {
		for _, lb := range geometry.Flatten(nil, b, poseB) {
			d := distance(la, lb)
			if !d.Overlapping {
				continue
			}
			c := penetrationContact(penetrate(la, lb, d))
			if !ok || c.Penetration > best.Penetration {
				best, ok = c, true
			}
		}
	}
	return best, ok
}

// Overlap is the static test used for zero-length sweeps: shapes touching
// within Epsilon count as a contact with zero penetration.
func (s *Solver) Overlap(a geometry.Shape, poseA geometry.Pose, b geometry.Shape, poseB geometry.Pose) (Contact, bool) {
	var (
		best Contact
		ok   bool
	)
	for _, la := range geometry.Flatten(nil, a, poseA) {
		for _, lb := range geometry.Flatten(nil, b, poseB) {
			c, hit := s.overlapConvex(la, lb)
			if hit && (!ok || c.Penetration > best.Penetration) {
				best, ok = c, true
			}
		}
	}
	return best, ok
}

func (s *Solver) overlapConvex(a, b geometry.Placed) (Contact, bool) {
	d := distance(a, b)
	if d.Overlapping {
		return penetrationContact(penetrate(a, b, d)), true
	}
	if d.Distance <= s.cfg.Epsilon {
		return touchingContact(d, 0), true
	}
	return Contact{}, false
}

func penetrationContact(p penetration) Contact {
	return Contact{
		Point:       p.pointB,
		CasterPoint: p.pointA,
		Normal:      p.normal,
		Penetration: p.depth,
		Fallback:    p.fallback,
	}
}

func touchingContact(d DistanceResult, travelled float32) Contact {
	return Contact{
		Distance:    travelled,
		Point:       d.PointB,
		CasterPoint: d.PointA,
		Normal:      d.Normal,
	}
}
