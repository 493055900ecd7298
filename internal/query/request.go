package query

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"

	"shapecast/internal/geometry"
	"shapecast/internal/world"
)

// Order selects how hits reach the visitor.
type Order uint8

const (
	// Sorted buffers every hit and reports them by ascending time of impact,
	// ties broken by body handle.
	Sorted Order = iota
	// FirstFound reports hits as the broad-phase discovers them and stops
	// consuming candidates as soon as the visitor or the hit cap says so.
	FirstFound
)

func (o Order) String() string {
	if o == FirstFound {
		return "first-found"
	}
	return "sorted"
}

// Filter narrows the candidate set before any narrow-phase work.
type Filter struct {
	// Kinds selects body kinds; zero means all.
	Kinds world.KindMask
	// Exclude lists bodies never reported.
	Exclude []world.BodyID
	// Predicate, when set, must return true for a body to be tested.
	Predicate func(world.BodyID) bool
}

func (f Filter) accepts(b world.Body) bool {
	if !f.Kinds.Has(b.Kind) {
		return false
	}
	if slices.Contains(f.Exclude, b.ID) {
		return false
	}
	return f.Predicate == nil || f.Predicate(b.ID)
}

// SweepRequest describes one swept-shape query.
type SweepRequest struct {
	Shape geometry.Shape
	Pose  geometry.Pose
	// Direction of travel; normalized internally. Zero means a static overlap test.
	Direction   rl.Vector3
	MaxDistance float32

	// Origin is the body the caster belongs to, if any.
	Origin       world.BodyID
	IgnoreOrigin bool
	// IgnoreOriginPenetration drops bodies the caster already overlaps at its
	// start pose unless the motion drives it deeper (against the contact
	// normal), so a character standing on the floor does not report it while
	// walking but still reports a wall it is pushing into.
	IgnoreOriginPenetration bool

	Filter Filter
	// MaxHits caps reported hits; 0 uses the dispatcher default.
	MaxHits int
	Order   Order
}

// Hit is one body struck by the sweep.
type Hit struct {
	Body world.BodyID
	// Fraction is the time of impact in [0,1] of MaxDistance.
	Fraction float32
	// Distance travelled before contact, Fraction*MaxDistance.
	Distance float32
	// Point is the contact on the struck body's surface.
	Point rl.Vector3
	// CasterPoint is the matching point on the caster at contact.
	CasterPoint rl.Vector3
	// Normal points away from the struck surface, toward the caster.
	Normal rl.Vector3
	// Penetration is the overlap depth at the start pose, 0 otherwise.
	Penetration float32
}

// Visitor receives hits in reporting order and returns false to stop.
type Visitor func(Hit) bool

func compareHits(a, b Hit) int {
	switch {
	case a.Fraction < b.Fraction:
		return -1
	case a.Fraction > b.Fraction:
		return 1
	}
	return a.Body.Compare(b.Body)
}
