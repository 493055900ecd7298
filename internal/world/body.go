// Package world stores the bodies a query runs against. Handles are arena
// indices guarded by a generation counter so a handle kept past its body's
// destruction fails lookups instead of aliasing a newer body.
package world

import (
	"cmp"
	"fmt"

	"shapecast/internal/geometry"
)

// Kind is the body's role in the simulation. Queries only use it for filtering.
type Kind uint8

const (
	Static    Kind = iota // no rigidbody (walls, floor)
	Kinematic             // moved by code (player, moving platforms)
	Dynamic               // driven by the solver
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	case Dynamic:
		return "dynamic"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// KindMask selects a set of kinds. The zero mask selects every kind.
type KindMask uint8

const (
	MaskStatic    KindMask = 1 << Static
	MaskKinematic KindMask = 1 << Kinematic
	MaskDynamic   KindMask = 1 << Dynamic
	MaskAll                = MaskStatic | MaskKinematic | MaskDynamic
)

// Has reports whether k is selected by the mask.
func (m KindMask) Has(k Kind) bool {
	return m == 0 || m&(1<<k) != 0
}

// BodyID is an opaque body handle. The zero BodyID is never issued.
type BodyID struct {
	index      uint32
	generation uint32
}

// Nil is the zero handle; it never refers to a live body.
var Nil BodyID

func (id BodyID) IsNil() bool {
	return id.generation == 0
}

// Compare orders handles by slot then generation. Query results use it to
// break time-of-impact ties deterministically.
func (id BodyID) Compare(other BodyID) int {
	if c := cmp.Compare(id.index, other.index); c != 0 {
		return c
	}
	return cmp.Compare(id.generation, other.generation)
}

func (id BodyID) String() string {
	if id.IsNil() {
		return "body(nil)"
	}
	return fmt.Sprintf("body(%d:%d)", id.index, id.generation)
}

// Index exposes the slot for dense side tables (e.g. GPU buffers). It is only
// unique among live bodies.
func (id BodyID) Index() uint32 {
	return id.index
}

// Body is a snapshot of a live body as seen by queries.
type Body struct {
	ID     BodyID
	Shape  geometry.Shape
	Pose   geometry.Pose
	Kind   Kind
	Bounds geometry.AABB
}
