package world

import (
	"iter"

	"shapecast/internal/geometry"
)

// View is the read-only surface queries consume.
type View interface {
	// Body looks up a live body. Stale or nil handles report false.
	Body(id BodyID) (Body, bool)
	// Bodies yields every live body in slot order.
	Bodies() iter.Seq[Body]
	// Len is the number of live bodies.
	Len() int
}

type slot struct {
	body       Body
	generation uint32
	live       bool
}

// World is an arena of bodies. It is not safe for concurrent mutation;
// concurrent reads against an unchanging World are fine.
type World struct {
	slots []slot
	free  []uint32
	live  int
}

func New() *World {
	return &World{
		slots: make([]slot, 0),
		free:  make([]uint32, 0),
	}
}

// Create adds a body and returns its handle. The shape is normalized so a
// degenerate description still yields usable bounds.
func (w *World) Create(shape geometry.Shape, pose geometry.Pose, kind Kind) BodyID {
	shape, _ = shape.Normalized()

	var index uint32
	if n := len(w.free); n > 0 {
		index = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		index = uint32(len(w.slots))
		w.slots = append(w.slots, slot{})
	}

	s := &w.slots[index]
	s.generation++
	s.live = true
	id := BodyID{index: index, generation: s.generation}
	s.body = Body{
		ID:     id,
		Shape:  shape,
		Pose:   pose,
		Kind:   kind,
		Bounds: geometry.Bounds(shape, pose),
	}
	w.live++
	return id
}

// Destroy removes a body. Destroying a stale handle is a no-op returning false.
func (w *World) Destroy(id BodyID) bool {
	s := w.lookup(id)
	if s == nil {
		return false
	}
	s.live = false
	s.body = Body{}
	w.free = append(w.free, id.index)
	w.live--
	return true
}

// SetPose moves a body and refreshes its bounds.
func (w *World) SetPose(id BodyID, pose geometry.Pose) bool {
	s := w.lookup(id)
	if s == nil {
		return false
	}
	s.body.Pose = pose
	s.body.Bounds = geometry.Bounds(s.body.Shape, pose)
	return true
}

// SetShape replaces a body's shape and refreshes its bounds.
func (w *World) SetShape(id BodyID, shape geometry.Shape) bool {
	s := w.lookup(id)
	if s == nil {
		return false
	}
	s.body.Shape, _ = shape.Normalized()
	s.body.Bounds = geometry.Bounds(s.body.Shape, s.body.Pose)
	return true
}

func (w *World) Body(id BodyID) (Body, bool) {
	s := w.lookup(id)
	if s == nil {
		return Body{}, false
	}
	return s.body, true
}

func (w *World) Bodies() iter.Seq[Body] {
	return func(yield func(Body) bool) {
		for i := range w.slots {
			if !w.slots[i].live {
				continue
			}
			if !yield(w.slots[i].body) {
				return
			}
		}
	}
}

func (w *World) Len() int {
	return w.live
}

func (w *World) lookup(id BodyID) *slot {
	if id.IsNil() || int(id.index) >= len(w.slots) {
		return nil
	}
	s := &w.slots[id.index]
	if !s.live || s.generation != id.generation {
		return nil
	}
	return s
}
