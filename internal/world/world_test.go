package world

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapecast/internal/geometry"
)

func TestWorldCreateAndLookup(t *testing.T) {
	w := New()
	id := w.Create(geometry.Sphere(1), geometry.At(rl.Vector3{Y: 2}), Dynamic)

	require.False(t, id.IsNil())
	body, ok := w.Body(id)
	require.True(t, ok)
	assert.Equal(t, Dynamic, body.Kind)
	assert.Equal(t, rl.Vector3{X: -1, Y: 1, Z: -1}, body.Bounds.Min)
	assert.Equal(t, 1, w.Len())
}

func TestWorldStaleHandleAfterDestroy(t *testing.T) {
	w := New()
	first := w.Create(geometry.Sphere(1), geometry.Identity(), Static)
	require.True(t, w.Destroy(first))
	assert.False(t, w.Destroy(first), "double destroy must be a no-op")

	// The slot is recycled with a new generation
	second := w.Create(geometry.Sphere(2), geometry.Identity(), Static)
	assert.Equal(t, first.Index(), second.Index())
	assert.NotEqual(t, first, second)

	_, ok := w.Body(first)
	assert.False(t, ok, "stale handle must not resolve to the new body")
	assert.False(t, w.SetPose(first, geometry.Identity()))

	body, ok := w.Body(second)
	require.True(t, ok)
	assert.Equal(t, float32(2), body.Shape.Radius())
}

func TestWorldNilHandle(t *testing.T) {
	w := New()
	_, ok := w.Body(Nil)
	assert.False(t, ok)
	_, ok = w.Body(BodyID{index: 42, generation: 1})
	assert.False(t, ok)
}

func TestWorldSetPoseRefreshesBounds(t *testing.T) {
	w := New()
	id := w.Create(geometry.Sphere(1), geometry.Identity(), Kinematic)
	require.True(t, w.SetPose(id, geometry.At(rl.Vector3{X: 10})))

	body, _ := w.Body(id)
	assert.Equal(t, float32(9), body.Bounds.Min.X)
	assert.Equal(t, float32(11), body.Bounds.Max.X)
}

func TestWorldCreateNormalizesShape(t *testing.T) {
	w := New()
	id := w.Create(geometry.Sphere(-3), geometry.Identity(), Static)
	body, _ := w.Body(id)
	assert.Equal(t, float32(0), body.Shape.Radius())
	assert.True(t, body.Bounds.IsValid())
}

func TestWorldBodiesSkipsDestroyed(t *testing.T) {
	w := New()
	a := w.Create(geometry.Sphere(1), geometry.Identity(), Static)
	b := w.Create(geometry.Sphere(1), geometry.Identity(), Static)
	c := w.Create(geometry.Sphere(1), geometry.Identity(), Static)
	w.Destroy(b)

	var ids []BodyID
	for body := range w.Bodies() {
		ids = append(ids, body.ID)
	}
	assert.Equal(t, []BodyID{a, c}, ids)
}

func TestBodyIDCompare(t *testing.T) {
	a := BodyID{index: 1, generation: 1}
	b := BodyID{index: 2, generation: 1}
	c := BodyID{index: 1, generation: 2}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, -1, a.Compare(c))
	assert.Equal(t, 0, a.Compare(a))
}

func TestKindMask(t *testing.T) {
	var all KindMask
	assert.True(t, all.Has(Static))
	assert.True(t, all.Has(Dynamic))

	m := MaskStatic | MaskKinematic
	assert.True(t, m.Has(Kinematic))
	assert.False(t, m.Has(Dynamic))
}

func TestWorldSetShapeRefreshesBounds(t *testing.T) {
	w := New()
	id := w.Create(geometry.Sphere(1), geometry.At(rl.Vector3{X: 3}), Static)

	require.True(t, w.SetShape(id, geometry.Cuboid(rl.Vector3{X: 2, Y: 1, Z: 1})))
	body, ok := w.Body(id)
	require.True(t, ok)
	assert.Equal(t, geometry.KindCuboid, body.Shape.Kind())
	assert.Equal(t, rl.Vector3{X: 1, Y: -1, Z: -1}, body.Bounds.Min)
	assert.Equal(t, rl.Vector3{X: 5, Y: 1, Z: 1}, body.Bounds.Max)

	require.True(t, w.Destroy(id))
	assert.False(t, w.SetShape(id, geometry.Sphere(1)))
}
