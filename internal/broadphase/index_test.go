package broadphase

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapecast/internal/geometry"
	"shapecast/internal/world"
)

type scene struct {
	w      *world.World
	ground world.BodyID
	box    world.BodyID
	ball   world.BodyID
}

func newScene() scene {
	w := world.New()
	return scene{
		w:      w,
		ground: w.Create(geometry.Cuboid(rl.Vector3{X: 50, Y: 0.5, Z: 50}), geometry.At(rl.Vector3{Y: -0.5}), world.Static),
		box:    w.Create(geometry.Cuboid(rl.Vector3{X: 1, Y: 1, Z: 1}), geometry.At(rl.Vector3{X: 10, Y: 1}), world.Static),
		ball:   w.Create(geometry.Sphere(0.5), geometry.At(rl.Vector3{Z: 12, Y: 3}), world.Dynamic),
	}
}

func collect(seq func(func(world.BodyID) bool)) []world.BodyID {
	var out []world.BodyID
	for id := range seq {
		out = append(out, id)
	}
	slices.SortFunc(out, world.BodyID.Compare)
	return out
}

func capsuleBounds() geometry.AABB {
	return geometry.Bounds(geometry.Capsule(0.5, 0.4), geometry.Identity())
}

func TestEmptyIndexYieldsNothing(t *testing.T) {
	ix := New(DefaultConfig(), zerolog.Nop())
	ix.Refresh(world.New())
	assert.Empty(t, collect(ix.QuerySweepCorridor(rl.Vector3{}, rl.Vector3{X: 1}, 100, capsuleBounds())))
}

func TestCorridorDownFindsGround(t *testing.T) {
	s := newScene()
	ix := New(DefaultConfig(), zerolog.Nop())
	ix.Refresh(s.w)
	require.Equal(t, 3, ix.Len())

	got := collect(ix.QuerySweepCorridor(rl.Vector3{Y: 1}, rl.Vector3{Y: -1}, 30, capsuleBounds()))
	assert.Equal(t, []world.BodyID{s.ground}, got)
}

func TestCorridorAlongX(t *testing.T) {
	s := newScene()
	ix := New(DefaultConfig(), zerolog.Nop())
	ix.Refresh(s.w)

	// Hovering above the ground: only the box is in the way
	got := collect(ix.QuerySweepCorridor(rl.Vector3{Y: 1.5}, rl.Vector3{X: 1}, 30, capsuleBounds()))
	assert.Equal(t, []world.BodyID{s.box}, got)

	// Too short to reach it
	got = collect(ix.QuerySweepCorridor(rl.Vector3{Y: 1.5}, rl.Vector3{X: 1}, 5, capsuleBounds()))
	assert.Empty(t, got)
}

func TestZeroDirectionQueriesCasterBounds(t *testing.T) {
	s := newScene()
	ix := New(DefaultConfig(), zerolog.Nop())
	ix.Refresh(s.w)

	got := collect(ix.QuerySweepCorridor(rl.Vector3{X: 10, Y: 2.5}, rl.Vector3{}, 30, capsuleBounds()))
	assert.Equal(t, []world.BodyID{s.box}, got)
}

func TestCorridorDeduplicatesAndStops(t *testing.T) {
	w := world.New()
	// Spans several cells
	wide := w.Create(geometry.Cuboid(rl.Vector3{X: 6, Y: 1, Z: 1}), geometry.At(rl.Vector3{X: 20}), world.Static)
	w.Create(geometry.Sphere(1), geometry.At(rl.Vector3{X: 40}), world.Static)

	ix := New(DefaultConfig(), zerolog.Nop())
	ix.Refresh(w)

	bounds := geometry.Bounds(geometry.Sphere(0.5), geometry.Identity())
	got := collect(ix.QuerySweepCorridor(rl.Vector3{}, rl.Vector3{X: 1}, 100, bounds))
	assert.Len(t, got, 2)
	assert.Contains(t, got, wide)

	n := 0
	for range ix.QuerySweepCorridor(rl.Vector3{}, rl.Vector3{X: 1}, 100, bounds) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestUpdateAndRemove(t *testing.T) {
	s := newScene()
	ix := New(DefaultConfig(), zerolog.Nop())
	ix.Refresh(s.w)

	s.w.SetPose(s.ball, geometry.At(rl.Vector3{X: 20, Y: 1.5}))
	b, ok := s.w.Body(s.ball)
	require.True(t, ok)
	ix.Update(b)

	got := collect(ix.QuerySweepCorridor(rl.Vector3{Y: 1.5}, rl.Vector3{X: 1}, 30, capsuleBounds()))
	assert.Equal(t, []world.BodyID{s.box, s.ball}, got)

	ix.Remove(s.box)
	ix.Remove(s.box)
	assert.Equal(t, 2, ix.Len())
	got = collect(ix.QuerySweepCorridor(rl.Vector3{Y: 1.5}, rl.Vector3{X: 1}, 30, capsuleBounds()))
	assert.Equal(t, []world.BodyID{s.ball}, got)
}

func TestRefreshSkipsNonFiniteBounds(t *testing.T) {
	w := world.New()
	w.Create(geometry.Sphere(1), geometry.At(rl.Vector3{X: math32.NaN()}), world.Static)
	ok := w.Create(geometry.Sphere(1), geometry.Identity(), world.Static)

	ix := New(DefaultConfig(), zerolog.Nop())
	ix.Refresh(w)
	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, []world.BodyID{ok}, collect(ix.QuerySweepCorridor(rl.Vector3{X: -5}, rl.Vector3{X: 1}, 10, capsuleBounds())))
}

// The cell walk, the full-scan fallback and a brute-force pass over every
// body must agree.
func TestGridMatchesFullScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w := world.New()
	for i := 0; i < 300; i++ {
		pos := rl.Vector3{X: rng.Float32()*80 - 40, Y: rng.Float32()*20 - 10, Z: rng.Float32()*80 - 40}
		w.Create(geometry.Sphere(rng.Float32()*2+0.1), geometry.At(pos), world.Dynamic)
	}

	grid := New(DefaultConfig(), zerolog.Nop())
	grid.Refresh(w)
	scanCfg := DefaultConfig()
	scanCfg.MaxCorridorCells = 1
	scan := New(scanCfg, zerolog.Nop())
	scan.Refresh(w)

	bounds := capsuleBounds()
	for q := 0; q < 50; q++ {
		origin := rl.Vector3{X: rng.Float32()*60 - 30, Y: rng.Float32()*10 - 5, Z: rng.Float32()*60 - 30}
		dir := rl.Vector3{X: rng.Float32()*2 - 1, Y: rng.Float32()*2 - 1, Z: rng.Float32()*2 - 1}
		dist := rng.Float32() * 40

		c := makeCorridor(origin, dir, dist, bounds)
		var brute []world.BodyID
		for b := range w.Bodies() {
			if c.Admits(b.Bounds) {
				brute = append(brute, b.ID)
			}
		}
		slices.SortFunc(brute, world.BodyID.Compare)

		assert.Equal(t, brute, collect(grid.QuerySweepCorridor(origin, dir, dist, bounds)))
		assert.Equal(t, brute, collect(scan.QuerySweepCorridor(origin, dir, dist, bounds)))
	}
}

func TestCorridorAdmitsIsConservative(t *testing.T) {
	c := makeCorridor(rl.Vector3{}, rl.Vector3{X: 1, Y: 1}, 10, capsuleBounds())
	// Sample the swept box; every body touching a sample must be admitted
	for i := 0; i <= 20; i++ {
		center := rl.Vector3Add(c.Origin, rl.Vector3Scale(c.Direction, c.Distance*float32(i)/20))
		body := geometry.AABBFromHalfExtents(rl.Vector3Add(center, rl.Vector3{X: c.HalfExtents.X + 0.4}), rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5})
		assert.True(t, c.Admits(body), "sample %d", i)
	}
	assert.False(t, c.Admits(geometry.AABBFromHalfExtents(rl.Vector3{X: 20}, rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5})))
}

type fakeCuller struct {
	calls int
	err   error
}

func (f *fakeCuller) CullCorridor(bounds []geometry.AABB, c Corridor) ([]uint32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []uint32
	for i, b := range bounds {
		if c.Admits(b) {
			out = append(out, uint32(i))
		}
	}
	return out, nil
}

func TestGPUCullerAboveThreshold(t *testing.T) {
	s := newScene()
	cfg := DefaultConfig()
	cfg.GPUThreshold = 3
	ix := New(cfg, zerolog.Nop())

	culler := &fakeCuller{}
	ix.AttachCuller(culler)
	assert.False(t, ix.UsingGPU())

	ix.Refresh(s.w)
	require.True(t, ix.UsingGPU())
	got := collect(ix.QuerySweepCorridor(rl.Vector3{Y: 1}, rl.Vector3{Y: -1}, 30, capsuleBounds()))
	assert.Equal(t, []world.BodyID{s.ground}, got)
	assert.Equal(t, 1, culler.calls)

	ix.Remove(s.ball)
	assert.False(t, ix.UsingGPU())
}

func TestGPUCullerFailureFallsBackToCPU(t *testing.T) {
	s := newScene()
	cfg := DefaultConfig()
	cfg.GPUThreshold = 1
	ix := New(cfg, zerolog.Nop())
	ix.AttachCuller(&fakeCuller{err: errors.New("device lost")})
	ix.Refresh(s.w)

	got := collect(ix.QuerySweepCorridor(rl.Vector3{Y: 1}, rl.Vector3{Y: -1}, 30, capsuleBounds()))
	assert.Equal(t, []world.BodyID{s.ground}, got)
}

func TestBoundsPastGridStayReachable(t *testing.T) {
	w := world.New()
	slab := w.Create(geometry.Cuboid(rl.Vector3{X: 1e20, Y: 1, Z: 1e20}), geometry.At(rl.Vector3{Y: -1}), world.Static)
	far := w.Create(geometry.Sphere(1), geometry.At(rl.Vector3{X: 1e25, Y: 5}), world.Dynamic)
	ix := New(DefaultConfig(), zerolog.Nop())
	ix.Refresh(w)

	assert.ElementsMatch(t, []world.BodyID{slab, far}, ix.oversized)
	assert.Empty(t, ix.cells)

	got := collect(ix.QuerySweepCorridor(rl.Vector3{X: 3, Y: 5, Z: -7}, rl.Vector3{Y: -1}, 10, capsuleBounds()))
	assert.Equal(t, []world.BodyID{slab}, got)

	// A corridor reaching past the grid falls back to a full scan
	got = collect(ix.QuerySweepCorridor(rl.Vector3{Y: 5}, rl.Vector3{X: 1}, 2e25, capsuleBounds()))
	assert.Contains(t, got, far)

	_, ok := posToCell(0, 4e19, 0, DefaultCellSize)
	assert.False(t, ok)
	k, ok := posToCell(-7, 12, 4.9, DefaultCellSize)
	require.True(t, ok)
	assert.Equal(t, CellKey{X: -2, Y: 2, Z: 0}, k)
}
