package broadphase

import (
	"iter"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"

	"shapecast/internal/geometry"
	"shapecast/internal/logging"
	"shapecast/internal/world"
)

// Config sizes the grid and the GPU hand-off.
type Config struct {
	CellSize float32 `mapstructure:"cellSize"`
	// MaxCorridorCells is the corridor span above which a query scans every
	// entry instead of walking cells.
	MaxCorridorCells int `mapstructure:"maxCorridorCells"`
	// GPUThreshold is the minimum entry count before an attached GPU culler
	// kicks in. Below this, the CPU grid is faster due to GPU overhead.
	GPUThreshold int `mapstructure:"gpuThreshold"`
	// MaxObjects is the capacity of the GPU buffers.
	MaxObjects int  `mapstructure:"maxObjects"`
	GPU        bool `mapstructure:"gpu"`
}

func DefaultConfig() Config {
	return Config{
		CellSize:         DefaultCellSize,
		MaxCorridorCells: 4096,
		GPUThreshold:     750,
		MaxObjects:       50000,
	}
}

// Culler runs the corridor test over a packed array of bounds and returns
// the indices that pass. compute.CorridorCuller is the GPU implementation.
type Culler interface {
	CullCorridor(bounds []geometry.AABB, c Corridor) ([]uint32, error)
}

// Corridor is the volume swept by a caster's bounds: a box of HalfExtents
// centred at Origin moved along unit Direction for Distance.
type Corridor struct {
	Origin      rl.Vector3
	Direction   rl.Vector3
	Distance    float32
	HalfExtents rl.Vector3
}

// Bounds is the AABB enclosing the whole corridor.
func (c Corridor) Bounds() geometry.AABB {
	start := geometry.AABBFromHalfExtents(c.Origin, c.HalfExtents)
	return start.Extrude(rl.Vector3Scale(c.Direction, c.Distance))
}

// Admits reports whether a body with bounds b can be touched by the sweep.
// The box is inflated by the caster's half extents and tested against the
// corridor's centre line, which is exact for a swept box.
func (c Corridor) Admits(b geometry.AABB) bool {
	_, ok := b.ExpandBy(c.HalfExtents).RaySlab(c.Origin, c.Direction, c.Distance)
	return ok
}

type entry struct {
	slot     int // position in Index.ids / Index.bounds
	cells    cellRange
	oversize bool
}

// Index is the broad-phase. Mutation (Refresh, Update, Remove, AttachCuller)
// must not run concurrently with queries; queries may run concurrently with
// each other.
type Index struct {
	cfg    Config
	logger zerolog.Logger

	cells     map[CellKey][]world.BodyID
	entries   map[world.BodyID]entry
	oversized []world.BodyID

	// Packed snapshot for full scans and GPU upload, kept in step with entries.
	ids    []world.BodyID
	bounds []geometry.AABB

	culler Culler
	useGPU bool
}

// New returns an empty index. Zero config fields take their defaults.
func New(cfg Config, logger zerolog.Logger) *Index {
	def := DefaultConfig()
	if !(cfg.CellSize > 0) {
		cfg.CellSize = def.CellSize
	}
	if cfg.MaxCorridorCells <= 0 {
		cfg.MaxCorridorCells = def.MaxCorridorCells
	}
	if cfg.GPUThreshold <= 0 {
		cfg.GPUThreshold = def.GPUThreshold
	}
	if cfg.MaxObjects <= 0 {
		cfg.MaxObjects = def.MaxObjects
	}
	return &Index{
		cfg:     cfg,
		logger:  logging.Component(logger, "broadphase"),
		cells:   make(map[CellKey][]world.BodyID),
		entries: make(map[world.BodyID]entry),
	}
}

func (ix *Index) Config() Config { return ix.cfg }

// AttachCuller enables GPU corridor culling once the index holds at least
// GPUThreshold entries. A nil culler detaches it.
func (ix *Index) AttachCuller(c Culler) {
	ix.culler = c
	ix.updateMode()
}

// UsingGPU reports whether queries currently go to the GPU culler.
func (ix *Index) UsingGPU() bool {
	return ix.useGPU
}

func (ix *Index) Len() int {
	return len(ix.ids)
}

// Refresh rebuilds the index from every live body of view.
func (ix *Index) Refresh(view world.View) {
	clear(ix.cells)
	clear(ix.entries)
	ix.oversized = ix.oversized[:0]
	ix.ids = ix.ids[:0]
	ix.bounds = ix.bounds[:0]

	skipped := 0
	for b := range view.Bodies() {
		if !ix.insert(b.ID, b.Bounds) {
			skipped++
		}
	}
	ix.updateMode()
	ix.logger.Debug().
		Int("bodies", len(ix.ids)).
		Int("cells", len(ix.cells)).
		Int("oversized", len(ix.oversized)).
		Int("skipped", skipped).
		Msg("grid rebuilt")
}

// Update inserts a body or moves it to its current bounds.
func (ix *Index) Update(b world.Body) {
	ix.remove(b.ID)
	ix.insert(b.ID, b.Bounds)
	ix.updateMode()
}

// Remove drops a body. Unknown ids are ignored.
func (ix *Index) Remove(id world.BodyID) {
	ix.remove(id)
	ix.updateMode()
}

func (ix *Index) insert(id world.BodyID, b geometry.AABB) bool {
	if !b.IsValid() {
		ix.logger.Debug().Stringer("body", id).Msg("skipping body with non-finite bounds")
		return false
	}

	cells, gridded := cellsOf(b, ix.cfg.CellSize)
	e := entry{slot: len(ix.ids), cells: cells}
	ix.ids = append(ix.ids, id)
	ix.bounds = append(ix.bounds, b)

	if n := e.cells.count(); !gridded || n == 0 || n > maxCellsPerBody {
		e.oversize = true
		ix.oversized = append(ix.oversized, id)
	} else {
		e.cells.walk([3]float32{}, func(k CellKey) bool {
			ix.cells[k] = append(ix.cells[k], id)
			return true
		})
	}
	ix.entries[id] = e
	return true
}

func (ix *Index) remove(id world.BodyID) {
	e, ok := ix.entries[id]
	if !ok {
		return
	}
	delete(ix.entries, id)

	if e.oversize {
		ix.oversized = without(ix.oversized, id)
	} else {
		e.cells.walk([3]float32{}, func(k CellKey) bool {
			if rest := without(ix.cells[k], id); len(rest) > 0 {
				ix.cells[k] = rest
			} else {
				delete(ix.cells, k)
			}
			return true
		})
	}

	// Swap-remove from the packed arrays
	last := len(ix.ids) - 1
	if e.slot != last {
		moved := ix.ids[last]
		ix.ids[e.slot] = moved
		ix.bounds[e.slot] = ix.bounds[last]
		me := ix.entries[moved]
		me.slot = e.slot
		ix.entries[moved] = me
	}
	ix.ids = ix.ids[:last]
	ix.bounds = ix.bounds[:last]
}

func without(ids []world.BodyID, id world.BodyID) []world.BodyID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (ix *Index) updateMode() {
	was := ix.useGPU
	ix.useGPU = ix.culler != nil && len(ix.ids) >= ix.cfg.GPUThreshold
	if ix.useGPU && !was {
		ix.logger.Info().Int("objects", len(ix.ids)).Msg("GPU broad-phase ON")
	} else if !ix.useGPU && was {
		ix.logger.Info().Int("objects", len(ix.ids)).Msg("GPU broad-phase OFF")
	}
}

// QuerySweepCorridor lazily yields every indexed body whose bounds can be
// touched by a caster with bounds casterBounds (relative to origin) moving
// from origin along direction for maxDistance. The sequence is unordered,
// free of duplicates and never misses a body whose bounds the swept volume
// intersects. A zero direction or distance queries the caster's own bounds.
func (ix *Index) QuerySweepCorridor(origin, direction rl.Vector3, maxDistance float32, casterBounds geometry.AABB) iter.Seq[world.BodyID] {
	c := makeCorridor(origin, direction, maxDistance, casterBounds)
	return func(yield func(world.BodyID) bool) {
		if len(ix.ids) == 0 {
			return
		}
		if ix.useGPU {
			hits, err := ix.culler.CullCorridor(ix.bounds, c)
			if err == nil {
				for _, i := range hits {
					if int(i) < len(ix.ids) && !yield(ix.ids[i]) {
						return
					}
				}
				return
			}
			ix.logger.Warn().Err(err).Msg("GPU corridor cull failed, using CPU grid")
		}
		ix.queryCPU(c, yield)
	}
}

func makeCorridor(origin, direction rl.Vector3, maxDistance float32, casterBounds geometry.AABB) Corridor {
	placed := casterBounds.Translate(origin)
	c := Corridor{Origin: placed.Center(), HalfExtents: placed.HalfExtents()}
	if maxDistance > 0 && !geometry.IsZero(direction) {
		c.Direction = rl.Vector3Normalize(direction)
		c.Distance = maxDistance
	}
	return c
}

func (ix *Index) queryCPU(c Corridor, yield func(world.BodyID) bool) {
	span, gridded := cellsOf(c.Bounds(), ix.cfg.CellSize)
	if n := span.count(); !gridded || n == 0 || n > ix.cfg.MaxCorridorCells {
		for i, b := range ix.bounds {
			if c.Admits(b) && !yield(ix.ids[i]) {
				return
			}
		}
		return
	}

	seen := make(map[world.BodyID]struct{})
	stopped := false
	span.walk([3]float32{c.Direction.X, c.Direction.Y, c.Direction.Z}, func(k CellKey) bool {
		for _, id := range ix.cells[k] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if c.Admits(ix.bounds[ix.entries[id].slot]) && !yield(id) {
				stopped = true
				return false
			}
		}
		return true
	})
	if stopped {
		return
	}

	for _, id := range ix.oversized {
		if c.Admits(ix.bounds[ix.entries[id].slot]) && !yield(id) {
			return
		}
	}
}
