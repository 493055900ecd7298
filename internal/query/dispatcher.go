// Package query answers swept-shape queries: which bodies a moving convex
// shape would strike, in what order, filtered and streamed to a visitor.
package query

import (
	"slices"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"

	"shapecast/internal/broadphase"
	"shapecast/internal/geometry"
	"shapecast/internal/logging"
	"shapecast/internal/narrowphase"
	"shapecast/internal/world"
)

// Config holds dispatcher-wide defaults.
type Config struct {
	// MaxHits is the hit cap for requests that leave MaxHits at 0. Zero means unlimited.
	MaxHits int
	Metrics bool
}

// Dispatcher runs queries against a world view through a broad-phase index
// and a narrow-phase solver. It keeps no per-query state: concurrent Cast
// calls are fine as long as nothing mutates the world or calls Refresh
// meanwhile.
type Dispatcher struct {
	world   world.View
	index   *broadphase.Index
	solver  *narrowphase.Solver
	maxHits int
	logger  zerolog.Logger
	metrics *metrics
}

// New wires a dispatcher. The only error source is metric registration.
func New(cfg Config, view world.View, index *broadphase.Index, solver *narrowphase.Solver, logger zerolog.Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		world:   view,
		index:   index,
		solver:  solver,
		maxHits: max(cfg.MaxHits, 0),
		logger:  logging.Component(logger, "query"),
	}
	if cfg.Metrics {
		m, err := newMetrics()
		if err != nil {
			return nil, err
		}
		d.metrics = m
	}
	return d, nil
}

// Refresh brings the broad-phase up to date with the world. Call it once per
// tick after bodies move and before queries start.
func (d *Dispatcher) Refresh() {
	d.index.Refresh(d.world)
}

// CastAll collects every hit up to the hit cap, in the request's order.
func (d *Dispatcher) CastAll(req SweepRequest) Result {
	return d.Cast(req, nil)
}

// CastFirst returns the earliest hit.
func (d *Dispatcher) CastFirst(req SweepRequest) (Hit, bool) {
	req.MaxHits = 1
	req.Order = Sorted
	res := d.Cast(req, nil)
	if len(res.Hits) == 0 {
		return Hit{}, false
	}
	return res.Hits[0], true
}

// Cast runs the query and streams hits to visit, which may be nil to accept
// all. Reporting stops after the hit on which visit returns false, or once
// the hit cap is reached. The returned Result lists exactly the hits reported.
func (d *Dispatcher) Cast(req SweepRequest, visit Visitor) Result {
	var res Result
	q, ok := d.prepare(req, &res.Diagnostics)
	if !ok {
		d.finish(req, &res)
		return res
	}

	limit := d.maxHits
	if req.MaxHits > 0 {
		limit = req.MaxHits
	}
	report := func(h Hit) bool {
		res.Hits = append(res.Hits, h)
		if visit != nil && !visit(h) {
			res.Truncated = true
			return false
		}
		if limit > 0 && len(res.Hits) >= limit {
			res.Truncated = true
			return false
		}
		return true
	}

	var buffered []Hit
	for id := range d.index.QuerySweepCorridor(q.pose.Position, q.direction, q.distance, q.casterBounds) {
		res.Candidates++
		hit, ok := d.test(q, id, &res)
		if !ok {
			continue
		}
		if req.Order == FirstFound {
			if !report(hit) {
				break
			}
			continue
		}
		buffered = append(buffered, hit)
	}

	if req.Order == Sorted {
		slices.SortStableFunc(buffered, compareHits)
		for _, h := range buffered {
			if !report(h) {
				break
			}
		}
	}

	d.finish(req, &res)
	return res
}

// prepared is a validated request.
type prepared struct {
	req          SweepRequest
	shape        geometry.Shape
	pose         geometry.Pose
	direction    rl.Vector3 // unit, or zero for a static test
	distance     float32    // 0 for a static test
	casterBounds geometry.AABB
}

func (d *Dispatcher) prepare(req SweepRequest, diag *Diagnostics) (prepared, bool) {
	shape, degenerate := req.Shape.Normalized()
	if degenerate {
		diag.DegenerateInput++
	}
	if !req.Pose.IsValid() || !geometry.IsFinite(req.Direction) ||
		math32.IsNaN(req.MaxDistance) || math32.IsInf(req.MaxDistance, 0) {
		diag.DegenerateInput++
		return prepared{}, false
	}

	q := prepared{req: req, shape: shape, pose: req.Pose}
	if req.MaxDistance < 0 {
		diag.DegenerateInput++
	} else if req.MaxDistance > 0 && geometry.LengthSqr(req.Direction) > 1e-24 {
		q.direction = rl.Vector3Normalize(req.Direction)
		q.distance = req.MaxDistance
	}

	// Bounds relative to the caster position, padded so contacts within the
	// solver epsilon are never culled.
	local := geometry.Pose{Rotation: req.Pose.Rotation}
	q.casterBounds = geometry.Bounds(shape, local).Expand(2 * d.solver.Config().Epsilon)
	return q, true
}

// test runs filters and the narrow-phase for one candidate.
func (d *Dispatcher) test(q prepared, id world.BodyID, res *Result) (Hit, bool) {
	body, ok := d.world.Body(id)
	if !ok {
		res.Diagnostics.StaleHandles++
		return Hit{}, false
	}
	if q.req.IgnoreOrigin && id == q.req.Origin {
		return Hit{}, false
	}
	if !q.req.Filter.accepts(body) {
		return Hit{}, false
	}

	res.Tested++
	c, status := d.solver.Sweep(q.shape, q.pose, q.direction, q.distance, body.Shape, body.Pose)
	switch status {
	case narrowphase.NotConverged:
		res.Diagnostics.NonConverged++
		return Hit{}, false
	case narrowphase.Miss:
		return Hit{}, false
	}
	if q.req.IgnoreOriginPenetration && c.Distance == 0 && c.Penetration > 0 &&
		geometry.Dot(q.direction, c.Normal) >= 0 {
		return Hit{}, false
	}
	if c.Fallback {
		res.Diagnostics.PenetrationFallback++
	}

	hit := Hit{
		Body:        id,
		Distance:    c.Distance,
		Point:       c.Point,
		CasterPoint: c.CasterPoint,
		Normal:      c.Normal,
		Penetration: c.Penetration,
	}
	if q.distance > 0 {
		hit.Fraction = geometry.Clamp(c.Distance/q.distance, 0, 1)
		hit.Distance = hit.Fraction * q.distance
	}
	return hit, true
}

func (d *Dispatcher) finish(req SweepRequest, res *Result) {
	if d.metrics != nil {
		d.metrics.record(req, *res)
	}
	d.logger.Debug().
		Str("shape", req.Shape.Kind().String()).
		Str("order", req.Order.String()).
		Int("candidates", res.Candidates).
		Int("tested", res.Tested).
		Int("hits", len(res.Hits)).
		Stringer("diagnostic", res.Diagnostics.Code()).
		Msg("sweep")
}
