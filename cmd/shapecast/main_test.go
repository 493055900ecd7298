package main

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapecast/internal/broadphase"
	"shapecast/internal/narrowphase"
	"shapecast/internal/query"
	"shapecast/internal/world"
)

func TestParseScript(t *testing.T) {
	dirs, err := parseScript("W, ad ,,SD,v")
	require.NoError(t, err)
	assert.Equal(t, []rl.Vector3{
		{Z: -1},
		{},
		{},
		{X: 1, Z: 1},
		{Y: -1},
	}, dirs)

	_, err = parseScript("W,Q")
	assert.Error(t, err)
}

func othersHit(hits []query.Hit, self world.BodyID) []query.Hit {
	var out []query.Hit
	for _, h := range hits {
		if h.Body != self {
			out = append(out, h)
		}
	}
	return out
}

func TestSceneDownCastHitsGround(t *testing.T) {
	w, player := buildScene()
	d, err := query.New(query.Config{MaxHits: hitsPerTick}, w,
		broadphase.New(broadphase.DefaultConfig(), zerolog.Nop()),
		narrowphase.NewSolver(narrowphase.DefaultConfig()), zerolog.Nop())
	require.NoError(t, err)
	d.Refresh()

	// The player overlaps its own collider at the start pose; whether that
	// counts depends on the motion, so only the other hits are checked here.
	body, _ := w.Body(player)
	res := d.CastAll(query.SweepRequest{
		Shape:                   body.Shape,
		Pose:                    body.Pose,
		Direction:               rl.Vector3{Y: -1},
		MaxDistance:             castDistance,
		Origin:                  player,
		IgnoreOriginPenetration: true,
	})
	others := othersHit(res.Hits, player)
	require.Len(t, others, 1)
	// Ground top sits at 0.0025
	assert.InDelta(t, 0.0975, others[0].Distance, 1e-3)

	// Sideways the player only slides along the ground
	res = d.CastAll(query.SweepRequest{
		Shape:                   body.Shape,
		Pose:                    body.Pose,
		Direction:               rl.Vector3{X: 1},
		MaxDistance:             castDistance,
		Origin:                  player,
		IgnoreOriginPenetration: true,
	})
	assert.Empty(t, othersHit(res.Hits, player))

	// With IgnoreOrigin the player never sees itself
	res = d.CastAll(query.SweepRequest{
		Shape:        body.Shape,
		Pose:         body.Pose,
		Direction:    rl.Vector3{X: 1},
		MaxDistance:  castDistance,
		Origin:       player,
		IgnoreOrigin: true,
	})
	assert.Empty(t, res.Hits)
}
