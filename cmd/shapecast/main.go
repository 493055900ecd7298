// Headless shape-cast demo: a kinematic capsule player stands on a static
// ground slab and casts its own collider along a scripted input direction
// every tick, printing up to five hits.
package main

import (
	"fmt"
	"os"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"shapecast/internal/broadphase"
	"shapecast/internal/compute"
	"shapecast/internal/config"
	"shapecast/internal/geometry"
	"shapecast/internal/logging"
	"shapecast/internal/narrowphase"
	"shapecast/internal/query"
	"shapecast/internal/world"
)

const (
	castDistance = 30.0
	hitsPerTick  = 5
)

func main() {
	fs := pflag.NewFlagSet("shapecast", pflag.ExitOnError)
	config.RegisterFlags(fs)
	script := fs.String("script", "W,A,S,D,WD,v,", "comma-separated inputs per tick: W/A/S/D move, ^ up, v down, empty idle")
	ticks := fs.Int("ticks", 0, "ticks to run; 0 runs the script once")
	fs.Parse(os.Args[1:])

	settings, err := config.Load("", fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shapecast: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(settings.Log, os.Stderr)

	inputs, err := parseScript(*script)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid script")
	}
	if *ticks <= 0 {
		*ticks = len(inputs)
	}

	w, player := buildScene()
	index := broadphase.New(settings.BroadPhase, logger)
	if settings.BroadPhase.GPU {
		attachGPU(index, settings.BroadPhase, logger)
	}
	d, err := query.New(
		query.Config{MaxHits: settings.Query.MaxHits, Metrics: settings.Metrics.Enabled},
		w, index, narrowphase.NewSolver(settings.NarrowPhase), logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to set up queries")
	}

	for tick := 0; tick < *ticks; tick++ {
		d.Refresh()
		runTick(d, w, player, inputs[tick%len(inputs)])
	}
}

// buildScene reproduces the demo world: an 8x8 ground slab and a capsule
// player one unit above it.
func buildScene() (*world.World, world.BodyID) {
	w := world.New()
	w.Create(geometry.Cuboid(rl.Vector3{X: 4, Y: 0.0025, Z: 4}), geometry.Identity(), world.Static)
	player := w.Create(geometry.Capsule(0.5, 0.4), geometry.At(rl.Vector3{Y: 1}), world.Kinematic)
	return w, player
}

func attachGPU(index *broadphase.Index, cfg broadphase.Config, logger zerolog.Logger) {
	info, err := compute.Initialize()
	if err != nil {
		logger.Warn().Err(err).Msg("GPU compute unavailable, using CPU broad-phase")
		return
	}
	culler, err := compute.NewCorridorCuller(uint32(cfg.MaxObjects))
	if err != nil {
		logger.Warn().Err(err).Msg("GPU corridor culler unavailable")
		return
	}
	index.AttachCuller(culler)
	logger.Info().
		Str("backend", info.Backend).
		Str("vendor", info.Vendor).
		Str("gpu", info.Name).
		Int("threshold", index.Config().GPUThreshold).
		Msg("GPU broad-phase ready")
}

func runTick(d *query.Dispatcher, w *world.World, player world.BodyID, direction rl.Vector3) {
	body, ok := w.Body(player)
	if !ok {
		return
	}

	var hits []query.Hit
	d.Cast(query.SweepRequest{
		Shape:                   body.Shape,
		Pose:                    body.Pose,
		Direction:               direction,
		MaxDistance:             castDistance,
		Origin:                  player,
		IgnoreOriginPenetration: true,
	}, func(h query.Hit) bool {
		hits = append(hits, h)
		return len(hits) < hitsPerTick
	})

	for _, h := range hits {
		fmt.Printf("Origin: %s\n", formatVec(body.Pose.Position))
		fmt.Printf("Dir: %s\n", formatVec(direction))
		fmt.Printf("Hit: %s toi=%.4f distance=%.4f point=%s normal=%s penetration=%.4f\n",
			h.Body, h.Fraction, h.Distance, formatVec(h.Point), formatVec(h.Normal), h.Penetration)
		fmt.Printf("Entity is self: %t\n", h.Body == player)
	}
	if len(hits) == 0 && !geometry.IsZero(direction) {
		fmt.Printf("No Hit, Dir: %s\n", formatVec(direction))
	}
}

// parseScript turns "W,AD,,v" into one direction per tick. Letters within a
// token are summed, so "WD" is a diagonal.
func parseScript(s string) ([]rl.Vector3, error) {
	var out []rl.Vector3
	for _, tok := range strings.Split(s, ",") {
		var dir rl.Vector3
		for _, r := range strings.TrimSpace(tok) {
			switch r {
			case 'W', 'w':
				dir.Z--
			case 'S', 's':
				dir.Z++
			case 'A', 'a':
				dir.X--
			case 'D', 'd':
				dir.X++
			case '^':
				dir.Y++
			case 'v', 'V':
				dir.Y--
			default:
				return nil, fmt.Errorf("unknown input %q in %q", r, tok)
			}
		}
		out = append(out, dir)
	}
	return out, nil
}

func formatVec(v rl.Vector3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
