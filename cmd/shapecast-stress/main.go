// Stress test comparing brute force, CPU grid and GPU corridor culling.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"

	"shapecast/internal/broadphase"
	"shapecast/internal/compute"
	"shapecast/internal/geometry"
	"shapecast/internal/logging"
	"shapecast/internal/world"
)

const queriesPerRun = 200

func main() {
	logger := logging.New(logging.Settings{Level: "warn"}, os.Stderr)

	var culler *compute.CorridorCuller
	if info, err := compute.Initialize(); err != nil {
		fmt.Printf("GPU: unavailable (%v)\n\n", err)
	} else {
		fmt.Printf("GPU: %s | %s | %s\n\n", info.Backend, info.Vendor, info.Name)
	}

	testCounts := []int{100, 500, 1000, 2000, 5000, 10000, 20000}
	if compute.Get() != nil {
		c, err := compute.NewCorridorCuller(uint32(testCounts[len(testCounts)-1]))
		if err != nil {
			fmt.Printf("GPU culler: %v\n\n", err)
		} else {
			culler = c
			defer culler.Release()
		}
	}

	for _, count := range testCounts {
		testCorridor(count, culler, logger)
	}
}

type sample struct {
	origin    rl.Vector3
	direction rl.Vector3
	distance  float32
}

func testCorridor(count int, culler *compute.CorridorCuller, logger zerolog.Logger) {
	rng := rand.New(rand.NewSource(42)) // Consistent results

	// Spawn in a cube, size scales with count to keep density reasonable
	spawnSize := float32(50.0) + float32(count)/100.0
	w := world.New()
	for i := 0; i < count; i++ {
		pos := rl.Vector3{
			X: rng.Float32()*spawnSize - spawnSize/2,
			Y: rng.Float32()*spawnSize - spawnSize/2,
			Z: rng.Float32()*spawnSize - spawnSize/2,
		}
		w.Create(geometry.Sphere(0.5+rng.Float32()*0.5), geometry.At(pos), world.Dynamic)
	}

	samples := make([]sample, queriesPerRun)
	for i := range samples {
		samples[i] = sample{
			origin:    rl.Vector3{X: rng.Float32()*spawnSize - spawnSize/2, Y: rng.Float32()*spawnSize - spawnSize/2, Z: rng.Float32()*spawnSize - spawnSize/2},
			direction: rl.Vector3{X: rng.Float32()*2 - 1, Y: rng.Float32()*2 - 1, Z: rng.Float32()*2 - 1},
			distance:  30,
		}
	}
	caster := geometry.Bounds(geometry.Capsule(0.5, 0.4), geometry.Identity())

	cfg := broadphase.DefaultConfig()
	cpu := broadphase.New(cfg, logger)
	cpu.Refresh(w)

	// Brute force: every body through the corridor test
	bruteStart := time.Now()
	bruteCount := 0
	for _, s := range samples {
		c := broadphase.Corridor{
			Origin:      rl.Vector3Add(s.origin, caster.Center()),
			Direction:   rl.Vector3Normalize(s.direction),
			Distance:    s.distance,
			HalfExtents: caster.HalfExtents(),
		}
		for b := range w.Bodies() {
			if c.Admits(b.Bounds) {
				bruteCount++
			}
		}
	}
	bruteTime := time.Since(bruteStart) / queriesPerRun

	gridTime, gridCount := timeIndex(cpu, samples, caster)

	gpuResult := "GPU n/a"
	if culler != nil {
		gpuCfg := cfg
		gpuCfg.GPUThreshold = 1
		gpu := broadphase.New(gpuCfg, logger)
		gpu.AttachCuller(culler)
		gpu.Refresh(w)

		timeIndex(gpu, samples[:1], caster) // warm up
		gpuTime, gpuCount := timeIndex(gpu, samples, caster)
		gpuResult = fmt.Sprintf("GPU %8v (%5d)", gpuTime.Round(time.Microsecond), gpuCount)
	}

	fmt.Printf("%5d bodies: brute %9v (%5d) | grid %8v (%5d) | %s | %.1fx grid speedup\n",
		count, bruteTime.Round(time.Microsecond), bruteCount,
		gridTime.Round(time.Microsecond), gridCount, gpuResult,
		float64(bruteTime)/float64(max(gridTime, 1)))
}

func timeIndex(ix *broadphase.Index, samples []sample, caster geometry.AABB) (time.Duration, int) {
	start := time.Now()
	n := 0
	for _, s := range samples {
		for range ix.QuerySweepCorridor(s.origin, s.direction, s.distance, caster) {
			n++
		}
	}
	return time.Since(start) / time.Duration(len(samples)), n
}
