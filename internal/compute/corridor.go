package compute

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"shapecast/internal/broadphase"
	"shapecast/internal/geometry"
)

const (
	gpuBoxSize         = 32
	corridorParamsSize = 48
)

// gpuBox is one AABB packed as two vec4s (w unused).
type gpuBox struct {
	Min [4]float32
	Max [4]float32
}

// corridorParams matches the WGSL Params struct: 48 bytes, 16-byte aligned.
type corridorParams struct {
	Origin    [4]float32
	Direction [4]float32 // xyz = unit direction, w = distance
	Half      [3]float32
	Count     uint32
}

const corridorShader = `
// Sweep-corridor culling: one thread per body AABB.
// The box is inflated by the caster half extents and slab-tested against
// the corridor centre line.

struct Box {
    min: vec4<f32>,
    max: vec4<f32>,
}

struct Params {
    origin: vec4<f32>,
    direction: vec4<f32>,
    half: vec3<f32>,
    count: u32,
}

@group(0) @binding(0) var<storage, read> boxes: array<Box>;
@group(0) @binding(1) var<storage, read_write> hits: array<u32>;
@group(0) @binding(2) var<storage, read_write> hitCount: atomic<u32>;
@group(0) @binding(3) var<uniform> params: Params;

// Slack so GPU rounding never rejects a box the CPU would keep
const PAD: f32 = 1e-4;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let i = global_id.x;
    if (i >= params.count) {
        return;
    }

    let lo = boxes[i].min.xyz - params.half - vec3<f32>(PAD);
    let hi = boxes[i].max.xyz + params.half + vec3<f32>(PAD);
    let o = params.origin.xyz;
    let d = params.direction.xyz;

    var tmin = 0.0;
    var tmax = params.direction.w;
    for (var a = 0u; a < 3u; a = a + 1u) {
        if (d[a] == 0.0) {
            if (o[a] < lo[a] || o[a] > hi[a]) {
                return;
            }
            continue;
        }
        var t1 = (lo[a] - o[a]) / d[a];
        var t2 = (hi[a] - o[a]) / d[a];
        if (t1 > t2) {
            let tmp = t1;
            t1 = t2;
            t2 = tmp;
        }
        tmin = max(tmin, t1);
        tmax = min(tmax, t2);
        if (tmin > tmax) {
            return;
        }
    }

    let idx = atomicAdd(&hitCount, 1u);
    if (idx < arrayLength(&hits)) {
        hits[idx] = i;
    }
}
`

// CorridorCuller runs broadphase corridor tests on the GPU. Calls are
// serialized: the buffers are shared between queries.
type CorridorCuller struct {
	mu       sync.Mutex
	system   *System
	pipeline *Pipeline

	boxBuffer   *Buffer // input: packed AABBs
	hitBuffer   *Buffer // output: indices of admitted boxes
	countBuffer *Buffer // output: number of admitted boxes
	paramBuffer *Buffer // uniform: corridor
}

var _ broadphase.Culler = (*CorridorCuller)(nil)

// NewCorridorCuller allocates buffers for up to maxObjects bodies. It returns
// ErrUnavailable when Initialize has not succeeded.
func NewCorridorCuller(maxObjects uint32) (*CorridorCuller, error) {
	sys := Get()
	if sys == nil {
		return nil, ErrUnavailable
	}
	if maxObjects == 0 {
		return nil, fmt.Errorf("corridor culler: maxObjects must be positive")
	}

	pipeline, err := sys.CreatePipeline("corridor", corridorShader, "main",
		ReadOnlyStorage, Storage, Storage, Uniform)
	if err != nil {
		return nil, err
	}

	c := &CorridorCuller{system: sys, pipeline: pipeline}
	allocs := []struct {
		dst   **Buffer
		label string
		size  uint64
		usage wgpu.BufferUsage
	}{
		{&c.boxBuffer, "corridor_boxes", uint64(maxObjects) * gpuBoxSize, wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst},
		{&c.hitBuffer, "corridor_hits", uint64(maxObjects) * 4, wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc},
		{&c.countBuffer, "corridor_count", 4, wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst},
		{&c.paramBuffer, "corridor_params", corridorParamsSize, wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst},
	}
	for _, a := range allocs {
		buf, err := sys.CreateBuffer(a.label, a.size, a.usage)
		if err != nil {
			c.Release()
			return nil, err
		}
		*a.dst = buf
	}
	return c, nil
}

// CullCorridor returns the indices of bounds admitted by the corridor, in no
// particular order. Bounds past the buffer capacity are an error so the
// caller can fall back to the CPU path rather than miss bodies.
func (c *CorridorCuller) CullCorridor(bounds []geometry.AABB, cor broadphase.Corridor) ([]uint32, error) {
	if len(bounds) == 0 {
		return nil, nil
	}
	capacity := c.Capacity()
	if uint64(len(bounds)) > uint64(capacity) {
		return nil, fmt.Errorf("corridor culler: %d bodies exceed capacity %d", len(bounds), capacity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	boxes := make([]gpuBox, len(bounds))
	for i, b := range bounds {
		boxes[i] = gpuBox{
			Min: [4]float32{b.Min.X, b.Min.Y, b.Min.Z, 0},
			Max: [4]float32{b.Max.X, b.Max.Y, b.Max.Z, 0},
		}
	}
	params := corridorParams{
		Origin:    [4]float32{cor.Origin.X, cor.Origin.Y, cor.Origin.Z, 0},
		Direction: [4]float32{cor.Direction.X, cor.Direction.Y, cor.Direction.Z, cor.Distance},
		Half:      [3]float32{cor.HalfExtents.X, cor.HalfExtents.Y, cor.HalfExtents.Z},
		Count:     uint32(len(bounds)),
	}

	c.system.WriteBuffer(c.boxBuffer, 0, ToBytes(boxes))
	c.system.WriteBuffer(c.paramBuffer, 0, ToBytes([]corridorParams{params}))
	c.system.WriteBuffer(c.countBuffer, 0, ToBytes([]uint32{0}))

	err := c.system.Dispatch(DispatchParams{
		Pipeline:    c.pipeline,
		Buffers:     []*Buffer{c.boxBuffer, c.hitBuffer, c.countBuffer, c.paramBuffer},
		WorkgroupsX: (uint32(len(bounds)) + 255) / 256,
	})
	if err != nil {
		return nil, fmt.Errorf("corridor dispatch: %w", err)
	}

	countData, err := c.system.ReadBuffer(c.countBuffer)
	if err != nil {
		return nil, fmt.Errorf("corridor count readback: %w", err)
	}
	count := FromBytes[uint32](countData)[0]
	if count == 0 {
		return nil, nil
	}
	if count > capacity {
		count = capacity
	}

	hitData, err := c.system.ReadBufferRange(c.hitBuffer, uint64(count)*4)
	if err != nil {
		return nil, fmt.Errorf("corridor hits readback: %w", err)
	}
	hits := make([]uint32, count)
	copy(hits, FromBytes[uint32](hitData))
	return hits, nil
}

// Capacity is the number of bodies the GPU buffers hold.
func (c *CorridorCuller) Capacity() uint32 {
	return uint32(c.boxBuffer.Size() / gpuBoxSize)
}

// Release frees the culler's buffers. The shared pipeline stays cached on
// the System.
func (c *CorridorCuller) Release() {
	for _, b := range []*Buffer{c.boxBuffer, c.hitBuffer, c.countBuffer, c.paramBuffer} {
		if b != nil {
			b.Release()
		}
	}
}
