package cpu

import (
	"math"
	"sync"
	"testing"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

// TestRenderTaskAcquireLoopProcessesMultipleTiles exercises the
// AcquireTile callback path: a single worker must pull, render, and
// release more than one tile over the task's lifetime, rather than owning
// one pre-assigned tile for its duration.
func TestRenderTaskAcquireLoopProcessesMultipleTiles(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const w, h, passStride = 2, 2, 4
	dev.SetFilmConfig(kernel.FilmConfig{PassStride: passStride})

	newTile := func() *RenderTile {
		buf := dev.MemAlloc("buffer", w*h*passStride*4)
		rng := dev.MemAlloc("rng", w*h*4)
		return &RenderTile{
			X: 0, Y: 0, Width: w, Height: h,
			Buffer:      buf,
			Params:      BufferParams{Width: w, Height: h, Stride: w, PassStride: passStride},
			StartSample: 0,
			NumSamples:  4,
			RNGState:    rng,
		}
	}

	var mu sync.Mutex
	pending := []*RenderTile{newTile(), newTile()}
	released := 0

	task := &DeviceTask{
		Type: TaskRender,
		AcquireTile: func() (*RenderTile, bool) {
			mu.Lock()
			defer mu.Unlock()
			if len(pending) == 0 {
				return nil, false
			}
			tile := pending[0]
			pending = pending[1:]
			return tile, true
		},
		ReleaseTile: func(*RenderTile) {
			mu.Lock()
			released++
			mu.Unlock()
		},
	}

	if err := dev.TaskAdd(task); err != nil {
		t.Fatalf("TaskAdd: %v", err)
	}

	if released != 2 {
		t.Fatalf("released %d tiles, want 2", released)
	}
}

// TestRenderTaskOverscanDenoisesInsetArea confirms a tile whose buffer
// declares an overscan margin runs prefill and reconstruction over its
// inset filter_area once sampling finishes, rather than leaving the
// overscan's own RENDER handling unexercised.
func TestRenderTaskOverscanDenoisesInsetArea(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const w, h, passStride = 3, 3, 22
	dev.SetFilmConfig(kernel.FilmConfig{
		PassStride:         passStride,
		DenoiseColorOffset: kernel.FeatureOffset{Mean: 0, Variance: 10},
	})
	dev.SetIntegratorConfig(kernel.IntegratorConfig{HalfWindow: 0})

	buf := dev.MemAlloc("buffer", w*h*passStride*4)
	rng := dev.MemAlloc("rng", w*h*4)
	for i := range rng.Data {
		rng.Data[i] = byte(i + 1)
	}

	tile := &RenderTile{
		X: 0, Y: 0, Width: w, Height: h,
		Buffer:      buf,
		Params:      BufferParams{Width: w, Height: h, Stride: w, PassStride: passStride, Overscan: 1},
		StartSample: 0,
		NumSamples:  2,
		RNGState:    rng,
	}

	released := false
	acquired := false
	task := &DeviceTask{
		Type: TaskRender,
		AcquireTile: func() (*RenderTile, bool) {
			if acquired {
				return nil, false
			}
			acquired = true
			return tile, true
		},
		ReleaseTile: func(*RenderTile) { released = true },
	}

	if err := dev.TaskAdd(task); err != nil {
		t.Fatalf("TaskAdd: %v", err)
	}
	if !released {
		t.Fatal("ReleaseTile was never called")
	}

	samples := asFloat32Slice(buf.Data)
	centerIdx := (1*w + 1) * passStride
	for c := 0; c < 3; c++ {
		got := samples[centerIdx+c]
		if math.IsNaN(float64(got)) || math.IsInf(float64(got), 0) {
			t.Fatalf("denoised channel %d at inset pixel = %v, want a finite value", c, got)
		}
	}
}
