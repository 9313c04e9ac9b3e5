package cpu

import (
	"testing"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

func TestRenderTaskAccumulatesSamples(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const w, h, passStride = 4, 4, 4
	dev.SetFilmConfig(kernel.FilmConfig{PassStride: passStride})

	buf := dev.MemAlloc("buffer", w*h*passStride*4)
	rng := dev.MemAlloc("rng", w*h*4)
	for i := range rng.Data {
		rng.Data[i] = byte(i + 1)
	}

	tile := &RenderTile{
		X: 0, Y: 0, Width: w, Height: h,
		Buffer:      buf,
		Params:      BufferParams{Width: w, Height: h, Stride: w, PassStride: passStride},
		StartSample: 0,
		NumSamples:  8,
		RNGState:    rng,
	}

	progressCalls := 0
	released := false
	task := &DeviceTask{
		Type:           TaskRender,
		Tile:           tile,
		UpdateProgress: func(*RenderTile, int) bool { progressCalls++; return true },
		ReleaseTile:    func(*RenderTile) { released = true },
	}

	if err := dev.TaskAdd(task); err != nil {
		t.Fatalf("TaskAdd: %v", err)
	}

	if progressCalls != tile.NumSamples {
		t.Fatalf("UpdateProgress called %d times, want %d", progressCalls, tile.NumSamples)
	}
	if !released {
		t.Fatal("ReleaseTile was never called")
	}

	samples := asFloat32Slice(buf.Data)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := (y*w + x) * passStride
			if got := samples[base+3]; got != float32(tile.NumSamples) {
				t.Fatalf("pixel (%d,%d) sample count = %v, want %v", x, y, got, tile.NumSamples)
			}
		}
	}
}

func TestRenderTaskStopsOnCancellation(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const w, h, passStride = 2, 2, 4
	dev.SetFilmConfig(kernel.FilmConfig{PassStride: passStride})

	buf := dev.MemAlloc("buffer", w*h*passStride*4)
	rng := dev.MemAlloc("rng", w*h*4)

	tile := &RenderTile{
		X: 0, Y: 0, Width: w, Height: h,
		Buffer:      buf,
		Params:      BufferParams{Width: w, Height: h, Stride: w, PassStride: passStride},
		NumSamples:  100,
		RNGState:    rng,
	}

	progressCalls := 0
	task := &DeviceTask{
		Type: TaskRender,
		Tile: tile,
		UpdateProgress: func(*RenderTile, int) bool {
			progressCalls++
			return progressCalls < 3
		},
		Cancelled: func() bool { return progressCalls >= 3 },
	}

	if err := dev.TaskAdd(task); err != nil {
		t.Fatalf("TaskAdd: %v", err)
	}

	if progressCalls != 3 {
		t.Fatalf("UpdateProgress called %d times, want 3 (loop should stop once it returns false)", progressCalls)
	}
}
