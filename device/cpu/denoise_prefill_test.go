package cpu

import (
	"testing"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

func TestTotalPrefillPasses(t *testing.T) {
	if got := totalPrefillPasses(false); got != 22 {
		t.Fatalf("totalPrefillPasses(false) = %d, want 22", got)
	}
	if got := totalPrefillPasses(true); got != 28 {
		t.Fatalf("totalPrefillPasses(true) = %d, want 28", got)
	}
}

func TestDenoiseFillBufferSinglePixel(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const passStride = 22
	dev.SetFilmConfig(kernel.FilmConfig{PassStride: passStride})

	buf := dev.MemAlloc("buffer", passStride*4)
	pixel := asFloat32Slice(buf.Data)
	pixel[0], pixel[1] = 2, 4 // shadow halves
	for i := 0; i < kernel.DenoiseFeatures-1; i++ {
		pixel[2+2*i] = float32(i + 1) // feature mean
		pixel[3+2*i] = float32(i + 1) // feature variance
	}
	pixel[16], pixel[17], pixel[18] = 10, 20, 30    // color mean R,G,B
	pixel[19], pixel[20], pixel[21] = 100, 200, 300 // color variance R,G,B

	tile := &RenderTile{Buffer: buf, Params: BufferParams{Stride: 1, PassStride: passStride}}

	var featureOffsets [kernel.DenoiseFeatures - 1]FeatureOffset
	for i := range featureOffsets {
		featureOffsets[i] = FeatureOffset{Mean: 2 + 2*i, Variance: 3 + 2*i}
	}

	in := &PrefillInput{
		Rect:           kernel.Rect{0, 0, 1, 1},
		TileX:          [4]int{-1, 0, 1, 2},
		TileY:          [4]int{-1, 0, 1, 2},
		Frames:         1,
		Sample:         0,
		A:              1,
		K2:             1,
		HalfWindow:     0,
		FeatureOffsets: featureOffsets,
		ColorOffset:    FeatureOffset{Mean: 16, Variance: 19},
	}
	in.Tiles[4] = tile

	out := dev.denoiseFillBuffer(dev.globals, in)

	wantLen := totalPrefillPasses(false)
	if len(out) != wantLen {
		t.Fatalf("len(out) = %d, want %d", len(out), wantLen)
	}

	// On a single-pixel rect every non-local-means call degenerates to a
	// self-weighted passthrough (one search offset, weight 1), so the
	// shadow prefilter's six stages collapse to the closed-form a/b
	// combine: mean 0.5*(a+b), variance 0.25*(a-b)^2.
	if got := out[8]; got != 3 {
		t.Fatalf("shadow mean = %v, want 3", got)
	}
	if got := out[9]; got != 1 {
		t.Fatalf("shadow variance = %v, want 1", got)
	}

	for slot, pairIndex := range featurePairForSlot {
		want := float32(slot + 1)
		if got := out[pairIndex*2]; got != want {
			t.Fatalf("feature slot %d mean = %v, want %v", slot, got, want)
		}
		if got := out[pairIndex*2+1]; got != want {
			t.Fatalf("feature slot %d variance = %v, want %v", slot, got, want)
		}
	}

	colorBase := kernel.FeaturePassBase + kernel.DenoiseFeatures*2
	wantColor := []float32{10, 100, 20, 200, 30, 300}
	for i, want := range wantColor {
		if got := out[colorBase+i]; got != want {
			t.Fatalf("color pass %d = %v, want %v", colorBase+i, got, want)
		}
	}
}
