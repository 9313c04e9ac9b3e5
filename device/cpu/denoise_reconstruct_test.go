package cpu

import (
	"math"
	"testing"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

// TestDenoiseRunSinglePixelRegressesToColor exercises the full
// construct-transform -> Gramian accumulation -> finalize pipeline on a
// single-pixel filter area with a trivial (identity-weighted) feature
// basis, where the regressed color is expected to come out within
// floating-point epsilon of the input color.
func TestDenoiseRunSinglePixelRegressesToColor(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const renderPassStride = 3
	dev.SetFilmConfig(kernel.FilmConfig{PassStride: renderPassStride})

	filterBuffer := make([]float32, totalPrefillPasses(false))
	for f := 0; f < kernel.DenoiseFeatures; f++ {
		filterBuffer[kernel.FeaturePassBase+f*2] = 1   // mean
		filterBuffer[kernel.FeaturePassBase+f*2+1] = 1 // variance
	}
	// Mean/variance pairs interleave per channel: R mean, R variance, G
	// mean, G variance, B mean, B variance.
	colorBase := kernel.FeaturePassBase + kernel.DenoiseFeatures*2
	filterBuffer[colorBase+0] = 1 // R mean
	filterBuffer[colorBase+1] = 1 // R variance
	filterBuffer[colorBase+2] = 2 // G mean
	filterBuffer[colorBase+3] = 1 // G variance
	filterBuffer[colorBase+4] = 3 // B mean
	filterBuffer[colorBase+5] = 1 // B variance

	renderBuf := dev.MemAlloc("render", renderPassStride*4)

	dev.denoiseRun(dev.globals, &ReconstructInput{
		FilterBuffer: filterBuffer,
		FilterRect:   kernel.Rect{0, 0, 1, 1},
		Rect:         kernel.Rect{0, 0, 1, 1},
		HalfWindow:   0,
		A:            1,
		K2:           1,
		Buffer:       renderBuf,
		BufferStride: 1,
		Sample:       0,
	})

	out := asFloat32Slice(renderBuf.Data)
	want := []float32{1, 2, 3}
	for c, w := range want {
		if diff := math.Abs(float64(out[c] - w)); diff > 1e-4 {
			t.Fatalf("channel %d = %v, want ~%v (diff %v)", c, out[c], w, diff)
		}
	}
}
