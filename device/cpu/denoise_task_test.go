package cpu

import (
	"math"
	"testing"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

// TestDenoiseTaskUsesConfiguredFeatureAndColorOffsets exercises TaskDenoise
// end to end through the device's public API, confirming that the feature
// and color pass locations configured via SetFilmConfig actually reach the
// prefill stage instead of defaulting to offset 0.
func TestDenoiseTaskUsesConfiguredFeatureAndColorOffsets(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const renderPassStride = 30
	var features [kernel.DenoiseFeatures - 1]kernel.FeatureOffset
	for i := range features {
		features[i] = kernel.FeatureOffset{Mean: 8 + 2*i, Variance: 9 + 2*i}
	}
	colorOffset := kernel.FeatureOffset{Mean: 2, Variance: 23}
	dev.SetFilmConfig(kernel.FilmConfig{
		PassStride:         renderPassStride,
		DenoiseFeatures:    features,
		DenoiseColorOffset: colorOffset,
	})
	dev.SetIntegratorConfig(kernel.IntegratorConfig{HalfWindow: 0})

	renderBuf := dev.MemAlloc("render", renderPassStride*4)
	samples := asFloat32Slice(renderBuf.Data)
	samples[2], samples[3], samples[4] = 11, 22, 33 // color mean R,G,B at DenoiseColorOffset.Mean
	samples[23], samples[24], samples[25] = 1, 1, 1 // color variance R,G,B at DenoiseColorOffset.Variance
	for i := range features {
		samples[features[i].Mean] = 1
		samples[features[i].Variance] = 1
	}

	tile := &RenderTile{
		X: 0, Y: 0, Width: 1, Height: 1,
		Buffer: renderBuf,
		Params: BufferParams{Width: 1, Height: 1, Stride: 1, PassStride: renderPassStride},
		Sample: 0,
	}

	var tiles [9]*RenderTile
	tiles[4] = tile

	released := false
	task := &DeviceTask{
		Type:        TaskDenoise,
		Tiles:       tiles,
		DenoiseRect: kernel.Rect{0, 0, 1, 1},
		ReleaseTile: func(*RenderTile) { released = true },
	}

	if err := dev.TaskAdd(task); err != nil {
		t.Fatalf("TaskAdd: %v", err)
	}
	if !released {
		t.Fatal("ReleaseTile was never called")
	}

	got := samples[0] // PassNoDenoising defaults to 0
	if diff := math.Abs(float64(got - 11)); diff > 1e-3 {
		t.Fatalf("denoised R = %v, want ~11 (color offset must have been read from DenoiseColorOffset=2)", got)
	}
}
