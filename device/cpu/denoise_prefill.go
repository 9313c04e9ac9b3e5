package cpu

import "github.com/achilleasa/go-pathtrace-cpu/kernel"

// FeatureOffset locates one auxiliary feature's mean/variance pair within
// a render buffer's interleaved passes.
type FeatureOffset = kernel.FeatureOffset

// PrefillInput is everything denoiseFillBuffer needs to assemble one
// frame's worth of planar filter-buffer passes for a tile.
type PrefillInput struct {
	Tiles      [9]*RenderTile
	TileX      [4]int
	TileY      [4]int
	Rect       kernel.Rect
	Frame      int
	Frames     int
	Sample     int
	A, K2      float32
	HalfWindow int

	// FeatureOffsets locates the seven normal/depth/albedo feature passes
	// the feature prefilter reads, in processing order: normalX, normalY,
	// normalZ, depth, albedoR, albedoG, albedoB. Shadow is always computed
	// in-line by the shadow prefilter, not read from here.
	FeatureOffsets [kernel.DenoiseFeatures - 1]FeatureOffset

	// ColorOffset and ColorOffsetB locate the R channel's mean/variance
	// pair of the combined color pass (and, when CrossDenoise is set,
	// its second half-image); G and B sit at Mean+1/Variance+1 and
	// Mean+2/Variance+2 respectively.
	ColorOffset  FeatureOffset
	ColorOffsetB FeatureOffset
	CrossDenoise bool
}

// featurePairForSlot maps FeatureOffsets' seven processing-order entries
// to their mean/variance pass-pair index in the filter buffer, skipping
// pair index 4 (the shadow pass the shadow prefilter owns). Mirrors
// device_cpu.cpp's denoise_fill_buffer offset_to table, collapsed to
// mean/variance pair indices instead of raw pass numbers.
var featurePairForSlot = [kernel.DenoiseFeatures - 1]int{0, 1, 2, 3, 5, 6, 7}

func colorPassCount(cross bool) int {
	if cross {
		return 12
	}
	return 6
}

// totalPrefillPasses returns the planar pass count denoiseFillBuffer
// allocates: one mean/variance pair per feature (normal/depth/shadow/albedo)
// plus one mean/variance triple per color half.
func totalPrefillPasses(cross bool) int {
	return kernel.FeaturePassBase + kernel.DenoiseFeatures*2 + colorPassCount(cross)
}

// denoiseFillBuffer builds the planar filter buffer the reconstruction
// pass regresses against: a shadow prefilter (divide into two halves,
// smooth the buffer variance, cross-weighted non-local-means filter the
// halves against each other twice with progressively refined variance,
// recombine), a feature prefilter (self-weighted non-local-means filter
// per auxiliary feature), and a plain color copy.
func (d *CPUDevice) denoiseFillBuffer(kg *kernel.Globals, in *PrefillInput) []float32 {
	w := in.Rect[2] - in.Rect[0]
	h := in.Rect[3] - in.Rect[1]
	passes := totalPrefillPasses(in.CrossDenoise)
	passStride := w * h * in.Frames
	buf := make([]float32, passes*passStride)

	frameOff := w * h * in.Frame
	passSlice := func(pass int) []float32 {
		base := pass*passStride + frameOff
		return buf[base : base+w*h]
	}

	var buffers [9][]float32
	var offsets, strides [9]int
	for i, t := range in.Tiles {
		if t == nil {
			continue
		}
		buffers[i] = asFloat32Slice(t.Buffer.Data)
		offsets[i] = t.Offset()
		strides[i] = t.Stride()
	}

	d.prefilterShadow(kg, in, buffers, offsets, strides, passSlice(8), passSlice(9))
	d.prefilterFeatures(kg, in, buffers, offsets, strides, passSlice)
	d.copyColor(kg, in, buffers, offsets, strides, passSlice)

	return buf
}

// prefilterShadow runs the shadow prefilter's six stages: divide the
// shadow pass into its two sampled halves, smooth the noisy buffer
// variance into a clean estimate, cross-weighted-filter each half using
// the other as its weight channel, derive a residual variance from that
// result, cross-weighted-filter again using the residual variance, and
// combine the twice-filtered halves into the permanent shadow mean and
// variance passes.
func (d *CPUDevice) prefilterShadow(kg *kernel.Globals, in *PrefillInput, buffers [9][]float32, offsets, strides [9]int, shadowMean, shadowVariance []float32) {
	n := (in.Rect[2] - in.Rect[0]) * (in.Rect[3] - in.Rect[1])

	sampleV := make([]float32, n)
	sampleVV := make([]float32, n)
	bufferV := make([]float32, n)
	unfilteredA := make([]float32, n)
	unfilteredB := make([]float32, n)

	divideShadow := d.kernels.filterDivideShadow.get()
	for y := in.Rect[1]; y < in.Rect[3]; y++ {
		for x := in.Rect[0]; x < in.Rect[2]; x++ {
			divideShadow(kg, in.Sample, buffers, x, y, in.TileX, in.TileY, offsets, strides,
				unfilteredA, unfilteredB, sampleV, sampleVV, bufferV, in.Rect)
		}
	}

	// Smooth the noisy buffer variance using the spatial information of
	// the sample variance.
	cleanV := make([]float32, n)
	d.nonLocalMeans(sampleV, sampleVV, bufferV, cleanV, in.Rect, 6, 3, 4.0, 1.0)

	// Filter the two shadow halves using each other for weight
	// calculation, with the smoothed variance as the variance estimate.
	filteredA := make([]float32, n)
	filteredB := make([]float32, n)
	d.nonLocalMeans(unfilteredB, cleanV, unfilteredA, filteredA, in.Rect, 5, 3, 1.0, 0.25)
	d.nonLocalMeans(unfilteredA, cleanV, unfilteredB, filteredB, in.Rect, 5, 3, 1.0, 0.25)

	// Estimate the residual variance between the two filtered halves.
	residualV := make([]float32, n)
	combine := d.kernels.filterCombineHalves.get()
	for y := in.Rect[1]; y < in.Rect[3]; y++ {
		for x := in.Rect[0]; x < in.Rect[2]; x++ {
			combine(x, y, nil, residualV, filteredA, filteredB, in.Rect, kernel.CombineSum)
		}
	}

	// Use the residual variance for a second cross-weighted filter pass.
	finalA := make([]float32, n)
	finalB := make([]float32, n)
	d.nonLocalMeans(filteredB, residualV, filteredA, finalA, in.Rect, 4, 2, 1.0, 0.5)
	d.nonLocalMeans(filteredA, residualV, filteredB, finalB, in.Rect, 4, 2, 1.0, 0.5)

	for y := in.Rect[1]; y < in.Rect[3]; y++ {
		for x := in.Rect[0]; x < in.Rect[2]; x++ {
			combine(x, y, shadowMean, shadowVariance, finalA, finalB, in.Rect, kernel.CombineMeanSquaredError)
		}
	}
}

// prefilterFeatures extracts each auxiliary feature's raw mean/sample
// variance, then non-local-means filters the mean in place (self-weighted,
// using the variance just extracted) while the variance pass-through is
// left unfiltered.
func (d *CPUDevice) prefilterFeatures(kg *kernel.Globals, in *PrefillInput, buffers [9][]float32, offsets, strides [9]int, passSlice func(int) []float32) {
	n := (in.Rect[2] - in.Rect[0]) * (in.Rect[3] - in.Rect[1])
	getFeature := d.kernels.filterGetFeature.get()

	for slot, fo := range in.FeatureOffsets {
		pairIndex := featurePairForSlot[slot]
		mean := passSlice(kernel.FeaturePassBase + pairIndex*2)
		variance := passSlice(kernel.FeaturePassBase + pairIndex*2 + 1)

		unfiltered := make([]float32, n)
		for y := in.Rect[1]; y < in.Rect[3]; y++ {
			for x := in.Rect[0]; x < in.Rect[2]; x++ {
				getFeature(kg, in.Sample, buffers, fo.Mean, fo.Variance, x, y, in.TileX, in.TileY, offsets, strides, unfiltered, variance, in.Rect)
			}
		}
		d.nonLocalMeans(unfiltered, variance, unfiltered, mean, in.Rect, 2, 2, 1.0, 0.25)
	}
}

// copyColor writes the combined color pass's R/G/B mean and sample
// variance straight into the planar filter buffer, with no non-local-means
// filtering: only the auxiliary features and the shadow pass are
// non-local-means filtered.
func (d *CPUDevice) copyColor(kg *kernel.Globals, in *PrefillInput, buffers [9][]float32, offsets, strides [9]int, passSlice func(int) []float32) {
	colorBase := kernel.FeaturePassBase + kernel.DenoiseFeatures*2
	getFeature := d.kernels.filterGetFeature.get()

	copyHalf := func(fo FeatureOffset, base int) {
		for c := 0; c < 3; c++ {
			mean := passSlice(base + c*2)
			variance := passSlice(base + c*2 + 1)
			for y := in.Rect[1]; y < in.Rect[3]; y++ {
				for x := in.Rect[0]; x < in.Rect[2]; x++ {
					getFeature(kg, in.Sample, buffers, fo.Mean+c, fo.Variance+c, x, y, in.TileX, in.TileY, offsets, strides, mean, variance, in.Rect)
				}
			}
		}
	}

	copyHalf(in.ColorOffset, colorBase)
	if in.CrossDenoise {
		copyHalf(in.ColorOffsetB, colorBase+6)
	}
}
