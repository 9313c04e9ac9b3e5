package kernel

// Rect is an inclusive-exclusive pixel rectangle [X0,Y0,X1,Y1).
type Rect [4]int

// tileIndex maps an absolute pixel coordinate to one of the 3x3 render
// tiles surrounding the tile being denoised, using the four x/y splitter
// coordinates the caller supplies (tileX/tileY: left edge, tile's own left,
// tile's own right, right edge). Matches the center-plus-eight-neighbor
// buffer layout denoise_fill_buffer assembles its input from.
func tileIndex(x, y int, tileX, tileY [4]int) int {
	col := 1
	switch {
	case x < tileX[1]:
		col = 0
	case x >= tileX[2]:
		col = 2
	}
	row := 1
	switch {
	case y < tileY[1]:
		row = 0
	case y >= tileY[2]:
		row = 2
	}
	return row*3 + col
}

// FilterDivideShadowFunc splits the accumulated shadow pass of one pixel
// into its two sampled halves and derives the per-pixel sample variance
// planes consumed by the NLM shadow prefilter.
type FilterDivideShadowFunc func(kg *Globals, sample int, buffers [9][]float32, x, y int, tileX, tileY [4]int, offsets, strides [9]int, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance []float32, rect Rect)

func filterDivideShadowImpl(kg *Globals, sample int, buffers [9][]float32, x, y int, tileX, tileY [4]int, offsets, strides [9]int, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance []float32, rect Rect) {
	t := tileIndex(x, y, tileX, tileY)
	buf := buffers[t]
	if buf == nil {
		return
	}
	idx := offsets[t] + y*strides[t] + x
	base := idx * kg.Film.PassStride
	if base+1 >= len(buf) {
		return
	}
	a := buf[base+0]
	b := buf[base+1]

	w, rx, ry := rect[2]-rect[0], x-rect[0], y-rect[1]
	out := ry*w + rx
	if out < 0 {
		return
	}
	if out < len(unfilteredA) {
		unfilteredA[out] = a
	}
	if out < len(unfilteredB) {
		unfilteredB[out] = b
	}
	diff := a - b
	variance := diff * diff
	if out < len(sampleVariance) {
		sampleVariance[out] = variance / float32(sample+1)
	}
	if out < len(sampleVarianceV) {
		sampleVarianceV[out] = variance
	}
	if out < len(bufferVariance) {
		bufferVariance[out] = variance
	}
}

func FilterDivideShadowDefault(kg *Globals, sample int, buffers [9][]float32, x, y int, tileX, tileY [4]int, offsets, strides [9]int, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance []float32, rect Rect) {
	filterDivideShadowImpl(kg, sample, buffers, x, y, tileX, tileY, offsets, strides, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance, rect)
}
func FilterDivideShadowSSE2(kg *Globals, sample int, buffers [9][]float32, x, y int, tileX, tileY [4]int, offsets, strides [9]int, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance []float32, rect Rect) {
	filterDivideShadowImpl(kg, sample, buffers, x, y, tileX, tileY, offsets, strides, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance, rect)
}
func FilterDivideShadowSSE3(kg *Globals, sample int, buffers [9][]float32, x, y int, tileX, tileY [4]int, offsets, strides [9]int, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance []float32, rect Rect) {
	filterDivideShadowImpl(kg, sample, buffers, x, y, tileX, tileY, offsets, strides, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance, rect)
}
func FilterDivideShadowSSE41(kg *Globals, sample int, buffers [9][]float32, x, y int, tileX, tileY [4]int, offsets, strides [9]int, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance []float32, rect Rect) {
	filterDivideShadowImpl(kg, sample, buffers, x, y, tileX, tileY, offsets, strides, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance, rect)
}
func FilterDivideShadowAVX(kg *Globals, sample int, buffers [9][]float32, x, y int, tileX, tileY [4]int, offsets, strides [9]int, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance []float32, rect Rect) {
	filterDivideShadowImpl(kg, sample, buffers, x, y, tileX, tileY, offsets, strides, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance, rect)
}
func FilterDivideShadowAVX2(kg *Globals, sample int, buffers [9][]float32, x, y int, tileX, tileY [4]int, offsets, strides [9]int, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance []float32, rect Rect) {
	filterDivideShadowImpl(kg, sample, buffers, x, y, tileX, tileY, offsets, strides, unfilteredA, unfilteredB, sampleVariance, sampleVarianceV, bufferVariance, rect)
}

// CombineMode selects how filter_combine_halves merges two estimates.
type CombineMode int

const (
	CombineMeanSquaredError CombineMode = iota
	CombineSum
)

// FilterCombineHalvesFunc merges the independently-filtered A/B halves of a
// scratch pass back into a single mean and variance estimate.
type FilterCombineHalvesFunc func(x, y int, meanOut, varianceOut, a, b []float32, rect Rect, mode CombineMode)

func filterCombineHalvesImpl(x, y int, meanOut, varianceOut, a, b []float32, rect Rect, mode CombineMode) {
	w, rx, ry := rect[2]-rect[0], x-rect[0], y-rect[1]
	i := ry*w + rx
	if i < 0 || i >= len(a) || i >= len(b) {
		return
	}
	mean := 0.5 * (a[i] + b[i])
	if meanOut != nil && i < len(meanOut) {
		meanOut[i] = mean
	}
	if varianceOut == nil || i >= len(varianceOut) {
		return
	}
	switch mode {
	case CombineSum:
		varianceOut[i] = a[i] + b[i]
	default:
		d := a[i] - b[i]
		varianceOut[i] = 0.25 * d * d
	}
}

func FilterCombineHalvesDefault(x, y int, meanOut, varianceOut, a, b []float32, rect Rect, mode CombineMode) {
	filterCombineHalvesImpl(x, y, meanOut, varianceOut, a, b, rect, mode)
}
func FilterCombineHalvesSSE2(x, y int, meanOut, varianceOut, a, b []float32, rect Rect, mode CombineMode) {
	filterCombineHalvesImpl(x, y, meanOut, varianceOut, a, b, rect, mode)
}
func FilterCombineHalvesSSE3(x, y int, meanOut, varianceOut, a, b []float32, rect Rect, mode CombineMode) {
	filterCombineHalvesImpl(x, y, meanOut, varianceOut, a, b, rect, mode)
}
func FilterCombineHalvesSSE41(x, y int, meanOut, varianceOut, a, b []float32, rect Rect, mode CombineMode) {
	filterCombineHalvesImpl(x, y, meanOut, varianceOut, a, b, rect, mode)
}
func FilterCombineHalvesAVX(x, y int, meanOut, varianceOut, a, b []float32, rect Rect, mode CombineMode) {
	filterCombineHalvesImpl(x, y, meanOut, varianceOut, a, b, rect, mode)
}
func FilterCombineHalvesAVX2(x, y int, meanOut, varianceOut, a, b []float32, rect Rect, mode CombineMode) {
	filterCombineHalvesImpl(x, y, meanOut, varianceOut, a, b, rect, mode)
}
