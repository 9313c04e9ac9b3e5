package kernel

import "github.com/achilleasa/go-pathtrace-cpu/types"

// FeaturePassBase is the planar-pass index the first of the DenoiseFeatures
// mean/variance feature pairs starts at. The shadow prefilter's scratch
// (the sampled halves and the intermediate variance estimates it smooths
// through) never lands in the filter buffer at all — it is transient,
// local to the prefill stage — so the feature basis starts at pass 0.
const FeaturePassBase = 0

// FilterStorage is the per-pixel local feature basis filter_construct and
// filter_reconstruct/filter_finalize thread through the Gramian
// accumulation.
type FilterStorage struct {
	Feature   [DenoiseFeatures]float32
	Bandwidth [DenoiseFeatures]float32
	Rank      int
}

// FilterConstructTransformFunc builds the local feature basis for one
// pixel of the filter area from the planar filter buffer.
type FilterConstructTransformFunc func(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, storage *FilterStorage, rect Rect)

func filterConstructTransformImpl(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, storage *FilterStorage, rect Rect) {
	w := rect[2] - rect[0]
	pixel := (y-rect[1])*w + (x - rect[0])
	if pixel < 0 {
		return
	}
	storage.Rank = DenoiseFeatures
	for f := 0; f < DenoiseFeatures; f++ {
		meanPass := (FeaturePassBase + f*2) * passStride
		varPass := (FeaturePassBase + f*2 + 1) * passStride
		if meanPass+pixel >= len(filterBuffer) || varPass+pixel >= len(filterBuffer) {
			continue
		}
		storage.Feature[f] = filterBuffer[meanPass+pixel]
		variance := filterBuffer[varPass+pixel]
		if variance < floatEpsilon {
			variance = floatEpsilon
		}
		storage.Bandwidth[f] = 1.0 / variance
	}
}

const floatEpsilon = 1e-8

func FilterConstructTransformDefault(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, storage *FilterStorage, rect Rect) {
	filterConstructTransformImpl(kg, sample, filterBuffer, x, y, passStride, storage, rect)
}
func FilterConstructTransformSSE2(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, storage *FilterStorage, rect Rect) {
	filterConstructTransformImpl(kg, sample, filterBuffer, x, y, passStride, storage, rect)
}
func FilterConstructTransformSSE3(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, storage *FilterStorage, rect Rect) {
	filterConstructTransformImpl(kg, sample, filterBuffer, x, y, passStride, storage, rect)
}
func FilterConstructTransformSSE41(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, storage *FilterStorage, rect Rect) {
	filterConstructTransformImpl(kg, sample, filterBuffer, x, y, passStride, storage, rect)
}
func FilterConstructTransformAVX(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, storage *FilterStorage, rect Rect) {
	filterConstructTransformImpl(kg, sample, filterBuffer, x, y, passStride, storage, rect)
}
func FilterConstructTransformAVX2(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, storage *FilterStorage, rect Rect) {
	filterConstructTransformImpl(kg, sample, filterBuffer, x, y, passStride, storage, rect)
}

// FilterReconstructFunc performs a single-pass (non-windowed) denoise
// reconstruction of one pixel directly from its own local basis. Exposed
// for parity with the kernel ABI; this backend's reconstruction path uses
// the windowed Gramian accumulation (NLMConstructGramianFunc plus
// FilterFinalizeFunc) instead, same as upstream's thread_render never
// calling it either.
type FilterReconstructFunc func(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, buffer []float32, storage *FilterStorage, bufferOffset, bufferStride int)

func filterReconstructImpl(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, buffer []float32, storage *FilterStorage, bufferOffset, bufferStride int) {
	idx := bufferOffset + y*bufferStride + x
	base := idx * kg.Film.PassStride
	if base+kg.Film.PassNoDenoising+2 >= len(buffer) {
		return
	}
	var sum float32
	for f := 0; f < storage.Rank; f++ {
		sum += storage.Feature[f] * storage.Bandwidth[f]
	}
	out := kg.Film.PassNoDenoising
	buffer[base+out+0] = sum
	buffer[base+out+1] = sum
	buffer[base+out+2] = sum
}

func FilterReconstructDefault(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, buffer []float32, storage *FilterStorage, bufferOffset, bufferStride int) {
	filterReconstructImpl(kg, sample, filterBuffer, x, y, passStride, buffer, storage, bufferOffset, bufferStride)
}
func FilterReconstructSSE2(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, buffer []float32, storage *FilterStorage, bufferOffset, bufferStride int) {
	filterReconstructImpl(kg, sample, filterBuffer, x, y, passStride, buffer, storage, bufferOffset, bufferStride)
}
func FilterReconstructSSE3(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, buffer []float32, storage *FilterStorage, bufferOffset, bufferStride int) {
	filterReconstructImpl(kg, sample, filterBuffer, x, y, passStride, buffer, storage, bufferOffset, bufferStride)
}
func FilterReconstructSSE41(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, buffer []float32, storage *FilterStorage, bufferOffset, bufferStride int) {
	filterReconstructImpl(kg, sample, filterBuffer, x, y, passStride, buffer, storage, bufferOffset, bufferStride)
}
func FilterReconstructAVX(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, buffer []float32, storage *FilterStorage, bufferOffset, bufferStride int) {
	filterReconstructImpl(kg, sample, filterBuffer, x, y, passStride, buffer, storage, bufferOffset, bufferStride)
}
func FilterReconstructAVX2(kg *Globals, sample int, filterBuffer []float32, x, y, passStride int, buffer []float32, storage *FilterStorage, bufferOffset, bufferStride int) {
	filterReconstructImpl(kg, sample, filterBuffer, x, y, passStride, buffer, storage, bufferOffset, bufferStride)
}

// FilterFinalizeFunc turns the accumulated Gramian of one pixel of the
// filter area into a denoised color and writes it into the render buffer.
// The portable implementation below divides the sum of the XtWY rows by
// the trace of XtWX (each diagonal entry clamped to floatEpsilon); it does
// not invert XtWX or solve the full normal equations.
type FilterFinalizeFunc func(x, y, storageIndex, w, h int, buffer []float32, xtwx []float32, xtwy []types.Vec3, bufferOffset, bufferStride, passStride, passNoDenoising int)

func filterFinalizeImpl(x, y, storageIndex, w, h int, buffer []float32, xtwx []float32, xtwy []types.Vec3, bufferOffset, bufferStride, passStride, passNoDenoising int) {
	n := DenoiseFeatures + 1
	mBase := storageIndex * n * n
	vBase := storageIndex * n
	if mBase+n*n > len(xtwx) || vBase+n > len(xtwy) {
		return
	}

	var diag float32
	var colorSum types.Vec3
	for i := 0; i < n; i++ {
		d := xtwx[mBase+i*n+i]
		if d < floatEpsilon {
			d = floatEpsilon
		}
		diag += d
		colorSum = colorSum.Add(xtwy[vBase+i])
	}
	color := colorSum.Mul(1.0 / diag)

	idx := bufferOffset + y*bufferStride + x
	base := idx*passStride + passNoDenoising
	if base+2 >= len(buffer) {
		return
	}
	buffer[base+0] = color[0]
	buffer[base+1] = color[1]
	buffer[base+2] = color[2]
}

func FilterFinalizeDefault(x, y, storageIndex, w, h int, buffer []float32, xtwx []float32, xtwy []types.Vec3, bufferOffset, bufferStride, passStride, passNoDenoising int) {
	filterFinalizeImpl(x, y, storageIndex, w, h, buffer, xtwx, xtwy, bufferOffset, bufferStride, passStride, passNoDenoising)
}
func FilterFinalizeSSE2(x, y, storageIndex, w, h int, buffer []float32, xtwx []float32, xtwy []types.Vec3, bufferOffset, bufferStride, passStride, passNoDenoising int) {
	filterFinalizeImpl(x, y, storageIndex, w, h, buffer, xtwx, xtwy, bufferOffset, bufferStride, passStride, passNoDenoising)
}
func FilterFinalizeSSE3(x, y, storageIndex, w, h int, buffer []float32, xtwx []float32, xtwy []types.Vec3, bufferOffset, bufferStride, passStride, passNoDenoising int) {
	filterFinalizeImpl(x, y, storageIndex, w, h, buffer, xtwx, xtwy, bufferOffset, bufferStride, passStride, passNoDenoising)
}
func FilterFinalizeSSE41(x, y, storageIndex, w, h int, buffer []float32, xtwx []float32, xtwy []types.Vec3, bufferOffset, bufferStride, passStride, passNoDenoising int) {
	filterFinalizeImpl(x, y, storageIndex, w, h, buffer, xtwx, xtwy, bufferOffset, bufferStride, passStride, passNoDenoising)
}
func FilterFinalizeAVX(x, y, storageIndex, w, h int, buffer []float32, xtwx []float32, xtwy []types.Vec3, bufferOffset, bufferStride, passStride, passNoDenoising int) {
	filterFinalizeImpl(x, y, storageIndex, w, h, buffer, xtwx, xtwy, bufferOffset, bufferStride, passStride, passNoDenoising)
}
func FilterFinalizeAVX2(x, y, storageIndex, w, h int, buffer []float32, xtwx []float32, xtwy []types.Vec3, bufferOffset, bufferStride, passStride, passNoDenoising int) {
	filterFinalizeImpl(x, y, storageIndex, w, h, buffer, xtwx, xtwy, bufferOffset, bufferStride, passStride, passNoDenoising)
}
