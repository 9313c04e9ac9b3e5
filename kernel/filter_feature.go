package kernel

// FilterGetFeatureFunc reads an auxiliary feature pass (normal, albedo,
// depth, ...) for one pixel, writing its mean and sample variance into the
// corresponding planar slots of the filter buffer under construction.
type FilterGetFeatureFunc func(kg *Globals, sample int, buffers [9][]float32, meanOffset, varianceOffset, x, y int, tileX, tileY [4]int, offsets, strides [9]int, meanOut, varianceOut []float32, rect Rect)

func filterGetFeatureImpl(kg *Globals, sample int, buffers [9][]float32, meanOffset, varianceOffset, x, y int, tileX, tileY [4]int, offsets, strides [9]int, meanOut, varianceOut []float32, rect Rect) {
	t := tileIndex(x, y, tileX, tileY)
	buf := buffers[t]
	if buf == nil {
		return
	}
	idx := offsets[t] + y*strides[t] + x
	base := idx * kg.Film.PassStride

	w, rx, ry := rect[2]-rect[0], x-rect[0], y-rect[1]
	out := ry*w + rx
	if out < 0 {
		return
	}
	if meanOffset >= 0 && base+meanOffset < len(buf) && out < len(meanOut) {
		meanOut[out] = buf[base+meanOffset] / float32(sample+1)
	}
	if varianceOffset >= 0 && base+varianceOffset < len(buf) && out < len(varianceOut) {
		v := buf[base+varianceOffset]
		varianceOut[out] = v / float32(sample*(sample+1)+1)
	}
}

func FilterGetFeatureDefault(kg *Globals, sample int, buffers [9][]float32, meanOffset, varianceOffset, x, y int, tileX, tileY [4]int, offsets, strides [9]int, meanOut, varianceOut []float32, rect Rect) {
	filterGetFeatureImpl(kg, sample, buffers, meanOffset, varianceOffset, x, y, tileX, tileY, offsets, strides, meanOut, varianceOut, rect)
}
func FilterGetFeatureSSE2(kg *Globals, sample int, buffers [9][]float32, meanOffset, varianceOffset, x, y int, tileX, tileY [4]int, offsets, strides [9]int, meanOut, varianceOut []float32, rect Rect) {
	filterGetFeatureImpl(kg, sample, buffers, meanOffset, varianceOffset, x, y, tileX, tileY, offsets, strides, meanOut, varianceOut, rect)
}
func FilterGetFeatureSSE3(kg *Globals, sample int, buffers [9][]float32, meanOffset, varianceOffset, x, y int, tileX, tileY [4]int, offsets, strides [9]int, meanOut, varianceOut []float32, rect Rect) {
	filterGetFeatureImpl(kg, sample, buffers, meanOffset, varianceOffset, x, y, tileX, tileY, offsets, strides, meanOut, varianceOut, rect)
}
func FilterGetFeatureSSE41(kg *Globals, sample int, buffers [9][]float32, meanOffset, varianceOffset, x, y int, tileX, tileY [4]int, offsets, strides [9]int, meanOut, varianceOut []float32, rect Rect) {
	filterGetFeatureImpl(kg, sample, buffers, meanOffset, varianceOffset, x, y, tileX, tileY, offsets, strides, meanOut, varianceOut, rect)
}
func FilterGetFeatureAVX(kg *Globals, sample int, buffers [9][]float32, meanOffset, varianceOffset, x, y int, tileX, tileY [4]int, offsets, strides [9]int, meanOut, varianceOut []float32, rect Rect) {
	filterGetFeatureImpl(kg, sample, buffers, meanOffset, varianceOffset, x, y, tileX, tileY, offsets, strides, meanOut, varianceOut, rect)
}
func FilterGetFeatureAVX2(kg *Globals, sample int, buffers [9][]float32, meanOffset, varianceOffset, x, y int, tileX, tileY [4]int, offsets, strides [9]int, meanOut, varianceOut []float32, rect Rect) {
	filterGetFeatureImpl(kg, sample, buffers, meanOffset, varianceOffset, x, y, tileX, tileY, offsets, strides, meanOut, varianceOut, rect)
}

// FilterDivideCombinedFunc normalizes the combined-color pass of one pixel
// by its accumulated sample count, in place in the interleaved render
// buffer. It is bound in the device's dispatch table, but the denoise
// pipeline's color copy reads color through FilterGetFeatureFunc instead
// and never calls it.
type FilterDivideCombinedFunc func(kg *Globals, x, y, sample int, buffer []float32, offset, stride int)

func filterDivideCombinedImpl(kg *Globals, x, y, sample int, buffer []float32, offset, stride int) {
	idx := offset + y*stride + x
	base := idx * kg.Film.PassStride
	if base+2 >= len(buffer) {
		return
	}
	scale := 1.0 / float32(sample+1)
	buffer[base+0] *= scale
	buffer[base+1] *= scale
	buffer[base+2] *= scale
}

func FilterDivideCombinedDefault(kg *Globals, x, y, sample int, buffer []float32, offset, stride int) {
	filterDivideCombinedImpl(kg, x, y, sample, buffer, offset, stride)
}
func FilterDivideCombinedSSE2(kg *Globals, x, y, sample int, buffer []float32, offset, stride int) {
	filterDivideCombinedImpl(kg, x, y, sample, buffer, offset, stride)
}
func FilterDivideCombinedSSE3(kg *Globals, x, y, sample int, buffer []float32, offset, stride int) {
	filterDivideCombinedImpl(kg, x, y, sample, buffer, offset, stride)
}
func FilterDivideCombinedSSE41(kg *Globals, x, y, sample int, buffer []float32, offset, stride int) {
	filterDivideCombinedImpl(kg, x, y, sample, buffer, offset, stride)
}
func FilterDivideCombinedAVX(kg *Globals, x, y, sample int, buffer []float32, offset, stride int) {
	filterDivideCombinedImpl(kg, x, y, sample, buffer, offset, stride)
}
func FilterDivideCombinedAVX2(kg *Globals, x, y, sample int, buffer []float32, offset, stride int) {
	filterDivideCombinedImpl(kg, x, y, sample, buffer, offset, stride)
}
