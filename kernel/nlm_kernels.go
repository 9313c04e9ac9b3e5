package kernel

import (
	"math"

	"github.com/achilleasa/go-pathtrace-cpu/types"
)

// NLMDifferenceFunc computes the per-pixel squared difference between an
// image shifted by (dx,dy) and itself, normalized by the local variance
// estimate. This is stage 1 of the five-stage non-local-means primitive.
type NLMDifferenceFunc func(dx, dy int, image, variance []float32, difference []float32, rect Rect, w int, a, k2 float32)

func nlmDifferenceImpl(dx, dy int, image, variance []float32, difference []float32, rect Rect, w int, a, k2 float32) {
	x0, y0, x1, y1 := rect[0], rect[1], rect[2], rect[3]
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := (y-y0)*w + (x - x0)
			sx, sy := x+dx, y+dy
			if sx < x0 || sx >= x1 || sy < y0 || sy >= y1 {
				continue
			}
			j := (sy-y0)*w + (sx - x0)
			if i >= len(image) || j >= len(image) || i >= len(variance) {
				continue
			}
			d := image[i] - image[j]
			v := a*(variance[i]) + floatEpsilon
			if i < len(difference) {
				difference[i] = d*d/(v+k2*v) - 1.0
			}
		}
	}
}

func NLMCalcDifferenceDefault(dx, dy int, image, variance []float32, difference []float32, rect Rect, w int, a, k2 float32) {
	nlmDifferenceImpl(dx, dy, image, variance, difference, rect, w, a, k2)
}
func NLMCalcDifferenceSSE2(dx, dy int, image, variance []float32, difference []float32, rect Rect, w int, a, k2 float32) {
	nlmDifferenceImpl(dx, dy, image, variance, difference, rect, w, a, k2)
}
func NLMCalcDifferenceSSE3(dx, dy int, image, variance []float32, difference []float32, rect Rect, w int, a, k2 float32) {
	nlmDifferenceImpl(dx, dy, image, variance, difference, rect, w, a, k2)
}
func NLMCalcDifferenceSSE41(dx, dy int, image, variance []float32, difference []float32, rect Rect, w int, a, k2 float32) {
	nlmDifferenceImpl(dx, dy, image, variance, difference, rect, w, a, k2)
}
func NLMCalcDifferenceAVX(dx, dy int, image, variance []float32, difference []float32, rect Rect, w int, a, k2 float32) {
	nlmDifferenceImpl(dx, dy, image, variance, difference, rect, w, a, k2)
}
func NLMCalcDifferenceAVX2(dx, dy int, image, variance []float32, difference []float32, rect Rect, w int, a, k2 float32) {
	nlmDifferenceImpl(dx, dy, image, variance, difference, rect, w, a, k2)
}

// NLMBlurFunc box-blurs in by a window of half-width f into out. Stage 2
// (blurring the difference image) and stage 4 (blurring for the update
// pass) both use this kernel.
type NLMBlurFunc func(in, out []float32, rect Rect, w, f int)

func nlmBlurImpl(in, out []float32, rect Rect, w, f int) {
	x0, y0, x1, y1 := rect[0], rect[1], rect[2], rect[3]
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			var sum float32
			var n int
			for oy := -f; oy <= f; oy++ {
				sy := y + oy
				if sy < y0 || sy >= y1 {
					continue
				}
				for ox := -f; ox <= f; ox++ {
					sx := x + ox
					if sx < x0 || sx >= x1 {
						continue
					}
					i := (sy-y0)*w + (sx - x0)
					if i < len(in) {
						sum += in[i]
						n++
					}
				}
			}
			o := (y-y0)*w + (x - x0)
			if o < len(out) && n > 0 {
				out[o] = sum / float32(n)
			}
		}
	}
}

func NLMBlurDefault(in, out []float32, rect Rect, w, f int) { nlmBlurImpl(in, out, rect, w, f) }
func NLMBlurSSE2(in, out []float32, rect Rect, w, f int)    { nlmBlurImpl(in, out, rect, w, f) }
func NLMBlurSSE3(in, out []float32, rect Rect, w, f int)    { nlmBlurImpl(in, out, rect, w, f) }
func NLMBlurSSE41(in, out []float32, rect Rect, w, f int)   { nlmBlurImpl(in, out, rect, w, f) }
func NLMBlurAVX(in, out []float32, rect Rect, w, f int)     { nlmBlurImpl(in, out, rect, w, f) }
func NLMBlurAVX2(in, out []float32, rect Rect, w, f int)    { nlmBlurImpl(in, out, rect, w, f) }

// NLMCalcWeightFunc turns a blurred difference image into a weight image
// via exp(-max(0,d)). Stage 3.
type NLMCalcWeightFunc func(in, out []float32, rect Rect, w, f int)

func nlmCalcWeightImpl(in, out []float32, rect Rect, w, f int) {
	n := (rect[2] - rect[0]) * (rect[3] - rect[1])
	for i := 0; i < n && i < len(in) && i < len(out); i++ {
		d := in[i]
		if d < 0 {
			d = 0
		}
		out[i] = float32(math.Exp(float64(-d)))
	}
}

func NLMCalcWeightDefault(in, out []float32, rect Rect, w, f int) { nlmCalcWeightImpl(in, out, rect, w, f) }
func NLMCalcWeightSSE2(in, out []float32, rect Rect, w, f int)    { nlmCalcWeightImpl(in, out, rect, w, f) }
func NLMCalcWeightSSE3(in, out []float32, rect Rect, w, f int)    { nlmCalcWeightImpl(in, out, rect, w, f) }
func NLMCalcWeightSSE41(in, out []float32, rect Rect, w, f int)   { nlmCalcWeightImpl(in, out, rect, w, f) }
func NLMCalcWeightAVX(in, out []float32, rect Rect, w, f int)     { nlmCalcWeightImpl(in, out, rect, w, f) }
func NLMCalcWeightAVX2(in, out []float32, rect Rect, w, f int)    { nlmCalcWeightImpl(in, out, rect, w, f) }

// NLMUpdateOutputFunc accumulates one (dx,dy) offset's weighted
// contribution into out/weightAccum. Stage 5.
type NLMUpdateOutputFunc func(dx, dy int, blurredDifference, image, out, weightAccum []float32, rect Rect, w, f int)

func nlmUpdateOutputImpl(dx, dy int, blurredDifference, image, out, weightAccum []float32, rect Rect, w, f int) {
	x0, y0, x1, y1 := rect[0], rect[1], rect[2], rect[3]
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := (y-y0)*w + (x - x0)
			sx, sy := x+dx, y+dy
			if sx < x0 || sx >= x1 || sy < y0 || sy >= y1 {
				continue
			}
			j := (sy-y0)*w + (sx - x0)
			if i >= len(blurredDifference) || j >= len(image) || i >= len(out) || i >= len(weightAccum) {
				continue
			}
			weight := blurredDifference[i]
			out[i] += weight * image[j]
			weightAccum[i] += weight
		}
	}
}

func NLMUpdateOutputDefault(dx, dy int, blurredDifference, image, out, weightAccum []float32, rect Rect, w, f int) {
	nlmUpdateOutputImpl(dx, dy, blurredDifference, image, out, weightAccum, rect, w, f)
}
func NLMUpdateOutputSSE2(dx, dy int, blurredDifference, image, out, weightAccum []float32, rect Rect, w, f int) {
	nlmUpdateOutputImpl(dx, dy, blurredDifference, image, out, weightAccum, rect, w, f)
}
func NLMUpdateOutputSSE3(dx, dy int, blurredDifference, image, out, weightAccum []float32, rect Rect, w, f int) {
	nlmUpdateOutputImpl(dx, dy, blurredDifference, image, out, weightAccum, rect, w, f)
}
func NLMUpdateOutputSSE41(dx, dy int, blurredDifference, image, out, weightAccum []float32, rect Rect, w, f int) {
	nlmUpdateOutputImpl(dx, dy, blurredDifference, image, out, weightAccum, rect, w, f)
}
func NLMUpdateOutputAVX(dx, dy int, blurredDifference, image, out, weightAccum []float32, rect Rect, w, f int) {
	nlmUpdateOutputImpl(dx, dy, blurredDifference, image, out, weightAccum, rect, w, f)
}
func NLMUpdateOutputAVX2(dx, dy int, blurredDifference, image, out, weightAccum []float32, rect Rect, w, f int) {
	nlmUpdateOutputImpl(dx, dy, blurredDifference, image, out, weightAccum, rect, w, f)
}

// NLMNormalizeFunc divides the accumulated output by the accumulated
// weight. Final stage.
type NLMNormalizeFunc func(out, weightAccum []float32, rect Rect, w int)

func nlmNormalizeImpl(out, weightAccum []float32, rect Rect, w int) {
	n := (rect[2] - rect[0]) * (rect[3] - rect[1])
	for i := 0; i < n && i < len(out) && i < len(weightAccum); i++ {
		if weightAccum[i] > floatEpsilon {
			out[i] /= weightAccum[i]
		}
	}
}

func NLMNormalizeDefault(out, weightAccum []float32, rect Rect, w int) { nlmNormalizeImpl(out, weightAccum, rect, w) }
func NLMNormalizeSSE2(out, weightAccum []float32, rect Rect, w int)    { nlmNormalizeImpl(out, weightAccum, rect, w) }
func NLMNormalizeSSE3(out, weightAccum []float32, rect Rect, w int)    { nlmNormalizeImpl(out, weightAccum, rect, w) }
func NLMNormalizeSSE41(out, weightAccum []float32, rect Rect, w int)   { nlmNormalizeImpl(out, weightAccum, rect, w) }
func NLMNormalizeAVX(out, weightAccum []float32, rect Rect, w int)     { nlmNormalizeImpl(out, weightAccum, rect, w) }
func NLMNormalizeAVX2(out, weightAccum []float32, rect Rect, w int)    { nlmNormalizeImpl(out, weightAccum, rect, w) }

// NLMConstructGramianFunc folds one (dx,dy) window offset's NLM weight
// into the running XtWX/XtWY Gramian accumulators for every pixel of the
// filter area, reading the color to regress against from the planar
// filter buffer's color passes. channelStride is the distance between the
// R/G/B mean passes, which is 2*passStride since each channel's mean pass
// has its own variance pass interleaved immediately after it.
type NLMConstructGramianFunc func(dx, dy int, blurredWeight []float32, filterBuffer []float32, colorPassOffset, passStride, channelStride int, storage []FilterStorage, xtwx []float32, xtwy []types.Vec3, rect, filterRect Rect, w int)

func nlmConstructGramianImpl(dx, dy int, blurredWeight []float32, filterBuffer []float32, colorPassOffset, passStride, channelStride int, storage []FilterStorage, xtwx []float32, xtwy []types.Vec3, rect, filterRect Rect, w int) {
	x0, y0, x1, y1 := rect[0], rect[1], rect[2], rect[3]
	fw := filterRect[2] - filterRect[0]
	n := DenoiseFeatures + 1

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := (y-y0)*w + (x - x0)
			sx, sy := x+dx, y+dy
			if sx < filterRect[0] || sx >= filterRect[2] || sy < filterRect[1] || sy >= filterRect[3] {
				continue
			}
			if i >= len(blurredWeight) || i >= len(storage) {
				continue
			}
			weight := blurredWeight[i]
			if weight <= 0 {
				continue
			}
			j := (sy-filterRect[1])*fw + (sx - filterRect[0])
			colorIdx := colorPassOffset*passStride + j
			if colorIdx+2*channelStride >= len(filterBuffer) {
				continue
			}
			color := types.XYZ(filterBuffer[colorIdx], filterBuffer[colorIdx+channelStride], filterBuffer[colorIdx+2*channelStride])

			st := storage[i]
			mBase := i * n * n
			vBase := i * n
			if mBase+n*n > len(xtwx) || vBase+n > len(xtwy) {
				continue
			}
			for a := 0; a < st.Rank && a < n; a++ {
				fa := st.Feature[a] * st.Bandwidth[a]
				xtwy[vBase+a] = xtwy[vBase+a].Add(color.Mul(weight * fa))
				for b := 0; b < st.Rank && b < n; b++ {
					xtwx[mBase+a*n+b] += weight * fa * st.Feature[b] * st.Bandwidth[b]
				}
			}
		}
	}
}

func NLMConstructGramianDefault(dx, dy int, blurredWeight []float32, filterBuffer []float32, colorPassOffset, passStride, channelStride int, storage []FilterStorage, xtwx []float32, xtwy []types.Vec3, rect, filterRect Rect, w int) {
	nlmConstructGramianImpl(dx, dy, blurredWeight, filterBuffer, colorPassOffset, passStride, channelStride, storage, xtwx, xtwy, rect, filterRect, w)
}
func NLMConstructGramianSSE2(dx, dy int, blurredWeight []float32, filterBuffer []float32, colorPassOffset, passStride, channelStride int, storage []FilterStorage, xtwx []float32, xtwy []types.Vec3, rect, filterRect Rect, w int) {
	nlmConstructGramianImpl(dx, dy, blurredWeight, filterBuffer, colorPassOffset, passStride, channelStride, storage, xtwx, xtwy, rect, filterRect, w)
}
func NLMConstructGramianSSE3(dx, dy int, blurredWeight []float32, filterBuffer []float32, colorPassOffset, passStride, channelStride int, storage []FilterStorage, xtwx []float32, xtwy []types.Vec3, rect, filterRect Rect, w int) {
	nlmConstructGramianImpl(dx, dy, blurredWeight, filterBuffer, colorPassOffset, passStride, channelStride, storage, xtwx, xtwy, rect, filterRect, w)
}
func NLMConstructGramianSSE41(dx, dy int, blurredWeight []float32, filterBuffer []float32, colorPassOffset, passStride, channelStride int, storage []FilterStorage, xtwx []float32, xtwy []types.Vec3, rect, filterRect Rect, w int) {
	nlmConstructGramianImpl(dx, dy, blurredWeight, filterBuffer, colorPassOffset, passStride, channelStride, storage, xtwx, xtwy, rect, filterRect, w)
}
func NLMConstructGramianAVX(dx, dy int, blurredWeight []float32, filterBuffer []float32, colorPassOffset, passStride, channelStride int, storage []FilterStorage, xtwx []float32, xtwy []types.Vec3, rect, filterRect Rect, w int) {
	nlmConstructGramianImpl(dx, dy, blurredWeight, filterBuffer, colorPassOffset, passStride, channelStride, storage, xtwx, xtwy, rect, filterRect, w)
}
func NLMConstructGramianAVX2(dx, dy int, blurredWeight []float32, filterBuffer []float32, colorPassOffset, passStride, channelStride int, storage []FilterStorage, xtwx []float32, xtwy []types.Vec3, rect, filterRect Rect, w int) {
	nlmConstructGramianImpl(dx, dy, blurredWeight, filterBuffer, colorPassOffset, passStride, channelStride, storage, xtwx, xtwy, rect, filterRect, w)
}
