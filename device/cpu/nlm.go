package cpu

import "github.com/achilleasa/go-pathtrace-cpu/kernel"

// nlmFilterRadius is the patch half-width reconstruction's own Gramian
// blur calls use (denoise_reconstruct.go); it does not route through
// nonLocalMeans below, which takes its patch radius from the caller.
const nlmFilterRadius = 4

// nonLocalMeans runs the five-stage non-local-means filter (difference,
// blur, weight, blur, update) over every offset in a (2*halfWindow+1)^2
// search window and writes the normalized result into out. weight is the
// channel patch similarity is measured against; data is the channel
// actually averaged. Filtering a buffer against itself (the common case)
// passes the same slice for both; the shadow prefilter's cross-weighted
// passes pass one half as weight while averaging the other. Both out and
// its weight accumulator are zeroed at the start of every invocation, and
// each stage's rectangle bound check keeps window offsets that would read
// outside rect from touching memory, rather than clamping or wrapping.
func (d *CPUDevice) nonLocalMeans(weight, variance, data, out []float32, rect kernel.Rect, halfWindow, patchRadius int, a, k2 float32) {
	w := rect[2] - rect[0]
	h := rect[3] - rect[1]
	n := w * h

	weightAccum := make([]float32, n)
	difference := make([]float32, n)
	blurred := make([]float32, n)
	for i := 0; i < n && i < len(out); i++ {
		out[i] = 0
	}

	for dy := -halfWindow; dy <= halfWindow; dy++ {
		for dx := -halfWindow; dx <= halfWindow; dx++ {
			d.kernels.nlmCalcDifference.get()(dx, dy, weight, variance, difference, rect, w, a, k2)
			d.kernels.nlmBlur.get()(difference, blurred, rect, w, patchRadius)
			d.kernels.nlmCalcWeight.get()(blurred, blurred, rect, w, patchRadius)
			d.kernels.nlmBlur.get()(blurred, difference, rect, w, patchRadius)
			d.kernels.nlmUpdateOutput.get()(dx, dy, difference, data, out, weightAccum, rect, w, patchRadius)
		}
	}

	d.kernels.nlmNormalize.get()(out, weightAccum, rect, w)
}
