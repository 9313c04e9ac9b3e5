package cpu

import (
	"github.com/achilleasa/go-pathtrace-cpu/kernel"
	"github.com/achilleasa/go-pathtrace-cpu/types"
)

// ReconstructInput describes one reconstruction pass over a filter buffer
// built by denoiseFillBuffer.
type ReconstructInput struct {
	FilterBuffer []float32
	FilterRect   kernel.Rect // the full filter area the buffer covers
	Rect         kernel.Rect // the (possibly smaller) output rect to write
	HalfWindow   int
	A, K2        float32

	Buffer          *DeviceMemory
	BufferOffset    int
	BufferStride    int
	PassNoDenoising int
	Sample          int
}

// denoiseRun constructs a local feature basis per pixel of the filter
// area, accumulates a weighted Gramian over every offset of a half-window
// search, and finalizes each output pixel from its accumulated Gramian to
// write a denoised color into the render buffer. The reconstruction's
// planar pass stride uses a single frame's worth of pixels (w*h), not the multi-frame
// stride denoiseFillBuffer allocated with — so only frame 0's data is
// regressed against, matching the upstream reconstruction pass, which
// never iterates frames either.
func (d *CPUDevice) denoiseRun(kg *kernel.Globals, in *ReconstructInput) {
	fw := in.FilterRect[2] - in.FilterRect[0]
	fh := in.FilterRect[3] - in.FilterRect[1]
	passStride := fw * fh
	n := kernel.DenoiseFeatures + 1
	area := fw * fh

	storage := make([]kernel.FilterStorage, area)
	construct := d.kernels.filterConstructTransform.get()
	colorPassBase := kernel.FeaturePassBase + kernel.DenoiseFeatures*2
	for y := in.FilterRect[1]; y < in.FilterRect[3]; y++ {
		for x := in.FilterRect[0]; x < in.FilterRect[2]; x++ {
			i := (y-in.FilterRect[1])*fw + (x - in.FilterRect[0])
			construct(kg, in.Sample, in.FilterBuffer, x, y, passStride, &storage[i], in.FilterRect)
		}
	}

	xtwx := make([]float32, area*n*n)
	xtwy := make([]types.Vec3, area*n)

	difference := make([]float32, area)
	blurred := make([]float32, area)
	weightPass := passSliceForGramian(in.FilterBuffer, colorPassBase, passStride)
	variancePass := passSliceForGramian(in.FilterBuffer, colorPassBase+1, passStride)
	channelStride := 2 * passStride

	diffFn := d.kernels.nlmCalcDifference.get()
	blurFn := d.kernels.nlmBlur.get()
	weightFn := d.kernels.nlmCalcWeight.get()
	gramianFn := d.kernels.nlmConstructGramian.get()

	for dy := -in.HalfWindow; dy <= in.HalfWindow; dy++ {
		for dx := -in.HalfWindow; dx <= in.HalfWindow; dx++ {
			diffFn(dx, dy, weightPass, variancePass, difference, in.FilterRect, fw, in.A, in.K2)
			blurFn(difference, blurred, in.FilterRect, fw, nlmFilterRadius)
			weightFn(blurred, blurred, in.FilterRect, fw, nlmFilterRadius)
			blurFn(blurred, difference, in.FilterRect, fw, nlmFilterRadius)
			gramianFn(dx, dy, difference, in.FilterBuffer, colorPassBase, passStride, channelStride, storage, xtwx, xtwy, in.FilterRect, in.FilterRect, fw)
		}
	}

	finalize := d.kernels.filterFinalize.get()
	buffer := asFloat32Slice(in.Buffer.Data)
	for y := in.Rect[1]; y < in.Rect[3]; y++ {
		for x := in.Rect[0]; x < in.Rect[2]; x++ {
			i := (y-in.FilterRect[1])*fw + (x - in.FilterRect[0])
			finalize(x, y, i, fw, fh, buffer, xtwx, xtwy, in.BufferOffset, in.BufferStride, kg.Film.PassStride, in.PassNoDenoising)
		}
	}
}

// passSliceForGramian views one planar pass of the filter buffer. denoiseRun
// uses it for the R color mean pass (the "image" NLM's difference/weight
// stages compare against when constructing the Gramian weights) and for
// the R color variance pass right after it.
func passSliceForGramian(buf []float32, colorPassBase, passStride int) []float32 {
	base := colorPassBase * passStride
	end := base + passStride
	if end > len(buf) {
		end = len(buf)
	}
	return buf[base:end]
}
