// Package cpu implements the CPU execution backend for the renderer: it
// dispatches the pixel kernel black box across SIMD tiers, runs the
// render/film-convert/shader task loops on a fixed worker pool, and
// performs the denoiser's prefill and windowed regression passes.
package cpu

import (
	"fmt"
	"runtime"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

// Info describes one CPU device instance for host-side enumeration.
type Info struct {
	Name         string
	NumThreads   int
	Capabilities string
}

// Options configures behavior this backend adds beyond the kernel
// semantics it mirrors: an opt-in NaN/Inf guard after every sample (in
// place of a SIGFPE trap) and an opt-in PNG dump of the denoiser's prefill
// passes (in place of an EXR debug dump).
type Options struct {
	NumThreads      int
	DebugFPE        bool
	DebugFilterDump string
	ShowSamples     bool
}

// kernelSet bundles every dispatch table a device instance needs, one
// entry per pixel kernel family, each already resolved to the widest tier
// the host supports.
type kernelSet struct {
	pathTrace           *kernelFunctions[kernel.PathTraceFunc]
	convertToByte        *kernelFunctions[kernel.ConvertFunc]
	convertToHalfFloat   *kernelFunctions[kernel.ConvertFunc]
	shader               *kernelFunctions[kernel.ShaderFunc]
	filterDivideShadow   *kernelFunctions[kernel.FilterDivideShadowFunc]
	filterGetFeature     *kernelFunctions[kernel.FilterGetFeatureFunc]
	filterCombineHalves  *kernelFunctions[kernel.FilterCombineHalvesFunc]
	filterDivideCombined *kernelFunctions[kernel.FilterDivideCombinedFunc]
	filterConstructTransform *kernelFunctions[kernel.FilterConstructTransformFunc]
	filterReconstruct    *kernelFunctions[kernel.FilterReconstructFunc]
	filterFinalize       *kernelFunctions[kernel.FilterFinalizeFunc]
	nlmCalcDifference    *kernelFunctions[kernel.NLMDifferenceFunc]
	nlmBlur              *kernelFunctions[kernel.NLMBlurFunc]
	nlmCalcWeight        *kernelFunctions[kernel.NLMCalcWeightFunc]
	nlmUpdateOutput      *kernelFunctions[kernel.NLMUpdateOutputFunc]
	nlmNormalize         *kernelFunctions[kernel.NLMNormalizeFunc]
	nlmConstructGramian  *kernelFunctions[kernel.NLMConstructGramianFunc]
}

func defaultKernelSet() *kernelSet {
	return &kernelSet{
		pathTrace: newKernelFunctions(kernel.PathTraceDefault, kernel.PathTraceSSE2, kernel.PathTraceSSE3,
			kernel.PathTraceSSE41, kernel.PathTraceAVX, kernel.PathTraceAVX2),
		convertToByte: newKernelFunctions(kernel.ConvertToByteDefault, kernel.ConvertToByteSSE2, kernel.ConvertToByteSSE3,
			kernel.ConvertToByteSSE41, kernel.ConvertToByteAVX, kernel.ConvertToByteAVX2),
		convertToHalfFloat: newKernelFunctions(kernel.ConvertToHalfFloatDefault, kernel.ConvertToHalfFloatSSE2, kernel.ConvertToHalfFloatSSE3,
			kernel.ConvertToHalfFloatSSE41, kernel.ConvertToHalfFloatAVX, kernel.ConvertToHalfFloatAVX2),
		shader: newKernelFunctions(kernel.ShaderDefault, kernel.ShaderSSE2, kernel.ShaderSSE3,
			kernel.ShaderSSE41, kernel.ShaderAVX, kernel.ShaderAVX2),
		filterDivideShadow: newKernelFunctions(kernel.FilterDivideShadowDefault, kernel.FilterDivideShadowSSE2, kernel.FilterDivideShadowSSE3,
			kernel.FilterDivideShadowSSE41, kernel.FilterDivideShadowAVX, kernel.FilterDivideShadowAVX2),
		filterGetFeature: newKernelFunctions(kernel.FilterGetFeatureDefault, kernel.FilterGetFeatureSSE2, kernel.FilterGetFeatureSSE3,
			kernel.FilterGetFeatureSSE41, kernel.FilterGetFeatureAVX, kernel.FilterGetFeatureAVX2),
		filterCombineHalves: newKernelFunctions(kernel.FilterCombineHalvesDefault, kernel.FilterCombineHalvesSSE2, kernel.FilterCombineHalvesSSE3,
			kernel.FilterCombineHalvesSSE41, kernel.FilterCombineHalvesAVX, kernel.FilterCombineHalvesAVX2),
		filterDivideCombined: newKernelFunctions(kernel.FilterDivideCombinedDefault, kernel.FilterDivideCombinedSSE2, kernel.FilterDivideCombinedSSE3,
			kernel.FilterDivideCombinedSSE41, kernel.FilterDivideCombinedAVX, kernel.FilterDivideCombinedAVX2),
		filterConstructTransform: newKernelFunctions(kernel.FilterConstructTransformDefault, kernel.FilterConstructTransformSSE2, kernel.FilterConstructTransformSSE3,
			kernel.FilterConstructTransformSSE41, kernel.FilterConstructTransformAVX, kernel.FilterConstructTransformAVX2),
		filterReconstruct: newKernelFunctions(kernel.FilterReconstructDefault, kernel.FilterReconstructSSE2, kernel.FilterReconstructSSE3,
			kernel.FilterReconstructSSE41, kernel.FilterReconstructAVX, kernel.FilterReconstructAVX2),
		filterFinalize: newKernelFunctions(kernel.FilterFinalizeDefault, kernel.FilterFinalizeSSE2, kernel.FilterFinalizeSSE3,
			kernel.FilterFinalizeSSE41, kernel.FilterFinalizeAVX, kernel.FilterFinalizeAVX2),
		nlmCalcDifference: newKernelFunctions(kernel.NLMCalcDifferenceDefault, kernel.NLMCalcDifferenceSSE2, kernel.NLMCalcDifferenceSSE3,
			kernel.NLMCalcDifferenceSSE41, kernel.NLMCalcDifferenceAVX, kernel.NLMCalcDifferenceAVX2),
		nlmBlur: newKernelFunctions(kernel.NLMBlurDefault, kernel.NLMBlurSSE2, kernel.NLMBlurSSE3,
			kernel.NLMBlurSSE41, kernel.NLMBlurAVX, kernel.NLMBlurAVX2),
		nlmCalcWeight: newKernelFunctions(kernel.NLMCalcWeightDefault, kernel.NLMCalcWeightSSE2, kernel.NLMCalcWeightSSE3,
			kernel.NLMCalcWeightSSE41, kernel.NLMCalcWeightAVX, kernel.NLMCalcWeightAVX2),
		nlmUpdateOutput: newKernelFunctions(kernel.NLMUpdateOutputDefault, kernel.NLMUpdateOutputSSE2, kernel.NLMUpdateOutputSSE3,
			kernel.NLMUpdateOutputSSE41, kernel.NLMUpdateOutputAVX, kernel.NLMUpdateOutputAVX2),
		nlmNormalize: newKernelFunctions(kernel.NLMNormalizeDefault, kernel.NLMNormalizeSSE2, kernel.NLMNormalizeSSE3,
			kernel.NLMNormalizeSSE41, kernel.NLMNormalizeAVX, kernel.NLMNormalizeAVX2),
		nlmConstructGramian: newKernelFunctions(kernel.NLMConstructGramianDefault, kernel.NLMConstructGramianSSE2, kernel.NLMConstructGramianSSE3,
			kernel.NLMConstructGramianSSE41, kernel.NLMConstructGramianAVX, kernel.NLMConstructGramianAVX2),
	}
}

// CPUDevice is the device backend: it owns the kernel dispatch tables, the
// shared KernelGlobals master copy, device memory accounting, and a fixed
// worker pool tasks are split across.
type CPUDevice struct {
	info    Info
	options Options
	stats   Stats
	memory  *memoryTable
	kernels *kernelSet
	globals *kernel.Globals
	pool    *taskPool
}

// New creates a CPU device. NumThreads <= 0 defaults to runtime.NumCPU().
func New(name string, opts Options) *CPUDevice {
	if opts.NumThreads <= 0 {
		opts.NumThreads = runtime.NumCPU()
	}

	d := &CPUDevice{
		options: opts,
		kernels: defaultKernelSet(),
		globals: kernel.NewGlobals(),
	}
	d.memory = newMemoryTable(&d.stats)
	d.info = Info{
		Name:         name,
		NumThreads:   opts.NumThreads,
		Capabilities: Capabilities(),
	}
	d.pool = newTaskPool(opts.NumThreads, d.globals)
	return d
}

// Info reports the device's static identity.
func (d *CPUDevice) Info() Info { return d.info }

// Stats returns the live memory accounting for this device.
func (d *CPUDevice) Stats() *Stats { return &d.stats }

// ShowSamples reports whether per-pixel sample counts should be exposed to
// the host's progressive display: true iff the device runs a single worker.
func (d *CPUDevice) ShowSamples() bool { return d.info.NumThreads == 1 }

// MemAlloc reserves size bytes of device memory under name.
func (d *CPUDevice) MemAlloc(name string, size int) *DeviceMemory {
	return d.memory.MemAlloc(name, size)
}

// MemZero clears mem in place.
func (d *CPUDevice) MemZero(mem *DeviceMemory) { d.memory.MemZero(mem) }

// MemCopyTo copies host data into mem.
func (d *CPUDevice) MemCopyTo(mem *DeviceMemory, src []byte) { d.memory.MemCopyTo(mem, src) }

// MemCopyFrom copies mem's contents back to the host.
func (d *CPUDevice) MemCopyFrom(mem *DeviceMemory, dst []byte) { d.memory.MemCopyFrom(mem, dst) }

// MemFree releases mem.
func (d *CPUDevice) MemFree(mem *DeviceMemory) { d.memory.MemFree(mem) }

// ConstCopyTo publishes a named constant to every worker's KernelGlobals.
func (d *CPUDevice) ConstCopyTo(name string, data []byte) {
	d.memory.ConstCopyTo(d.globals, name, data)
}

// TexAlloc registers a sampled texture.
func (d *CPUDevice) TexAlloc(name string, data []byte, width, height, depth uint32, interp kernel.InterpolationType, ext kernel.ExtensionType) error {
	return d.memory.TexAlloc(d.globals, name, data, width, height, depth, interp, ext)
}

// TexFree removes a previously registered texture.
func (d *CPUDevice) TexFree(name string) { d.memory.TexFree(d.globals, name) }

// SetFilmConfig updates the shared KernelGlobals film configuration.
// Film is held behind a pointer in kernel.Globals, so every worker's
// clone (taken once at pool start) sees the update immediately — this
// may be called at any point, including after the device's task pool
// has started.
func (d *CPUDevice) SetFilmConfig(cfg kernel.FilmConfig) { *d.globals.Film = cfg }

// SetIntegratorConfig updates the shared KernelGlobals integrator
// configuration. See SetFilmConfig for the visibility guarantee.
func (d *CPUDevice) SetIntegratorConfig(cfg kernel.IntegratorConfig) { *d.globals.Integrator = cfg }

// SetShadingContext installs the optional shading-language runtime hook.
func (d *CPUDevice) SetShadingContext(ctx kernel.ShadingContext) { d.globals.Shading = ctx }

// OSLMemory exposes the installed shading-language runtime, or nil when
// none was configured. Host callers that need to reach shading-language
// specific state type-assert the result themselves; this backend treats
// the runtime as an opaque plug-in.
func (d *CPUDevice) OSLMemory() any { return d.globals.Shading }

// TaskAdd splits and runs task to completion (or until task requests
// cooperative cancellation), blocking the caller the way task_add+
// task_wait would for a single task in the multi-device scheduler this
// backend replaces.
func (d *CPUDevice) TaskAdd(task *DeviceTask) error {
	switch task.Type {
	case TaskRender:
		d.runRenderTask(task)
	case TaskFilmConvert:
		d.runFilmConvertTask(task)
	case TaskShader:
		d.runShaderTask(task)
	case TaskDenoise:
		d.runDenoiseTask(task)
	default:
		return fmt.Errorf("device/cpu: unknown task type %v", task.Type)
	}
	return nil
}

// Close shuts the device's worker pool down.
func (d *CPUDevice) Close() {
	d.pool.Close()
}
