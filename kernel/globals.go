// Package kernel supplies the pixel-kernel black box the device/cpu engine
// dispatches into: path tracing, film conversion, shading, and the
// denoiser's per-pixel filter math. Per this backend's scope, the kernels
// are pure functions with fixed signatures — the BSDF/BVH integration, the
// NLM arithmetic, and the regression solve are treated as supplied, not as
// the subject of this specification. Each kernel family exists in six
// tier-keyed variants (default, sse2, sse3, sse41, avx, avx2) so that
// device/cpu's dispatch table always has one concrete implementation to
// bind per tier.
package kernel

// DenoiseFeatures is the fixed auxiliary feature count F used by the
// per-pixel regression: normal.xyz, depth, shadow, and albedo.rgb. Color
// is the regression target, not part of this basis. The Gramian XtWX is
// (F+1)x(F+1) and XtWY has F+1 rows.
const DenoiseFeatures = 8

// InterpolationType mirrors the sampler interpolation modes a texture can
// be bound with.
type InterpolationType int

const (
	InterpolationNone InterpolationType = iota
	InterpolationLinear
	InterpolationCubic
	InterpolationSmart
)

// ExtensionType mirrors the sampler addressing mode outside [0,1).
type ExtensionType int

const (
	ExtensionRepeat ExtensionType = iota
	ExtensionExtend
	ExtensionClip
	ExtensionBlack
)

// TextureBinding is what tex_alloc registers against a name.
type TextureBinding struct {
	Data                 []byte
	Width, Height, Depth uint32
	Interpolation        InterpolationType
	Extension            ExtensionType
}

// FeatureOffset locates one auxiliary feature's mean/variance pair within
// the interleaved render buffer's per-pixel passes.
type FeatureOffset struct {
	Mean, Variance int
}

// FilmConfig is the subset of the render film's configuration the kernels
// need: the per-pixel interleaved pass stride, the slot reconstruction
// writes its denoised color into, where the denoiser's auxiliary features
// and color live in that same interleaved layout, and whether color was
// split into two independent half-images.
type FilmConfig struct {
	PassStride      int
	PassNoDenoising int
	DenoiseCross    bool

	// DenoiseFeatures locates the DenoiseFeatures-1 auxiliary feature
	// passes (normal/albedo/depth and friends) the denoiser prefilter
	// reads per pixel; the shadow feature (mean/variance pair index 4 of
	// the filter buffer) is computed in-line rather than read from here.
	DenoiseFeatures [DenoiseFeatures - 1]FeatureOffset

	// DenoiseColorOffset and DenoiseColorOffsetB locate the combined
	// color mean/variance pass pair (and, when DenoiseCross is set, its
	// second half-image's pair) within the interleaved buffer.
	DenoiseColorOffset  FeatureOffset
	DenoiseColorOffsetB FeatureOffset
}

// IntegratorConfig is the subset of the integrator's configuration the
// denoiser needs.
type IntegratorConfig struct {
	HalfWindow      int
	WeightingAdjust float32
	UseGradients    bool
}

// ShadingContext is the optional embedded shading-language runtime plug-in.
// A nil ShadingContext means the runtime was not compiled in (the
// equivalent of building without WITH_OSL).
type ShadingContext interface {
	ThreadInit(kg *Globals)
	ThreadFree(kg *Globals)
}

const maxDecoupledVolumeSteps = 2

// Globals is the KernelGlobals bundle: sampler/texture bindings, film and
// integrator configuration, the optional shading-language context, and
// per-thread scratch. A shared master instance is built once at device
// construction; each worker clones it by value at thread start.
type Globals struct {
	// Film and Integrator are pointers to the master's configuration
	// rather than embedded values: workers clone Globals once at thread
	// start, and a device's SetFilmConfig/SetIntegratorConfig can be
	// called at any point afterwards (typically between device
	// construction and the first render task). Sharing the pointee lets
	// every already-cloned worker see the update instead of running
	// against whatever the config held at clone time.
	Film       *FilmConfig
	Integrator *IntegratorConfig

	Textures  map[string]TextureBinding
	Constants map[string][]byte

	Shading ShadingContext

	// Per-thread scratch. Reset to nil by Clone; nothing in this module
	// allocates or frees it.
	TransparentShadowIntersections []byte
	DecoupledVolumeSteps           [maxDecoupledVolumeSteps][]byte
	DecoupledVolumeStepsIndex      int
}

// NewGlobals returns an empty master globals block.
func NewGlobals() *Globals {
	return &Globals{
		Film:       &FilmConfig{},
		Integrator: &IntegratorConfig{},
		Textures:   make(map[string]TextureBinding),
		Constants:  make(map[string][]byte),
	}
}

// Clone returns a thread-private copy: Film and Integrator alias the
// master's pointees (so later config updates stay visible), the texture
// and constant maps alias the shared backing store (never mutated once
// rendering starts), and the scratch fields are reset.
func (kg *Globals) Clone() *Globals {
	clone := *kg
	clone.TransparentShadowIntersections = nil
	clone.DecoupledVolumeSteps = [maxDecoupledVolumeSteps][]byte{}
	clone.DecoupledVolumeStepsIndex = 0
	return &clone
}
