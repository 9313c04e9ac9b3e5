package cpu

import (
	"strings"
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/achilleasa/go-pathtrace-cpu/log"
)

var logger = log.New("device/cpu")

// Tier identifies one SIMD kernel dispatch tier, ordered from narrowest to
// widest.
type Tier uint8

const (
	TierDefault Tier = iota
	TierSSE2
	TierSSE3
	TierSSE41
	TierAVX
	TierAVX2
)

func (t Tier) String() string {
	switch t {
	case TierSSE2:
		return "SSE2"
	case TierSSE3:
		return "SSE3"
	case TierSSE41:
		return "SSE4.1"
	case TierAVX:
		return "AVX"
	case TierAVX2:
		return "AVX2"
	default:
		return "default"
	}
}

// These mirror WITH_CYCLES_OPTIMIZED_KERNEL_*: every tier this backend
// knows how to build is compiled in, so runtime dispatch is driven purely
// by what the host CPU actually supports.
const (
	withSSE2  = true
	withSSE3  = true
	withSSE41 = true
	withAVX   = true
	withAVX2  = true
)

type capabilities struct {
	sse2, sse3, sse41, avx, avx2 bool
}

func hostCapabilities() capabilities {
	return capabilities{
		sse2:  cpu.X86.HasSSE2,
		sse3:  cpu.X86.HasSSE3,
		sse41: cpu.X86.HasSSE41,
		avx:   cpu.X86.HasAVX,
		avx2:  cpu.X86.HasAVX2,
	}
}

var capabilityOverride *capabilities

func activeCapabilities() capabilities {
	if capabilityOverride != nil {
		return *capabilityOverride
	}
	return hostCapabilities()
}

// SetCapabilitiesForTesting pins the capability set the dispatch tables
// select against, bypassing golang.org/x/sys/cpu's host probing. Intended
// for tests that need to exercise a specific tier deterministically.
func SetCapabilitiesForTesting(sse2, sse3, sse41, avx, avx2 bool) {
	capabilityOverride = &capabilities{sse2: sse2, sse3: sse3, sse41: sse41, avx: avx, avx2: avx2}
}

// ResetCapabilitiesForTesting restores host capability probing.
func ResetCapabilitiesForTesting() {
	capabilityOverride = nil
}

// Capabilities reports the space-separated list of SIMD tiers the host
// supports, matching device_cpu_capabilities()'s reporting string.
func Capabilities() string {
	c := activeCapabilities()
	var tiers []string
	if c.sse2 {
		tiers = append(tiers, "SSE2")
	}
	if c.sse3 {
		tiers = append(tiers, "SSE3")
	}
	if c.sse41 {
		tiers = append(tiers, "SSE41")
	}
	if c.avx {
		tiers = append(tiers, "AVX")
	}
	if c.avx2 {
		tiers = append(tiers, "AVX2")
	}
	if len(tiers) == 0 {
		return "none"
	}
	return strings.Join(tiers, " ")
}

// logTierOnce records the selected dispatch tier exactly once per process,
// regardless of how many kernel families or devices get constructed.
var logTierGuard sync.Once

func logTierOnce(t Tier) {
	logTierGuard.Do(func() {
		logger.Noticef("using %s kernels", t)
	})
}

// kernelFunctions is the generic dispatch table a kernel family binds
// into: given one implementation per tier, it picks the widest one the
// host supports and freezes that choice for its lifetime.
type kernelFunctions[F any] struct {
	fn   F
	tier Tier
}

func newKernelFunctions[F any](def, sse2, sse3, sse41, avx, avx2 F) *kernelFunctions[F] {
	caps := activeCapabilities()
	fn, tier := def, TierDefault

	switch {
	case withAVX2 && caps.avx2:
		fn, tier = avx2, TierAVX2
	case withAVX && caps.avx:
		fn, tier = avx, TierAVX
	case withSSE41 && caps.sse41:
		fn, tier = sse41, TierSSE41
	case withSSE3 && caps.sse3:
		fn, tier = sse3, TierSSE3
	case withSSE2 && caps.sse2:
		fn, tier = sse2, TierSSE2
	}

	logTierOnce(tier)
	return &kernelFunctions[F]{fn: fn, tier: tier}
}

func (k *kernelFunctions[F]) get() F { return k.fn }
