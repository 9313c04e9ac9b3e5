package cpu

import (
	"sync"
	"testing"
)

func TestNewKernelFunctionsSelectsWidestTier(t *testing.T) {
	defer ResetCapabilitiesForTesting()

	cases := []struct {
		name string
		caps [5]bool // sse2, sse3, sse41, avx, avx2
		want Tier
	}{
		{"none", [5]bool{false, false, false, false, false}, TierDefault},
		{"sse2 only", [5]bool{true, false, false, false, false}, TierSSE2},
		{"sse3 over sse2", [5]bool{true, true, false, false, false}, TierSSE3},
		{"sse41 over sse3", [5]bool{true, true, true, false, false}, TierSSE41},
		{"avx over sse41", [5]bool{true, true, true, true, false}, TierAVX},
		{"avx2 over avx", [5]bool{true, true, true, true, true}, TierAVX2},
		{"avx2 alone", [5]bool{false, false, false, false, true}, TierAVX2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			SetCapabilitiesForTesting(c.caps[0], c.caps[1], c.caps[2], c.caps[3], c.caps[4])

			kf := newKernelFunctions[int](0, 1, 2, 3, 4, 5)
			if kf.tier != c.want {
				t.Fatalf("tier = %s, want %s", kf.tier, c.want)
			}

			wantFn := int(c.want)
			if got := kf.get(); got != wantFn {
				t.Fatalf("get() = %d, want %d", got, wantFn)
			}
		})
	}
}

func TestCapabilitiesReportsOverride(t *testing.T) {
	defer ResetCapabilitiesForTesting()

	SetCapabilitiesForTesting(false, false, false, false, false)
	if got := Capabilities(); got != "none" {
		t.Fatalf("Capabilities() = %q, want %q", got, "none")
	}

	SetCapabilitiesForTesting(true, true, false, false, false)
	if got := Capabilities(); got != "SSE2 SSE3" {
		t.Fatalf("Capabilities() = %q, want %q", got, "SSE2 SSE3")
	}
}

// TestLogTierOnceIsProcessWide exercises the sync.Once guard directly:
// logTierOnce must run its body exactly once no matter how many kernel
// families or devices call it within the same process.
func TestLogTierOnceIsProcessWide(t *testing.T) {
	logTierGuard = sync.Once{}

	calls := 0
	for i := 0; i < 5; i++ {
		logTierGuard.Do(func() { calls++ })
	}
	if calls != 1 {
		t.Fatalf("guarded body ran %d times, want 1", calls)
	}
}
