package cpu

import (
	"fmt"
	"math"
)

// checkFPE panics with the tile origin, sample index and channel if the
// just-written sample contains a NaN or Inf. Go has no portable equivalent of trapping
// SIGFPE around a scoped region, so Options.DebugFPE substitutes a
// post-sample finiteness check instead — opt-in, since it costs a scan of
// every channel on every sample.
func checkFPE(buffer []float32, base, passStride, tileX, tileY, sample int) {
	for c := 0; c < passStride && base+c < len(buffer); c++ {
		v := buffer[base+c]
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			panic(fmt.Sprintf("device/cpu: non-finite sample at tile (%d,%d) sample %d channel %d: %v", tileX, tileY, sample, c, v))
		}
	}
}
