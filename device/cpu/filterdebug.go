package cpu

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// dumpFilterBuffer writes every planar pass of a denoiser filter buffer to
// its own grayscale PNG under dir, normalizing each pass independently by
// its own min/max. This stands in for the EXR multi-pass dump the
// original build offered behind a debug flag: PNG via the standard
// library is the same approach this codebase already takes for dumping
// intermediate render buffers to disk.
func dumpFilterBuffer(dir string, buf []float32, passes, w, h int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	passStride := w * h
	for p := 0; p < passes; p++ {
		base := p * passStride
		if base+passStride > len(buf) {
			break
		}
		pass := buf[base : base+passStride]

		lo, hi := pass[0], pass[0]
		for _, v := range pass {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		span := hi - lo
		if span <= 0 {
			span = 1
		}

		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := (pass[y*w+x] - lo) / span
				img.SetGray(x, y, color.Gray{Y: uint8(v * 255)})
			}
		}

		path := fmt.Sprintf("%s/pass-%02d.png", dir, p)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = png.Encode(f, img)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// maybeDumpFilterBuffer dumps buf to d.options.DebugFilterDump when set,
// logging (not failing) on write errors since a debug dump should never
// abort a render.
func (d *CPUDevice) maybeDumpFilterBuffer(buf []float32, cross bool, w, h int) {
	if d.options.DebugFilterDump == "" {
		return
	}
	passes := totalPrefillPasses(cross)
	if err := dumpFilterBuffer(d.options.DebugFilterDump, buf, passes, w, h); err != nil {
		logger.Warningf("could not dump filter buffer: %s", err)
	}
}
