package cpu

import (
	"testing"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

func TestFilmConvertTaskWritesRGBA8(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const w, h, passStride = 2, 2, 4
	dev.SetFilmConfig(kernel.FilmConfig{PassStride: passStride})

	accum := dev.MemAlloc("accum", w*h*passStride*4)
	samples := asFloat32Slice(accum.Data)
	for px := 0; px < w*h; px++ {
		base := px * passStride
		samples[base+0], samples[base+1], samples[base+2] = 1, 1, 1
	}

	rgba := dev.MemAlloc("rgba", w*h*4)

	task := &DeviceTask{
		Type:        TaskFilmConvert,
		Buffer:      accum,
		RGBA:        rgba,
		SampleScale: 1,
		X:           0, Y: 0, W: w, H: h,
		Stride: w,
	}
	if err := dev.TaskAdd(task); err != nil {
		t.Fatalf("TaskAdd: %v", err)
	}

	for px := 0; px < w*h; px++ {
		o := px * 4
		for c := 0; c < 3; c++ {
			if rgba.Data[o+c] != 255 {
				t.Fatalf("pixel %d channel %d = %d, want 255", px, c, rgba.Data[o+c])
			}
		}
		if rgba.Data[o+3] != 255 {
			t.Fatalf("pixel %d alpha = %d, want 255", px, rgba.Data[o+3])
		}
	}
}

func TestFilmConvertTaskWritesHalfFloat(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const w, h, passStride = 1, 1, 4
	dev.SetFilmConfig(kernel.FilmConfig{PassStride: passStride})

	accum := dev.MemAlloc("accum", w*h*passStride*4)
	out := dev.MemAlloc("rgba", w*h*8)

	task := &DeviceTask{
		Type:        TaskFilmConvert,
		Buffer:      accum,
		RGBA:        out,
		SampleScale: 1,
		HalfFloat:   true,
		X:           0, Y: 0, W: w, H: h,
		Stride: w,
	}
	if err := dev.TaskAdd(task); err != nil {
		t.Fatalf("TaskAdd: %v", err)
	}

	// All-zero accumulated pixel must decode to zero half-floats.
	for _, b := range out.Data {
		if b != 0 {
			t.Fatalf("expected zeroed half-float output, got byte %d", b)
		}
	}
}
