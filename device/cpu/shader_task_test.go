package cpu

import "testing"

func TestShaderTaskDecodesInputRecord(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	const n = 3
	in := dev.MemAlloc("in", n*4)
	input := asUint32Slice(in.Data)
	input[0] = 0x000000ff // r=1, g=0, b=0
	input[1] = 0x0000ff00 // r=0, g=1, b=0
	input[2] = 0x00ff0000 // r=0, g=0, b=1

	out := dev.MemAlloc("out", n*4*4)
	luma := dev.MemAlloc("luma", n*4)

	task := &DeviceTask{
		Type:             TaskShader,
		ShaderInput:      in,
		ShaderOutput:     out,
		ShaderOutputLuma: luma,
		W:                n,
	}
	if err := dev.TaskAdd(task); err != nil {
		t.Fatalf("TaskAdd: %v", err)
	}

	output := asFloat32Slice(out.Data)
	wantR := []float32{1, 0, 0}
	for i, want := range wantR {
		if got := output[i*4]; got != want {
			t.Fatalf("pixel %d red = %v, want %v", i, got, want)
		}
		if got := output[i*4+3]; got != 1 {
			t.Fatalf("pixel %d alpha = %v, want 1", i, got)
		}
	}

	lumaVals := asFloat32Slice(luma.Data)
	if lumaVals[0] != 0.2126 {
		t.Fatalf("luma[0] = %v, want 0.2126", lumaVals[0])
	}
}
