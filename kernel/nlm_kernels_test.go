package kernel

import (
	"math"
	"testing"
)

func TestNLMCalcWeightClampsPositiveInput(t *testing.T) {
	in := []float32{-1, 0, 1, 2}
	out := make([]float32, 4)
	rect := Rect{0, 0, 2, 2}

	NLMCalcWeightDefault(in, out, rect, 2, 0)

	if out[0] != 1 {
		t.Fatalf("weight for negative difference = %v, want 1 (clamped to exp(0))", out[0])
	}
	if want := float32(math.Exp(-1)); out[2] != want {
		t.Fatalf("weight for d=1 = %v, want %v", out[2], want)
	}
}

func TestNLMNormalizeDividesByWeight(t *testing.T) {
	out := []float32{10, 20}
	weight := []float32{2, 0}
	rect := Rect{0, 0, 2, 1}

	NLMNormalizeDefault(out, weight, rect, 2)

	if out[0] != 5 {
		t.Fatalf("out[0] = %v, want 5", out[0])
	}
	if out[1] != 20 {
		t.Fatalf("out[1] with ~zero weight should be left untouched, got %v", out[1])
	}
}

func TestNLMBlurAveragesNeighborhood(t *testing.T) {
	// 3x1 row; blurring the middle pixel with radius 1 averages all three.
	in := []float32{1, 2, 3}
	out := make([]float32, 3)
	rect := Rect{0, 0, 3, 1}

	NLMBlurDefault(in, out, rect, 3, 1)

	if out[1] != 2 {
		t.Fatalf("blurred middle pixel = %v, want 2", out[1])
	}
	if out[0] != 1.5 {
		t.Fatalf("blurred left edge pixel = %v, want 1.5", out[0])
	}
}
