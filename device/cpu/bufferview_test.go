package cpu

import (
	"math"
	"testing"
)

func TestAsFloat32SliceAliasesBackingBytes(t *testing.T) {
	raw := bytesOfFloat32(3)
	view := asFloat32Slice(raw)
	if len(view) != 3 {
		t.Fatalf("len(view) = %d, want 3", len(view))
	}

	view[1] = 3.5
	bits := math.Float32bits(3.5)
	want := [4]byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	if got := [4]byte{raw[4], raw[5], raw[6], raw[7]}; got != want {
		t.Fatalf("raw bytes = %v, want %v (view write must alias raw)", got, want)
	}
}

func TestAsUint32SliceAliasesBackingBytes(t *testing.T) {
	raw := make([]byte, 8)
	view := asUint32Slice(raw)
	if len(view) != 2 {
		t.Fatalf("len(view) = %d, want 2", len(view))
	}

	view[0] = 0xdeadbeef
	want := [4]byte{0xef, 0xbe, 0xad, 0xde}
	if got := [4]byte{raw[0], raw[1], raw[2], raw[3]}; got != want {
		t.Fatalf("raw bytes = %v, want %v", got, want)
	}
}

func TestAsFloat32SliceEmpty(t *testing.T) {
	if got := asFloat32Slice(nil); got != nil {
		t.Fatalf("asFloat32Slice(nil) = %v, want nil", got)
	}
}
