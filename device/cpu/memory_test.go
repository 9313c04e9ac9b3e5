package cpu

import "testing"

func TestMemAllocFreeAccounting(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	a := dev.MemAlloc("a", 128)
	b := dev.MemAlloc("b", 256)

	if got := dev.Stats().MemUsed(); got != 384 {
		t.Fatalf("MemUsed() = %d, want 384", got)
	}
	if got := dev.Stats().MemPeak(); got != 384 {
		t.Fatalf("MemPeak() = %d, want 384", got)
	}
	if got := dev.Stats().NumAllocations(); got != 2 {
		t.Fatalf("NumAllocations() = %d, want 2", got)
	}

	dev.MemFree(a)
	if got := dev.Stats().MemUsed(); got != 256 {
		t.Fatalf("MemUsed() after free = %d, want 256", got)
	}
	if got := dev.Stats().MemPeak(); got != 384 {
		t.Fatalf("MemPeak() after free = %d, want 384 (peak must not drop)", got)
	}

	dev.MemFree(b)
	if got := dev.Stats().MemUsed(); got != 0 {
		t.Fatalf("MemUsed() after freeing everything = %d, want 0", got)
	}
}

func TestMemCopyRoundTrip(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	mem := dev.MemAlloc("buf", 4)
	src := []byte{1, 2, 3, 4}
	dev.MemCopyTo(mem, src)

	dst := make([]byte, 4)
	dev.MemCopyFrom(mem, dst)
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("byte %d = %d, want %d", i, dst[i], src[i])
		}
	}

	dev.MemZero(mem)
	for i, v := range mem.Data {
		if v != 0 {
			t.Fatalf("byte %d after MemZero = %d, want 0", i, v)
		}
	}
}

func TestTexAllocRejectsZeroSize(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	if err := dev.TexAlloc("t", nil, 0, 4, 1, 0, 0); err == nil {
		t.Fatal("expected an error allocating a zero-width texture")
	}
}

func TestTexAllocFreeAccounting(t *testing.T) {
	dev := New("test", Options{NumThreads: 1})
	defer dev.Close()

	data := make([]byte, 64)
	if err := dev.TexAlloc("t", data, 4, 4, 1, 0, 0); err != nil {
		t.Fatalf("TexAlloc: %v", err)
	}
	if got := dev.Stats().MemUsed(); got != 64 {
		t.Fatalf("MemUsed() = %d, want 64", got)
	}

	dev.TexFree("t")
	if got := dev.Stats().MemUsed(); got != 0 {
		t.Fatalf("MemUsed() after TexFree = %d, want 0", got)
	}
}
