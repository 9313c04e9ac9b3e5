package cpu

import (
	"reflect"
	"unsafe"
)

// asFloat32Slice reinterprets a DeviceMemory's raw byte backing store as a
// []float32 view, the same host/device aliasing trick texture loading
// uses: no copy, just a reinterpreted slice header.
func asFloat32Slice(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	header := *(*reflect.SliceHeader)(unsafe.Pointer(&b))
	header.Len >>= 2
	header.Cap >>= 2
	return *(*[]float32)(unsafe.Pointer(&header))
}

// asUint32Slice reinterprets a DeviceMemory's raw byte backing store as a
// []uint32 view.
func asUint32Slice(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	header := *(*reflect.SliceHeader)(unsafe.Pointer(&b))
	header.Len >>= 2
	header.Cap >>= 2
	return *(*[]uint32)(unsafe.Pointer(&header))
}

// bytesOfFloat32 allocates a zeroed byte slice large enough to hold n
// float32 values, for viewing through asFloat32Slice.
func bytesOfFloat32(n int) []byte {
	return make([]byte, n*4)
}
