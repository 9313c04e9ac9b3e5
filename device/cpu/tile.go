package cpu

// BufferParams describes the geometry of one render buffer: its full
// resolution plus the offset/stride addressing of the tile carved out of
// it.
type BufferParams struct {
	FullWidth, FullHeight int
	OffsetX, OffsetY      int
	Width, Height         int
	Stride                int
	PassStride            int

	// Overscan is the inset, in pixels, the tile was padded by on every
	// side so path tracing has context to denoise against. A tile with
	// Overscan > 0 gets a prefill+reconstruct pass over its inset
	// filter_area once rendering finishes; Overscan == 0 (the common
	// case for tiles denoised later in one combined DENOISE task) skips
	// it entirely.
	Overscan int
}

// Offset returns the flat index of the buffer's (0,0) pixel, matching the
// offset term every pixel kernel call takes.
func (p BufferParams) Offset() int {
	return -(p.OffsetY*p.Stride + p.OffsetX)
}

// RenderTile is one rectangular region of a render buffer, along with the
// sampling progress already committed to it.
type RenderTile struct {
	X, Y          int
	Width, Height int

	Buffer *DeviceMemory
	Params BufferParams

	Sample      int
	StartSample int
	NumSamples  int

	RNGState *DeviceMemory
}

// Offset is the flat index term passed to the pixel kernels for this
// tile's buffer.
func (t *RenderTile) Offset() int { return t.Params.Offset() }

// Stride is the buffer's row stride, in pixels.
func (t *RenderTile) Stride() int { return t.Params.Stride }
