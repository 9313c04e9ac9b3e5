// Package texture loads texture images from disk and exposes them in the
// flat byte layout the CPU device's TexAlloc expects.
package texture

import (
	"fmt"
	"reflect"
	"unsafe"

	oiio "github.com/achilleasa/openimageigo"
)

// A texture image and its metadata.
type Texture struct {
	Format Format

	Width  uint32
	Height uint32

	Data []byte
}

// New loads a texture from a local image file.
func New(path string) (*Texture, error) {
	input, err := oiio.OpenImageInput(path)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	// Get image spec and check whether we support this format.
	spec := input.Spec()

	if spec.NumChannels() != 1 && spec.NumChannels() != 3 && spec.NumChannels() != 4 {
		return nil, fmt.Errorf("texture: unsupported channel count %d while loading %s", spec.NumChannels(), path)
	}
	if spec.Depth() != 1 {
		return nil, fmt.Errorf("texture: unsupported depth %d while loading %s", spec.Depth(), path)
	}

	// Select tex format.
	var texFmt Format
	var convertTo oiio.TypeDesc
	switch spec.Format() {
	case oiio.TypeUint8:
		convertTo = oiio.TypeUint8

		switch spec.NumChannels() {
		case 1:
			texFmt = Luminance8
		default:
			texFmt = Rgba8
		}
	default:
		convertTo = oiio.TypeFloat
		switch spec.NumChannels() {
		case 1:
			texFmt = Luminance32F
		default:
			texFmt = Rgba32F
		}
	}

	imgData, err := input.ReadImageFormat(convertTo, nil)
	if err != nil {
		return nil, fmt.Errorf("texture: could not read data from %s: %s", path, err.Error())
	}

	texture := &Texture{
		Format: texFmt,
		Width:  uint32(spec.Width()),
		Height: uint32(spec.Height()),
	}

	// Cast data to []byte, expanding RGB to RGBA so 3- and 4-channel
	// images share a 4-channel stride; single-channel data is kept as is.
	switch t := imgData.(type) {
	case []uint8:
		if spec.NumChannels() == 3 {
			tData := make([]byte, texture.Width*texture.Height*4)
			wOffset := 0
			for rOffset := 0; rOffset < len(t); {
				tData[wOffset] = t[rOffset]
				tData[wOffset+1] = t[rOffset+1]
				tData[wOffset+2] = t[rOffset+2]
				tData[wOffset+3] = 255

				rOffset += 3
				wOffset += 4
			}

			t = tData
		}

		texture.Data = t
	case []float32:
		if spec.NumChannels() == 3 {
			tData := make([]float32, texture.Width*texture.Height*4)
			wOffset := 0
			for rOffset := 0; rOffset < len(t); {
				tData[wOffset] = t[rOffset]
				tData[wOffset+1] = t[rOffset+1]
				tData[wOffset+2] = t[rOffset+2]
				tData[wOffset+3] = 1.0

				rOffset += 3
				wOffset += 4
			}

			t = tData
		}

		// Fetch slice header and adjust len/capacity (1 float32 = 4 bytes).
		header := *(*reflect.SliceHeader)(unsafe.Pointer(&t))
		header.Len <<= 2
		header.Cap <<= 2

		texture.Data = *(*[]byte)(unsafe.Pointer(&header))
	}

	return texture, nil
}
