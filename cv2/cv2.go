/*
Package cv2 implements a CV2 image decoder and encoder.

A CV2 file is a 17 byte little-endian header followed by uncompressed pixel
data. The header holds the bit depth as a single byte followed by four 32-bit
integers: width, height, stride and a reserved field that is always zero.

Pixel data is stored row by row with stride pixels per row; only the first
width pixels of each row belong to the image. Each pixel is one of:

	8  - a single byte index into a 256 color PAL palette
	16 - a little-endian BGRA-5-5-5-1 word
	24 - four bytes, B, G, R, A
	32 - four bytes, B, G, R, A

24-bit files are read and written exactly as 32-bit ones. That matches every
file seen so far though genuine three byte pixels may exist.
*/
package cv2

import (
	"errors"
	"image/color"
)

const (
	headerSize = 1 + 4*4

	// Refuse to allocate rasters larger than this many pixels
	maxPixels = 1 << 26
)

var (
	// ErrFormat is returned when the header or pixel data is truncated
	// or the header dimensions are invalid
	ErrFormat = errors.New("cv2: invalid format")

	// ErrUnsupportedBitDepth is returned for any bit depth other than 8,
	// 16, 24 or 32
	ErrUnsupportedBitDepth = errors.New("cv2: unsupported bit depth")

	// ErrMissingPalette is returned when 8-bit data is decoded or
	// encoded without a palette
	ErrMissingPalette = errors.New("cv2: palette required for 8-bit data")
)

// Header is the fixed size header at the start of every CV2 file.
type Header struct {
	BitDepth uint8
	Width    int32
	Height   int32
	Stride   int32
}

// rawHeader is the on-disk layout
type rawHeader struct {
	BitDepth uint8
	Width    int32
	Height   int32
	Stride   int32
	Reserved int32
}

func bytesPerPixel(depth uint8) (int, error) {
	switch depth {
	case 8:
		return 1, nil
	case 16:
		return 2, nil
	case 24, 32:
		return 4, nil
	default:
		return 0, ErrUnsupportedBitDepth
	}
}

func bgra(b []byte) color.NRGBA {
	return color.NRGBA{R: b[2], G: b[1], B: b[0], A: b[3]}
}
