package cv2

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/gsgraph/pal"
)

// Options are the encoding parameters.
type Options struct {
	// BitDepth is one of 8, 16, 24 or 32. Zero picks 8 if Palette is set
	// and 32 otherwise.
	BitDepth int

	// Palette is used to map each pixel to an index for 8-bit output.
	// Colors without an exact match become the transparent index.
	Palette *pal.Palette
}

func (o *Options) depth() int {
	switch {
	case o == nil:
		return 32
	case o.BitDepth != 0:
		return o.BitDepth
	case o.Palette != nil:
		return 8
	default:
		return 32
	}
}

type encoder struct {
	w io.Writer

	depth   uint8
	palette *pal.Palette
}

func (e *encoder) encode(m image.Image) error {
	b := m.Bounds()

	if err := binary.Write(e.w, binary.LittleEndian, &rawHeader{
		BitDepth: e.depth,
		Width:    int32(b.Dx()),
		Height:   int32(b.Dy()),
		Stride:   int32(b.Dx()),
	}); err != nil {
		return err
	}

	bpp, _ := bytesPerPixel(e.depth)
	row := make([]byte, b.Dx()*bpp)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := x - b.Min.X
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			switch e.depth {
			case 8:
				row[i] = e.palette.Index(c)
			case 16:
				binary.LittleEndian.PutUint16(row[i*2:], pal.ToPacked16(c))
			case 24, 32:
				row[i*4+0] = c.B
				row[i*4+1] = c.G
				row[i*4+2] = c.R
				row[i*4+3] = c.A
			}
		}
		if _, err := e.w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// Encode writes the Image m to w in CV2 format. The stride always equals the
// width.
func Encode(w io.Writer, m image.Image, o *Options) error {
	b := m.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return errors.New("cv2: image is empty")
	}
	if int64(b.Dx())*int64(b.Dy()) > maxPixels {
		return errors.New("cv2: image is too large")
	}

	depth := o.depth()
	if depth < 0 || depth > 0xff {
		return ErrUnsupportedBitDepth
	}
	if _, err := bytesPerPixel(uint8(depth)); err != nil {
		return err
	}

	e := encoder{
		w:     w,
		depth: uint8(depth),
	}

	if e.depth == 8 {
		if o.Palette == nil {
			return ErrMissingPalette
		}
		e.palette = o.Palette
	}

	return e.encode(m)
}
