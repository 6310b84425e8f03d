package cv2

import (
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/gsgraph/pal"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r io.Reader

	header  Header
	palette *pal.Palette

	image *image.NRGBA
}

func (d *decoder) readHeader() error {
	var tmp [headerSize]byte
	if err := readFull(d.r, tmp[:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return ErrFormat
	}

	// The reserved field is ignored
	d.header = Header{
		BitDepth: tmp[0],
		Width:    int32(binary.LittleEndian.Uint32(tmp[1:])),
		Height:   int32(binary.LittleEndian.Uint32(tmp[5:])),
		Stride:   int32(binary.LittleEndian.Uint32(tmp[9:])),
	}

	if _, err := bytesPerPixel(d.header.BitDepth); err != nil {
		return err
	}

	return nil
}

func (d *decoder) checkHeader() error {
	h := d.header
	if h.Width <= 0 || h.Height <= 0 || h.Stride <= 0 {
		return ErrFormat
	}
	if int64(h.Width)*int64(h.Height) > maxPixels || int64(h.Stride)*int64(h.Height) > maxPixels {
		return ErrFormat
	}
	if h.BitDepth == 8 && d.palette == nil {
		return ErrMissingPalette
	}
	return nil
}

func (d *decoder) readPixels() error {
	width, height, stride := int(d.header.Width), int(d.header.Height), int(d.header.Stride)
	bpp, _ := bytesPerPixel(d.header.BitDepth)

	d.image = image.NewNRGBA(image.Rect(0, 0, width, height))

	row := make([]byte, stride*bpp)
	for y := 0; y < height; y++ {
		// The whole stride is consumed even though only width pixels
		// are kept
		if err := readFull(d.r, row); err != nil {
			if err != io.ErrUnexpectedEOF {
				return err
			}
			return ErrFormat
		}

		for x := 0; x < stride && x < width; x++ {
			var c color.NRGBA
			switch d.header.BitDepth {
			case 8:
				c = d.palette.At(row[x])
			case 16:
				c = pal.FromPacked16(binary.LittleEndian.Uint16(row[x*2:]))
			case 24, 32:
				c = bgra(row[x*4:])
			}
			d.image.SetNRGBA(x, y, c)
		}
	}

	return nil
}

func (d *decoder) decode(r io.Reader, p *pal.Palette, configOnly bool) error {
	d.r = r
	d.palette = p

	if err := d.readHeader(); err != nil {
		return err
	}

	if err := d.checkHeader(); err != nil {
		return err
	}

	if configOnly {
		return nil
	}

	return d.readPixels()
}

// DecodeHeader reads just the CV2 header from r. Only the bit depth is
// validated.
func DecodeHeader(r io.Reader) (Header, error) {
	var d decoder
	d.r = r
	if err := d.readHeader(); err != nil {
		return Header{}, err
	}
	return d.header, nil
}

// Decode reads a CV2 image from r. The palette p is only required for 8-bit
// images and may be nil otherwise.
func Decode(r io.Reader, p *pal.Palette) (*image.NRGBA, error) {
	var d decoder
	if err := d.decode(r, p, false); err != nil {
		return nil, err
	}
	return d.image, nil
}

// DecodeConfig returns the color model and dimensions of a CV2 image without
// decoding the pixel data.
func DecodeConfig(r io.Reader, p *pal.Palette) (image.Config, error) {
	var d decoder
	if err := d.decode(r, p, true); err != nil {
		return image.Config{}, err
	}

	var model color.Model = color.NRGBAModel
	if d.header.BitDepth == 8 {
		model = p
	}

	return image.Config{
		ColorModel: model,
		Width:      int(d.header.Width),
		Height:     int(d.header.Height),
	}, nil
}
