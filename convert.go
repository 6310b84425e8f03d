package gsgraph

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/gsgraph/cv2"
	"github.com/bodgit/gsgraph/internal/atomicfile"
	"github.com/bodgit/gsgraph/pal"
	"golang.org/x/image/bmp"
)

const (
	extBMP = ".bmp"
	extCV2 = ".cv2"
	extPAL = ".pal"
	extPNG = ".png"
)

func changeExt(file, ext string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ext
}

func hasExt(file string, exts ...string) bool {
	e := strings.ToLower(filepath.Ext(file))
	for _, ext := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// checkExists fails early before any decoding work is done. The final
// create is still atomic.
func checkExists(file string) error {
	if _, err := os.Lstat(file); err == nil {
		return &fs.PathError{Op: "create", Path: file, Err: fs.ErrExist}
	}
	return nil
}

func decodeImage(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return m, nil
}

// EncodeFile converts a BMP or PNG image into a CV2 file alongside it and
// returns the name of the new file.
func (c *Converter) EncodeFile(file string) (string, error) {
	out := changeExt(file, extCV2)
	if err := checkExists(out); err != nil {
		return out, err
	}

	m, err := decodeImage(file)
	if err != nil {
		return out, err
	}

	if err := cv2.WriteFile(out, m, &cv2.Options{BitDepth: c.BitDepth, Palette: c.palette}); err != nil {
		return out, err
	}

	c.logger.Printf("Converted image into cv2: %s\n", file)
	return out, nil
}

// DecodeFile converts a CV2 file into a PNG image alongside it and returns
// the name of the new file.
func (c *Converter) DecodeFile(file string) (string, error) {
	out := changeExt(file, extPNG)
	if err := checkExists(out); err != nil {
		return out, err
	}

	m, err := cv2.ReadFile(file, c.palette)
	if err != nil {
		return out, fmt.Errorf("%s: %w", file, err)
	}

	if err := atomicfile.WriteNew(out, func(w io.Writer) error {
		return png.Encode(w, m)
	}); err != nil {
		return out, err
	}

	c.logger.Printf("Converted cv2 into png: %s\n", file)
	return out, nil
}

// ExportPalette writes the PAL file as a 32x32 BMP swatch alongside it and
// returns the name of the new file.
func (c *Converter) ExportPalette(file string) (string, error) {
	out := changeExt(file, extBMP)
	if err := checkExists(out); err != nil {
		return out, err
	}

	p, err := pal.Load(file)
	if err != nil {
		return out, fmt.Errorf("%s: %w", file, err)
	}

	if err := atomicfile.WriteNew(out, func(w io.Writer) error {
		return bmp.Encode(w, p.Image())
	}); err != nil {
		return out, err
	}

	c.logger.Printf("Wrote palette colors to %s\n", out)
	return out, nil
}

// ImportPalette reads a 16x16 or 32x32 swatch image and writes it as a PAL
// file alongside it, returning the name of the new file.
func (c *Converter) ImportPalette(file string) (string, error) {
	out := changeExt(file, extPAL)
	if err := checkExists(out); err != nil {
		return out, err
	}

	m, err := decodeImage(file)
	if err != nil {
		return out, err
	}

	p, err := pal.FromImage(m)
	if err != nil {
		return out, fmt.Errorf("%s: %w", file, err)
	}

	if err := p.Save(out); err != nil {
		return out, err
	}

	c.logger.Printf("Wrote palette file to %s\n", out)
	return out, nil
}

// QuantizePalette generates a PAL file from the colors of an arbitrary
// image and writes it alongside it, returning the name of the new file.
func (c *Converter) QuantizePalette(file string) (string, error) {
	out := changeExt(file, extPAL)
	if err := checkExists(out); err != nil {
		return out, err
	}

	m, err := decodeImage(file)
	if err != nil {
		return out, err
	}

	if err := pal.Quantize(m).Save(out); err != nil {
		return out, err
	}

	c.logger.Printf("Wrote quantized palette file to %s\n", out)
	return out, nil
}
