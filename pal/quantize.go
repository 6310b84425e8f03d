package pal

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// Quantize builds a palette from an arbitrary image by median cut. The
// first entry is TransparentColor, followed by up to 255 opaque colors
// reduced to the precision PAL can store so the palette survives a Save and
// Load unchanged. Any unused entries are opaque black.
func Quantize(m image.Image) *Palette {
	q := quantize.MedianCutQuantizer{}

	var colors [NumColors]color.NRGBA
	for i := range colors {
		colors[i] = color.NRGBA{0, 0, 0, 0xff}
	}
	colors[0] = TransparentColor

	for i, c := range q.Quantize(make(color.Palette, 0, NumColors-1), m) {
		if i+1 >= NumColors {
			break
		}
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		colors[i+1] = color.NRGBA{n.R & 0xf8, n.G & 0xf8, n.B & 0xf8, 0xff}
	}

	return newPalette(colors, 0)
}
