package pal

import (
	"image"
	"image/color"
)

const (
	swatchCells = 16
	swatchScale = 2
)

// FromImage builds a palette from a swatch image of 16 by 16 cells, either
// one or two pixels square, so the image must be exactly 16x16 or 32x32.
// The top-left pixel of each cell is sampled in row-major order. The first
// entry is then replaced with TransparentColor and becomes the transparent
// index.
func FromImage(m image.Image) (*Palette, error) {
	b := m.Bounds()
	if b.Dx() != b.Dy() || (b.Dx() != swatchCells && b.Dx() != swatchCells*swatchScale) {
		return nil, ErrInvalidSize
	}
	scale := b.Dx() / swatchCells

	var colors [NumColors]color.NRGBA
	for row := 0; row < swatchCells; row++ {
		for col := 0; col < swatchCells; col++ {
			c := m.At(b.Min.X+col*scale, b.Min.Y+row*scale)
			colors[row*swatchCells+col] = color.NRGBAModel.Convert(c).(color.NRGBA)
		}
	}
	colors[0] = TransparentColor

	return newPalette(colors, 0), nil
}

// Image renders the palette as a 32x32 swatch with each entry drawn as a
// 2x2 cell, sixteen to a row.
func (p *Palette) Image() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, swatchCells*swatchScale, swatchCells*swatchScale))
	for i, c := range p.colors {
		x, y := i%swatchCells*swatchScale, i/swatchCells*swatchScale
		for dy := 0; dy < swatchScale; dy++ {
			for dx := 0; dx < swatchScale; dx++ {
				m.SetNRGBA(x+dx, y+dy, c)
			}
		}
	}
	return m
}
