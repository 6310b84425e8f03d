/*
Package pal implements the PAL palette format.

A PAL file is a single marker byte followed by 256 colors, each stored as a
little-endian 16-bit word packed as BGRA-5-5-5-1: blue in bits 0-4, green in
bits 5-9, red in bits 10-14 and a one bit alpha flag in bit 15. There is no
compression so the file is always 513 bytes.

One entry of the palette is designated as transparent and is used whenever a
color has no exact match in the palette.
*/
package pal

import (
	"errors"
	"fmt"
	"image/color"
)

const (
	// NumColors is the fixed number of entries in a palette
	NumColors = 256

	marker   = 0x10
	fileSize = 1 + NumColors*2
)

var (
	// ErrFormat is returned when the PAL data is truncated
	ErrFormat = errors.New("pal: not enough palette data")

	// ErrInvalidSize is returned when a swatch image is not 16x16 or 32x32
	ErrInvalidSize = errors.New("pal: invalid swatch image size")
)

// TransparentColor is the color forced into the first entry of palettes
// built from swatch images or by quantizing. It packs to 0x7fff and unpacks
// to itself.
var TransparentColor = color.NRGBA{0xf8, 0xf8, 0xf8, 0x00}

// Palette is a fixed table of 256 colors with one transparent entry. It is
// immutable once constructed. A Palette also implements color.Model.
type Palette struct {
	colors      [NumColors]color.NRGBA
	transparent int
	index       map[color.NRGBA]uint8
}

func newPalette(colors [NumColors]color.NRGBA, transparent int) *Palette {
	p := &Palette{
		colors:      colors,
		transparent: transparent,
		index:       make(map[color.NRGBA]uint8, NumColors),
	}
	// Walk in order so the lowest index wins for duplicate colors
	for i, c := range p.colors {
		if _, ok := p.index[c]; !ok {
			p.index[c] = uint8(i)
		}
	}
	return p
}

// New returns a palette of the given colors with the entry at index
// transparent used as the fallback for unmatched colors.
func New(colors [NumColors]color.NRGBA, transparent int) (*Palette, error) {
	if transparent < 0 || transparent >= NumColors {
		return nil, fmt.Errorf("pal: transparent index %d out of range", transparent)
	}
	return newPalette(colors, transparent), nil
}

// At returns the color at index i.
func (p *Palette) At(i uint8) color.NRGBA {
	return p.colors[i]
}

// TransparentIndex returns the index of the transparent entry.
func (p *Palette) TransparentIndex() int {
	return p.transparent
}

// Colors returns a copy of the entries suitable for use with image.Paletted.
func (p *Palette) Colors() color.Palette {
	cp := make(color.Palette, NumColors)
	for i, c := range p.colors {
		cp[i] = c
	}
	return cp
}

// Index returns the lowest index whose entry matches c exactly on all four
// channels, or the transparent index if there is no such entry. No attempt
// is made to find the nearest color.
func (p *Palette) Index(c color.Color) uint8 {
	if i, ok := p.index[color.NRGBAModel.Convert(c).(color.NRGBA)]; ok {
		return i
	}
	return uint8(p.transparent)
}

// Convert maps c to the palette entry chosen by Index.
func (p *Palette) Convert(c color.Color) color.Color {
	return p.colors[p.Index(c)]
}
