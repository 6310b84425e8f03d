package pal

import "image/color"

// FromPacked16 unpacks a BGRA-5-5-5-1 word. Each 5-bit channel is widened by
// shifting so the low three bits are always zero.
func FromPacked16(v uint16) color.NRGBA {
	c := color.NRGBA{
		R: uint8(v>>10&0x1f) << 3,
		G: uint8(v>>5&0x1f) << 3,
		B: uint8(v&0x1f) << 3,
	}
	if v&0x8000 != 0 {
		c.A = 0xff
	}
	return c
}

// ToPacked16 packs c as a BGRA-5-5-5-1 word. The low three bits of each
// channel are discarded and any non-zero alpha becomes opaque.
func ToPacked16(c color.NRGBA) uint16 {
	v := uint16(c.B&0xf8)>>3 | uint16(c.G&0xf8)<<2 | uint16(c.R&0xf8)<<7
	if c.A != 0 {
		v |= 0x8000
	}
	return v
}
