package pal

import (
	"bufio"
	"encoding/binary"
	"image/color"
	"io"
	"os"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// transparentIndex returns the last transparent entry, or zero if there are
// none.
func transparentIndex(colors []color.NRGBA) int {
	t := 0
	for i, c := range colors {
		if c.A == 0 {
			t = i
		}
	}
	return t
}

// Decode reads a PAL palette from r. The leading marker byte is not
// checked.
func Decode(r io.Reader) (*Palette, error) {
	var tmp [fileSize]byte
	if err := readFull(r, tmp[:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return nil, err
		}
		return nil, ErrFormat
	}

	var colors [NumColors]color.NRGBA
	for i := range colors {
		colors[i] = FromPacked16(binary.LittleEndian.Uint16(tmp[1+i*2:]))
	}

	return newPalette(colors, transparentIndex(colors[:])), nil
}

// Load reads the PAL file name.
func Load(name string) (*Palette, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}
