package pal

import (
	"encoding/binary"
	"io"

	"github.com/bodgit/gsgraph/internal/atomicfile"
)

// Encode writes the palette to w in PAL format.
func (p *Palette) Encode(w io.Writer) error {
	var tmp [fileSize]byte
	tmp[0] = marker
	for i, c := range p.colors {
		binary.LittleEndian.PutUint16(tmp[1+i*2:], ToPacked16(c))
	}
	_, err := w.Write(tmp[:])
	return err
}

// Save writes the palette to the PAL file name. It never overwrites; if name
// exists the error matches fs.ErrExist.
func (p *Palette) Save(name string) error {
	return atomicfile.WriteNew(name, p.Encode)
}
