/*
Package gsgraph converts images to and from the CV2 image format and PAL
palettes used by Grief Syndrome.
*/
package gsgraph

import (
	"log"

	"github.com/bodgit/gsgraph/pal"
)

const defaultWorkers = 10

// Converter performs file conversions. A single Converter may be used by
// many goroutines.
type Converter struct {
	palette *pal.Palette
	logger  *log.Logger

	// BitDepth forces the depth of encoded CV2 files. Zero picks 8 when
	// there is a palette and 32 otherwise.
	BitDepth int

	// Workers is the number of files converted at once by the batch
	// operations. Zero or less uses a default.
	Workers int
}

// New returns a Converter using palette p, which may be nil if no 8-bit
// data is involved.
func New(p *pal.Palette, logger *log.Logger) *Converter {
	return &Converter{
		palette: p,
		logger:  logger,
	}
}

func (c *Converter) workers() int {
	if c.Workers <= 0 {
		return defaultWorkers
	}
	return c.Workers
}
