package cv2

import (
	"bufio"
	"image"
	"io"
	"os"

	"github.com/bodgit/gsgraph/internal/atomicfile"
	"github.com/bodgit/gsgraph/pal"
)

// ReadFile decodes the CV2 file name.
func ReadFile(name string, p *pal.Palette) (*image.NRGBA, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(bufio.NewReader(f), p)
}

// WriteFile encodes m to the CV2 file name. It never overwrites; if name
// exists the error matches fs.ErrExist. Nothing is left at name if encoding
// fails.
func WriteFile(name string, m image.Image, o *Options) error {
	return atomicfile.WriteNew(name, func(w io.Writer) error {
		return Encode(w, m, o)
	})
}
