package gsgraph

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/gsgraph/cv2"
	"github.com/bodgit/gsgraph/pal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

var discard = log.New(io.Discard, "", 0)

func testImage() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x * 40), uint8(y * 80), 0x20, 0xff})
		}
	}
	return m
}

func writePNG(t *testing.T, name string, m image.Image) {
	t.Helper()

	b := new(bytes.Buffer)
	require.NoError(t, png.Encode(b, m))
	require.NoError(t, os.WriteFile(name, b.Bytes(), 0o644))
}

func testPalette(t *testing.T) *pal.Palette {
	t.Helper()

	var colors [pal.NumColors]color.NRGBA
	for i := range colors {
		colors[i] = color.NRGBA{uint8(i), uint8(i), uint8(i), 0xff}
	}
	colors[0] = pal.TransparentColor

	p, err := pal.New(colors, 0)
	require.NoError(t, err)
	return p
}

func TestEncodeDecodeFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sprite.png")
	writePNG(t, src, testImage())

	c := New(nil, discard)

	out, err := c.EncodeFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sprite.cv2"), out)

	h, err := readEntry(out)
	require.NoError(t, err)
	assert.Equal(t, cv2.Header{BitDepth: 32, Width: 3, Height: 2, Stride: 3}, h.Header)

	_, err = c.EncodeFile(src)
	assert.True(t, errors.Is(err, fs.ErrExist))

	// Decoding would overwrite the source image
	_, err = c.DecodeFile(out)
	assert.True(t, errors.Is(err, fs.ErrExist))

	require.NoError(t, os.Rename(out, filepath.Join(dir, "copy.cv2")))
	decoded, err := c.DecodeFile(filepath.Join(dir, "copy.cv2"))
	require.NoError(t, err)

	m, err := decodeImage(decoded)
	require.NoError(t, err)
	want := testImage()
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, want.NRGBAAt(x, y), color.NRGBAModel.Convert(m.At(x, y)))
		}
	}
}

func TestEncodeFilePalette(t *testing.T) {
	dir := t.TempDir()

	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.SetNRGBA(0, 0, color.NRGBA{0x33, 0x33, 0x33, 0xff})
	m.SetNRGBA(1, 0, color.NRGBA{0xff, 0x00, 0xff, 0xff})
	src := filepath.Join(dir, "sprite.png")
	writePNG(t, src, m)

	p := testPalette(t)
	c := New(p, discard)

	out, err := c.EncodeFile(src)
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, uint8(8), b[0])
	assert.Equal(t, []byte{0x33, 0x00}, b[17:])

	// Forcing a depth ignores the palette
	c.BitDepth = 16
	require.NoError(t, os.Remove(out))
	_, err = c.EncodeFile(src)
	require.NoError(t, err)

	b, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, uint8(16), b[0])
}

func TestDecodeFileMissingPalette(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sprite.cv2")
	require.NoError(t, cv2.WriteFile(src, testImage(), &cv2.Options{Palette: testPalette(t)}))

	_, err := New(nil, discard).DecodeFile(src)
	assert.True(t, errors.Is(err, cv2.ErrMissingPalette))

	_, err = os.Stat(filepath.Join(dir, "sprite.png"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestPaletteExportImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "palette000.pal")
	require.NoError(t, testPalette(t).Save(src))

	c := New(nil, discard)

	swatch, err := c.ExportPalette(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "palette000.bmp"), swatch)

	f, err := os.Open(swatch)
	require.NoError(t, err)
	config, err := bmp.DecodeConfig(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, 32, config.Width)
	assert.Equal(t, 32, config.Height)

	// The PAL alongside the swatch already exists
	_, err = c.ImportPalette(swatch)
	assert.True(t, errors.Is(err, fs.ErrExist))

	moved := filepath.Join(dir, "edited.bmp")
	require.NoError(t, os.Rename(swatch, moved))

	out, err := c.ImportPalette(moved)
	require.NoError(t, err)

	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImportPaletteInvalidSize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "swatch.png")
	writePNG(t, src, image.NewNRGBA(image.Rect(0, 0, 16, 32)))

	_, err := New(nil, discard).ImportPalette(src)
	assert.True(t, errors.Is(err, pal.ErrInvalidSize))
}

func TestQuantizePalette(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "reference.png")
	writePNG(t, src, testImage())

	out, err := New(nil, discard).QuantizePalette(src)
	require.NoError(t, err)

	p, err := pal.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 0, p.TransparentIndex())
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()

	writePNG(t, filepath.Join(dir, "a.png"), testImage())
	writePNG(t, filepath.Join(dir, "B.PNG"), testImage())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	writePNG(t, filepath.Join(dir, "done.png"), testImage())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "done.cv2"), []byte("keep"), 0o644))

	other := t.TempDir()
	single := filepath.Join(other, "single.png")
	writePNG(t, single, testImage())

	c := New(nil, discard)
	c.Workers = 3

	stats, err := c.Convert(context.Background(), TaskEncode, []string{dir, filepath.Join(dir, "missing")}, []string{single, filepath.Join(other, "photo.jpg")})
	require.NoError(t, err)
	assert.Equal(t, Stats{Converted: 3, Skipped: 2, Failed: 2}, stats)

	for _, name := range []string{"a.cv2", "B.cv2"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(other, "single.cv2"))
	assert.NoError(t, err)

	// Existing output left untouched, broken input produced nothing
	b, err := os.ReadFile(filepath.Join(dir, "done.cv2"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(b))
	_, err = os.Stat(filepath.Join(dir, "broken.cv2"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	// No temporary files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestConvertDecode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, cv2.WriteFile(filepath.Join(dir, "a.cv2"), testImage(), nil))
	require.NoError(t, cv2.WriteFile(filepath.Join(dir, "b.cv2"), testImage(), &cv2.Options{BitDepth: 16}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.cv2"), []byte{7}, 0o644))

	stats, err := New(nil, discard).Convert(context.Background(), TaskDecode, []string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{Converted: 2, Failed: 1}, stats)
}

func TestConvertCancelled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), testImage())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, discard).Convert(ctx, TaskEncode, []string{dir}, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "actor", "madoka"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0o755))

	sprite := filepath.Join(dir, "actor", "madoka", "run0009.cv2")
	require.NoError(t, cv2.WriteFile(sprite, testImage(), &cv2.Options{Palette: testPalette(t)}))
	require.NoError(t, cv2.WriteFile(filepath.Join(dir, "actor", "bg.cv2"), testImage(), nil))
	require.NoError(t, cv2.WriteFile(filepath.Join(dir, ".hidden", "x.cv2"), testImage(), nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cv2"), []byte{7, 1, 0, 0, 0}, 0o644))

	cat, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	stats, err := New(nil, discard).Scan(context.Background(), cat, dir)
	require.NoError(t, err)
	assert.Equal(t, Stats{Converted: 2, Failed: 1}, stats)

	depths, err := cat.Depths()
	require.NoError(t, err)
	assert.Equal(t, map[uint8]int{8: 1, 32: 1}, depths)

	b, err := os.ReadFile(sprite)
	require.NoError(t, err)

	e, err := cat.Lookup(sprite)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, cv2.Header{BitDepth: 8, Width: 3, Height: 2, Stride: 3}, e.Header)
	assert.Equal(t, fmt.Sprintf("%X", sha1.Sum(b)), e.SHA1)

	e, err = cat.Lookup(filepath.Join(dir, ".hidden", "x.cv2"))
	require.NoError(t, err)
	assert.Nil(t, e)

	// Rescanning replaces rather than duplicates
	_, err = New(nil, discard).Scan(context.Background(), cat, dir)
	require.NoError(t, err)
	depths, err = cat.Depths()
	require.NoError(t, err)
	assert.Equal(t, map[uint8]int{8: 1, 32: 1}, depths)
}
