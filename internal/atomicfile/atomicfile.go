/*
Package atomicfile creates files that must not already exist.

Content is written to a temporary file alongside the destination which is then
hard linked into place. Linking fails if the destination exists so two
writers racing for the same name cannot clobber each other, and a writer that
fails part way never leaves a truncated destination behind.
*/
package atomicfile

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

func exists(name string) error {
	return &fs.PathError{Op: "create", Path: name, Err: fs.ErrExist}
}

// WriteNew creates name and fills it with whatever fn writes. If name
// already exists the returned error matches fs.ErrExist and the existing file
// is left untouched.
func WriteNew(name string, fn func(io.Writer) error) (err error) {
	if _, err := os.Lstat(name); err == nil {
		return exists(name)
	}

	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if rerr := os.Remove(f.Name()); rerr != nil && err == nil {
			err = rerr
		}
	}()

	// CreateTemp uses 0600
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return err
	}

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Link(f.Name(), name); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return exists(name)
		}
		return err
	}

	return nil
}
