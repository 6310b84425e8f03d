package gsgraph

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// Task selects what a batch conversion does to each file.
type Task int

const (
	// TaskEncode converts BMP and PNG images into CV2 files
	TaskEncode Task = iota
	// TaskDecode converts CV2 files into PNG images
	TaskDecode
)

func (t Task) extensions() []string {
	switch t {
	case TaskDecode:
		return []string{extCV2}
	default:
		return []string{extBMP, extPNG}
	}
}

// Stats counts the outcome of a batch operation.
type Stats struct {
	// Converted is the number of files successfully processed
	Converted int
	// Skipped is the number of files ignored, either because the output
	// already exists or the input is not a supported type
	Skipped int
	// Failed is the number of files that could not be processed
	Failed int
}

type counters struct {
	converted, skipped, failed int64
}

func (c *counters) stats() Stats {
	return Stats{
		Converted: int(atomic.LoadInt64(&c.converted)),
		Skipped:   int(atomic.LoadInt64(&c.skipped)),
		Failed:    int(atomic.LoadInt64(&c.failed)),
	}
}

// findFiles emits the supported files directly inside each of dirs followed
// by each of files.
func (c *Converter) findFiles(ctx context.Context, exts []string, dirs, files []string, n *counters) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)

		send := func(file string) bool {
			select {
			case out <- file:
				return true
			case <-ctx.Done():
				errc <- ctx.Err()
				return false
			}
		}

		for _, dir := range dirs {
			entries, err := os.ReadDir(dir)
			if err != nil {
				c.logger.Printf("Cannot read directory: %s: %v\n", dir, err)
				atomic.AddInt64(&n.failed, 1)
				continue
			}
			for _, entry := range entries {
				if !entry.Type().IsRegular() || !hasExt(entry.Name(), exts...) {
					continue
				}
				if !send(filepath.Join(dir, entry.Name())) {
					return
				}
			}
		}

		for _, file := range files {
			if !hasExt(file, exts...) {
				c.logger.Printf("Unsupported file type: %s\n", file)
				atomic.AddInt64(&n.skipped, 1)
				continue
			}
			if !send(file) {
				return
			}
		}
	}()
	return out, errc
}

// walkFiles emits every file below base with one of exts, ignoring hidden
// files and directories.
func (c *Converter) walkFiles(ctx context.Context, base string, exts []string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, including the
			// temporary files we write ourselves
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !hasExt(file, exts...) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc
}

// worker runs fn for every file from in. A failure is logged and counted
// but never stops the batch.
func (c *Converter) worker(ctx context.Context, in <-chan string, fn func(string) error, n *counters) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}

			switch err := fn(file); {
			case err == nil:
				atomic.AddInt64(&n.converted, 1)
			case errors.Is(err, fs.ErrExist):
				c.logger.Printf("File exists: %v\n", err)
				atomic.AddInt64(&n.skipped, 1)
			default:
				c.logger.Printf("Failed: %s: %v\n", file, err)
				atomic.AddInt64(&n.failed, 1)
			}
		}
	}()
	return errc
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (c *Converter) runPipeline(ctx context.Context, files <-chan string, errc <-chan error, fn func(string) error, n *counters) error {
	errcList := []<-chan error{errc}
	for i := 0; i < c.workers(); i++ {
		errcList = append(errcList, c.worker(ctx, files, fn, n))
	}
	return waitForPipeline(errcList...)
}

// Convert runs task over the supported files directly inside each of dirs
// and each of files. Files are converted concurrently and a failure with one
// file does not stop the others; the returned error is only non-nil if ctx
// is cancelled.
func (c *Converter) Convert(ctx context.Context, task Task, dirs, files []string) (Stats, error) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	fn := func(file string) error {
		_, err := c.EncodeFile(file)
		return err
	}
	if task == TaskDecode {
		fn = func(file string) error {
			_, err := c.DecodeFile(file)
			return err
		}
	}

	var n counters
	in, errc := c.findFiles(ctx, task.extensions(), dirs, files, &n)
	err := c.runPipeline(ctx, in, errc, fn, &n)

	s := n.stats()
	c.logger.Printf("Converted %d file(s), %d skipped, %d failed\n", s.Converted, s.Skipped, s.Failed)

	return s, err
}
