package gsgraph

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/gsgraph/cv2"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a database of CV2 file headers.
type Catalog struct {
	db *sql.DB
}

// Entry is a single cataloged CV2 file.
type Entry struct {
	Path string
	SHA1 string
	cv2.Header
}

// OpenCatalog opens or creates the catalog database file.
func OpenCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// Writes come from many workers at once
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS cv2 (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL, depth INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, stride INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add records e, replacing any existing entry with the same path.
func (c *Catalog) Add(e Entry) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO cv2 (path, sha1, depth, width, height, stride) VALUES (?, ?, ?, ?, ?, ?)", e.Path, e.SHA1, e.BitDepth, e.Width, e.Height, e.Stride); err != nil {
		return err
	}
	return nil
}

// Lookup returns the entry for path, or nil if there isn't one.
func (c *Catalog) Lookup(path string) (*Entry, error) {
	e := Entry{Path: path}
	switch err := c.db.QueryRow("SELECT sha1, depth, width, height, stride FROM cv2 WHERE path = ?", path).Scan(&e.SHA1, &e.BitDepth, &e.Width, &e.Height, &e.Stride); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &e, nil
	default:
		return nil, err
	}
}

// Depths returns the number of cataloged files for each bit depth.
func (c *Catalog) Depths() (map[uint8]int, error) {
	rows, err := c.db.Query("SELECT depth, COUNT(*) FROM cv2 GROUP BY depth")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	depths := make(map[uint8]int)
	for rows.Next() {
		var depth uint8
		var count int
		if err := rows.Scan(&depth, &count); err != nil {
			return nil, err
		}
		depths[depth] = count
	}

	return depths, rows.Err()
}

func readEntry(file string) (Entry, error) {
	f, err := os.Open(file)
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()

	h := sha1.New()
	header, err := cv2.DecodeHeader(io.TeeReader(f, h))
	if err != nil {
		return Entry{}, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return Entry{}, err
	}

	return Entry{
		Path:   file,
		SHA1:   fmt.Sprintf("%X", h.Sum(nil)),
		Header: header,
	}, nil
}

// Scan walks dir recursively and records the header of every CV2 file found
// in cat. Files with an unreadable header are logged and counted as failed.
func (c *Converter) Scan(ctx context.Context, cat *Catalog, dir string) (Stats, error) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return Stats{}, err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	fn := func(file string) error {
		e, err := readEntry(file)
		if err != nil {
			return err
		}
		if err := cat.Add(e); err != nil {
			return err
		}
		c.logger.Printf("Cataloged %d-bit %dx%d cv2: %s\n", e.BitDepth, e.Width, e.Height, file)
		return nil
	}

	var n counters
	in, errc := c.walkFiles(ctx, base, []string{extCV2})
	err = c.runPipeline(ctx, in, errc, fn, &n)

	return n.stats(), err
}
