package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/bodgit/gsgraph"
	"github.com/bodgit/gsgraph/pal"
	"github.com/urfave/cli/v2"
)

const defaultDB = "gsgraph.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// loadPalette returns the palette named by --palette. Batch tasks need
// either a palette or an explicit --no-palette.
func loadPalette(c *cli.Context) (*pal.Palette, error) {
	switch {
	case c.Bool("no-palette") && c.IsSet("palette"):
		return nil, errors.New("don't use --no-palette while providing a palette")
	case c.Bool("no-palette"):
		return nil, nil
	case c.String("palette") == "":
		return nil, errors.New("you must specify a palette or --no-palette")
	}
	return pal.Load(c.String("palette"))
}

func batchAction(task gsgraph.Task) cli.ActionFunc {
	return func(c *cli.Context) error {
		dirs, files := c.StringSlice("dir"), c.StringSlice("file")
		if len(dirs) == 0 && len(files) == 0 {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}

		p, err := loadPalette(c)
		if err != nil {
			return cli.Exit(err, 1)
		}

		conv := gsgraph.New(p, newLogger(c))
		conv.Workers = c.Int("workers")
		conv.BitDepth = c.Int("depth")

		stats, err := conv.Convert(context.Background(), task, dirs, files)
		if err != nil {
			return cli.Exit(err, 1)
		}

		fmt.Printf("Converted %d file(s), %d skipped, %d failed\n", stats.Converted, stats.Skipped, stats.Failed)

		if stats.Failed > 0 {
			return cli.Exit(fmt.Sprintf("%d file(s) failed", stats.Failed), 1)
		}

		return nil
	}
}

func fileAction(fn func(*gsgraph.Converter, string) (string, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 1 {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}

		out, err := fn(gsgraph.New(nil, newLogger(c)), c.Args().First())
		if err != nil {
			return cli.Exit(err, 1)
		}

		fmt.Println(out)

		return nil
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "gsgraph"
	app.Usage = "Grief Syndrome CV2 image and PAL palette converter"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	batchFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "palette",
			Aliases: []string{"p"},
			EnvVars: []string{"GSGRAPH_PALETTE"},
			Usage:   "palette file used in conversion",
		},
		&cli.BoolFlag{
			Name:    "no-palette",
			Aliases: []string{"n"},
			Usage:   "don't use a palette in this conversion",
		},
		&cli.StringSliceFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "convert all files in a directory",
		},
		&cli.StringSliceFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "convert a single file",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			EnvVars: []string{"GSGRAPH_WORKERS"},
			Value:   10,
			Usage:   "number of files to convert at once",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "encode",
			Usage:       "Convert images (bmp/png) into cv2 files",
			Description: "Colors that can not be found in the palette are converted into the transparent color.",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  "depth",
					Usage: "force the cv2 bit depth (8, 16, 24 or 32)",
				},
			}, batchFlags...),
			Action: batchAction(gsgraph.TaskEncode),
		},
		{
			Name:   "decode",
			Usage:  "Convert cv2 files into png images",
			Flags:  batchFlags,
			Action: batchAction(gsgraph.TaskDecode),
		},
		{
			Name:      "export",
			Usage:     "Convert a palette into a bmp swatch",
			ArgsUsage: "PALETTE",
			Action:    fileAction((*gsgraph.Converter).ExportPalette),
		},
		{
			Name:      "import",
			Usage:     "Convert a 16x16 or 32x32 bmp swatch into a palette",
			ArgsUsage: "BITMAP",
			Action:    fileAction((*gsgraph.Converter).ImportPalette),
		},
		{
			Name:      "quantize",
			Usage:     "Generate a palette from the colors of an image",
			ArgsUsage: "IMAGE",
			Action:    fileAction((*gsgraph.Converter).QuantizePalette),
		},
		{
			Name:      "scan",
			Usage:     "Catalog the cv2 files in a directory tree",
			ArgsUsage: "DIRECTORY",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "db",
					EnvVars: []string{"GSGRAPH_DB"},
					Value:   filepath.Join(cwd, defaultDB),
					Usage:   "path to database",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cat, err := gsgraph.OpenCatalog(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer cat.Close()

				stats, err := gsgraph.New(nil, newLogger(c)).Scan(context.Background(), cat, c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				depths, err := cat.Depths()
				if err != nil {
					return cli.Exit(err, 1)
				}

				keys := make([]int, 0, len(depths))
				for k := range depths {
					keys = append(keys, int(k))
				}
				sort.Ints(keys)

				for _, k := range keys {
					fmt.Printf("%2d-bit: %d\n", k, depths[uint8(k)])
				}
				fmt.Printf("Cataloged %d file(s), %d failed\n", stats.Converted, stats.Failed)

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
