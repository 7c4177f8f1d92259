package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/nikgalushko/picmerge/pkg/merge"
)

type args struct {
	inputs   []string
	layout   string
	rows     int
	cols     int
	gap      int
	width    int
	height   int
	bg       string
	mode     string
	quality  int
	out      string
	batch    string
	outDir   string
	inDir    string
	schedule string
	journal  string
	workers  int
}

func parseArgs(argv []string) (args, error) {
	var a args

	fs := flag.NewFlagSet("picmerge", flag.ContinueOnError)
	fs.StringVar(&a.layout, "layout", "2", "layout: 2 (side by side), 3 (two top, one bottom), 4 (2x2 grid), custom")
	fs.IntVar(&a.rows, "rows", 0, "rows for custom layout")
	fs.IntVar(&a.cols, "cols", 0, "columns for custom layout")
	fs.IntVar(&a.gap, "gap", 0, "gap between slots in pixels")
	fs.IntVar(&a.width, "width", 0, "output width in pixels (0 = derived or default)")
	fs.IntVar(&a.height, "height", 0, "output height in pixels (0 = derived or default)")
	fs.StringVar(&a.bg, "bg", "#000000", "background color, 3- or 6-digit hex")
	fs.StringVar(&a.mode, "mode", "fit", "scaling mode: fit or stretch")
	fs.IntVar(&a.quality, "quality", merge.DefaultQuality, "jpeg/webp quality, 1-100")
	fs.StringVar(&a.out, "out", "", "output file path")
	fs.StringVar(&a.batch, "batch", "", "path to a batch job json file")
	fs.StringVar(&a.outDir, "out-dir", "", "directory for batch and scheduled outputs")
	fs.StringVar(&a.inDir, "in-dir", "", "directory to scan in scheduled mode")
	fs.StringVar(&a.schedule, "schedule", "", "cron spec; re-scan in-dir and merge new groups")
	fs.StringVar(&a.journal, "journal", "", "sqlite journal path; completed outputs are skipped on re-runs")
	fs.IntVar(&a.workers, "workers", 0, "batch worker count (0 = number of CPUs)")

	if err := fs.Parse(argv); err != nil {
		return args{}, err
	}
	a.inputs = fs.Args()

	return a, nil
}

func buildOptions(a args) (merge.Options, error) {
	layout, err := parseLayout(a.layout, a.rows, a.cols)
	if err != nil {
		return merge.Options{}, err
	}

	bg, err := merge.ParseHexColor(a.bg)
	if err != nil {
		return merge.Options{}, err
	}

	var mode merge.Mode
	switch a.mode {
	case "fit", "":
		mode = merge.ModeFit
	case "stretch":
		mode = merge.ModeStretch
	default:
		return merge.Options{}, fmt.Errorf("unknown mode %q", a.mode)
	}

	return merge.Options{
		Layout:     layout,
		Width:      a.width,
		Height:     a.height,
		Background: bg,
		Mode:       mode,
		Gap:        a.gap,
		Quality:    a.quality,
	}, nil
}

func parseLayout(s string, rows, cols int) (merge.Layout, error) {
	switch s {
	case "2", "":
		return merge.Split{}, nil
	case "3":
		return merge.Mixed{}, nil
	case "4":
		return merge.Grid2x2{}, nil
	case "custom":
		if rows < 1 || cols < 1 {
			return nil, errors.New("custom layout requires --rows and --cols")
		}
		return merge.CustomGrid{Rows: rows, Cols: cols}, nil
	default:
		return nil, fmt.Errorf("unknown layout %q", s)
	}
}

// mergeFiles runs one full merge job: existence checks, decode,
// compose, encode, write. Cheap checks come before any decoding.
func mergeFiles(paths []string, transforms []merge.Transform, opts merge.Options, outPath string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("input not found: %s", p)
		}
	}

	srcs := make([]image.Image, len(paths))
	for i, p := range paths {
		img, err := loadImage(p)
		if err != nil {
			return fmt.Errorf("decode %s: %w", p, err)
		}
		srcs[i] = img
	}

	result, err := merge.Merge(srcs, transforms, opts)
	if err != nil {
		return err
	}

	data, err := merge.Encode(result.Image, merge.FormatForPath(outPath), opts.Quality)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return webp.Decode(f)
	}

	img, _, err := image.Decode(f)
	return img, err
}

func run(ctx context.Context, argv []string, log *slog.Logger) error {
	a, err := parseArgs(argv)
	if err != nil {
		return err
	}

	opts, err := buildOptions(a)
	if err != nil {
		return err
	}

	var jr *journal
	if a.journal != "" {
		jr, err = newJournal(a.journal)
		if err != nil {
			return err
		}
		defer jr.Close()
	}

	switch {
	case a.schedule != "":
		if a.inDir == "" || a.outDir == "" {
			return errors.New("scheduled mode requires --in-dir and --out-dir")
		}
		return runSchedule(ctx, a, opts, jr, log)
	case a.batch != "":
		return runBatch(ctx, a, opts, jr, log)
	default:
		if a.out == "" {
			return errors.New("--out is required")
		}
		if len(a.inputs) == 0 {
			return errors.New("no input images given")
		}
		if err := mergeFiles(a.inputs, nil, opts, a.out); err != nil {
			return err
		}
		log.Info("merged", "out", a.out, "inputs", len(a.inputs))
		return nil
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := run(ctx, os.Args[1:], log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
