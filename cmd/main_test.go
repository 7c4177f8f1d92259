package main

import (
	"context"
	"encoding/json"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/matryer/is"

	"github.com/nikgalushko/picmerge/pkg/merge"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func writeImage(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()

	data, err := merge.Encode(imaging.New(w, h, c), merge.FormatForPath(path), merge.DefaultQuality)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunSingleMerge(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	left := filepath.Join(dir, "left.png")
	right := filepath.Join(dir, "right.png")
	out := filepath.Join(dir, "out.png")
	writeImage(t, left, 640, 480, color.NRGBA{R: 255, A: 255})
	writeImage(t, right, 120, 90, color.NRGBA{G: 255, A: 255})

	err := run(context.Background(), []string{"--width", "300", "--height", "150", "--out", out, left, right}, testLog())
	is.NoErr(err)

	img, err := loadImage(out)
	is.NoErr(err)
	is.Equal(img.Bounds().Dx(), 300)
	is.Equal(img.Bounds().Dy(), 150)
}

func TestRunMissingInput(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	right := filepath.Join(dir, "right.png")
	out := filepath.Join(dir, "out.png")
	writeImage(t, right, 10, 10, color.NRGBA{G: 255, A: 255})

	err := run(context.Background(), []string{"--out", out, filepath.Join(dir, "gone.png"), right}, testLog())
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "input not found"))

	_, statErr := os.Stat(out)
	is.True(os.IsNotExist(statErr))
}

func TestRunSplitNeedsTwoImages(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	one := filepath.Join(dir, "one.png")
	writeImage(t, one, 10, 10, color.NRGBA{R: 255, A: 255})

	err := run(context.Background(), []string{"--out", filepath.Join(dir, "out.png"), one}, testLog())
	is.Equal(err, merge.ErrInsufficientImages)
}

func writeBatch(t *testing.T, path string, items []batchItem) {
	t.Helper()

	data, err := json.Marshal(items)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunBatch(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	red := color.NRGBA{R: 255, A: 255}
	for _, name := range []string{"a_L.png", "a_R.png", "b_L.png", "b_R.png"} {
		writeImage(t, filepath.Join(dir, name), 20, 20, red)
	}

	batchPath := filepath.Join(dir, "batch.json")
	writeBatch(t, batchPath, []batchItem{
		{Left: filepath.Join(dir, "a_L.png"), Right: filepath.Join(dir, "a_R.png"), Out: "a.jpg"},
		{Images: []string{filepath.Join(dir, "b_L.png"), filepath.Join(dir, "b_R.png")}, Out: "b.png"},
		{Left: filepath.Join(dir, "missing.png"), Right: filepath.Join(dir, "a_R.png"), Out: "c.jpg"},
	})

	err := run(context.Background(), []string{"--batch", batchPath, "--out-dir", outDir}, testLog())
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "1 of 3 items failed"))

	// The bad pair does not stop the good ones.
	_, err = os.Stat(filepath.Join(outDir, "a.jpg"))
	is.NoErr(err)
	_, err = os.Stat(filepath.Join(outDir, "b.png"))
	is.NoErr(err)
	_, err = os.Stat(filepath.Join(outDir, "c.jpg"))
	is.True(os.IsNotExist(err))
}

func TestRunBatchInvalidSchema(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	batchPath := filepath.Join(dir, "batch.json")
	is.NoErr(os.WriteFile(batchPath, []byte(`{"not":"an array"}`), 0o644))

	err := run(context.Background(), []string{"--batch", batchPath}, testLog())
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "json array"))
}

func TestRunBatchItemWithoutInputs(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "x_L.png"), 10, 10, color.NRGBA{R: 255, A: 255})
	writeImage(t, filepath.Join(dir, "x_R.png"), 10, 10, color.NRGBA{G: 255, A: 255})

	batchPath := filepath.Join(dir, "batch.json")
	writeBatch(t, batchPath, []batchItem{
		{Out: "broken.png"},
		{Left: filepath.Join(dir, "x_L.png"), Right: filepath.Join(dir, "x_R.png"), Out: "ok.png"},
	})

	err := run(context.Background(), []string{"--batch", batchPath, "--out-dir", dir}, testLog())
	is.True(err != nil)

	_, err = os.Stat(filepath.Join(dir, "ok.png"))
	is.NoErr(err)
}

func TestJournalSkipsDoneOutputs(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	journalPath := filepath.Join(dir, "journal.sqlite")
	for _, name := range []string{"a_L.png", "a_R.png"} {
		writeImage(t, filepath.Join(dir, name), 20, 20, color.NRGBA{R: 255, A: 255})
	}

	batchPath := filepath.Join(dir, "batch.json")
	writeBatch(t, batchPath, []batchItem{
		{Left: filepath.Join(dir, "a_L.png"), Right: filepath.Join(dir, "a_R.png"), Out: "a.png"},
	})

	argv := []string{"--batch", batchPath, "--out-dir", outDir, "--journal", journalPath}
	is.NoErr(run(context.Background(), argv, testLog()))

	// Remove the output; the journal remembers it and the re-run must
	// not recreate it.
	is.NoErr(os.Remove(filepath.Join(outDir, "a.png")))
	is.NoErr(run(context.Background(), argv, testLog()))

	_, err := os.Stat(filepath.Join(outDir, "a.png"))
	is.True(os.IsNotExist(err))
}

func TestJournal(t *testing.T) {
	is := is.New(t)

	ctx := context.Background()
	jr, err := newJournal(filepath.Join(t.TempDir(), "j.sqlite"))
	is.NoErr(err)
	t.Cleanup(func() { jr.Close() })

	done, err := jr.isDone(ctx, "x.png")
	is.NoErr(err)
	is.True(!done)

	is.NoErr(jr.markDone(ctx, "x.png", time.Now()))

	done, err = jr.isDone(ctx, "x.png")
	is.NoErr(err)
	is.True(done)

	// A nil journal is a no-op.
	var none *journal
	done, err = none.isDone(ctx, "x.png")
	is.NoErr(err)
	is.True(!done)
	is.NoErr(none.markDone(ctx, "x.png", time.Now()))
}

func TestSweep(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	outDir := filepath.Join(dir, "out")
	is.NoErr(os.MkdirAll(inDir, 0o755))

	for _, name := range []string{"a_L.png", "a_R.png", "b_L.png", "b_R.png", "lonely_1.png", "notes.txt"} {
		if strings.HasSuffix(name, ".png") {
			writeImage(t, filepath.Join(inDir, name), 20, 20, color.NRGBA{R: 255, A: 255})
		} else {
			is.NoErr(os.WriteFile(filepath.Join(inDir, name), []byte("x"), 0o644))
		}
	}

	a := args{inDir: inDir, outDir: outDir}
	opts := merge.Options{Layout: merge.Split{}, Quality: merge.DefaultQuality}

	is.NoErr(sweep(context.Background(), a, opts, nil, testLog()))

	_, err := os.Stat(filepath.Join(outDir, "a_merged.jpg"))
	is.NoErr(err)
	_, err = os.Stat(filepath.Join(outDir, "b_merged.jpg"))
	is.NoErr(err)
	// The incomplete "lonely" group produced nothing.
	_, err = os.Stat(filepath.Join(outDir, "lonely_merged.jpg"))
	is.True(os.IsNotExist(err))
}

func TestParseLayout(t *testing.T) {
	is := is.New(t)

	l, err := parseLayout("2", 0, 0)
	is.NoErr(err)
	is.Equal(l, merge.Split{})

	l, err = parseLayout("custom", 2, 3)
	is.NoErr(err)
	is.Equal(l, merge.CustomGrid{Rows: 2, Cols: 3})

	_, err = parseLayout("custom", 0, 3)
	is.True(err != nil)

	_, err = parseLayout("5", 0, 0)
	is.True(err != nil)
}

func TestBuildOptions(t *testing.T) {
	is := is.New(t)

	opts, err := buildOptions(args{layout: "4", bg: "#fff", mode: "stretch", quality: 80, gap: 12})
	is.NoErr(err)
	is.Equal(opts.Layout, merge.Grid2x2{})
	is.Equal(opts.Background, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	is.Equal(opts.Mode, merge.ModeStretch)
	is.Equal(opts.Gap, 12)

	_, err = buildOptions(args{layout: "2", bg: "zzz"})
	is.True(err != nil)

	_, err = buildOptions(args{layout: "2", bg: "#000", mode: "tile"})
	is.True(err != nil)
}
