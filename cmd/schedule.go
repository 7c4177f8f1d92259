package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nikgalushko/picmerge/pkg/group"
	"github.com/nikgalushko/picmerge/pkg/merge"
)

// runSchedule sweeps the input directory on a cron schedule: new files
// are smart-grouped by filename prefix and each complete group is
// merged into the output directory. Runs until the context is
// canceled.
func runSchedule(ctx context.Context, a args, opts merge.Options, jr *journal, log *slog.Logger) error {
	if err := sweep(ctx, a, opts, jr, log); err != nil {
		log.Error("sweep failed", "err", err)
	}

	c := cron.New()
	_, err := c.AddFunc(a.schedule, func() {
		if err := sweep(ctx, a, opts, jr, log); err != nil {
			log.Error("sweep failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("bad cron spec %q: %w", a.schedule, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}

func sweep(ctx context.Context, a args, opts merge.Options, jr *journal, log *slog.Logger) error {
	files, err := scanImages(a.inDir)
	if err != nil {
		return err
	}

	groups := group.Smart(files, opts.Layout.SlotCount())
	log.Info("sweep", "dir", a.inDir, "files", len(files), "groups", len(groups))

	for _, g := range groups {
		out := filepath.Join(a.outDir, g.Name+".jpg")

		if done, err := jr.isDone(ctx, out); err != nil {
			return err
		} else if done {
			continue
		}
		if _, err := os.Stat(out); err == nil {
			continue
		}

		if err := mergeFiles(g.Files, nil, opts, out); err != nil {
			log.Error("group failed", "out", out, "err", err)
			continue
		}
		if err := jr.markDone(ctx, out, time.Now()); err != nil {
			return err
		}

		log.Info("group merged", "out", out, "files", len(g.Files))
	}

	return nil
}

func scanImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".webp", ".gif", ".bmp", ".tiff", ".tif":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	return files, nil
}
