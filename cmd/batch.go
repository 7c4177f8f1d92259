package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/nikgalushko/picmerge/pkg/merge"
)

// batchItem is one job from the batch json file. Either left/right or
// images must be present.
type batchItem struct {
	Left   string   `json:"left"`
	Right  string   `json:"right"`
	Images []string `json:"images"`
	Out    string   `json:"out"`
}

func (it batchItem) paths() ([]string, error) {
	switch {
	case len(it.Images) > 0:
		return it.Images, nil
	case it.Left != "" && it.Right != "":
		return []string{it.Left, it.Right}, nil
	default:
		return nil, errors.New("item needs either left/right or images")
	}
}

func loadBatch(path string) ([]batchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	var items []batchItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("batch file must be a json array: %w", err)
	}

	return items, nil
}

// runBatch executes every batch item on a bounded worker pool. Item
// failures are logged and counted; the batch keeps going and reports a
// tally at the end.
func runBatch(ctx context.Context, a args, opts merge.Options, jr *journal, log *slog.Logger) error {
	items, err := loadBatch(a.batch)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New("batch file has no items")
	}

	workers := a.workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	var (
		wg                       sync.WaitGroup
		mu                       sync.Mutex
		success, failed, skipped int
	)
	jobs := make(chan batchItem)

	record := func(outcome *int) {
		mu.Lock()
		*outcome++
		mu.Unlock()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range jobs {
				out := it.Out
				if a.outDir != "" && !filepath.IsAbs(out) {
					out = filepath.Join(a.outDir, out)
				}

				if done, err := jr.isDone(ctx, out); err != nil {
					log.Error("journal lookup", "out", out, "err", err)
				} else if done {
					log.Info("skipped", "out", out)
					record(&skipped)
					continue
				}

				if err := runBatchItem(ctx, it, out, opts, jr); err != nil {
					log.Error("item failed", "out", out, "err", err)
					record(&failed)
					continue
				}

				log.Info("item done", "out", out)
				record(&success)
			}
		}()
	}

	for _, it := range items {
		jobs <- it
	}
	close(jobs)
	wg.Wait()

	log.Info("batch finished", "success", success, "failed", failed, "skipped", skipped)
	if failed > 0 {
		return fmt.Errorf("%d of %d items failed", failed, len(items))
	}
	return nil
}

func runBatchItem(ctx context.Context, it batchItem, out string, opts merge.Options, jr *journal) error {
	if out == "" {
		return errors.New("item has no output path")
	}

	paths, err := it.paths()
	if err != nil {
		return err
	}

	if err := mergeFiles(paths, nil, opts, out); err != nil {
		return err
	}

	return jr.markDone(ctx, out, time.Now())
}
