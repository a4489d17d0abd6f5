package pipeline

import (
	"context"
	"os"
	"strconv"
	"sync"
)

// workerCount returns the number of concurrent per-file workers.
// The default is 1: files are processed strictly sequentially, which
// bounds peak memory to one file's bytes and keeps catalog writes for an
// id serialized by construction. IMPORT_WORKERS overrides it; per-file
// processing is free of shared state, and catalog commits go through the
// single collector either way.
func workerCount() int {
	if override := os.Getenv("IMPORT_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return count
		}
	}
	return 1
}

// runBatch dispatches candidates to workers over a bounded queue and
// feeds every outcome through commit on the calling goroutine, so
// catalog writes never race regardless of worker count.
func runBatch(ctx context.Context, workers int, candidates []candidate,
	process func(context.Context, candidate) *outcome,
	commit func(*outcome),
) {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan candidate)
	results := make(chan *outcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cand := range jobs {
				results <- process(ctx, cand)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, cand := range candidates {
			select {
			case jobs <- cand:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for out := range results {
		commit(out)
	}
}
