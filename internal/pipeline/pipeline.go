package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type Task func(ctx context.Context, i int) error

// Run calls fn for every index in [0, n) on at most workers goroutines.
// The first error cancels the remaining tasks and is returned.
func Run(ctx context.Context, n, workers int, fn Task) error {
	if n <= 0 || fn == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers, n))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// Workers resolves a worker count: non-positive means one per CPU, and it
// never exceeds the number of tasks.
func Workers(requested, tasks int) int {
	workers := requested
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if tasks > 0 && workers > tasks {
		workers = tasks
	}
	return max(workers, 1)
}
