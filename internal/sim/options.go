// Package sim runs Monte Carlo simulations of scalar drift-diffusion paths:
// first-passage probabilities and the three arcsine-law statistics.
//
// Paths are simulated in parallel. Every path draws from its own PCG stream
// derived from (Options.Seed, path index), so a given seed reproduces the same
// result for any worker count.
package sim

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MaxSamplePaths is the number of leading first-passage paths whose
// trajectories are retained for display.
const MaxSamplePaths = 10

// Options controls how a simulation is executed.
type Options struct {
	// Seed selects the random streams. Callers that want non-reproducible
	// runs pass generator.NewSeed().
	Seed uint64
	// Workers bounds the number of goroutines; 0 means GOMAXPROCS.
	Workers int
	// Logger receives debug output; nil discards it.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) workerCount(paths int) int {
	w := o.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > paths {
		w = paths
	}
	if w < 1 {
		w = 1
	}
	return w
}

// forEachPath calls fn once for every path index in [0, n), splitting the
// range into contiguous blocks across workers. The context is checked before
// each path; fn must only write state owned by its path index.
func forEachPath(ctx context.Context, n, workers int, fn func(path int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for p := start; p < end; p++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				fn(p)
			}
			return nil
		})
	}
	return g.Wait()
}
