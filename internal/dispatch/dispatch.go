// Package dispatch runs a list of calls in fixed-size waves.
//
// Each wave is started together and fully awaited before the next begins, so a
// slow call holds up its wave. Results keep the order of the input calls. The
// first failing call cancels the context shared by its wave and no further
// waves are started.
package dispatch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Call is one unit of work.
type Call[T any] func(ctx context.Context) (T, error)

// Width returns the number of calls run together for a concurrency limit.
// Waves hold one call fewer than the limit, never less than one.
func Width(limit int) int {
	return max(limit-1, 1)
}

// Waves returns the [start, end) index windows used for n calls.
func Waves(n, limit int) [][2]int {
	width := Width(limit)
	waves := make([][2]int, 0, (n+width-1)/width)
	for start := 0; start < n; start += width {
		waves = append(waves, [2]int{start, min(start+width, n)})
	}
	return waves
}

// Gather runs calls in waves and returns their results in input order.
func Gather[T any](ctx context.Context, limit int, calls []Call[T]) ([]T, error) {
	results := make([]T, len(calls))
	for _, wave := range Waves(len(calls), limit) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group, waveCtx := errgroup.WithContext(ctx)
		for i := wave[0]; i < wave[1]; i++ {
			group.Go(func() error {
				value, err := calls[i](waveCtx)
				if err != nil {
					return fmt.Errorf("call %d: %w", i, err)
				}
				results[i] = value
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}
