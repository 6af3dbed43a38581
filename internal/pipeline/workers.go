package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunBounded applies fn to every item in items, at most n concurrently,
// and returns one error per item in the same order (nil where fn
// succeeded). A single slow or failing item never blocks the others
// from starting; the collection itself is never touched here — only
// whatever record each fn closes over (spec.md §5).
func RunBounded[T any](ctx context.Context, n int, items []T, fn func(context.Context, T) error) []error {
	errs := make([]error, len(items))

	if n < 1 {
		n = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)

	for i, item := range items {
		i, item := i, item

		g.Go(func() error {
			errs[i] = fn(gctx, item)

			return nil
		})
	}

	_ = g.Wait()

	return errs
}
