package lookup

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Prefetch calls l.Lookup for every id with at most limit calls in flight.
// It exists to warm a Cached lookup before sequential resolution; individual
// lookup failures are ignored. Returns ctx.Err() if the context ends first.
func Prefetch(ctx context.Context, l Lookup, ids []string, limit int) error {
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			_, _ = l.Lookup(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
