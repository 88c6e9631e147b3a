package mission

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll evaluates independent missions concurrently with at most
// workers in flight. Missions must not share segments; a vehicle cache
// passed through their settings is safe to share. Results keep the input
// order; the error is the first mission error encountered.
func RunAll(ctx context.Context, missions []*Mission, workers int) ([]*Results, error) {
	results := make([]*Results, len(missions))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, m := range missions {
		i, m := i, m
		g.Go(func() error {
			res, err := m.Evaluate(ctx)
			results[i] = res
			return err
		})
	}
	return results, g.Wait()
}
