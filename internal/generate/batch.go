package generate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// GenerateAll runs reqs concurrently and returns results in request order.
// limit caps in-flight requests; limit <= 0 means unbounded.
//
// The batch is all-or-nothing: the first failure cancels the remaining
// requests and no partial results are returned.
func GenerateAll(ctx context.Context, g Generator, reqs []Request, limit int) ([]string, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	results := make([]string, len(reqs))
	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}

	for i, req := range reqs {
		eg.Go(func() error {
			text, err := g.Generate(ctx, req)
			if err != nil {
				return fmt.Errorf("request %d/%d: %w", i+1, len(reqs), err)
			}
			results[i] = text
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
