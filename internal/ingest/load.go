// Package ingest loads feature batches from input files.
package ingest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/14thibea/h5features/h5features"
	"github.com/14thibea/h5features/internal/parquet"
)

// LoadFunc loads the batch stored in one input file.
type LoadFunc func(path string) (h5features.FeatureBatch, error)

// LoadAll loads paths with at most workers loads running at once and
// merges the batches in the order of paths. The first error cancels the
// loads that have not started yet. A nil load reads Parquet files.
func LoadAll(ctx context.Context, paths []string, workers int, load LoadFunc) (h5features.FeatureBatch, error) {
	if load == nil {
		load = parquet.ReadBatch
	}
	if workers < 1 {
		workers = 1
	}

	batches := make([]h5features.FeatureBatch, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := load(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			batches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return h5features.FeatureBatch{}, err
	}
	return Merge(batches...), nil
}

// Merge concatenates batches.
func Merge(batches ...h5features.FeatureBatch) h5features.FeatureBatch {
	var out h5features.FeatureBatch
	for _, b := range batches {
		for i := range b.Files {
			out.Add(b.Files[i], b.Features[i], b.Times[i])
		}
	}
	return out
}
