package factorec

import (
	"context"
	"time"

	"github.com/hupe1980/factorec/catalog"
	"github.com/hupe1980/factorec/exclusion"
	"github.com/hupe1980/factorec/model"
	"github.com/hupe1980/factorec/queue"
	"golang.org/x/sync/errgroup"
)

// cancelCheckInterval is how many candidates a partition scores between
// context checks.
const cancelCheckInterval = 256

// TopN scores every partition concurrently and returns the n best
// candidates, best first (descending score, then ascending ID).
//
// Each partition gets its own Iterator; all of them share the configured
// hard exclusion set, which must therefore be safe for concurrent use
// unless WithHardSnapshot is set. With WithHardSnapshot a single snapshot
// is taken and shared by all partitions.
//
// The first fatal scan error, or ctx's error, cancels the remaining
// partitions and is returned.
func TopN(ctx context.Context, queries [][]float32, partitions []catalog.Source, soft exclusion.Set, n int, optFns ...Option) ([]model.Candidate, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	start := time.Now()
	results, err := topN(ctx, queries, partitions, soft, n, o)

	o.metricsCollector.RecordTopN(n, len(partitions), time.Since(start), err)
	o.logger.LogTopN(ctx, n, len(partitions), len(results), err)

	return results, err
}

func topN(ctx context.Context, queries [][]float32, partitions []catalog.Source, soft exclusion.Set, n int, o options) ([]model.Candidate, error) {
	if n <= 0 {
		return nil, ErrInvalidN
	}

	if o.hardSnapshot {
		if s, ok := o.hard.(*exclusion.SharedSet); ok {
			o.hard = s.Snapshot()
		}
	}

	its := make([]*Iterator, 0, len(partitions))
	for i, src := range partitions {
		po := o
		po.logger = o.logger.WithPartition(i)

		it, err := newIterator(queries, src, soft, po)
		if err != nil {
			for _, prev := range its {
				prev.Stop()
			}
			return nil, err
		}
		its = append(its, it)
	}

	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	heaps := make([]*queue.TopN, len(its))
	for i, it := range its {
		g.Go(func() error {
			defer it.Stop()

			h := queue.NewTopN(n)
			heaps[i] = h

			for scored := 0; it.Next(); scored++ {
				if scored%cancelCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				h.Offer(it.Candidate())
			}
			return it.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := queue.NewTopN(n)
	for _, h := range heaps {
		best.Merge(h)
	}
	return best.Sorted(), nil
}
