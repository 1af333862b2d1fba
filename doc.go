// Package factorec provides the candidate-scoring core of a
// matrix-factorization recommender.
//
// Given one or more latent query vectors (a user, or a blended group of
// users) and a catalog of item latent vectors, an Iterator lazily produces
// scored candidates for a downstream top-K stage. Items can be removed from
// the results by a soft exclusion set, a (possibly shared) hard exclusion
// set and a pluggable rescorer.
//
// # Quick Start
//
//	items, _ := catalog.NewMatrix(2)
//	items.Set(10, []float32{2, 2})
//	items.Set(20, []float32{5, 0})
//
//	queries := [][]float32{{1, 0}, {0, 1}}
//	it, _ := factorec.NewIterator(queries, items.Source(), exclusion.Empty)
//	defer it.Stop()
//	for it.Next() {
//	    fmt.Println(it.Candidate())
//	}
//
// # Scoring
//
// The score of an item is the mean of its dot products with the query
// vectors. A single query vector therefore scores by plain dot product.
// When a rescorer is configured, its Rescore result replaces the score; a
// NaN or infinite result drops the item.
//
// # Exclusions
//
// Checks run in order and stop at the first match:
//
//  1. soft set (always present, may be exclusion.Empty)
//  2. hard set (WithHardExclusions), usually an exclusion.SharedSet
//  3. rescorer veto (WithRescorer)
//
// # Errors
//
// Excluded items are never errors. A non-finite score without a rescorer
// (*ErrNonFiniteScore) or a catalog vector of the wrong dimension
// (*ErrDimensionMismatch) ends the scan; Err reports it.
//
// # Parallel Top-N
//
// TopN runs one Iterator per catalog partition and merges their best
// candidates:
//
//	results, err := factorec.TopN(ctx, queries, items.Partitions(4), exclusion.Empty, 10,
//	    factorec.WithHardExclusions(known))
package factorec
