package factorec

import (
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"time"

	"github.com/hupe1980/factorec/catalog"
	"github.com/hupe1980/factorec/distance"
	"github.com/hupe1980/factorec/exclusion"
	"github.com/hupe1980/factorec/model"
	"github.com/hupe1980/factorec/rescore"
)

// Outcome is the result of a single Iterator.Advance.
type Outcome int

const (
	// OutcomeEnd means the catalog source is exhausted or the scan failed.
	OutcomeEnd Outcome = iota
	// OutcomeSkip means the pulled item was excluded and produced no candidate.
	OutcomeSkip
	// OutcomeValue means a candidate was produced; read it with Candidate.
	OutcomeValue
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEnd:
		return "End"
	case OutcomeSkip:
		return "Skip"
	case OutcomeValue:
		return "Value"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// Iterator lazily scores every item of a catalog source against a set of
// query vectors, dropping excluded items.
//
// The score of an item is the mean of its dot products with the query
// vectors, optionally adjusted by a rescorer. Items are checked against the
// soft exclusion set, then the hard exclusion set, then the rescorer's veto,
// stopping at the first match.
//
// An Iterator is single pass and must not be used from multiple goroutines
// at once. Typical use:
//
//	it, err := factorec.NewIterator(queries, items, exclusion.Empty)
//	if err != nil { ... }
//	defer it.Stop()
//	for it.Next() {
//	    c := it.Candidate()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	queries [][]float32
	dim     int

	next func() (model.ItemID, []float32, bool)
	stop func()

	soft     exclusion.Set
	hard     exclusion.Set
	rescorer rescore.Rescorer

	logger  *Logger
	metrics MetricsCollector

	current model.Candidate
	stats   ScanStats
	start   time.Time
	err     error
	done    bool
}

// NewIterator creates an Iterator over items for the given query vectors.
//
// queries must be non-empty and share one non-zero dimension. soft is
// required; pass exclusion.Empty to exclude nothing.
func NewIterator(queries [][]float32, items catalog.Source, soft exclusion.Set, optFns ...Option) (*Iterator, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	if o.hardSnapshot {
		if s, ok := o.hard.(*exclusion.SharedSet); ok {
			o.hard = s.Snapshot()
		}
	}

	return newIterator(queries, items, soft, o)
}

func newIterator(queries [][]float32, items catalog.Source, soft exclusion.Set, o options) (*Iterator, error) {
	dim, err := validateQueries(queries)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return nil, ErrNilSource
	}
	if soft == nil {
		return nil, ErrNilExclusions
	}

	next, stop := iter.Pull2(items)

	return &Iterator{
		queries:  slices.Clone(queries),
		dim:      dim,
		next:     next,
		stop:     stop,
		soft:     soft,
		hard:     o.hard,
		rescorer: o.rescorer,
		logger:   o.logger.WithQueries(len(queries)).WithDimension(dim),
		metrics:  o.metricsCollector,
		start:    time.Now(),
	}, nil
}

func validateQueries(queries [][]float32) (int, error) {
	if len(queries) == 0 {
		return 0, ErrNoQueries
	}

	dim := len(queries[0])
	if dim == 0 {
		return 0, &ErrInvalidDimension{Dimension: dim}
	}
	if i := distance.SameDimension(dim, queries); i >= 0 {
		return 0, fmt.Errorf("query %d: %w", i, &ErrDimensionMismatch{Expected: dim, Actual: len(queries[i])})
	}

	return dim, nil
}

// Advance pulls exactly one entry from the catalog source.
//
// It returns OutcomeValue when the entry produced a candidate, OutcomeSkip
// when the entry was excluded, and OutcomeEnd when the source is exhausted.
// A non-nil error is fatal: the scan has stopped and every later call
// returns OutcomeEnd with the same error.
//
// Most callers want Next, which absorbs skips.
func (it *Iterator) Advance() (Outcome, error) {
	if it.done {
		return OutcomeEnd, it.err
	}

	id, vec, ok := it.next()
	if !ok {
		it.finish(nil)
		return OutcomeEnd, nil
	}
	it.stats.Scanned++

	if it.soft.Contains(id) {
		it.stats.SoftExcluded++
		return OutcomeSkip, nil
	}
	if it.hard != nil && it.hard.Contains(id) {
		it.stats.HardExcluded++
		return OutcomeSkip, nil
	}
	if it.rescorer != nil && it.rescorer.IsExcluded(id) {
		it.stats.RescorerExcluded++
		return OutcomeSkip, nil
	}

	if len(vec) != it.dim {
		err := fmt.Errorf("item %d: %w", id, &ErrDimensionMismatch{Expected: it.dim, Actual: len(vec)})
		it.finish(err)
		return OutcomeEnd, err
	}

	score := distance.MeanDot(it.queries, vec)

	if it.rescorer != nil {
		score = it.rescorer.Rescore(id, score)
		if !isFinite(float32(score)) {
			it.stats.NonFinite++
			return OutcomeSkip, nil
		}
	} else if !isFinite(float32(score)) {
		err := &ErrNonFiniteScore{ID: id, Score: score}
		it.finish(err)
		return OutcomeEnd, err
	}

	it.current.ID = id
	it.current.Score = float32(score)
	it.stats.Emitted++
	return OutcomeValue, nil
}

// Next advances to the next candidate, skipping excluded items.
// It returns false at the end of the catalog or on a fatal error;
// check Err afterwards.
func (it *Iterator) Next() bool {
	for {
		switch o, _ := it.Advance(); o {
		case OutcomeValue:
			return true
		case OutcomeEnd:
			return false
		}
	}
}

// Candidate returns the candidate produced by the last successful Next or
// Advance.
func (it *Iterator) Candidate() model.Candidate {
	return it.current
}

// Err returns the fatal error that ended the scan, if any.
func (it *Iterator) Err() error {
	return it.err
}

// All returns the remaining candidates as a sequence. A fatal error is
// yielded once as the final element. Breaking out of the loop stops the
// iterator.
func (it *Iterator) All() iter.Seq2[model.Candidate, error] {
	return func(yield func(model.Candidate, error) bool) {
		for it.Next() {
			if !yield(it.current, nil) {
				it.Stop()
				return
			}
		}
		if it.err != nil {
			yield(model.Candidate{}, it.err)
		}
	}
}

// Stats returns the outcome counts of the pulls made so far.
func (it *Iterator) Stats() ScanStats {
	return it.stats
}

// Stop ends the scan early and releases the catalog source.
// It is safe to call Stop more than once and after the end of the scan.
func (it *Iterator) Stop() {
	it.finish(nil)
}

// Remove is not supported and always returns ErrRemoveUnsupported.
func (it *Iterator) Remove() error {
	return ErrRemoveUnsupported
}

func (it *Iterator) finish(err error) {
	if it.done {
		return
	}
	it.done = true
	it.err = err
	it.stop()

	d := time.Since(it.start)
	it.metrics.RecordScan(it.stats, d, err)
	it.logger.LogScan(context.Background(), it.stats, d, err)
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
