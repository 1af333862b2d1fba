package factorec

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/hupe1980/factorec/catalog"
	"github.com/hupe1980/factorec/exclusion"
	"github.com/hupe1980/factorec/model"
	"github.com/hupe1980/factorec/rescore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	blendQueries = [][]float32{{1, 0}, {0, 1}}
	scenarioIDs  = []model.ItemID{10, 20}
	scenarioVecs = [][]float32{{2, 2}, {5, 0}}
)

func scenarioSource() catalog.Source {
	return catalog.FromSlices(scenarioIDs, scenarioVecs)
}

func drain(t *testing.T, it *Iterator) []model.Candidate {
	t.Helper()

	var out []model.Candidate
	for it.Next() {
		out = append(out, it.Candidate())
	}
	require.NoError(t, it.Err())
	return out
}

func TestScenarios(t *testing.T) {
	nanFor10 := rescore.Funcs{Adjust: func(id model.ItemID, s float64) float64 {
		if id == 10 {
			return math.NaN()
		}
		return s
	}}

	tests := []struct {
		name string
		soft exclusion.Set
		opts []Option
		want []model.Candidate
	}{
		{
			name: "NoExclusions",
			soft: exclusion.Empty,
			want: []model.Candidate{{ID: 10, Score: 2.0}, {ID: 20, Score: 2.5}},
		},
		{
			name: "SoftExclusion",
			soft: exclusion.NewIDSet(20),
			want: []model.Candidate{{ID: 10, Score: 2.0}},
		},
		{
			name: "RescorerNaN",
			soft: exclusion.Empty,
			opts: []Option{WithRescorer(nanFor10)},
			want: []model.Candidate{{ID: 20, Score: 2.5}},
		},
		{
			name: "HardExclusion",
			soft: exclusion.Empty,
			opts: []Option{WithHardExclusions(exclusion.NewSharedSet(10))},
			want: []model.Candidate{{ID: 20, Score: 2.5}},
		},
		{
			name: "RescorerVeto",
			soft: exclusion.Empty,
			opts: []Option{WithRescorer(rescore.ExcludeIDs(exclusion.NewIDSet(20)))},
			want: []model.Candidate{{ID: 10, Score: 2.0}},
		},
		{
			name: "EverythingExcluded",
			soft: exclusion.NewIDSet(10),
			opts: []Option{WithHardExclusions(exclusion.NewIDSet(20))},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := NewIterator(blendQueries, scenarioSource(), tt.soft, tt.opts...)
			require.NoError(t, err)

			assert.Equal(t, tt.want, drain(t, it))
		})
	}
}

func TestNewIteratorErrors(t *testing.T) {
	t.Run("NoQueries", func(t *testing.T) {
		_, err := NewIterator(nil, scenarioSource(), exclusion.Empty)
		assert.ErrorIs(t, err, ErrNoQueries)

		_, err = NewIterator([][]float32{}, scenarioSource(), exclusion.Empty)
		assert.ErrorIs(t, err, ErrNoQueries)
	})

	t.Run("NilSource", func(t *testing.T) {
		_, err := NewIterator(blendQueries, nil, exclusion.Empty)
		assert.ErrorIs(t, err, ErrNilSource)
	})

	t.Run("NilSoft", func(t *testing.T) {
		_, err := NewIterator(blendQueries, scenarioSource(), nil)
		assert.ErrorIs(t, err, ErrNilExclusions)
	})

	t.Run("ZeroDimension", func(t *testing.T) {
		_, err := NewIterator([][]float32{{}}, scenarioSource(), exclusion.Empty)
		var ide *ErrInvalidDimension
		assert.ErrorAs(t, err, &ide)
	})

	t.Run("QueryMismatch", func(t *testing.T) {
		_, err := NewIterator([][]float32{{1, 0}, {1}}, scenarioSource(), exclusion.Empty)
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 1, dm.Actual)
	})
}

func TestSingleQueryIsDot(t *testing.T) {
	items := catalog.FromSlices(
		[]model.ItemID{1, 2, 3},
		[][]float32{{1, 2, 3}, {-1, 0, 1}, {0.5, 0.5, 0.5}},
	)

	it, err := NewIterator([][]float32{{4, 5, 6}}, items, exclusion.Empty)
	require.NoError(t, err)

	assert.Equal(t, []model.Candidate{
		{ID: 1, Score: 32},
		{ID: 2, Score: 2},
		{ID: 3, Score: 7.5},
	}, drain(t, it))
}

func TestRescorerAdjustsMeanScore(t *testing.T) {
	var seen []float64
	r := rescore.Funcs{Adjust: func(_ model.ItemID, s float64) float64 {
		seen = append(seen, s)
		return s * 10
	}}

	it, err := NewIterator(blendQueries, scenarioSource(), exclusion.Empty, WithRescorer(r))
	require.NoError(t, err)

	assert.Equal(t, []model.Candidate{{ID: 10, Score: 20}, {ID: 20, Score: 25}}, drain(t, it))
	assert.Equal(t, []float64{2, 2.5}, seen)
}

func TestRescorerOverflowIsSkipped(t *testing.T) {
	// Finite as float64 but infinite once narrowed to float32.
	r := rescore.Funcs{Adjust: func(id model.ItemID, s float64) float64 {
		if id == 20 {
			return math.MaxFloat64
		}
		return s
	}}

	it, err := NewIterator(blendQueries, scenarioSource(), exclusion.Empty, WithRescorer(r))
	require.NoError(t, err)

	assert.Equal(t, []model.Candidate{{ID: 10, Score: 2}}, drain(t, it))
	assert.Equal(t, int64(1), it.Stats().NonFinite)
}

func TestExclusionOrder(t *testing.T) {
	var hardCalls, vetoCalls int
	hard := countingSet{set: exclusion.NewIDSet(10, 20), calls: &hardCalls}
	veto := rescore.Funcs{Exclude: func(model.ItemID) bool {
		vetoCalls++
		return true
	}}

	it, err := NewIterator(blendQueries, scenarioSource(), exclusion.NewIDSet(10),
		WithHardExclusions(hard), WithRescorer(veto))
	require.NoError(t, err)

	assert.Empty(t, drain(t, it))
	assert.Equal(t, 1, hardCalls, "soft match must short-circuit the hard check")
	assert.Equal(t, 0, vetoCalls, "hard match must short-circuit the rescorer")

	stats := it.Stats()
	assert.Equal(t, ScanStats{Scanned: 2, SoftExcluded: 1, HardExcluded: 1}, stats)
	assert.Equal(t, int64(2), stats.Skipped())
}

type countingSet struct {
	set   exclusion.Set
	calls *int
}

func (c countingSet) Contains(id model.ItemID) bool {
	*c.calls++
	return c.set.Contains(id)
}

func TestAdvance(t *testing.T) {
	it, err := NewIterator(blendQueries, scenarioSource(), exclusion.NewIDSet(10))
	require.NoError(t, err)

	o, err := it.Advance()
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkip, o)

	o, err = it.Advance()
	require.NoError(t, err)
	assert.Equal(t, OutcomeValue, o)
	assert.Equal(t, model.Candidate{ID: 20, Score: 2.5}, it.Candidate())

	o, err = it.Advance()
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnd, o)

	// End is sticky.
	o, err = it.Advance()
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnd, o)
	assert.False(t, it.Next())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "End", OutcomeEnd.String())
	assert.Equal(t, "Skip", OutcomeSkip.String())
	assert.Equal(t, "Value", OutcomeValue.String())
	assert.Equal(t, "Unknown(9)", Outcome(9).String())
}

func TestNonFiniteScoreIsFatal(t *testing.T) {
	items := catalog.FromSlices(
		[]model.ItemID{1, 2, 3},
		[][]float32{{1, 1}, {float32(math.NaN()), 0}, {2, 2}},
	)
	metrics := &BasicMetricsCollector{}

	it, err := NewIterator([][]float32{{1, 1}}, items, exclusion.Empty, WithMetricsCollector(metrics))
	require.NoError(t, err)

	require.True(t, it.Next())
	assert.Equal(t, model.Candidate{ID: 1, Score: 2}, it.Candidate())

	assert.False(t, it.Next())
	err = it.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScore)

	var nf *ErrNonFiniteScore
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, model.ItemID(2), nf.ID)

	// Item 3 is never reached and the error persists.
	o, err := it.Advance()
	assert.Equal(t, OutcomeEnd, o)
	assert.ErrorIs(t, err, ErrInvalidScore)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.ScanCount)
	assert.Equal(t, int64(1), stats.ScanErrors)
}

func TestOverflowWithoutRescorerIsFatal(t *testing.T) {
	items := catalog.FromSlices([]model.ItemID{1}, [][]float32{{math.MaxFloat32}})

	it, err := NewIterator([][]float32{{math.MaxFloat32}}, items, exclusion.Empty)
	require.NoError(t, err)

	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrInvalidScore)
}

func TestItemDimensionMismatchIsFatal(t *testing.T) {
	items := catalog.FromSlices([]model.ItemID{1, 2}, [][]float32{{1, 1}, {1}})

	it, err := NewIterator(blendQueries, items, exclusion.Empty)
	require.NoError(t, err)

	require.True(t, it.Next())
	assert.False(t, it.Next())

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, it.Err(), &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 1, dm.Actual)
	assert.Contains(t, it.Err().Error(), "item 2")
}

func TestExcludedMismatchIsNotChecked(t *testing.T) {
	items := catalog.FromSlices([]model.ItemID{1, 2}, [][]float32{{1}, {1, 1}})

	it, err := NewIterator(blendQueries, items, exclusion.NewIDSet(1))
	require.NoError(t, err)

	assert.Equal(t, []model.Candidate{{ID: 2, Score: 1}}, drain(t, it))
}

func TestRemove(t *testing.T) {
	it, err := NewIterator(blendQueries, scenarioSource(), exclusion.Empty)
	require.NoError(t, err)

	assert.ErrorIs(t, it.Remove(), errors.ErrUnsupported)
	require.True(t, it.Next())
	assert.ErrorIs(t, it.Remove(), ErrRemoveUnsupported)
	drain(t, it)
	assert.ErrorIs(t, it.Remove(), errors.ErrUnsupported)
}

func TestStop(t *testing.T) {
	pulled := 0
	src := func(yield func(model.ItemID, []float32) bool) {
		for i := 0; i < 100; i++ {
			pulled++
			if !yield(model.ItemID(i), []float32{1, 1}) {
				return
			}
		}
	}

	it, err := NewIterator(blendQueries, src, exclusion.Empty)
	require.NoError(t, err)

	require.True(t, it.Next())
	require.True(t, it.Next())
	it.Stop()
	it.Stop()

	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
	assert.Equal(t, 2, pulled)
}

func TestAll(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		it, err := NewIterator(blendQueries, scenarioSource(), exclusion.Empty)
		require.NoError(t, err)

		var got []model.Candidate
		for c, err := range it.All() {
			require.NoError(t, err)
			got = append(got, c)
		}
		assert.Equal(t, []model.Candidate{{ID: 10, Score: 2.0}, {ID: 20, Score: 2.5}}, got)
	})

	t.Run("Break", func(t *testing.T) {
		it, err := NewIterator(blendQueries, scenarioSource(), exclusion.Empty)
		require.NoError(t, err)

		for range it.All() {
			break
		}
		assert.False(t, it.Next())
		assert.Equal(t, int64(1), it.Stats().Scanned)
	})

	t.Run("Error", func(t *testing.T) {
		items := catalog.FromSlices([]model.ItemID{1}, [][]float32{{float32(math.Inf(1)), 0}})
		it, err := NewIterator(blendQueries, items, exclusion.Empty)
		require.NoError(t, err)

		var errs []error
		for _, err := range it.All() {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrInvalidScore)
	})
}

func TestSequenceEndsAtCatalogExhaustion(t *testing.T) {
	const n = 1000

	ids := make([]model.ItemID, n)
	vecs := make([][]float32, n)
	soft := exclusion.NewIDSet()
	for i := range n {
		ids[i] = model.ItemID(i)
		vecs[i] = []float32{float32(i), 1}
		if i%3 == 0 {
			soft.Add(model.ItemID(i))
		}
	}

	it, err := NewIterator(blendQueries, catalog.FromSlices(ids, vecs), soft)
	require.NoError(t, err)

	got := drain(t, it)
	assert.LessOrEqual(t, len(got), n)
	for _, c := range got {
		assert.False(t, soft.Contains(c.ID))
	}

	stats := it.Stats()
	assert.Equal(t, int64(n), stats.Scanned)
	assert.Equal(t, int64(len(got)), stats.Emitted)
	assert.Equal(t, stats.Scanned, stats.Emitted+stats.Skipped())
}

func TestSharedHardSetConcurrentMutation(t *testing.T) {
	m, err := catalog.NewMatrix(2)
	require.NoError(t, err)
	for i := 1; i <= 2000; i++ {
		require.NoError(t, m.Set(model.ItemID(i), []float32{1, float32(i)}))
	}

	known := exclusion.NewSharedSet()
	for i := 1; i <= 2000; i += 2 {
		known.Add(model.ItemID(i))
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Writers touch only IDs above the catalog range, so odd IDs stay known.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := model.ItemID(5000); ; i++ {
			select {
			case <-stop:
				return
			default:
				known.Add(i)
				known.Remove(i - 1)
			}
		}
	}()

	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			it, err := NewIterator([][]float32{{1, 0}}, m.Source(), exclusion.Empty, WithHardExclusions(known))
			if !assert.NoError(t, err) {
				return
			}
			n := 0
			for it.Next() {
				assert.Equal(t, model.ItemID(0), it.Candidate().ID%2, "known item emitted")
				n++
			}
			assert.NoError(t, it.Err())
			assert.Equal(t, 1000, n)
		}()
	}

	readers.Wait()
	close(stop)
	wg.Wait()
}

func TestHardSnapshot(t *testing.T) {
	known := exclusion.NewSharedSet(10)

	pulls := 0
	src := func(yield func(model.ItemID, []float32) bool) {
		for i, id := range scenarioIDs {
			pulls++
			if pulls == 1 {
				// Mutate the shared set after the iterator was created.
				known.Add(20)
				known.Remove(10)
			}
			if !yield(id, scenarioVecs[i]) {
				return
			}
		}
	}

	it, err := NewIterator(blendQueries, src, exclusion.Empty,
		WithHardExclusions(known), WithHardSnapshot())
	require.NoError(t, err)

	assert.Equal(t, []model.Candidate{{ID: 20, Score: 2.5}}, drain(t, it))
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	it, err := NewIterator(blendQueries, scenarioSource(), exclusion.NewIDSet(10), WithLogger(logger))
	require.NoError(t, err)
	drain(t, it)

	out := buf.String()
	assert.Contains(t, out, "scan completed")
	assert.Contains(t, out, "scanned=2")
	assert.Contains(t, out, "emitted=1")
	assert.Contains(t, out, "skipped=1")
	assert.Contains(t, out, "queries=2")
	assert.Contains(t, out, "dimension=2")
}

func TestNilOptions(t *testing.T) {
	it, err := NewIterator(blendQueries, scenarioSource(), exclusion.Empty,
		WithLogger(nil), WithMetricsCollector(nil), WithRescorer(nil), WithHardExclusions(nil))
	require.NoError(t, err)

	assert.Len(t, drain(t, it), 2)
}

func TestCandidateIsCopied(t *testing.T) {
	it, err := NewIterator(blendQueries, scenarioSource(), exclusion.Empty)
	require.NoError(t, err)

	require.True(t, it.Next())
	first := it.Candidate()
	require.True(t, it.Next())

	assert.Equal(t, model.Candidate{ID: 10, Score: 2}, first)
}

func BenchmarkIterator(b *testing.B) {
	m, err := catalog.NewMatrix(64)
	require.NoError(b, err)
	vec := make([]float32, 64)
	for i := range vec {
		vec[i] = 0.01 * float32(i)
	}
	for i := 0; i < 10000; i++ {
		require.NoError(b, m.Set(model.ItemID(i), vec))
	}
	queries := [][]float32{vec, vec}
	known := exclusion.NewSharedSet(1, 2, 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it, _ := NewIterator(queries, m.Source(), exclusion.Empty, WithHardExclusions(known))
		for it.Next() {
		}
	}
}
