package catalog

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/hupe1980/factorec/model"
)

// Source is a single-pass sequence of catalog entries.
type Source = iter.Seq2[model.ItemID, []float32]

var (
	// ErrInvalidDimension is returned when a catalog is created with a
	// non-positive dimension.
	ErrInvalidDimension = errors.New("catalog: dimension must be positive")
	// ErrDimensionMismatch is returned when a vector does not match the
	// catalog dimension.
	ErrDimensionMismatch = errors.New("catalog: dimension mismatch")
)

// FromMap returns a Source over m. Iteration order is unspecified.
func FromMap(m map[model.ItemID][]float32) Source {
	return func(yield func(model.ItemID, []float32) bool) {
		for id, v := range m {
			if !yield(id, v) {
				return
			}
		}
	}
}

// FromSlices returns a Source yielding ids[i] with vectors[i], in order.
// Extra elements of the longer slice are ignored.
func FromSlices(ids []model.ItemID, vectors [][]float32) Source {
	n := min(len(ids), len(vectors))
	return func(yield func(model.ItemID, []float32) bool) {
		for i := 0; i < n; i++ {
			if !yield(ids[i], vectors[i]) {
				return
			}
		}
	}
}

// Matrix is an in-memory item factor matrix keyed by item ID.
// It is safe for concurrent use.
type Matrix struct {
	mu      sync.RWMutex
	dim     int
	vectors map[model.ItemID][]float32
}

// NewMatrix creates an empty matrix of vectors with dimension dim.
func NewMatrix(dim int) (*Matrix, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	return &Matrix{
		dim:     dim,
		vectors: make(map[model.ItemID][]float32),
	}, nil
}

// Dimension returns the vector dimension.
func (m *Matrix) Dimension() int {
	return m.dim
}

// Len returns the number of items.
func (m *Matrix) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Set stores a copy of vec for id, replacing any previous vector.
func (m *Matrix) Set(id model.ItemID, vec []float32) error {
	if len(vec) != m.dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.dim, len(vec))
	}

	v := slices.Clone(vec)

	m.mu.Lock()
	m.vectors[id] = v
	m.mu.Unlock()
	return nil
}

// Get returns the vector stored for id. The returned slice must not be
// modified.
func (m *Matrix) Get(id model.ItemID) ([]float32, bool) {
	m.mu.RLock()
	v, ok := m.vectors[id]
	m.mu.RUnlock()
	return v, ok
}

// Remove deletes id. It reports whether id was present.
func (m *Matrix) Remove(id model.ItemID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vectors[id]; !ok {
		return false
	}
	delete(m.vectors, id)
	return true
}

// Source returns a Source over all items.
//
// The key set is captured when iteration starts. Each vector is read under
// the lock as it is reached: items removed mid-scan are skipped and items
// replaced mid-scan yield their newest vector. Items added mid-scan are not
// visited.
func (m *Matrix) Source() Source {
	return func(yield func(model.ItemID, []float32) bool) {
		m.scan(m.keys(), yield)
	}
}

// Partitions splits the items into n sources of near-equal size by
// round-robin over a key snapshot taken now. n < 1 is treated as 1.
// Every item appears in exactly one partition.
func (m *Matrix) Partitions(n int) []Source {
	if n < 1 {
		n = 1
	}

	keys := m.keys()
	parts := make([][]model.ItemID, n)
	for i, id := range keys {
		parts[i%n] = append(parts[i%n], id)
	}

	sources := make([]Source, n)
	for i := range parts {
		part := parts[i]
		sources[i] = func(yield func(model.ItemID, []float32) bool) {
			m.scan(part, yield)
		}
	}
	return sources
}

func (m *Matrix) keys() []model.ItemID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Collect(maps.Keys(m.vectors))
}

func (m *Matrix) scan(keys []model.ItemID, yield func(model.ItemID, []float32) bool) {
	for _, id := range keys {
		v, ok := m.Get(id)
		if !ok {
			continue
		}
		if !yield(id, v) {
			return
		}
	}
}
