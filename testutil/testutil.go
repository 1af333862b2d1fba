package testutil

import (
	"cmp"
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/factorec/catalog"
	"github.com/hupe1980/factorec/distance"
	"github.com/hupe1980/factorec/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformRangeVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()*2 - 1
		}
		vectors[i] = vec
	}

	return vectors
}

// GaussianVectors generates random vectors with values from a normal
// distribution scaled by 1/sqrt(dimensions), so dot products stay O(1)
// regardless of dimension, as with trained latent factors.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)
	scale := 1 / math.Sqrt(float64(max(dimensions, 1)))

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64() * scale)
		}
		vectors[i] = vec
	}

	return vectors
}

// Matrix generates an item matrix of num Gaussian vectors with item IDs
// 1..num.
func (r *RNG) Matrix(num, dimensions int) (*catalog.Matrix, error) {
	m, err := catalog.NewMatrix(dimensions)
	if err != nil {
		return nil, err
	}

	for i, vec := range r.GaussianVectors(num, dimensions) {
		if err := m.Set(model.ItemID(i+1), vec); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Sample returns about fraction*num of the IDs 1..num, chosen at random.
func (r *RNG) Sample(num int, fraction float64) []model.ItemID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []model.ItemID
	for i := 1; i <= num; i++ {
		if r.rand.Float64() < fraction {
			ids = append(ids, model.ItemID(i))
		}
	}
	return ids
}

// ExactTopN scores every item of src by brute force and returns the n best,
// ordered by descending score then ascending ID. Items for which excluded
// returns true are skipped; excluded may be nil.
func ExactTopN(src catalog.Source, queries [][]float32, n int, excluded func(model.ItemID) bool) []model.Candidate {
	var all []model.Candidate
	for id, vec := range src {
		if excluded != nil && excluded(id) {
			continue
		}
		all = append(all, model.Candidate{
			ID:    id,
			Score: float32(distance.MeanDot(queries, vec)),
		})
	}

	slices.SortFunc(all, func(a, b model.Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if len(all) > n {
		all = all[:n]
	}
	return all
}

// ComputeRecall computes recall@k by comparing results against ground truth.
func ComputeRecall(groundTruth, results []model.Candidate) float64 {
	if len(groundTruth) == 0 || len(results) == 0 {
		if len(groundTruth) == 0 && len(results) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(results), len(groundTruth))

	truthSet := make(map[model.ItemID]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].ID] = struct{}{}
	}

	hits := 0
	for _, r := range results {
		if _, ok := truthSet[r.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}
