// Package queue provides a bounded selection heap for scored candidates.
package queue

import (
	"container/heap"
	"slices"

	"github.com/hupe1980/factorec/model"
)

// Compile time check to ensure candidateHeap satisfies the heap interface.
var _ heap.Interface = (*candidateHeap)(nil)

// candidateHeap is a min-heap: the root is the weakest retained candidate.
type candidateHeap []model.Candidate

// Len returns the number of elements in the heap.
func (h candidateHeap) Len() int { return len(h) }

// Less orders by ascending score; on ties the larger ID is weaker.
func (h candidateHeap) Less(i, j int) bool { return weaker(h[i], h[j]) }

// Swap swaps the elements with indexes i and j.
func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push adds x to the heap.
func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(model.Candidate))
}

// Pop removes and returns the last element.
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

func weaker(a, b model.Candidate) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.ID > b.ID
}

// TopN retains the n best candidates offered to it.
// The zero value retains nothing. TopN is not safe for concurrent use.
type TopN struct {
	n     int
	items candidateHeap
}

// NewTopN creates a TopN retaining at most n candidates.
func NewTopN(n int) *TopN {
	if n < 0 {
		n = 0
	}
	return &TopN{
		n:     n,
		items: make(candidateHeap, 0, min(n, 1024)),
	}
}

// Cap returns the maximum number of retained candidates.
func (t *TopN) Cap() int { return t.n }

// Len returns the number of retained candidates.
func (t *TopN) Len() int { return len(t.items) }

// Offer considers c and reports whether it was retained.
func (t *TopN) Offer(c model.Candidate) bool {
	if t.n == 0 {
		return false
	}
	if len(t.items) < t.n {
		heap.Push(&t.items, c)
		return true
	}
	if !weaker(t.items[0], c) {
		return false
	}
	t.items[0] = c
	heap.Fix(&t.items, 0)
	return true
}

// Min returns the weakest retained candidate.
// It returns false if nothing is retained.
func (t *TopN) Min() (model.Candidate, bool) {
	if len(t.items) == 0 {
		return model.Candidate{}, false
	}
	return t.items[0], true
}

// Merge offers every candidate retained by other.
func (t *TopN) Merge(other *TopN) {
	for _, c := range other.items {
		t.Offer(c)
	}
}

// Sorted returns the retained candidates ordered best first: by descending
// score, then by ascending ID. The TopN is left unchanged.
func (t *TopN) Sorted() []model.Candidate {
	out := slices.Clone([]model.Candidate(t.items))
	slices.SortFunc(out, func(a, b model.Candidate) int {
		switch {
		case weaker(b, a):
			return -1
		case weaker(a, b):
			return 1
		default:
			return 0
		}
	})
	return out
}
