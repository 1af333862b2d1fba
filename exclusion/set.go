package exclusion

import (
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/factorec/model"
)

// Set is the membership capability consulted by a scoring pass.
type Set interface {
	// Contains reports whether id is excluded.
	Contains(id model.ItemID) bool
}

// Empty is a Set that contains nothing.
var Empty Set = emptySet{}

type emptySet struct{}

func (emptySet) Contains(model.ItemID) bool { return false }

// Compile time checks.
var (
	_ Set = (*IDSet)(nil)
	_ Set = (*SharedSet)(nil)
)

// IDSet is a 64-bit Roaring bitmap of item IDs.
// It is not safe for concurrent mutation.
type IDSet struct {
	rb *roaring64.Bitmap
}

// NewIDSet creates a set holding ids.
func NewIDSet(ids ...model.ItemID) *IDSet {
	s := &IDSet{rb: roaring64.New()}
	for _, id := range ids {
		s.rb.Add(uint64(id))
	}
	return s
}

// Add adds id to the set.
func (s *IDSet) Add(id model.ItemID) {
	s.rb.Add(uint64(id))
}

// Remove removes id from the set.
func (s *IDSet) Remove(id model.ItemID) {
	s.rb.Remove(uint64(id))
}

// Contains checks if id is in the set.
func (s *IDSet) Contains(id model.ItemID) bool {
	return s.rb.Contains(uint64(id))
}

// IsEmpty returns true if the set is empty.
func (s *IDSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of IDs in the set.
func (s *IDSet) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// Clone returns a deep copy of the set.
func (s *IDSet) Clone() *IDSet {
	return &IDSet{rb: s.rb.Clone()}
}

// Or adds every ID of other to the set.
func (s *IDSet) Or(other *IDSet) {
	s.rb.Or(other.rb)
}

// All returns an iterator over the set in ascending ID order.
func (s *IDSet) All() iter.Seq[model.ItemID] {
	return func(yield func(model.ItemID) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(model.ItemID(it.Next())) {
				return
			}
		}
	}
}

// SharedSet is an IDSet that may be read and written by concurrent scoring
// runs. Every method holds the lock only for its own duration, so a
// membership test never serializes the caller's surrounding work.
type SharedSet struct {
	mu  sync.RWMutex
	set *IDSet
}

// NewSharedSet creates a shared set holding ids.
func NewSharedSet(ids ...model.ItemID) *SharedSet {
	return &SharedSet{set: NewIDSet(ids...)}
}

// Add adds id to the set.
func (s *SharedSet) Add(id model.ItemID) {
	s.mu.Lock()
	s.set.Add(id)
	s.mu.Unlock()
}

// Remove removes id from the set.
func (s *SharedSet) Remove(id model.ItemID) {
	s.mu.Lock()
	s.set.Remove(id)
	s.mu.Unlock()
}

// Contains checks if id is in the set.
func (s *SharedSet) Contains(id model.ItemID) bool {
	s.mu.RLock()
	ok := s.set.Contains(id)
	s.mu.RUnlock()
	return ok
}

// Cardinality returns the number of IDs in the set.
func (s *SharedSet) Cardinality() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Cardinality()
}

// Snapshot returns an immutable point-in-time copy of the set.
// Later writes to s are not visible through the snapshot.
func (s *SharedSet) Snapshot() *IDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Clone()
}
