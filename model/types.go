package model

import (
	"fmt"
)

// ItemID is the user-facing stable identifier of a catalog item.
type ItemID uint64

// Candidate represents an item scored during a scoring pass.
type Candidate struct {
	// ID identifies the scored item.
	ID ItemID
	// Score is the final (possibly rescored) estimate. Always finite.
	Score float32
}

// String returns a string representation of the Candidate.
func (c Candidate) String() string {
	return fmt.Sprintf("Candidate(%d:%g)", c.ID, c.Score)
}
