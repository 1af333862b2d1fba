// Package rescore defines the pluggable business-rule hook applied to raw
// scores during a scoring pass.
//
// A Rescorer may veto an item before it is scored (IsExcluded) or adjust its
// raw score (Rescore). Returning a non-finite value from Rescore also removes
// the item from the results.
package rescore

import (
	"math"

	"github.com/hupe1980/factorec/exclusion"
	"github.com/hupe1980/factorec/model"
)

// Rescorer adjusts or vetoes raw scores.
type Rescorer interface {
	// IsExcluded reports whether id must not be scored at all.
	IsExcluded(id model.ItemID) bool
	// Rescore returns the adjusted score for id. A NaN or infinite result
	// excludes the item.
	Rescore(id model.ItemID, score float64) float64
}

// Funcs adapts plain functions to a Rescorer. Nil fields leave the item
// untouched.
type Funcs struct {
	Exclude func(id model.ItemID) bool
	Adjust  func(id model.ItemID, score float64) float64
}

// IsExcluded implements Rescorer.
func (f Funcs) IsExcluded(id model.ItemID) bool {
	return f.Exclude != nil && f.Exclude(id)
}

// Rescore implements Rescorer.
func (f Funcs) Rescore(id model.ItemID, score float64) float64 {
	if f.Adjust == nil {
		return score
	}
	return f.Adjust(id, score)
}

// Chain applies rescorers in order. An item is excluded if any rescorer
// excludes it. Scores flow through each Rescore in turn and stop at the
// first non-finite result.
type Chain []Rescorer

// IsExcluded implements Rescorer.
func (c Chain) IsExcluded(id model.ItemID) bool {
	for _, r := range c {
		if r.IsExcluded(id) {
			return true
		}
	}
	return false
}

// Rescore implements Rescorer.
func (c Chain) Rescore(id model.ItemID, score float64) float64 {
	for _, r := range c {
		score = r.Rescore(id, score)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return score
		}
	}
	return score
}

// ExcludeIDs returns a Rescorer that vetoes every item in set and leaves
// scores unchanged.
func ExcludeIDs(set exclusion.Set) Rescorer {
	return Funcs{Exclude: set.Contains}
}

// Scale returns a Rescorer that multiplies the score of each item found in
// factors by its factor. Other items are unchanged.
func Scale(factors map[model.ItemID]float64) Rescorer {
	return Funcs{Adjust: func(id model.ItemID, score float64) float64 {
		if f, ok := factors[id]; ok {
			return score * f
		}
		return score
	}}
}
