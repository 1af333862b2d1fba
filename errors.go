package factorec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/factorec/model"
)

var (
	// ErrNoQueries is returned when an iterator is created without query vectors.
	ErrNoQueries = errors.New("query vectors must not be empty")

	// ErrNilSource is returned when an iterator is created without a catalog source.
	ErrNilSource = errors.New("catalog source must not be nil")

	// ErrNilExclusions is returned when the soft exclusion set is nil.
	// Pass exclusion.Empty to exclude nothing.
	ErrNilExclusions = errors.New("soft exclusion set must not be nil")

	// ErrInvalidN is returned when a top-N selection is requested for n <= 0.
	ErrInvalidN = errors.New("n must be positive")

	// ErrInvalidScore matches every *ErrNonFiniteScore via errors.Is.
	ErrInvalidScore = errors.New("invalid score")

	// ErrRemoveUnsupported is returned by Iterator.Remove.
	ErrRemoveUnsupported = fmt.Errorf("remove: %w", errors.ErrUnsupported)
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
// It is wrapped with the offending query index or item ID.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates a zero-length query vector.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrNonFiniteScore indicates that an item scored NaN or infinity without a
// rescorer involved. It points at a corrupted model or malformed query.
type ErrNonFiniteScore struct {
	ID    model.ItemID
	Score float64
}

func (e *ErrNonFiniteScore) Error() string {
	return fmt.Sprintf("bad recommendation value for item %d: %v", e.ID, e.Score)
}

// Is reports whether target is ErrInvalidScore.
func (e *ErrNonFiniteScore) Is(target error) bool { return target == ErrInvalidScore }
