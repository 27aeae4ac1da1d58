package kll

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySketch is returned by queries that are undefined for an
	// empty sketch (quantile, rank, PMF, CDF, min, max).
	ErrEmptySketch = errors.New("operation is undefined for an empty sketch")

	// ErrInvalidSplits is returned when PMF/CDF split points are not
	// unique, monotonically increasing and NaN-free.
	ErrInvalidSplits = errors.New("split points must be unique, monotonically increasing and not NaN")
)

// ErrInvalidK indicates an accuracy parameter outside [MinK, MaxK].
type ErrInvalidK struct {
	K uint16
}

func (e *ErrInvalidK) Error() string {
	return fmt.Sprintf("k must be >= %d and <= %d: %d", MinK, MaxK, e.K)
}

// ErrInvalidRank indicates a normalized rank outside [0, 1].
type ErrInvalidRank struct {
	Rank float64
}

func (e *ErrInvalidRank) Error() string {
	return fmt.Sprintf("normalized rank must be in [0, 1]: %g", e.Rank)
}
