package kllvec

import "fmt"

// ErrInvalidChannels indicates an invalid channel count at construction.
type ErrInvalidChannels struct {
	D int
}

func (e *ErrInvalidChannels) Error() string {
	return fmt.Sprintf("number of channels must be >= 1: %d", e.D)
}

// ErrShapeMismatch indicates an update buffer whose last axis does not
// match the container's channel count.
type ErrShapeMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("input rows must have %d values, found: %d", e.Expected, e.Actual)
}

// ErrChannelOutOfRange indicates a selector element or deserialize index
// outside [0, d).
type ErrChannelOutOfRange struct {
	D     int
	Index int
}

func (e *ErrChannelOutOfRange) Error() string {
	return fmt.Sprintf("request for invalid channel, must be in [0, %d): %d", e.D, e.Index)
}

// ErrDimensionMismatch indicates a merge between containers of unequal
// channel counts.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("containers must have the same number of channels to merge: %d vs %d", e.Expected, e.Actual)
}
