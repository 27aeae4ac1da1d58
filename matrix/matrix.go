// Package matrix provides the dense, layout-aware numeric buffers the
// container exchanges with callers: 1-D records, 2-D batches of records
// and 2-D query results.
package matrix

import (
	"fmt"

	"github.com/hupe1980/kllvec/kll"
)

// Layout describes how a 2-D buffer maps to its backing slice.
type Layout uint8

const (
	// RowMajor stores rows contiguously ("C" order).
	RowMajor Layout = iota
	// ColMajor stores columns contiguously ("F" order).
	ColMajor
	// Unknown means the producer made no contiguity promise; consumers
	// fall back to row-major traversal.
	Unknown
)

func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "C"
	case ColMajor:
		return "F"
	default:
		return "?"
	}
}

// ErrShape indicates a backing slice whose length does not match the
// requested shape.
type ErrShape struct {
	Rows int
	Cols int
	Len  int
}

func (e *ErrShape) Error() string {
	return fmt.Sprintf("backing slice of length %d cannot hold %dx%d values", e.Len, e.Rows, e.Cols)
}

// Dense is a dense 1-D or 2-D numeric buffer. A 1-D Dense is a single
// record of Cols values; a 2-D Dense holds Rows records of Cols values
// laid out per Layout. Results produced by this library are always 2-D
// row-major.
type Dense[T kll.Number] struct {
	rows   int
	cols   int
	ndim   int
	layout Layout
	data   []T
}

// NewVector wraps data as a 1-D Dense without copying.
func NewVector[T kll.Number](data []T) *Dense[T] {
	return &Dense[T]{
		rows:   1,
		cols:   len(data),
		ndim:   1,
		layout: RowMajor,
		data:   data,
	}
}

// NewDense wraps data as a rows x cols 2-D Dense without copying.
func NewDense[T kll.Number](rows, cols int, data []T, layout Layout) (*Dense[T], error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, &ErrShape{Rows: rows, Cols: cols, Len: len(data)}
	}
	return &Dense[T]{
		rows:   rows,
		cols:   cols,
		ndim:   2,
		layout: layout,
		data:   data,
	}, nil
}

// FromRows copies the given rows into a row-major 2-D Dense. All rows
// must have the same length.
func FromRows[T kll.Number](rows [][]T) (*Dense[T], error) {
	if len(rows) == 0 {
		return NewDense[T](0, 0, nil, RowMajor)
	}
	cols := len(rows[0])
	data := make([]T, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return NewDense(len(rows), cols, data, RowMajor)
}

// Zeros returns a zero-filled row-major 2-D Dense.
func Zeros[T kll.Number](rows, cols int) *Dense[T] {
	return &Dense[T]{
		rows:   rows,
		cols:   cols,
		ndim:   2,
		layout: RowMajor,
		data:   make([]T, rows*cols),
	}
}

// NDim returns 1 or 2.
func (d *Dense[T]) NDim() int { return d.ndim }

// Rows returns the number of records. A 1-D Dense has one row.
func (d *Dense[T]) Rows() int { return d.rows }

// Cols returns the extent of the last axis.
func (d *Dense[T]) Cols() int { return d.cols }

// Layout returns the storage order of the backing slice.
func (d *Dense[T]) Layout() Layout { return d.layout }

// At returns the value at row i, column j.
func (d *Dense[T]) At(i, j int) T {
	if d.layout == ColMajor {
		return d.data[j*d.rows+i]
	}
	return d.data[i*d.cols+j]
}

// Set stores v at row i, column j.
func (d *Dense[T]) Set(i, j int, v T) {
	if d.layout == ColMajor {
		d.data[j*d.rows+i] = v
		return
	}
	d.data[i*d.cols+j] = v
}

// Row returns row i. For row-major buffers this is a view into the
// backing slice; for column-major ones it is a fresh copy.
func (d *Dense[T]) Row(i int) []T {
	if d.layout != ColMajor {
		return d.data[i*d.cols : (i+1)*d.cols]
	}
	row := make([]T, d.cols)
	for j := range row {
		row[j] = d.data[j*d.rows+i]
	}
	return row
}

// Values returns the backing slice.
func (d *Dense[T]) Values() []T { return d.data }
