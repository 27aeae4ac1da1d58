package kllvec

import (
	"context"
	"strings"

	"github.com/hupe1980/kllvec/kll"
	"github.com/hupe1980/kllvec/matrix"
)

const (
	// DefaultK is the default accuracy parameter of the underlying
	// KLL sketches.
	DefaultK = kll.DefaultK

	// DefaultD is the default channel count.
	DefaultD = 1
)

// VectorOfKLL holds d independent KLL sketches, one per channel of a
// stream of d-dimensional numeric records, and answers approximate
// quantile queries across all of them.
//
// k and d are fixed for the container's lifetime. The container owns its
// sketches exclusively; no operation adds, removes or reorders them.
// A container is not safe for concurrent mutation, but distinct
// containers are fully independent.
type VectorOfKLL[T kll.Number] struct {
	k        uint16
	d        int
	sketches []*kll.Sketch[T]
	logger   *Logger
}

// New creates a container of d empty sketches with accuracy parameter k.
// d must be at least 1; k is validated by the sketch engine.
func New[T kll.Number](k uint16, d int, optFns ...Option) (*VectorOfKLL[T], error) {
	if d < 1 {
		return nil, &ErrInvalidChannels{D: d}
	}

	opts := options{
		logger: NoopLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	sketches := make([]*kll.Sketch[T], d)
	for i := range sketches {
		s, err := kll.New[T](k)
		if err != nil {
			return nil, err
		}
		sketches[i] = s
	}

	return &VectorOfKLL[T]{
		k:        k,
		d:        d,
		sketches: sketches,
		logger:   opts.logger.WithK(k).WithChannels(d),
	}, nil
}

// K returns the accuracy parameter of the sketches.
func (v *VectorOfKLL[T]) K() uint16 { return v.k }

// D returns the number of channels.
func (v *VectorOfKLL[T]) D() int { return v.d }

// Update feeds a batch of records into the sketches. A 1-D buffer is a
// single record: value i updates channel i. A 2-D buffer holds one
// record per row; its last-axis extent must equal D. Column-major
// buffers are consumed channel by channel so the inner loop walks
// contiguous memory; either storage order feeds every channel the same
// multiset of values.
//
// A buffer that fails shape validation leaves the container unchanged.
func (v *VectorOfKLL[T]) Update(items *matrix.Dense[T]) error {
	if items == nil || items.Cols() != v.d {
		actual := 0
		if items != nil {
			actual = items.Cols()
		}
		err := &ErrShapeMismatch{Expected: v.d, Actual: actual}
		v.logger.LogUpdate(context.Background(), 0, err)
		return err
	}

	if items.NDim() == 1 {
		row := items.Row(0)
		for i, sketch := range v.sketches {
			sketch.Update(row[i])
		}
		v.logger.LogUpdate(context.Background(), 1, nil)
		return nil
	}

	rows := items.Rows()
	if items.Layout() == matrix.ColMajor {
		for j, sketch := range v.sketches {
			for i := 0; i < rows; i++ {
				sketch.Update(items.At(i, j))
			}
		}
	} else {
		for i := 0; i < rows; i++ {
			for j, sketch := range v.sketches {
				sketch.Update(items.At(i, j))
			}
		}
	}
	v.logger.LogUpdate(context.Background(), rows, nil)
	return nil
}

// Merge folds other's sketches into v, channel by channel. Both
// containers must have the same channel count; other is not modified and
// remains usable.
func (v *VectorOfKLL[T]) Merge(other *VectorOfKLL[T]) error {
	if other == nil || other.d != v.d {
		actual := 0
		if other != nil {
			actual = other.d
		}
		err := &ErrDimensionMismatch{Expected: v.d, Actual: actual}
		v.logger.LogMerge(context.Background(), actual, err)
		return err
	}
	for i, sketch := range v.sketches {
		sketch.Merge(other.sketches[i])
	}
	v.logger.LogMerge(context.Background(), v.d, nil)
	return nil
}

// Collapse merges the selected sketches into a single fresh sketch with
// the container's k, in selector order. The result is detached from the
// container.
func (v *VectorOfKLL[T]) Collapse(sel Selector) (*kll.Sketch[T], error) {
	indices, err := sel.resolve(v.d)
	if err != nil {
		return nil, err
	}
	result, err := kll.New[T](v.k)
	if err != nil {
		return nil, err
	}
	for _, idx := range indices {
		result.Merge(v.sketches[idx])
	}
	return result, nil
}

// IsEmpty reports per channel whether the sketch has seen no values.
func (v *VectorOfKLL[T]) IsEmpty() []bool {
	out := make([]bool, v.d)
	for i, sketch := range v.sketches {
		out[i] = sketch.IsEmpty()
	}
	return out
}

// GetN returns the per-channel count of values seen.
func (v *VectorOfKLL[T]) GetN() []uint64 {
	out := make([]uint64, v.d)
	for i, sketch := range v.sketches {
		out[i] = sketch.GetN()
	}
	return out
}

// GetNumRetained returns the per-channel count of retained items.
func (v *VectorOfKLL[T]) GetNumRetained() []uint32 {
	out := make([]uint32, v.d)
	for i, sketch := range v.sketches {
		out[i] = sketch.GetNumRetained()
	}
	return out
}

// IsEstimationMode reports per channel whether the sketch answers
// approximately.
func (v *VectorOfKLL[T]) IsEstimationMode() []bool {
	out := make([]bool, v.d)
	for i, sketch := range v.sketches {
		out[i] = sketch.IsEstimationMode()
	}
	return out
}

// GetMinValues returns the per-channel minimum. It fails if any channel
// is still empty, as the sketch engine defines no minimum for an empty
// sketch.
func (v *VectorOfKLL[T]) GetMinValues() ([]T, error) {
	out := make([]T, v.d)
	for i, sketch := range v.sketches {
		min, err := sketch.GetMinItem()
		if err != nil {
			return nil, err
		}
		out[i] = min
	}
	return out, nil
}

// GetMaxValues returns the per-channel maximum. It fails if any channel
// is still empty.
func (v *VectorOfKLL[T]) GetMaxValues() ([]T, error) {
	out := make([]T, v.d)
	for i, sketch := range v.sketches {
		max, err := sketch.GetMaxItem()
		if err != nil {
			return nil, err
		}
		out[i] = max
	}
	return out, nil
}

// GetQuantiles returns, for each selected channel, the values at the
// given normalized ranks. Row r of the result corresponds to the r-th
// selected channel, column j to ranks[j].
func (v *VectorOfKLL[T]) GetQuantiles(ranks []float64, sel Selector) (*matrix.Dense[T], error) {
	indices, err := sel.resolve(v.d)
	if err != nil {
		return nil, err
	}
	out := matrix.Zeros[T](len(indices), len(ranks))
	for r, idx := range indices {
		for j, rank := range ranks {
			quantile, err := v.sketches[idx].GetQuantile(rank)
			if err != nil {
				return nil, err
			}
			out.Set(r, j, quantile)
		}
	}
	return out, nil
}

// GetRanks returns, for each selected channel, the normalized ranks of
// the given values. Row r corresponds to the r-th selected channel,
// column j to values[j].
func (v *VectorOfKLL[T]) GetRanks(values []T, sel Selector) (*matrix.Dense[float64], error) {
	indices, err := sel.resolve(v.d)
	if err != nil {
		return nil, err
	}
	out := matrix.Zeros[float64](len(indices), len(values))
	for r, idx := range indices {
		for j, value := range values {
			rank, err := v.sketches[idx].GetRank(value)
			if err != nil {
				return nil, err
			}
			out.Set(r, j, rank)
		}
	}
	return out, nil
}

// GetPMF returns, for each selected channel, the probability mass
// between consecutive split points. Each row has len(splits)+1 entries.
func (v *VectorOfKLL[T]) GetPMF(splits []T, sel Selector) (*matrix.Dense[float64], error) {
	return v.distribution(splits, sel, (*kll.Sketch[T]).GetPMF)
}

// GetCDF returns, for each selected channel, the cumulative distribution
// at the split points. Each row has len(splits)+1 entries and ends at 1.
func (v *VectorOfKLL[T]) GetCDF(splits []T, sel Selector) (*matrix.Dense[float64], error) {
	return v.distribution(splits, sel, (*kll.Sketch[T]).GetCDF)
}

func (v *VectorOfKLL[T]) distribution(splits []T, sel Selector, query func(*kll.Sketch[T], []T) ([]float64, error)) (*matrix.Dense[float64], error) {
	indices, err := sel.resolve(v.d)
	if err != nil {
		return nil, err
	}
	out := matrix.Zeros[float64](len(indices), len(splits)+1)
	for r, idx := range indices {
		row, err := query(v.sketches[idx], splits)
		if err != nil {
			return nil, err
		}
		copy(out.Row(r), row)
	}
	return out, nil
}

// ToString concatenates the textual summaries of all sketches in channel
// order, separated by blank lines. Split on "\n\n" to recover the
// per-channel summaries.
func (v *VectorOfKLL[T]) ToString(printLevels, printItems bool) string {
	summaries := make([]string, v.d)
	for i, sketch := range v.sketches {
		summaries[i] = sketch.ToString(printLevels, printItems)
	}
	return strings.Join(summaries, "\n\n")
}

// String implements fmt.Stringer.
func (v *VectorOfKLL[T]) String() string {
	return v.ToString(false, false)
}

// Serialize returns one opaque blob per selected sketch, in selector
// order. Blobs carry no container-level envelope; each one can be fed
// back through Deserialize independently.
func (v *VectorOfKLL[T]) Serialize(sel Selector) ([][]byte, error) {
	indices, err := sel.resolve(v.d)
	if err != nil {
		return nil, err
	}
	blobs := make([][]byte, 0, len(indices))
	for _, idx := range indices {
		blob, err := v.sketches[idx].Serialize()
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, blob)
	}
	return blobs, nil
}

// Deserialize replaces the sketch at channel idx with the one encoded in
// blob. The replacement keeps the k parameter recorded in the blob,
// which may differ from the container's k. The previous sketch is
// discarded.
func (v *VectorOfKLL[T]) Deserialize(blob []byte, idx int) error {
	if idx < 0 || idx >= v.d {
		return &ErrChannelOutOfRange{D: v.d, Index: idx}
	}
	sketch, err := kll.Deserialize[T](blob)
	if err != nil {
		return err
	}
	v.sketches[idx] = sketch
	return nil
}

// NormalizedRankError returns the engine's additive rank-error bound for
// the given accuracy parameter. It does not depend on any container.
func NormalizedRankError(k uint16, asPMF bool) float64 {
	return kll.NormalizedRankError(k, asPMF)
}
