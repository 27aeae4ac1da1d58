package kll

import (
	"math"
	"slices"
	"sort"
)

// sortedView is the weighted, sorted flattening of all levels, used to
// answer quantile, rank, PMF and CDF queries. Items keep their level
// weight (2^level) as a cumulative weight array; cumWeights[len-1] == n.
type sortedView[T Number] struct {
	items      []T
	cumWeights []uint64
	totalN     uint64
}

type weightedItem[T Number] struct {
	item   T
	weight uint64
}

func (s *Sketch[T]) sortedView() *sortedView[T] {
	if s.view != nil {
		return s.view
	}
	pairs := make([]weightedItem[T], 0, s.GetNumRetained())
	for l, level := range s.levels {
		w := uint64(1) << uint(l)
		for _, item := range level {
			pairs = append(pairs, weightedItem[T]{item: item, weight: w})
		}
	}
	slices.SortFunc(pairs, func(a, b weightedItem[T]) int {
		switch {
		case a.item < b.item:
			return -1
		case a.item > b.item:
			return 1
		default:
			return 0
		}
	})
	view := &sortedView[T]{
		items:      make([]T, len(pairs)),
		cumWeights: make([]uint64, len(pairs)),
	}
	var cum uint64
	for i, p := range pairs {
		cum += p.weight
		view.items[i] = p.item
		view.cumWeights[i] = cum
	}
	view.totalN = cum
	s.view = view
	return view
}

// GetQuantile returns the approximate value at the given normalized rank,
// using inclusive rank semantics: the smallest retained item whose rank
// is at least the requested one. Rank 0 yields the minimum, rank 1 the
// maximum.
func (s *Sketch[T]) GetQuantile(rank float64) (T, error) {
	var zero T
	if s.IsEmpty() {
		return zero, ErrEmptySketch
	}
	if math.IsNaN(rank) || rank < 0 || rank > 1 {
		return zero, &ErrInvalidRank{Rank: rank}
	}
	view := s.sortedView()
	target := uint64(math.Ceil(rank * float64(view.totalN)))
	if target < 1 {
		target = 1
	}
	idx := sort.Search(len(view.cumWeights), func(i int) bool {
		return view.cumWeights[i] >= target
	})
	if idx >= len(view.items) {
		idx = len(view.items) - 1
	}
	return view.items[idx], nil
}

// GetRank returns the approximate normalized rank of v: the fraction of
// the stream that is less than or equal to v.
func (s *Sketch[T]) GetRank(v T) (float64, error) {
	if s.IsEmpty() {
		return 0, ErrEmptySketch
	}
	return s.sortedView().rank(v), nil
}

func (v *sortedView[T]) rank(item T) float64 {
	// First index whose item is greater than the query; everything
	// before it is <= item.
	idx := sort.Search(len(v.items), func(i int) bool {
		return v.items[i] > item
	})
	if idx == 0 {
		return 0
	}
	return float64(v.cumWeights[idx-1]) / float64(v.totalN)
}

// GetCDF returns the cumulative distribution at the given split points.
// The result has len(splits)+1 entries; entry j is the rank of splits[j]
// and the final entry is always 1.
func (s *Sketch[T]) GetCDF(splits []T) ([]float64, error) {
	if s.IsEmpty() {
		return nil, ErrEmptySketch
	}
	if err := validateSplits(splits); err != nil {
		return nil, err
	}
	view := s.sortedView()
	out := make([]float64, len(splits)+1)
	for j, split := range splits {
		out[j] = view.rank(split)
	}
	out[len(splits)] = 1
	return out, nil
}

// GetPMF returns the probability mass between consecutive split points.
// The result has len(splits)+1 entries: mass at or below splits[0], mass
// in each half-open interval, and mass above the last split. Entries sum
// to 1.
func (s *Sketch[T]) GetPMF(splits []T) ([]float64, error) {
	cdf, err := s.GetCDF(splits)
	if err != nil {
		return nil, err
	}
	for j := len(cdf) - 1; j > 0; j-- {
		cdf[j] -= cdf[j-1]
	}
	return cdf, nil
}

func validateSplits[T Number](splits []T) error {
	for j, split := range splits {
		if split != split { // NaN
			return ErrInvalidSplits
		}
		if j > 0 && splits[j-1] >= split {
			return ErrInvalidSplits
		}
	}
	return nil
}
