package kll

import (
	"math"
	"math/rand/v2"
	"slices"
)

// Number is the set of element types a Sketch can summarize.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

const (
	// DefaultK is the default accuracy parameter, yielding a normalized
	// rank error of about 1.65% (PMF) / 1.33% (single rank).
	DefaultK = uint16(200)

	// MinK is the smallest supported accuracy parameter. It doubles as
	// the minimum level width: compaction never shrinks a level below it.
	MinK = uint16(8)

	// MaxK is the largest supported accuracy parameter.
	MaxK = uint16(math.MaxUint16)
)

// Sketch is a KLL quantile sketch over element type T.
//
// Values are kept in a hierarchy of levels; an item at level l represents
// 2^l stream values. Level 0 is an unsorted insert buffer, higher levels
// are sorted. When a level overflows, a randomized compaction keeps every
// other item and promotes the kept half one level up.
type Sketch[T Number] struct {
	k    uint16
	minK uint16 // lowest k this sketch was merged with, governs the error bound
	n    uint64

	// levels[l] holds the items of level l, each with weight 2^l.
	// levels[0] is unsorted, all higher levels are sorted ascending.
	levels [][]T

	minItem T
	maxItem T

	view *sortedView[T] // lazily built, nil after any mutation
}

// New creates an empty sketch with the given accuracy parameter.
func New[T Number](k uint16) (*Sketch[T], error) {
	if k < MinK {
		return nil, &ErrInvalidK{K: k}
	}
	return &Sketch[T]{
		k:      k,
		minK:   k,
		levels: [][]T{make([]T, 0, k)},
	}, nil
}

// K returns the accuracy parameter the sketch was created with.
func (s *Sketch[T]) K() uint16 { return s.k }

// IsEmpty reports whether the sketch has seen no values.
func (s *Sketch[T]) IsEmpty() bool { return s.n == 0 }

// GetN returns the total number of values the sketch has seen.
func (s *Sketch[T]) GetN() uint64 { return s.n }

// GetNumRetained returns the number of items currently retained.
func (s *Sketch[T]) GetNumRetained() uint32 {
	var total uint32
	for _, level := range s.levels {
		total += uint32(len(level))
	}
	return total
}

// IsEstimationMode reports whether the sketch has exceeded its exact
// capacity and answers approximately.
func (s *Sketch[T]) IsEstimationMode() bool { return len(s.levels) > 1 }

// GetMinItem returns the smallest value seen.
func (s *Sketch[T]) GetMinItem() (T, error) {
	var zero T
	if s.IsEmpty() {
		return zero, ErrEmptySketch
	}
	return s.minItem, nil
}

// GetMaxItem returns the largest value seen.
func (s *Sketch[T]) GetMaxItem() (T, error) {
	var zero T
	if s.IsEmpty() {
		return zero, ErrEmptySketch
	}
	return s.maxItem, nil
}

// Update adds a value to the sketch. NaN values are ignored.
func (s *Sketch[T]) Update(v T) {
	if v != v { // NaN, only possible for float element types
		return
	}
	if s.n == 0 {
		s.minItem, s.maxItem = v, v
	} else {
		if v < s.minItem {
			s.minItem = v
		}
		if v > s.maxItem {
			s.maxItem = v
		}
	}
	if len(s.levels[0]) >= s.levelCapacity(0) {
		s.compact(0)
	}
	s.levels[0] = append(s.levels[0], v)
	s.n++
	s.view = nil
}

// Merge folds all items of other into s. The accuracy of the result is
// governed by the smaller of the two k parameters. other is not modified.
func (s *Sketch[T]) Merge(other *Sketch[T]) {
	if other == nil || other.IsEmpty() {
		return
	}
	if s.IsEmpty() {
		s.minItem, s.maxItem = other.minItem, other.maxItem
	} else {
		if other.minItem < s.minItem {
			s.minItem = other.minItem
		}
		if other.maxItem > s.maxItem {
			s.maxItem = other.maxItem
		}
	}
	for len(s.levels) < len(other.levels) {
		s.levels = append(s.levels, nil)
	}
	s.levels[0] = append(s.levels[0], other.levels[0]...)
	for l := 1; l < len(other.levels); l++ {
		s.levels[l] = mergeSorted(s.levels[l], other.levels[l])
	}
	s.n += other.n
	if other.minK < s.minK {
		s.minK = other.minK
	}
	s.compress()
	s.view = nil
}

// NormalizedRankError returns the additive error bound on normalized
// ranks for the given accuracy parameter. The bound holds with 99%
// confidence; the PMF bound is the two-sided variant.
func NormalizedRankError(k uint16, asPMF bool) float64 {
	if asPMF {
		return 2.446 / math.Pow(float64(k), 0.9433)
	}
	return 2.296 / math.Pow(float64(k), 0.9433)
}

// levelCapacity returns how many items level l may hold. The capacity
// shrinks by a factor of 2/3 per level below the top, floored at MinK.
func (s *Sketch[T]) levelCapacity(l int) int {
	depth := len(s.levels) - 1 - l
	c := float64(s.k) * math.Pow(2.0/3.0, float64(depth))
	if c < float64(MinK) {
		return int(MinK)
	}
	return int(c + 0.5)
}

// compact halves level l and promotes the kept items to level l+1.
func (s *Sketch[T]) compact(l int) {
	if l == len(s.levels)-1 {
		s.levels = append(s.levels, nil)
	}
	if len(s.levels[l+1]) >= s.levelCapacity(l + 1) {
		s.compact(l + 1)
	}
	level := s.levels[l]
	if l == 0 {
		slices.Sort(level)
	}
	// Keep the odd- or even-positioned items with equal probability so
	// rank errors stay unbiased across compactions.
	offset := rand.IntN(2)
	promoted := make([]T, 0, (len(level)+1)/2)
	for i := offset; i < len(level); i += 2 {
		promoted = append(promoted, level[i])
	}
	s.levels[l+1] = mergeSorted(s.levels[l+1], promoted)
	s.levels[l] = level[:0]
}

// compress compacts levels until all are within capacity.
func (s *Sketch[T]) compress() {
	for {
		compacted := false
		for l := 0; l < len(s.levels); l++ {
			if len(s.levels[l]) > s.levelCapacity(l) {
				s.compact(l)
				compacted = true
				break
			}
		}
		if !compacted {
			return
		}
	}
}

// mergeSorted merges two ascending slices into a fresh ascending slice.
func mergeSorted[T Number](a, b []T) []T {
	if len(b) == 0 {
		return a
	}
	out := make([]T, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j] < a[i] {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
