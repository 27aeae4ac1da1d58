package kllvec

// Selector identifies which channels a bulk operation applies to.
//
// The zero value selects all channels. Construct explicit selectors with
// All, One or Many, or with FromInts when translating the integer-array
// convention used by array-oriented callers: a single -1 means all
// channels, a single non-negative value selects one channel, and a
// longer list selects each listed channel in order, duplicates included.
type Selector struct {
	indices []int
	one     int
	kind    selectorKind
}

type selectorKind uint8

const (
	selectAll selectorKind = iota
	selectOne
	selectMany
)

// All selects every channel, in order.
func All() Selector {
	return Selector{kind: selectAll}
}

// One selects a single channel.
func One(i int) Selector {
	return Selector{kind: selectOne, one: i}
}

// Many selects the listed channels in the given order. Duplicates are
// preserved.
func Many(indices ...int) Selector {
	return Selector{kind: selectMany, indices: indices}
}

// FromInts translates the integer-array selector convention: [-1] means
// all channels, [v] selects channel v, and longer lists behave like Many.
func FromInts(isk []int) Selector {
	if len(isk) == 1 {
		if isk[0] == -1 {
			return All()
		}
		return One(isk[0])
	}
	return Many(isk...)
}

// resolve validates the selector against a channel count and returns the
// ordered list of selected indices. Every path bounds-checks, the
// single-channel one included.
func (s Selector) resolve(d int) ([]int, error) {
	switch s.kind {
	case selectAll:
		indices := make([]int, d)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	case selectOne:
		if s.one < 0 || s.one >= d {
			return nil, &ErrChannelOutOfRange{D: d, Index: s.one}
		}
		return []int{s.one}, nil
	default:
		indices := make([]int, 0, len(s.indices))
		for _, idx := range s.indices {
			if idx < 0 || idx >= d {
				return nil, &ErrChannelOutOfRange{D: d, Index: idx}
			}
			indices = append(indices, idx)
		}
		return indices, nil
	}
}
