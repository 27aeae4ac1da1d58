package kll

import (
	"fmt"
	"strings"
)

// ToString returns a human-readable multi-line summary of the sketch.
// printLevels adds a per-level occupancy table, printItems dumps the
// retained items. The summary contains no blank lines, so summaries of
// several sketches can be joined with "\n\n" and split back apart.
func (s *Sketch[T]) ToString(printLevels, printItems bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### KLL sketch summary:\n")
	fmt.Fprintf(&b, "   K              : %d\n", s.k)
	fmt.Fprintf(&b, "   min K          : %d\n", s.minK)
	fmt.Fprintf(&b, "   M              : %d\n", MinK)
	fmt.Fprintf(&b, "   N              : %d\n", s.n)
	fmt.Fprintf(&b, "   Epsilon        : %.3f%%\n", NormalizedRankError(s.minK, false)*100)
	fmt.Fprintf(&b, "   Epsilon PMF    : %.3f%%\n", NormalizedRankError(s.minK, true)*100)
	fmt.Fprintf(&b, "   Empty          : %t\n", s.IsEmpty())
	fmt.Fprintf(&b, "   Estimation mode: %t\n", s.IsEstimationMode())
	fmt.Fprintf(&b, "   Levels         : %d\n", len(s.levels))
	fmt.Fprintf(&b, "   Retained items : %d\n", s.GetNumRetained())
	if !s.IsEmpty() {
		fmt.Fprintf(&b, "   Min item       : %v\n", s.minItem)
		fmt.Fprintf(&b, "   Max item       : %v\n", s.maxItem)
	}
	if printLevels {
		fmt.Fprintf(&b, "### KLL sketch levels:\n")
		fmt.Fprintf(&b, "   level, capacity, items\n")
		for l, level := range s.levels {
			fmt.Fprintf(&b, "   %5d %9d %6d\n", l, s.levelCapacity(l), len(level))
		}
	}
	if printItems {
		fmt.Fprintf(&b, "### KLL sketch data:\n")
		for l, level := range s.levels {
			fmt.Fprintf(&b, "   level %d: %v\n", l, level)
		}
	}
	fmt.Fprintf(&b, "### End sketch summary")
	return b.String()
}

// String implements fmt.Stringer.
func (s *Sketch[T]) String() string {
	return s.ToString(false, false)
}
