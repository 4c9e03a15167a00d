// Package allocate converts percentage-weighted segment definitions into
// absolute participant counts.
package allocate

import "math"

// percentageEpsilon absorbs binary-representation noise when checking that
// percentages sum to 100.
const percentageEpsilon = 1e-9

// Segment is a named share of a total, expressed as a percentage in [0,100].
type Segment struct {
	Name       string
	Percentage float64
}

// Counts maps a total and an ordered list of percentage-weighted segments to
// per-segment integer counts.
//
// Each segment starts at floor(total * percentage / 100). When the
// percentages sum to exactly 100 the rounding remainder is handed out one
// unit at a time in segment order, so the counts always sum to the total.
// When they do not sum to 100 the floored counts are returned as-is and no
// total is guaranteed.
func Counts(total int, segments []Segment) []int {
	counts := make([]int, len(segments))
	if total <= 0 || len(segments) == 0 {
		return counts
	}

	percentageSum := 0.0
	allocated := 0
	for i, segment := range segments {
		percentageSum += segment.Percentage
		counts[i] = int(math.Floor(float64(total) * segment.Percentage / 100.0))
		allocated += counts[i]
	}

	if math.Abs(percentageSum-100) > percentageEpsilon {
		return counts
	}

	remainder := total - allocated
	for i := 0; remainder > 0; i = (i + 1) % len(counts) {
		counts[i]++
		remainder--
	}
	return counts
}
