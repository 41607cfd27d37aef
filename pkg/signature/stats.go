package signature

import (
	"math"
	"sort"
)

// percentile computes the p-th percentile of an already sorted slice using
// linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// percentileUnsorted sorts a copy of the input before computing the percentile.
func percentileUnsorted(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentile(sorted, p)
}

// searchSortedLeft returns the first index at which v could be inserted in the
// sorted slice while keeping it sorted, before any equal entries.
func searchSortedLeft(sorted []float64, v float64) int {
	return sort.Search(len(sorted), func(i int) bool { return sorted[i] >= v })
}

// searchSortedRight returns the first index at which v could be inserted in the
// sorted slice while keeping it sorted, after any equal entries.
func searchSortedRight(sorted []float64, v float64) int {
	return sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
}
