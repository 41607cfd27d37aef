package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, 1.0, percentile(sorted, 0))
	assert.Equal(t, 3.0, percentile(sorted, 50))
	assert.Equal(t, 5.0, percentile(sorted, 100))
	assert.Equal(t, 2.0, percentile(sorted, 25))
}

func TestPercentileInterpolates(t *testing.T) {
	sorted := []float64{0, 10}
	assert.Equal(t, 5.0, percentile(sorted, 50))
	assert.Equal(t, 2.5, percentile(sorted, 25))
}

func TestPercentileEmptyAndSingle(t *testing.T) {
	assert.Equal(t, 0.0, percentile(nil, 50))
	assert.Equal(t, 7.0, percentile([]float64{7}, 50))
}

func TestPercentileUnsorted(t *testing.T) {
	assert.Equal(t, 3.0, percentileUnsorted([]float64{5, 1, 3, 2, 4}, 50))
}

func TestSearchSorted(t *testing.T) {
	sorted := []float64{1, 2, 2, 3}

	assert.Equal(t, 1, searchSortedLeft(sorted, 2))
	assert.Equal(t, 3, searchSortedRight(sorted, 2))
	assert.Equal(t, 0, searchSortedLeft(sorted, 0))
	assert.Equal(t, 4, searchSortedRight(sorted, 9))
}

func TestNormalizedDistanceBounds(t *testing.T) {
	a := Signature{1, 0, -1, 2}
	b := Signature{-1, 0, 1, -2}

	assert.Equal(t, 0.0, NormalizedDistance(a, a))
	assert.Equal(t, 1.0, NormalizedDistance(a, b))
	assert.Equal(t, 0.0, NormalizedDistance(Signature{0, 0}, Signature{0, 0}))
}

func TestScoreConversions(t *testing.T) {
	assert.Equal(t, 100.0, Score(0))
	assert.Equal(t, 55.0, Score(0.45))
	assert.InDelta(t, 0.45, CutoffFromScore(55), 1e-9)
	assert.InDelta(t, 0.1, CutoffFromScore(90), 1e-9)
}
