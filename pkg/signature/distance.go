package signature

import "math"

// NormalizedDistance returns the euclidean distance between two signatures
// normalized by the sum of their norms, yielding a value in [0, 1].
// Two all-zero signatures are considered identical.
func NormalizedDistance(a, b Signature) float64 {
	var diffNorm, aNorm, bNorm float64
	for i := range a {
		av := float64(a[i])
		var bv float64
		if i < len(b) {
			bv = float64(b[i])
		}
		d := av - bv
		diffNorm += d * d
		aNorm += av * av
		bNorm += bv * bv
	}
	for i := len(a); i < len(b); i++ {
		bv := float64(b[i])
		diffNorm += bv * bv
		bNorm += bv * bv
	}

	norm := math.Sqrt(aNorm) + math.Sqrt(bNorm)
	if norm == 0 {
		return 0
	}
	return math.Sqrt(diffNorm) / norm
}

// Score converts a normalized distance into the percentage similarity exposed
// by the HTTP API.
func Score(dist float64) float64 {
	return (1 - dist) * 100
}

// CutoffFromScore converts a minimum percentage similarity into a distance cutoff.
func CutoffFromScore(minScore float64) float64 {
	return 1 - minScore/100
}
