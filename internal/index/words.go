package index

import "github.com/imagematch/match-api/pkg/signature"

const (
	// WordLength is the number of signature letters packed into one word.
	WordLength = 16
	// WordCount is the number of words extracted per signature.
	WordCount = 63
)

// Words projects a signature onto WordCount overlapping windows of WordLength
// letters, squeezes each letter to its sign and packs the window into a single
// integer. Two images sharing at least one word are close enough to be
// candidates for an exact distance check, which turns the term lookup on word
// fields into a locality sensitive pre-filter.
func Words(sig signature.Signature) []int64 {
	words := make([]int64, WordCount)
	for i := 0; i < WordCount; i++ {
		pos := i * len(sig) / WordCount
		var packed int64
		pow := int64(1)
		for j := 0; j < WordLength; j++ {
			letter := int64(1)
			if pos+j < len(sig) {
				letter += int64(squeeze(sig[pos+j]))
			}
			packed += letter * pow
			pow *= 3
		}
		words[i] = packed
	}
	return words
}

// squeeze collapses a quantized level to its sign.
func squeeze(v int8) int8 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
