package memory

import (
	"strings"
	"unicode/utf8"
)

// SimilarityThreshold is the score above which two tags are considered
// near-duplicates.
const SimilarityThreshold = 0.6

// Distance returns the Levenshtein distance between a and b, counted in runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	// matrix[i][j] is the distance between rb[:i] and ra[:j].
	matrix := make([][]int, len(rb)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(ra)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(rb); i++ {
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				matrix[i][j] = matrix[i-1][j-1]
				continue
			}
			matrix[i][j] = 1 + min(
				matrix[i-1][j-1],
				matrix[i][j-1],
				matrix[i-1][j],
			)
		}
	}

	return matrix[len(rb)][len(ra)]
}

// Similarity returns a score in [0, 1] derived from the edit distance
// relative to the longer string. Two empty strings score 0.
func Similarity(x, y string) float64 {
	longer, shorter := x, y
	if utf8.RuneCountInString(y) > utf8.RuneCountInString(x) {
		longer, shorter = y, x
	}

	n := utf8.RuneCountInString(longer)
	if n == 0 {
		return 0
	}
	return float64(n-Distance(longer, shorter)) / float64(n)
}

// SimilarTags reports whether an existing tag should be offered in place of
// a proposed one: either contains the other, or their similarity exceeds
// SimilarityThreshold.
func SimilarTags(existing, proposed string) bool {
	return strings.Contains(existing, proposed) ||
		strings.Contains(proposed, existing) ||
		Similarity(existing, proposed) > SimilarityThreshold
}
