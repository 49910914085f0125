package usecase

import (
	"strings"

	"github.com/cropadvisor/backend/internal/domain"
)

// maxSuggestionDistance is the largest edit distance still offered as a suggestion
const maxSuggestionDistance = 2

// SuggestCrop returns the canonical crop name closest to name, for hinting when
// a caller's crop is not recognized. Lookups stay exact; this is never used to
// resolve a profile. The boolean is false when nothing is close enough.
func SuggestCrop(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}

	best, bestDistance := "", maxSuggestionDistance+1
	for _, crop := range domain.CropNames() {
		candidate := strings.ToLower(crop)
		if candidate == needle {
			return crop, true
		}

		lenDiff := len(candidate) - len(needle)
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > maxSuggestionDistance {
			continue
		}

		if d := levenshteinDistance(needle, candidate); d < bestDistance {
			best, bestDistance = crop, d
		}
	}
	return best, best != ""
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
