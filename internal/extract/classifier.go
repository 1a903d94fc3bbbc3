package extract

import (
	"strings"

	"fintrack/internal/core"
)

// Classify scores every category against the text and returns the best match.
//
// A category's score is the number of its keywords present as case-insensitive
// substrings of the text; each keyword contributes at most 1 regardless of how
// often it occurs. Tie-break rule: when several categories share the maximum
// nonzero score, the first one in catalog snapshot order wins. A zero maximum
// score, or an empty catalog, yields the miscellaneous sentinel.
func Classify(text string, categories []core.Category) string {
	lower := strings.ToLower(text)

	best := core.MiscellaneousCategory
	bestScore := 0
	for _, cat := range categories {
		score := 0
		for _, kw := range cat.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				score++
			}
		}
		// Strict comparison keeps the first max-scoring category.
		if score > bestScore {
			bestScore = score
			best = cat.Name
		}
	}

	return best
}
