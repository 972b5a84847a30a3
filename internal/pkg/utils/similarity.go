package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/mozillazg/go-unidecode"
	"github.com/xrash/smetrics"
)

// NameSimilarity scores two boundary names in [0,1]. Names are accent-folded
// and lowercased first, and the score takes the better of Jaro-Winkler and a
// rune-normalized edit distance, so both transpositions and truncations
// score sensibly.
func NameSimilarity(a, b string) float64 {
	a = foldName(a)
	b = foldName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	score := smetrics.JaroWinkler(a, b, 0.7, 4)

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	levScore := 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	if levScore > score {
		score = levScore
	}

	if score < 0 {
		return 0
	}
	return score
}

func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}
