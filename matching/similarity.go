package matching

import (
	"regexp"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"borecon/parsers"
)

// Similarity computes edit-distance similarity in [0,1]:
// (longer − levenshtein) / longer, over runes.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1
	}
	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return float64(longer-dist) / float64(longer)
}

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// foldKey lower-cases, strips diacritics and every non-alphanumeric
// character, the comparison form of the accent-normalized match tier.
func foldKey(s string) string {
	return strings.ToLower(nonAlnumRe.ReplaceAllString(parsers.StripAccents(s), ""))
}

// stripSpaces removes every space for the whitespace-insensitive tier.
func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
