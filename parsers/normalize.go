package parsers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// invisibleRunes are characters that show up inside exported column names but
// carry no meaning: BOM, zero-width spaces and joiners, directional marks,
// soft hyphen.
var invisibleRunes = map[rune]bool{
	'\uFEFF': true, // BOM
	'\u200B': true, // zero-width space
	'\u200C': true, // zero-width non-joiner
	'\u200D': true, // zero-width joiner
	'\u2060': true, // word joiner
	'\u00AD': true, // soft hyphen
	'\u200E': true, // left-to-right mark
	'\u200F': true, // right-to-left mark
}

// NormalizeColumnName cleans a single exported column name: trim, strip one
// pair of wrapping quotes, drop invisible characters, collapse whitespace runs
// and repair encoding damage. Total and idempotent.
func NormalizeColumnName(name string) string {
	s := strings.TrimSpace(name)

	// one pair of wrapping quotes only; inner quotes are data
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !invisibleRunes[r] {
			b.WriteRune(r)
		}
	}

	// Fields splits on any unicode whitespace, so NBSP runs collapse too
	s = strings.Join(strings.Fields(b.String()), " ")

	return RepairEncoding(s)
}

// StripAccents removes diacritics (é→e, à→a, ...) while leaving base letters
// intact.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader normalizes every cell of a header row. Cells left empty
// after cleaning are renamed ColN so records keep a stable key set.
func NormalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = NormalizeColumnName(c)
		if out[i] == "" {
			out[i] = syntheticColumnName(i)
		}
	}
	return out
}
