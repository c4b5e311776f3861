package parsers

import "strings"

// DefaultDelimiter is used when a sample line contains no candidate at all
const DefaultDelimiter = ';'

// delimiterCandidates in preference order; on a tie the earlier one wins
var delimiterCandidates = []rune{';', ',', '\t', '|'}

// DetectDelimiter picks the field delimiter for a delimited export by counting
// candidate occurrences in one representative line. Ties keep the preferred
// order, so a line with equal counts of ';' and ',' resolves to ';'.
func DetectDelimiter(line string) rune {
	best := DefaultDelimiter
	bestCount := 0
	for _, d := range delimiterCandidates {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best
}

// candidateCount is the highest single-candidate occurrence count in the line,
// used to pick a representative sample line.
func candidateCount(line string) int {
	best := 0
	for _, d := range delimiterCandidates {
		if n := strings.Count(line, string(d)); n > best {
			best = n
		}
	}
	return best
}
