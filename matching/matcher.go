// Package matching resolves externally configured key names against the
// actual column names of an ingested dataset, via a fixed priority cascade of
// pure match strategies. The cascade is total: it degrades to "not found"
// rather than failing.
package matching

import (
	"io"
	"log/slog"
	"regexp"
	"strings"

	"borecon/parsers"
)

// Tier identifies which cascade strategy resolved a column.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierCaseInsensitive
	TierWhitespaceInsensitive
	TierSubstring
	TierFuzzySimilarity
	TierAccentNormalized
	TierDomainFallback
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierCaseInsensitive:
		return "case_insensitive"
	case TierWhitespaceInsensitive:
		return "whitespace_insensitive"
	case TierSubstring:
		return "substring"
	case TierFuzzySimilarity:
		return "fuzzy_similarity"
	case TierAccentNormalized:
		return "accent_normalized"
	case TierDomainFallback:
		return "domain_fallback"
	default:
		return "none"
	}
}

// MatchResult reports how a candidate key resolved. At most one resolved
// column per candidate list; resolution is deterministic for equal inputs.
type MatchResult struct {
	CandidateKey   string
	ResolvedColumn string
	Tier           Tier
	Similarity     float64
	Found          bool
}

// FuzzyThreshold is the minimum edit-distance similarity accepted by the
// fuzzy tier.
const FuzzyThreshold = 0.8

type strategy struct {
	tier  Tier
	match func(key, col string) (bool, float64)
}

// cascade in strict priority order; the first hit wins.
var cascade = []strategy{
	{TierExact, func(key, col string) (bool, float64) {
		return key == col, 1
	}},
	{TierCaseInsensitive, func(key, col string) (bool, float64) {
		return strings.EqualFold(key, col), 1
	}},
	{TierWhitespaceInsensitive, func(key, col string) (bool, float64) {
		return stripSpaces(key) == stripSpaces(col), 1
	}},
	{TierSubstring, matchSubstring},
	{TierFuzzySimilarity, func(key, col string) (bool, float64) {
		sim := Similarity(key, col)
		return sim >= FuzzyThreshold, sim
	}},
	{TierAccentNormalized, func(key, col string) (bool, float64) {
		f := foldKey(key)
		return f != "" && f == foldKey(col), 1
	}},
}

// matchSubstring is bidirectional containment with two guards against known
// false positives: the bare "id" key must not claim provider columns, and
// very short keys must not claim much longer unrelated names.
func matchSubstring(key, col string) (bool, float64) {
	lk, lc := strings.ToLower(key), strings.ToLower(col)
	if lk == "id" && strings.Contains(lc, "provider") {
		return false, 0
	}
	if len(key) < 3 && len(col) > 3*len(key) {
		return false, 0
	}
	return strings.Contains(lc, lk) || strings.Contains(lk, lc), 1
}

// ResolveColumn resolves the single best-matching column for an ordered
// candidate key list. Keys are tried in the caller's priority order; for each
// key the cascade tiers run in strict order across all columns.
func ResolveColumn(keys []string, columns []string, logger *slog.Logger) MatchResult {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, key := range keys {
		for _, st := range cascade {
			for _, col := range columns {
				ok, sim := st.match(key, col)
				if !ok {
					continue
				}
				logger.Debug("column resolved",
					"key", key, "column", col, "tier", st.tier.String(), "similarity", sim)
				return MatchResult{
					CandidateKey:   key,
					ResolvedColumn: col,
					Tier:           st.tier,
					Similarity:     sim,
					Found:          true,
				}
			}
		}
	}
	logger.Debug("no column resolved", "keys", keys)
	return MatchResult{Tier: TierNone}
}

// referenceTokenRe matches alphanumeric reference tokens; a qualifying value
// must also carry at least one digit.
var referenceTokenRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]{5,}$`)

func looksLikeReferenceToken(v string) bool {
	if !referenceTokenRe.MatchString(v) {
		return false
	}
	return strings.ContainsAny(v, "0123456789")
}

// ResolveWithFallback runs the cascade, then applies the vendor-quirk
// fallback: when a reference-like candidate found no column, pick the first
// column whose sampled values look like reference tokens, excluding columns
// already claimed (typically the account-number column); failing that, the
// first unclaimed column.
func ResolveWithFallback(keys []string, ds *parsers.Dataset, exclude []string, logger *slog.Logger) MatchResult {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	res := ResolveColumn(keys, ds.Columns, logger)
	if res.Found || !hasReferenceLikeKey(keys) {
		return res
	}

	excluded := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		excluded[c] = true
	}

	col := fallbackReferenceColumn(ds, excluded)
	if col == "" {
		return res
	}
	logger.Debug("column resolved via domain fallback", "keys", keys, "column", col)
	return MatchResult{
		CandidateKey:   keys[0],
		ResolvedColumn: col,
		Tier:           TierDomainFallback,
		Similarity:     0,
		Found:          true,
	}
}

func hasReferenceLikeKey(keys []string) bool {
	for _, k := range keys {
		if strings.Contains(strings.ToLower(parsers.StripAccents(k)), "ref") {
			return true
		}
	}
	return false
}

const fallbackSampleSize = 20

func fallbackReferenceColumn(ds *parsers.Dataset, excluded map[string]bool) string {
	for _, col := range ds.Columns {
		if excluded[col] || isAccountColumn(col) {
			continue
		}
		sampled, tokens := 0, 0
		for _, rec := range ds.Records {
			v := strings.TrimSpace(rec[col])
			if v == "" {
				continue
			}
			sampled++
			if looksLikeReferenceToken(v) {
				tokens++
			}
			if sampled >= fallbackSampleSize {
				break
			}
		}
		if sampled > 0 && float64(tokens)/float64(sampled) >= 0.6 {
			return col
		}
	}

	// nothing qualified: first otherwise-unclaimed column
	for _, col := range ds.Columns {
		if !excluded[col] && !isAccountColumn(col) {
			return col
		}
	}
	return ""
}

func isAccountColumn(col string) bool {
	fold := strings.ToLower(parsers.StripAccents(col))
	return strings.Contains(fold, "compte") || strings.Contains(fold, "account")
}
