package models

import (
	"path/filepath"
	"regexp"
	"strings"
)

// acceptedExtensions are interchangeable for pattern purposes: a pattern
// written against one of them matches a file carrying any of the three.
var acceptedExtensions = map[string]bool{
	".csv":  true,
	".xls":  true,
	".xlsx": true,
}

// MatchesFileName reports whether a configured file pattern applies to a file
// name. Matching is case-insensitive, over the name stem (extension
// stripped), and tries in order: wildcard pattern, exact stem with accepted
// extension, substring containment, prefix.
func MatchesFileName(pattern, fileName string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	f := strings.ToLower(strings.TrimSpace(fileName))
	if p == "" || f == "" {
		return false
	}

	pStem, pExt := splitStem(p)
	fStem, fExt := splitStem(f)

	// 1. wildcard pattern, anchored on the stem
	if strings.ContainsAny(p, "*?") {
		if matchWildcard(pStem, fStem) && extensionAllowed(pExt, fExt) {
			return true
		}
	}

	// 2. exact stem match when the pattern names an accepted extension
	if acceptedExtensions[pExt] && pStem == fStem && acceptedExtensions[fExt] {
		return true
	}

	// 3. substring containment
	if strings.Contains(fStem, pStem) {
		return true
	}

	// 4. prefix match
	return strings.HasPrefix(fStem, pStem)
}

func splitStem(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// extensionAllowed applies the wildcard-pattern extension rule: a pattern
// with an accepted extension accepts any of the three; a pattern without an
// extension accepts everything.
func extensionAllowed(pExt, fExt string) bool {
	if pExt == "" {
		return true
	}
	if acceptedExtensions[pExt] {
		return acceptedExtensions[fExt]
	}
	return pExt == fExt
}

func matchWildcard(patternStem, fileStem string) bool {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range patternStem {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(fileStem)
}
