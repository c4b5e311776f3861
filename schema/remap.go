// Package schema canonicalizes known vendor export layouts into the fixed
// column set the reconciliation engine joins on.
package schema

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"borecon/parsers"
)

// CanonicalColumns is the Orange Money target schema, in order. Absent source
// columns are filled with empty strings.
var CanonicalColumns = []string{
	"Référence", "Débit", "Crédit", "N° de Compte", "Date", "Service", "Statut",
}

// bypassToken marks search-result exports that share the vendor's header
// signature but must keep their native layout. File names containing it skip
// remapping entirely.
const bypassToken = "RECHERCHE"

// RemapChunkSize bounds per-chunk work so very large datasets (>100k rows)
// stay responsive.
const RemapChunkSize = 50000

// requiredSignature: one header per group must be present (substring match on
// the accent-stripped, lower-cased name) for the vendor layout to be detected.
var requiredSignature = [][]string{
	{"ref"},
	{"statut", "status", "etat"},
	{"date"},
}

// targetSources maps each canonical column to the substrings that identify
// its source column.
var targetSources = map[string][]string{
	"Référence":    {"ref"},
	"Débit":        {"debit"},
	"Crédit":       {"credit"},
	"N° de Compte": {"compte", "account"},
	"Date":         {"date"},
	"Service":      {"service"},
	"Statut":       {"statut", "status", "etat"},
}

func fold(s string) string {
	return strings.ToLower(parsers.StripAccents(s))
}

// DetectVendorLayout reports whether normalized headers carry the vendor
// signature: at least one reference-like, one status-like and one date-like
// column.
func DetectVendorLayout(columns []string) bool {
	for _, group := range requiredSignature {
		found := false
		for _, col := range columns {
			f := fold(col)
			for _, needle := range group {
				if strings.Contains(f, needle) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Remap reorders and renames a detected vendor dataset into CanonicalColumns.
// Datasets that do not carry the vendor signature, and files whose name
// contains the bypass token, pass through unchanged. Work proceeds in bounded
// chunks, yielding between chunks and logging coarse milestones.
func Remap(ctx context.Context, ds *parsers.Dataset, fileName string, logger *slog.Logger) (*parsers.Dataset, bool, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if strings.Contains(strings.ToUpper(fileName), bypassToken) {
		logger.Debug("vendor remap bypassed by file name", "file", fileName)
		return ds, false, nil
	}
	if !DetectVendorLayout(ds.Columns) {
		return ds, false, nil
	}

	// resolve each target's source column once, before touching any rows
	sources := make(map[string]string, len(CanonicalColumns))
	for _, target := range CanonicalColumns {
		for _, col := range ds.Columns {
			f := fold(col)
			for _, needle := range targetSources[target] {
				if strings.Contains(f, needle) {
					sources[target] = col
					break
				}
			}
			if sources[target] != "" {
				break
			}
		}
	}

	out := &parsers.Dataset{
		FileName: ds.FileName,
		Columns:  append([]string(nil), CanonicalColumns...),
		Records:  make([]parsers.Record, 0, len(ds.Records)),
	}

	total := len(ds.Records)
	for start := 0; start < total; start += RemapChunkSize {
		if err := ctx.Err(); err != nil {
			return nil, false, parsers.ErrCancelled
		}
		end := start + RemapChunkSize
		if end > total {
			end = total
		}
		for _, rec := range ds.Records[start:end] {
			mapped := make(parsers.Record, len(CanonicalColumns))
			for _, target := range CanonicalColumns {
				if src := sources[target]; src != "" {
					mapped[target] = rec[src]
				} else {
					mapped[target] = ""
				}
			}
			out.Records = append(out.Records, mapped)
		}
		logger.Info("vendor remap progress", "file", fileName, "rows", end, "total", total)
		runtime.Gosched()
	}

	logger.Debug("vendor layout remapped", "file", fileName, "rows", total)
	return out, true, nil
}
