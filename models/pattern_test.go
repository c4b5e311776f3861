package models

import (
	"testing"
)

func TestMatchesFileName(t *testing.T) {
	tests := []struct {
		pattern  string
		fileName string
		want     bool
	}{
		// wildcard patterns, anchored on the stem
		{"TRXBO_*.csv", "TRXBO_01.csv", true},
		{"TRXBO_*.csv", "TRXBO_2024_02_01.xlsx", true}, // accepted extensions are interchangeable
		{"TRXBO_*.csv", "REPORT_TRXBO_01.csv", false},  // wildcard is anchored
		{"CI_OM_*", "ci_om_export_20240201.xlsx", true},
		{"TRX?O_01.csv", "TRXBO_01.csv", true},
		{"TRX?O_01.csv", "TRXBBO_01.csv", false},

		// exact stem with accepted extension
		{"TRXBO_01.csv", "TRXBO_01.xlsx", true},
		{"TRXBO_01.csv", "trxbo_01.CSV", true}, // case-insensitive

		// substring containment
		{"OM_EXPORT", "CI_OM_EXPORT_20240201.csv", true},

		// prefix
		{"TRXBO", "TRXBO_01.csv", true},

		// no match
		{"TRXBO_*.csv", "UNKNOWN_VENDOR.csv", false},
		{"MOOV", "CI_OM_EXPORT.csv", false},
		{"", "TRXBO_01.csv", false},
		{"TRXBO", "", false},
	}

	for _, tt := range tests {
		got := MatchesFileName(tt.pattern, tt.fileName)
		if got != tt.want {
			t.Errorf("MatchesFileName(%q, %q) = %v, want %v", tt.pattern, tt.fileName, got, tt.want)
		}
	}
}

func TestMatchesFileName_WildcardBeforeSubstring(t *testing.T) {
	// a failed wildcard must still fall through to the remaining rules
	if !MatchesFileName("OM_EXPORT.*", "CI_OM_EXPORT.csv") {
		t.Error("failed wildcard should fall through to substring containment")
	}
}
