package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyWorkbookRows() [][]string {
	// 22 rows of title/legend noise, header at index 22, data below
	rows := make([][]string, 0, 26)
	rows = append(rows, []string{"RAPPORT DES TRANSACTIONS"})
	rows = append(rows, []string{""})
	for i := 2; i < 22; i++ {
		rows = append(rows, []string{"", "", ""})
	}
	rows = append(rows, []string{"N°", "Date", "Heure", "Référence", "Montant", "Statut"})
	rows = append(rows, []string{"1", "01/02/2024", "10:15", "REF0001", "1 000,50", "SUCCES"})
	rows = append(rows, []string{"2", "01/02/2024", "10:16", "REF0002", "250,00", "ECHEC"})
	rows = append(rows, []string{"3", "01/02/2024", "10:17", "REF0003", "75,25", "SUCCES"})
	return rows
}

func TestLocateHeader_LegacyRow22FastPath(t *testing.T) {
	rows := legacyWorkbookRows()

	header, ok := LocateHeader(rows, LocateOptions{
		Variant:      VariantSpreadsheet,
		PreferredRow: LegacyHeaderRow,
	}, nil)

	require.True(t, ok)
	assert.Equal(t, 22, header.RowIndex)
	assert.Equal(t, []string{"N°", "Date", "Heure", "Référence", "Montant", "Statut"}, header.Cells)
	assert.Greater(t, header.Score, 500, "row number + date + time + reference combo must dominate")
}

func TestLocateHeader_PreferredRowRejectedWhenDataLike(t *testing.T) {
	// preferred row holds data; the scan must find the real header above it
	rows := make([][]string, 0, 25)
	for i := 0; i < 5; i++ {
		rows = append(rows, []string{""})
	}
	rows = append(rows, []string{"Date", "Référence", "Montant", "Statut"})
	for i := 0; i < 18; i++ {
		rows = append(rows, []string{"01/02/2024", "REF0001", "1 000,50", "SUCCES"})
	}

	header, ok := LocateHeader(rows, LocateOptions{
		Variant:      VariantSpreadsheet,
		PreferredRow: LegacyHeaderRow,
	}, nil)

	require.True(t, ok)
	assert.Equal(t, 5, header.RowIndex)
}

func TestLocateHeader_DelimitedWithPreamble(t *testing.T) {
	rows := [][]string{
		{"RAPPORT JOURNALIER"},
		{""},
		{"Date", "Référence", "Montant", "Statut", "Compte", "Service"},
		{"01/02/2024", "REF0001", "1 000,50", "SUCCES", "12345678901", "CASHIN"},
	}

	header, ok := LocateHeader(rows, LocateOptions{
		Variant:      VariantDelimited,
		PreferredRow: -1,
	}, nil)

	require.True(t, ok)
	assert.Equal(t, 2, header.RowIndex)
}

func TestLocateHeader_TiesKeepLowestIndex(t *testing.T) {
	rows := [][]string{
		{"Date", "Référence", "Montant"},
		{"Date", "Référence", "Montant"},
	}

	header, ok := LocateHeader(rows, LocateOptions{Variant: VariantDelimited, PreferredRow: -1}, nil)
	require.True(t, ok)
	assert.Equal(t, 0, header.RowIndex)
}

func TestLocateHeader_Deterministic(t *testing.T) {
	rows := legacyWorkbookRows()
	opts := LocateOptions{Variant: VariantSpreadsheet, PreferredRow: -1}

	first, ok := LocateHeader(rows, opts, nil)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := LocateHeader(rows, opts, nil)
		require.True(t, ok)
		assert.Equal(t, first.RowIndex, again.RowIndex)
		assert.Equal(t, first.Score, again.Score)
	}
}

func TestLocateHeader_NoHeaderFound(t *testing.T) {
	rows := [][]string{
		{"RAPPORT DES TRANSACTIONS"},
		{"12345678", "01/02/2024", "REF0001", "1 000,50", "SUCCES"},
		{"87654321", "02/02/2024", "REF0002", "99,99", "ECHEC"},
	}

	_, ok := LocateHeader(rows, LocateOptions{Variant: VariantDelimited, PreferredRow: -1}, nil)
	assert.False(t, ok, "title and data rows must never be promoted to header")
}

func TestLocateHeader_EmptyInput(t *testing.T) {
	_, ok := LocateHeader(nil, LocateOptions{Variant: VariantDelimited, PreferredRow: -1}, nil)
	assert.False(t, ok)
}

func TestLooksLikeDataRow(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  bool
	}{
		{"transaction row", []string{"12345678", "01/02/2024", "REF0001", "1 000,50", "SUCCES"}, true},
		{"iso dates", []string{"2024-02-01", "2024-02-02", "x"}, true},
		{"code tokens without keywords", []string{"ABC-123", "XYZ/456", "FOO_789"}, true},
		{"header row", []string{"Date", "Référence", "Montant", "Statut"}, false},
		{"header with N°", []string{"N°", "Date", "Heure", "Référence"}, false},
		{"empty row", []string{"", "", ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeDataRow(tt.cells))
		})
	}
}

func TestLooksLikeAmount(t *testing.T) {
	tests := []struct {
		cell string
		want bool
	}{
		{"1 000,50", true},
		{"250,00", true},
		{"1.234.567,89", true},
		{"99.99", true},
		{"Montant", false},
		{"REF0001", false},
		{"1000", false}, // no decimal separator: could be an identifier
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikeAmount(tt.cell), "cell %q", tt.cell)
	}
}

func TestSyntheticHeader(t *testing.T) {
	assert.Equal(t, []string{"Col1", "Col2", "Col3"}, SyntheticHeader(3))
	assert.Empty(t, SyntheticHeader(0))
}
