package parsers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadWorkbook_LegacyLayoutHeaderAtRow22(t *testing.T) {
	rows := make([][]interface{}, 0, 26)
	rows = append(rows, []interface{}{"RAPPORT DES TRANSACTIONS"})
	for i := 1; i < 22; i++ {
		rows = append(rows, []interface{}{""})
	}
	rows = append(rows, []interface{}{"N°", "Date", "Heure", "Référence", "Montant", "Statut"})
	rows = append(rows, []interface{}{"1", "01/02/2024", "10:15", "REF0001", "1 000,50", "SUCCES"})
	rows = append(rows, []interface{}{"2", "01/02/2024", "10:16", "REF0002", "250,00", "ECHEC"})

	data := buildWorkbook(t, rows)

	ds, headerRow, err := ReadWorkbook(context.Background(), data, "export.xlsx",
		PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 22, headerRow)
	assert.Equal(t, []string{"N°", "Date", "Heure", "Référence", "Montant", "Statut"}, ds.Columns)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "REF0001", ds.Records[0]["Référence"])
	assert.Equal(t, "ECHEC", ds.Records[1]["Statut"])
}

func TestReadWorkbook_HeaderAtTop(t *testing.T) {
	rows := [][]interface{}{
		{"Date", "Référence", "Montant", "Statut"},
		{"01/02/2024", "REF0001", "1 000,50", "SUCCES"},
	}

	ds, headerRow, err := ReadWorkbook(context.Background(), buildWorkbook(t, rows),
		"export.xlsx", PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, headerRow)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "SUCCES", ds.Records[0]["Statut"])
}

func TestReadWorkbook_SyntheticColumnsSizedFromWidestRow(t *testing.T) {
	rows := [][]interface{}{
		{"EXPORT BRUT"},
		{"12345678", "REF0001", "1 000,50"},
		{"87654321", "REF0002", "250,00"},
	}

	ds, headerRow, err := ReadWorkbook(context.Background(), buildWorkbook(t, rows),
		"export.xlsx", PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, -1, headerRow)
	assert.Equal(t, []string{"Col1", "Col2", "Col3"}, ds.Columns)
	require.Len(t, ds.Records, 3)
	assert.Equal(t, "REF0001", ds.Records[1]["Col2"])
}

func TestReadWorkbook_CorruptInput(t *testing.T) {
	_, _, err := ReadWorkbook(context.Background(), []byte("this is not a workbook"),
		"export.xlsx", PipelineOptions{}, nil, nil)
	require.Error(t, err)

	var ie *IngestError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "decode", ie.Stage)
	assert.Equal(t, "export.xlsx", ie.File)
}

func TestReadWorkbook_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := [][]interface{}{
		{"Date", "Référence", "Montant"},
		{"01/02/2024", "REF0001", "10,00"},
	}

	_, _, err := ReadWorkbook(ctx, buildWorkbook(t, rows), "export.xlsx",
		PipelineOptions{}, nil, nil)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestReadWorkbook_ProgressReported(t *testing.T) {
	rows := make([][]interface{}, 0, 101)
	rows = append(rows, []interface{}{"Date", "Référence", "Montant"})
	for i := 0; i < 100; i++ {
		rows = append(rows, []interface{}{"01/02/2024", fmt.Sprintf("REF%04d", i), "10,00"})
	}

	progress := &ProgressState{}
	chunks := 0
	ds, _, err := ReadWorkbook(context.Background(), buildWorkbook(t, rows), "export.xlsx",
		PipelineOptions{ChunkSize: 25, OnChunk: func(p *ProgressState) { chunks++ }}, progress, nil)
	require.NoError(t, err)

	assert.Len(t, ds.Records, 100)
	assert.Equal(t, 4, chunks)
	assert.Equal(t, 100.0, progress.Percent)
}
