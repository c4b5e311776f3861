package parsers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDelimited_NoisyExport(t *testing.T) {
	data := "RAPPORT JOURNALIER\n" +
		"\n" +
		"Date;Référence;Montant;Statut;Service\n" +
		"01/02/2024;REF0001;1 000,50;SUCCES;CASHIN\n" +
		"01/02/2024;REF0002;250,00;ECHEC;CASHOUT\n"

	ds, headerRow, err := ReadDelimited(context.Background(), strings.NewReader(data),
		"export.csv", PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	// the csv reader drops the blank separator line, so the header is row 1
	assert.Equal(t, 1, headerRow)
	assert.Equal(t, []string{"Date", "Référence", "Montant", "Statut", "Service"}, ds.Columns)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "REF0001", ds.Records[0]["Référence"])
	assert.Equal(t, "1 000,50", ds.Records[0]["Montant"])
	assert.Equal(t, "ECHEC", ds.Records[1]["Statut"])
}

func TestReadDelimited_CommaDelimiterWithPreamble(t *testing.T) {
	// the title line carries no delimiter at all; detection must sample the
	// delimiter-dense lines below it instead of defaulting to semicolon
	data := "RAPPORT JOURNALIER\n" +
		"\n" +
		"Date,Reference,Montant,Statut\n" +
		"01/02/2024,REF0001,100.50,SUCCES\n"

	ds, headerRow, err := ReadDelimited(context.Background(), strings.NewReader(data),
		"export.csv", PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, headerRow)
	assert.Equal(t, []string{"Date", "Reference", "Montant", "Statut"}, ds.Columns)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "REF0001", ds.Records[0]["Reference"])
	assert.Equal(t, "100.50", ds.Records[0]["Montant"])
}

func TestReadDelimited_CommaDelimiter(t *testing.T) {
	data := "Date,Reference,Amount,Status\n" +
		"2024-02-01,REF0001,100.50,SUCCESS\n"

	ds, headerRow, err := ReadDelimited(context.Background(), strings.NewReader(data),
		"export.csv", PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, headerRow)
	assert.Equal(t, []string{"Date", "Reference", "Amount", "Status"}, ds.Columns)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "SUCCESS", ds.Records[0]["Status"])
}

func TestReadDelimited_GarbledHeaderRepaired(t *testing.T) {
	data := "Date;R�f�rence;D�bit;Cr�dit;Statut\n" +
		"01/02/2024;REF0001;100,00;;SUCCES\n"

	ds, _, err := ReadDelimited(context.Background(), strings.NewReader(data),
		"export.csv", PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Référence", "Débit", "Crédit", "Statut"}, ds.Columns)
	assert.Equal(t, "REF0001", ds.Records[0]["Référence"])
}

func TestReadDelimited_BOMStripped(t *testing.T) {
	data := "\uFEFFDate;Référence;Montant\n01/02/2024;REF0001;10,00\n"

	ds, headerRow, err := ReadDelimited(context.Background(), strings.NewReader(data),
		"export.csv", PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, headerRow)
	assert.Equal(t, "Date", ds.Columns[0], "BOM must not survive into the first column name")
}

func TestReadDelimited_NoHeaderFallsBackToSyntheticColumns(t *testing.T) {
	data := "12345678;REF0001;1 000,50\n" +
		"87654321;REF0002;250,00\n"

	ds, headerRow, err := ReadDelimited(context.Background(), strings.NewReader(data),
		"export.csv", PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, -1, headerRow)
	assert.Equal(t, []string{"Col1", "Col2", "Col3"}, ds.Columns)
	require.Len(t, ds.Records, 2, "every row is data when no header was found")
	assert.Equal(t, "REF0001", ds.Records[0]["Col2"])
}

func TestReadDelimited_SyntheticColumnsSizedFromWidestRow(t *testing.T) {
	// one-cell title first, wider data rows below, no header anywhere: the
	// synthetic header must cover the widest row, not the first one
	data := "DONNEES BRUTES\n" +
		"12345678;REF0001;1 000,50\n" +
		"87654321;REF0002;250,00\n"

	ds, headerRow, err := ReadDelimited(context.Background(), strings.NewReader(data),
		"export.csv", PipelineOptions{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, -1, headerRow)
	assert.Equal(t, []string{"Col1", "Col2", "Col3"}, ds.Columns)
	require.Len(t, ds.Records, 3)
	assert.Equal(t, "REF0001", ds.Records[1]["Col2"])
	assert.Equal(t, "250,00", ds.Records[2]["Col3"])
}

func TestReadDelimited_QuotedFields(t *testing.T) {
	data := "Date;Libellé;Montant\n" +
		"01/02/2024;\"virement; salaire\";100,00\n"

	ds, _, err := ReadDelimited(context.Background(), strings.NewReader(data),
		"export.csv", PipelineOptions{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "virement; salaire", ds.Records[0]["Libellé"])
}

func TestReadDelimited_EmptyInput(t *testing.T) {
	_, _, err := ReadDelimited(context.Background(), strings.NewReader(""),
		"export.csv", PipelineOptions{}, nil, nil)
	require.Error(t, err)

	var ie *IngestError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "parse", ie.Stage)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestReadDelimited_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := "Date;Référence;Montant\n01/02/2024;REF0001;10,00\n"
	_, _, err := ReadDelimited(ctx, strings.NewReader(data),
		"export.csv", PipelineOptions{}, nil, nil)
	assert.ErrorIs(t, err, ErrCancelled)
}
