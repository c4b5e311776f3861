package parsers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// SpreadsheetChunkSize is the materialization bound for workbook sources;
// their rows arrive pre-split so chunks can be larger than delimited text.
const SpreadsheetChunkSize = 5000

// ReadWorkbook ingests a spreadsheet export (.xlsx via excelize, legacy .xls
// via xlsReader). Header location scans up to 300 rows with the legacy row 22
// shortcut. The returned int is the resolved header row index (-1 for the
// synthetic fallback).
func ReadWorkbook(ctx context.Context, data []byte, fileName string, opts PipelineOptions, progress *ProgressState, logger *slog.Logger) (ds *Dataset, headerRow int, err error) {
	// xls/xlsx container decoding can panic on structurally corrupt input;
	// surface that as a structured ingestion error instead of taking the
	// process down.
	defer func() {
		if r := recover(); r != nil {
			ds = nil
			headerRow = -1
			err = &IngestError{Stage: "decode", File: fileName, Err: fmt.Errorf("corrupt workbook: %v", r)}
		}
	}()

	var rows [][]string
	if strings.EqualFold(filepath.Ext(fileName), ".xls") {
		rows, err = readLegacyWorkbook(data)
	} else {
		rows, err = readWorkbook(data)
	}
	if err != nil {
		return nil, -1, &IngestError{Stage: "decode", File: fileName, Err: err}
	}
	if len(rows) == 0 {
		return nil, -1, &IngestError{Stage: "decode", File: fileName, Err: ErrNoData}
	}

	var columns []string
	var dataRows [][]string
	headerRow = -1

	header, ok := LocateHeader(rows, LocateOptions{
		Variant:      VariantSpreadsheet,
		PreferredRow: LegacyHeaderRow,
	}, logger)
	if ok {
		headerRow = header.RowIndex
		columns = NormalizeHeader(header.Cells)
		dataRows = rows[header.RowIndex+1:]
	} else {
		columns = SyntheticHeader(widestRow(rows))
		dataRows = rows
	}

	if opts.ChunkSize <= 0 {
		opts.ChunkSize = SpreadsheetChunkSize
	}

	ds, err = BuildDataset(ctx, fileName, columns, dataRows, opts, progress)
	if err != nil {
		return nil, headerRow, err
	}
	return ds, headerRow, nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func readLegacyWorkbook(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	sheet, err := wb.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var rows [][]string
	for _, r := range sheet.GetRows() {
		var cells []string
		for _, c := range r.GetCols() {
			cells = append(cells, c.GetString())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
