package parsers

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// ErrNoData is reported when a source contains no rows at all.
var ErrNoData = errors.New("no data found")

// ReadDelimited ingests a delimited text export: charset decode, encoding
// repair, delimiter detection, header location, then chunked materialization.
// The returned int is the resolved header row index (-1 when the scan found
// none and synthetic column names were used).
func ReadDelimited(ctx context.Context, r io.Reader, fileName string, opts PipelineOptions, progress *ProgressState, logger *slog.Logger) (*Dataset, int, error) {
	raw, err := io.ReadAll(DecodeReader(r))
	if err != nil {
		return nil, -1, &IngestError{Stage: "read", File: fileName, Err: err}
	}

	text := RepairEncoding(strings.TrimPrefix(string(raw), "\uFEFF"))

	sample := sampleDialectLine(text)
	if sample == "" {
		return nil, -1, &IngestError{Stage: "parse", File: fileName, Err: ErrNoData}
	}
	delimiter := DetectDelimiter(sample)

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // row length mismatches are handled downstream

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, -1, &IngestError{Stage: "parse", File: fileName, Err: err}
	}
	if len(rows) == 0 {
		return nil, -1, &IngestError{Stage: "parse", File: fileName, Err: ErrNoData}
	}

	var columns []string
	var dataRows [][]string
	headerRow := -1

	header, ok := LocateHeader(rows, LocateOptions{
		Variant:      VariantDelimited,
		PreferredRow: -1,
	}, logger)
	if ok {
		headerRow = header.RowIndex
		columns = NormalizeHeader(header.Cells)
		dataRows = rows[header.RowIndex+1:]
	} else {
		// no header in the scan window: synthetic names, data starts at row 0
		columns = SyntheticHeader(widestRow(rows))
		dataRows = rows
	}

	ds, err := BuildDataset(ctx, fileName, columns, dataRows, opts, progress)
	if err != nil {
		return nil, headerRow, err
	}
	return ds, headerRow, nil
}

// sampleDialectLine picks the delimiter-densest line within the scan window,
// so a delimiter-free title line ahead of the header cannot skew detection
// toward the default. Returns "" when every line is blank.
func sampleDialectLine(text string) string {
	sample := ""
	bestCount := -1
	scanned := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if count := candidateCount(line); count > bestCount {
			sample, bestCount = line, count
		}
		scanned++
		if scanned >= DelimitedScanWindow {
			break
		}
	}
	return sample
}
