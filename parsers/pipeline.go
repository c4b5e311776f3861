package parsers

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Record is one data row as a map of normalized column name to raw cell value
type Record map[string]string

// Dataset is the materialized, canonically-keyed output of one ingestion run.
// Columns preserves file order; Records preserve row order.
type Dataset struct {
	FileName string
	Columns  []string
	Records  []Record
}

// ProgressState is observed by a single reader while the pipeline (its single
// writer) materializes chunks. RowsProcessed is monotonically non-decreasing
// within a run and reset at the start of each run.
type ProgressState struct {
	RowsProcessed int
	TotalRows     int
	Percent       float64
	Message       string
}

// Reset clears the state at the start of an ingestion run.
func (p *ProgressState) Reset(total int, message string) {
	p.RowsProcessed = 0
	p.TotalRows = total
	p.Percent = 0
	p.Message = message
}

func (p *ProgressState) advance(processed int) {
	p.RowsProcessed = processed
	if p.TotalRows > 0 {
		p.Percent = float64(processed) / float64(p.TotalRows) * 100
		if p.Percent > 100 {
			p.Percent = 100
		}
	}
	p.Message = fmt.Sprintf("processed %d/%d rows", p.RowsProcessed, p.TotalRows)
}

// ErrCancelled is returned when the run's context is cancelled at a chunk
// boundary. No partial dataset is returned alongside it.
var ErrCancelled = errors.New("ingestion cancelled")

// IngestError is the structured error for a failed ingestion run.
type IngestError struct {
	Stage string
	File  string
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingestion of %s failed during %s: %v", e.File, e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// PipelineOptions bounds chunked materialization.
type PipelineOptions struct {
	// ChunkSize is the number of rows materialized per chunk; defaults to 1000.
	ChunkSize int
	// OnChunk, when set, is called after each chunk with the current progress.
	OnChunk func(*ProgressState)
}

// DefaultChunkSize is the delimited-text chunk bound; spreadsheet sources use
// larger chunks because their rows arrive pre-split.
const DefaultChunkSize = 1000

// BuildDataset converts header-resolved raw rows into Records in bounded
// chunks. Between chunks it yields, reports progress and checks cancellation.
// Rows shorter than the header are padded with empty cells; fully blank rows
// are skipped; a truncated final chunk is still processed. Records come out in
// file order: chunk n always precedes chunk n+1.
func BuildDataset(ctx context.Context, fileName string, columns []string, rows [][]string, opts PipelineOptions, progress *ProgressState) (*Dataset, error) {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if progress == nil {
		progress = &ProgressState{}
	}
	progress.Reset(len(rows), "starting")

	ds := &Dataset{
		FileName: fileName,
		Columns:  columns,
		Records:  make([]Record, 0, len(rows)),
	}

	for start := 0; start < len(rows); start += chunkSize {
		if err := ctx.Err(); err != nil {
			progress.Message = "cancelled"
			return nil, ErrCancelled
		}

		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		for _, row := range rows[start:end] {
			if isBlankRow(row) {
				continue
			}
			rec := make(Record, len(columns))
			for i, col := range columns {
				if i < len(row) {
					rec[col] = row[i]
				} else {
					rec[col] = "" // missing trailing cell
				}
			}
			ds.Records = append(ds.Records, rec)
		}

		progress.advance(end)
		if opts.OnChunk != nil {
			opts.OnChunk(progress)
		}
		runtime.Gosched()
	}

	progress.Message = fmt.Sprintf("materialized %d records", len(ds.Records))
	return ds, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
