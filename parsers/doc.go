// Package parsers turns raw BO and partner exports (CSV, XLS, XLSX) of unknown
// dialect, unknown encoding quality and unknown header position into clean,
// canonically-keyed datasets ready for reconciliation.
//
// The processing order for a delimited file is:
//
//	raw bytes → charset decode → encoding repair → delimiter detection →
//	header location → column name normalization → chunked row materialization
//
// Spreadsheet files skip the charset and delimiter stages but share the header
// location and materialization stages, with a much deeper header scan window
// (exports commonly bury the header below title and legend blocks).
//
// Large files are materialized in bounded chunks. Between chunks the pipeline
// updates a ProgressState that a single observer may read, and checks the
// context so a run can be cancelled at a chunk boundary. Records are always
// emitted in file order.
//
// Fallible scans degrade gracefully: an unresolved header falls back to
// synthetic column names ("Col1", "Col2", ...), an ambiguous delimiter falls
// back to semicolon, and short rows are padded with empty strings. Errors are
// reserved for unreadable or structurally corrupt sources.
package parsers
