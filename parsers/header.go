package parsers

import (
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ScoreVariant selects the cell-count scoring tiers. Delimited exports reward
// very wide rows much harder because their headers reliably populate many
// columns, while spreadsheet title blocks rarely do.
type ScoreVariant int

const (
	VariantDelimited ScoreVariant = iota
	VariantSpreadsheet
)

// Scan windows. Spreadsheets commonly bury headers far below row 1 behind
// title and legend blocks, so their window is much deeper.
const (
	DelimitedScanWindow   = 50
	SpreadsheetScanWindow = 300

	// LegacyHeaderRow is tried first for spreadsheets; a long-lived vendor
	// layout placed the header there. The shortcut is only taken when the row
	// independently passes the header validity check.
	LegacyHeaderRow = 22
)

// Score calibration. These values were tuned against real vendor exports and
// should be re-validated against sample files when a new partner is onboarded.
const (
	bonusFewCells      = 10  // ≥3 non-empty cells
	bonusManyCells     = 10  // ≥6 non-empty cells (spreadsheet tier)
	bonusWideRow       = 50  // ≥10 non-empty cells (delimited tier)
	bonusVeryWideRow   = 100 // ≥15 non-empty cells (delimited tier)
	bonusKeywordCell   = 5
	bonusNumeroCell    = 15
	bonusAccentCell    = 3
	bonusDateRefAmount = 20
	bonusFullCombo     = 500 // row number + date + time + reference together
	dataRowPenalty     = -1000
)

// headerKeywords are compared accent-stripped and lower-cased, by substring.
var headerKeywords = []string{
	"date", "heure", "reference", "montant", "amount", "statut", "status",
	"compte", "account", "telephone", "phone", "service", "operation",
	"agent", "correspondant", "id", "numero", "libelle", "debit", "credit",
	"solde", "expediteur", "beneficiaire", "etat", "type",
}

// HeaderCandidate is a scored candidate row considered during header location.
type HeaderCandidate struct {
	RowIndex int
	Cells    []string
	Score    int
}

// LocateOptions bounds the header scan.
type LocateOptions struct {
	Variant ScoreVariant
	// Window overrides the variant's default scan bound when positive.
	Window int
	// PreferredRow is a direct-index shortcut tried before scanning, -1 to
	// disable. It is only accepted if it passes the validity check on its own.
	PreferredRow int
}

// LocateHeader scores candidate rows inside the scan window and returns the
// best-scoring one. Ties keep the lowest index. Returns ok=false when no row
// scores above zero; the caller must then fall back to synthetic column names
// starting at row 0.
func LocateHeader(rows [][]string, opts LocateOptions, logger *slog.Logger) (HeaderCandidate, bool) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	window := opts.Window
	if window <= 0 {
		if opts.Variant == VariantSpreadsheet {
			window = SpreadsheetScanWindow
		} else {
			window = DelimitedScanWindow
		}
	}
	if window > len(rows) {
		window = len(rows)
	}

	if opts.PreferredRow >= 0 && opts.PreferredRow < len(rows) {
		cells := rows[opts.PreferredRow]
		if score := scoreRow(cells, opts.PreferredRow, opts.Variant); score > 0 && !LooksLikeDataRow(cells) {
			logger.Debug("header located via preferred row",
				"row", opts.PreferredRow, "score", score)
			return HeaderCandidate{RowIndex: opts.PreferredRow, Cells: cells, Score: score}, true
		}
		logger.Debug("preferred row rejected", "row", opts.PreferredRow)
	}

	best := HeaderCandidate{RowIndex: -1}
	for i := 0; i < window; i++ {
		score := scoreRow(rows[i], i, opts.Variant)
		logger.Debug("header candidate scored", "row", i, "score", score)
		if best.RowIndex == -1 || score > best.Score {
			best = HeaderCandidate{RowIndex: i, Cells: rows[i], Score: score}
		}
	}

	if best.RowIndex == -1 || best.Score <= 0 {
		logger.Debug("no header found in scan window", "window", window)
		return HeaderCandidate{RowIndex: -1}, false
	}
	logger.Debug("header located", "row", best.RowIndex, "score", best.Score)
	return best, true
}

// scoreRow computes the header likelihood score of one candidate row.
func scoreRow(cells []string, rowIndex int, variant ScoreVariant) int {
	score := 0

	nonEmpty := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			nonEmpty++
		}
	}

	if nonEmpty >= 3 {
		score += bonusFewCells
	}
	if variant == VariantSpreadsheet {
		if nonEmpty >= 6 {
			score += bonusManyCells
		}
	} else {
		if nonEmpty >= 10 {
			score += bonusWideRow
		}
		if nonEmpty >= 15 {
			score += bonusVeryWideRow
		}
	}

	var hasDate, hasTime, hasRef, hasAmount, hasRowNum bool
	for _, c := range cells {
		trimmed := strings.TrimSpace(c)
		if trimmed == "" {
			continue
		}
		fold := strings.ToLower(StripAccents(trimmed))

		for _, kw := range headerKeywords {
			if strings.Contains(fold, kw) {
				score += bonusKeywordCell
				break
			}
		}

		if trimmed == "N°" || trimmed == "N" {
			score += bonusNumeroCell
			hasRowNum = true
		}
		if StripAccents(trimmed) != trimmed {
			score += bonusAccentCell
		}

		switch {
		case strings.Contains(fold, "date"):
			hasDate = true
		case strings.Contains(fold, "heure") || strings.Contains(fold, "time"):
			hasTime = true
		}
		if strings.Contains(fold, "ref") {
			hasRef = true
		}
		if strings.Contains(fold, "montant") || strings.Contains(fold, "amount") ||
			strings.Contains(fold, "debit") || strings.Contains(fold, "credit") {
			hasAmount = true
		}
	}

	// financial exports only place these together in true header rows
	if hasDate && hasRef && hasAmount {
		score += bonusDateRefAmount
	}
	if hasRowNum && hasDate && hasTime && hasRef {
		score += bonusFullCombo
	}

	// only boost rows that already look header-ish, so bare title rows
	// cannot clear the "no header found" threshold on position alone
	if score > 0 {
		score += positionBonus(rowIndex)
	}

	if LooksLikeDataRow(cells) {
		score += dataRowPenalty
	}

	return score
}

// positionBonus slightly favors rows near the top of the scan window.
func positionBonus(rowIndex int) int {
	switch {
	case rowIndex < 5:
		return 3
	case rowIndex < 15:
		return 1
	default:
		return 0
	}
}

var (
	longNumericRe = regexp.MustCompile(`^\d{8,}$`)
	isoDateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	localDateRe   = regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}`)
	codeTokenRe   = regexp.MustCompile(`^[A-Z0-9_/-]{4,}$`)
)

// statusLiterals are transaction statuses seen in BO and partner exports.
var statusLiterals = map[string]bool{
	"SUCCESS": true, "FAILED": true, "PENDING": true, "COMPLETED": true,
	"SUCCES": true, "ECHEC": true, "VALIDE": true, "ANNULE": true,
	"REJETE": true, "OK": true, "KO": true,
}

// LooksLikeDataRow classifies a candidate row as data rather than header. A
// row failing this check can never win header location, regardless of score.
func LooksLikeDataRow(cells []string) bool {
	var nonEmpty []string
	for _, c := range cells {
		if t := strings.TrimSpace(c); t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	if len(nonEmpty) == 0 {
		return false
	}

	dataLike, longNumeric, codeLike, keywordHits := 0, 0, 0, 0
	for _, cell := range nonEmpty {
		fold := strings.ToLower(StripAccents(cell))
		for _, kw := range headerKeywords {
			if strings.Contains(fold, kw) {
				keywordHits++
				break
			}
		}

		isData := false
		if longNumericRe.MatchString(cell) {
			longNumeric++
			isData = true
		}
		if isoDateRe.MatchString(cell) || localDateRe.MatchString(cell) {
			isData = true
		}
		if looksLikeAmount(cell) {
			isData = true
		}
		if codeTokenRe.MatchString(cell) && !statusLiterals[cell] {
			codeLike++
			isData = true
		}
		if statusLiterals[strings.ToUpper(cell)] {
			isData = true
		}
		if isData {
			dataLike++
		}
	}

	n := float64(len(nonEmpty))
	if float64(dataLike)/n >= 0.4 {
		return true
	}
	if float64(keywordHits)/n < 0.1 &&
		(float64(longNumeric)/n >= 0.3 || float64(codeLike)/n >= 0.3) {
		return true
	}
	return false
}

// looksLikeAmount reports whether a cell holds a decimal amount, tolerating
// French formatting ("1 234,56").
func looksLikeAmount(cell string) bool {
	s := strings.ReplaceAll(cell, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if !strings.ContainsAny(s, ".,") {
		return false
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		// thousands separators: keep only the last dot as decimal point
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}

func syntheticColumnName(i int) string {
	return "Col" + strconv.Itoa(i+1)
}

// SyntheticHeader builds fallback column names Col1..ColN for files where no
// header row was found.
func SyntheticHeader(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = syntheticColumnName(i)
	}
	return out
}

// widestRow returns the maximum cell count across rows. The synthetic header
// is sized from it so a narrow title row cannot truncate wider data rows.
func widestRow(rows [][]string) int {
	max := 0
	for _, row := range rows {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}
