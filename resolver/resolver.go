// Package resolver picks the BO-side and partner-side join-key columns for a
// pair of parsed datasets, driven by the externally configured reconciliation
// models. There is deliberately no heuristic fallback when no model applies:
// a silently wrong join is worse than a hard stop.
package resolver

import (
	"fmt"
	"io"
	"log/slog"

	"borecon/matching"
	"borecon/models"
	"borecon/parsers"
)

// KeyDetectionResult holds the resolved join-key columns. It is either fully
// populated or the resolution failed; there is no partial result.
type KeyDetectionResult struct {
	BoKeyColumn      string  `json:"bo_key_column"`
	PartnerKeyColumn string  `json:"partner_key_column"`
	ModelID          string  `json:"model_id"`
	Confidence       float64 `json:"confidence"`
}

// NoModelError is the hard failure raised when no configured model's file
// pattern matches the partner file.
type NoModelError struct {
	BoFile      string
	PartnerFile string
}

func (e *NoModelError) Error() string {
	return fmt.Sprintf(
		"no automatic processing model matches partner file %q (BO file %q): configure an automatic processing model for these files before running the reconciliation",
		e.PartnerFile, e.BoFile)
}

// KeysUnresolvedError is the hard failure raised when models matched the file
// name but none of them resolved a key column on both sides.
type KeysUnresolvedError struct {
	BoFile      string
	PartnerFile string
	ModelIDs    []string
}

func (e *KeysUnresolvedError) Error() string {
	return fmt.Sprintf(
		"no configured model resolves key columns for BO file %q and partner file %q (models tried: %v): review the models' reconciliation keys",
		e.BoFile, e.PartnerFile, e.ModelIDs)
}

// perBoConfidence is reported when keys resolved through a per-BO-model entry
// rather than the model's generic key lists.
const perBoConfidence = 0.9

// DetectKeys resolves the join-key columns for a BO/partner dataset pair.
// The model set is injected per call so resolution is reentrant and testable
// with an arbitrary configuration. Terminal on first success or explicit
// failure; never returns a result when the filtered model set is empty.
func DetectKeys(boDS, partnerDS *parsers.Dataset, boFile, partnerFile string, modelSet []models.ReconciliationModel, logger *slog.Logger) (*KeyDetectionResult, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var candidates []models.ReconciliationModel
	for _, m := range modelSet {
		if m.FileType == "partner" && models.MatchesFileName(m.FilePattern, partnerFile) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		logger.Debug("no model matches partner file", "partner_file", partnerFile)
		return nil, &NoModelError{BoFile: boFile, PartnerFile: partnerFile}
	}

	tried := make([]string, 0, len(candidates))
	for _, m := range candidates {
		tried = append(tried, m.ID)

		partnerRes := matching.ResolveWithFallback(m.PartnerKeyList(), partnerDS, nil, logger)
		if !partnerRes.Found {
			logger.Debug("partner keys unresolved", "model", m.ID)
			continue
		}

		// generic keys first; accepted immediately when both sides resolve
		boRes := matching.ResolveWithFallback(m.BoKeyList(), boDS, nil, logger)
		if boRes.Found {
			logger.Debug("keys resolved via generic model keys",
				"model", m.ID, "bo_column", boRes.ResolvedColumn, "partner_column", partnerRes.ResolvedColumn)
			return &KeyDetectionResult{
				BoKeyColumn:      boRes.ResolvedColumn,
				PartnerKeyColumn: partnerRes.ResolvedColumn,
				ModelID:          m.ID,
				Confidence:       1.0,
			}, nil
		}

		// per-BO-model keys in configured order
		for _, pb := range m.PerBoKeyList() {
			boRes := matching.ResolveWithFallback(pb.Keys, boDS, nil, logger)
			if boRes.Found {
				logger.Debug("keys resolved via per-BO-model keys",
					"model", m.ID, "bo_model", pb.BoModel, "bo_column", boRes.ResolvedColumn)
				return &KeyDetectionResult{
					BoKeyColumn:      boRes.ResolvedColumn,
					PartnerKeyColumn: partnerRes.ResolvedColumn,
					ModelID:          m.ID,
					Confidence:       perBoConfidence,
				}, nil
			}
		}
	}

	return nil, &KeysUnresolvedError{BoFile: boFile, PartnerFile: partnerFile, ModelIDs: tried}
}
