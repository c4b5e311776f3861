package models

import (
	"strings"
	"time"

	"borecon/common"

	"github.com/google/uuid"
)

// ModelValidator validates reconciliation model records before they are saved
type ModelValidator struct {
	existingIDs      map[string]bool
	existingPatterns map[string]bool
}

// NewModelValidator creates a validator with pre-loaded existing data
func NewModelValidator() *ModelValidator {
	db := common.GetDB()

	validator := &ModelValidator{
		existingIDs:      make(map[string]bool),
		existingPatterns: make(map[string]bool),
	}

	var existing []ReconciliationModel
	db.Select("id, file_pattern, file_type").Find(&existing)

	for _, m := range existing {
		validator.existingIDs[m.ID] = true
		validator.existingPatterns[patternKey(m.FileType, m.FilePattern)] = true
	}

	return validator
}

func patternKey(fileType, pattern string) string {
	return fileType + "|" + strings.ToLower(strings.TrimSpace(pattern))
}

// ValidateModelRecord validates a single reconciliation model
func (v *ModelValidator) ValidateModelRecord(m *ReconciliationModel, rowNum int) *common.RecordValidationResult {
	result := &common.RecordValidationResult{
		RowNumber: rowNum,
		RecordID:  m.ID,
		Valid:     true,
	}

	if err := common.ValidateRequired("name", m.Name); err != nil {
		result.AddError(err.Field, err.Message)
	}

	fileType := strings.TrimSpace(m.FileType)
	if err := common.ValidateEnum("file_type", fileType, []string{common.SideBO, common.SidePartner}); err != nil {
		result.AddError(err.Field, err.Message)
	}

	pattern := strings.TrimSpace(m.FilePattern)
	if err := common.ValidateRequired("file_pattern", pattern); err != nil {
		result.AddError(err.Field, err.Message)
	} else if v.existingPatterns[patternKey(fileType, pattern)] {
		result.AddError("file_pattern", "A model with this file pattern already exists")
	}

	if err := common.ValidateStringList("partner_keys", m.PartnerKeys, 1); err != nil {
		result.AddError(err.Field, err.Message)
	}

	// the BO side needs keys from either the generic list or per-BO entries
	if err := common.ValidateStringList("bo_keys", m.BoKeys, 1); err != nil {
		if len(m.PerBoKeyList()) == 0 {
			result.AddError("bo_keys", "bo_keys or per_bo_model_keys must provide at least one key")
		}
	}

	if m.PerBoModelKeys != "" && m.PerBoKeyList() == nil {
		result.AddError("per_bo_model_keys", "per_bo_model_keys must be a JSON array of {bo_model, keys} entries")
	}

	if m.BoTreatments != "" && m.TreatmentList() == nil {
		result.AddError("bo_treatments", "bo_treatments must be a JSON array of {field, transform} entries")
	}

	// track for subsequent validations in the same batch
	if result.Valid {
		v.existingPatterns[patternKey(fileType, pattern)] = true
	}

	return result
}

// NormalizeModelRecord trims fields and fills defaults for a model record
func NormalizeModelRecord(m *ReconciliationModel) {
	now := time.Now()

	if strings.TrimSpace(m.ID) == "" {
		m.ID = uuid.New().String()
	}
	m.Name = strings.TrimSpace(m.Name)
	m.FileType = strings.TrimSpace(m.FileType)
	m.FilePattern = strings.TrimSpace(m.FilePattern)

	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}
