// Package models stores the externally configured reconciliation models the
// key resolver matches file names against. The models are created and edited
// by the back-office configuration screens; the ingestion core only reads
// them.
package models

import (
	"encoding/json"
	"time"

	"borecon/common"
)

// PerBoKeys scopes partner-side key candidates to one BO-side sub-model.
// Stored as a JSON array so the configured order is preserved.
type PerBoKeys struct {
	BoModel string   `json:"bo_model"`
	Keys    []string `json:"keys"`
}

// Treatment is a per-field transform applied to BO values before matching.
type Treatment struct {
	Field     string `json:"field"`
	Transform string `json:"transform"`
}

// ReconciliationModel maps a file-name pattern to the reconciliation key
// columns of both sides.
type ReconciliationModel struct {
	ID             string    `gorm:"primaryKey;type:text" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	FileType       string    `gorm:"not null" json:"file_type"` // bo, partner
	FilePattern    string    `gorm:"not null" json:"file_pattern"`
	BoKeys         string    `gorm:"type:text" json:"bo_keys"`          // JSON array of column candidates
	PartnerKeys    string    `gorm:"type:text" json:"partner_keys"`    // JSON array of column candidates
	PerBoModelKeys string    `gorm:"type:text" json:"per_bo_model_keys,omitempty"` // JSON array of PerBoKeys
	BoTreatments   string    `gorm:"type:text" json:"bo_treatments,omitempty"`     // JSON array of Treatment
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (ReconciliationModel) TableName() string { return "reconciliation_models" }

// BoKeyList decodes the generic BO-side key candidates, in configured order.
func (m *ReconciliationModel) BoKeyList() []string {
	return decodeStringList(m.BoKeys)
}

// PartnerKeyList decodes the partner-side key candidates, in configured order.
func (m *ReconciliationModel) PartnerKeyList() []string {
	return decodeStringList(m.PartnerKeys)
}

// PerBoKeyList decodes the per-BO-model key entries, in configured order.
func (m *ReconciliationModel) PerBoKeyList() []PerBoKeys {
	if m.PerBoModelKeys == "" {
		return nil
	}
	var list []PerBoKeys
	if err := json.Unmarshal([]byte(m.PerBoModelKeys), &list); err != nil {
		return nil
	}
	return list
}

// TreatmentList decodes the per-field BO transforms.
func (m *ReconciliationModel) TreatmentList() []Treatment {
	if m.BoTreatments == "" {
		return nil
	}
	var list []Treatment
	if err := json.Unmarshal([]byte(m.BoTreatments), &list); err != nil {
		return nil
	}
	return list
}

func decodeStringList(s string) []string {
	if s == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	return list
}

// AutoMigrate creates the reconciliation_models table
func AutoMigrate() {
	db := common.GetDB()
	db.AutoMigrate(&ReconciliationModel{})
}
