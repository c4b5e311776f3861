package common

import (
	"time"

	"gorm.io/gorm"
)

// Job statuses for ingestion runs
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// File sides for reconciliation
const (
	SideBO      = "bo"
	SidePartner = "partner"
)

// IngestionJob tracks the status of one file ingestion run
type IngestionJob struct {
	ID             string     `gorm:"primaryKey;type:text" json:"id"`
	IdempotencyKey string     `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	Side           string     `gorm:"not null" json:"side"` // bo, partner
	FileName       string     `gorm:"not null" json:"file_name"`
	FilePath       string     `json:"file_path,omitempty"`
	DatasetPath    string     `json:"dataset_path,omitempty"`
	Columns        string     `gorm:"type:text" json:"columns,omitempty"` // JSON array, canonical order
	Status         string     `gorm:"not null" json:"status"`
	TotalRows      int        `gorm:"default:0" json:"total_rows"`
	ProcessedRows  int        `gorm:"default:0" json:"processed_rows"`
	Percent        float64    `gorm:"default:0" json:"percent"`
	Message        string     `json:"message,omitempty"`
	HeaderRow      int        `gorm:"default:0" json:"header_row"`
	Remapped       bool       `gorm:"default:false" json:"remapped"`
	Error          string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ApiMetric tracks API performance metrics
type ApiMetric struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Endpoint      string    `gorm:"not null" json:"endpoint"`
	Method        string    `gorm:"not null" json:"method"`
	StatusCode    int       `gorm:"not null" json:"status_code"`
	DurationMs    int       `gorm:"not null" json:"duration_ms"`
	RowsProcessed int       `gorm:"default:0" json:"rows_processed"`
	Errors        string    `gorm:"type:text" json:"errors,omitempty"`
	Timestamp     time.Time `gorm:"not null" json:"timestamp"`
}

func (IngestionJob) TableName() string { return "ingestion_jobs" }
func (ApiMetric) TableName() string    { return "api_metrics" }

// AutoMigrateJobs creates the job tracking tables
func AutoMigrateJobs(db *gorm.DB) {
	db.AutoMigrate(&IngestionJob{}, &ApiMetric{})
}
