package ingests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"borecon/common"
	"borecon/parsers"
	"borecon/schema"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ProgressUpdateFrequency controls how often chunk progress is saved to the
// job row (every N chunks). Set to 1 to save after every chunk.
const ProgressUpdateFrequency = 5

// running tracks cancel functions of in-flight ingestion runs so the cancel
// endpoint can reach them. Two runs never share state beyond this map.
var running = struct {
	sync.Mutex
	cancels map[string]context.CancelFunc
}{cancels: make(map[string]context.CancelFunc)}

// CreateIngestionResponse is returned when an ingestion job is created
type CreateIngestionResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// GetIngestionResponse reports job status and chunk-level progress
type GetIngestionResponse struct {
	JobID         string   `json:"job_id"`
	Side          string   `json:"side"`
	FileName      string   `json:"file_name"`
	Status        string   `json:"status"`
	TotalRows     int      `json:"total_rows"`
	ProcessedRows int      `json:"processed_rows"`
	Percent       float64  `json:"percent"`
	Message       string   `json:"message,omitempty"`
	HeaderRow     int      `json:"header_row"`
	Remapped      bool     `json:"remapped"`
	Columns       []string `json:"columns,omitempty"`
	Error         string   `json:"error,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	CompletedAt   *string  `json:"completed_at,omitempty"`
}

// RegisterRoutes wires the ingestion endpoints
func RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", CreateIngestion)
	r.GET("/:job_id", GetIngestion)
	r.DELETE("/:job_id", CancelIngestion)
}

// CreateIngestion accepts a BO or partner export upload and queues it for
// background ingestion.
func CreateIngestion(c *gin.Context) {
	db := common.GetDB()

	idempotencyKey := c.GetHeader("Idempotency-Key")
	if idempotencyKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key header is required"})
		return
	}

	var existingJob common.IngestionJob
	if err := db.Where("idempotency_key = ?", idempotencyKey).First(&existingJob).Error; err == nil {
		c.JSON(http.StatusOK, CreateIngestionResponse{
			JobID:     existingJob.ID,
			Status:    existingJob.Status,
			CreatedAt: existingJob.CreatedAt.Format(time.RFC3339),
		})
		return
	}

	side := c.PostForm("side")
	if side != common.SideBO && side != common.SidePartner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be bo or partner"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".xls" && ext != ".xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be .csv, .xls or .xlsx"})
		return
	}

	os.MkdirAll(common.UploadsDir, 0755)

	stem := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	fileName := fmt.Sprintf("%s_%s_%s%s",
		time.Now().Format("20060102_150405"), slug.Make(stem), uuid.New().String()[:8], ext)
	filePath := filepath.Join(common.UploadsDir, fileName)

	out, err := os.Create(filePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	job := common.IngestionJob{
		ID:             uuid.New().String(),
		IdempotencyKey: idempotencyKey,
		Side:           side,
		FileName:       header.Filename,
		FilePath:       filePath,
		Status:         common.JobStatusPending,
		HeaderRow:      -1,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := db.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ingestion job"})
		return
	}

	go ProcessIngestionJob(job.ID)

	c.JSON(http.StatusAccepted, CreateIngestionResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	})
}

// GetIngestion reports the status and progress of an ingestion job
func GetIngestion(c *gin.Context) {
	db := common.GetDB()
	jobID := c.Param("job_id")

	var job common.IngestionJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingestion job not found"})
		return
	}

	c.Set("rows_processed", job.ProcessedRows)

	response := GetIngestionResponse{
		JobID:         job.ID,
		Side:          job.Side,
		FileName:      job.FileName,
		Status:        job.Status,
		TotalRows:     job.TotalRows,
		ProcessedRows: job.ProcessedRows,
		Percent:       job.Percent,
		Message:       job.Message,
		HeaderRow:     job.HeaderRow,
		Remapped:      job.Remapped,
		Error:         job.Error,
		CreatedAt:     job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     job.UpdatedAt.Format(time.RFC3339),
	}

	if job.Columns != "" {
		var cols []string
		if err := json.Unmarshal([]byte(job.Columns), &cols); err == nil {
			response.Columns = cols
		}
	}
	if job.CompletedAt != nil {
		completedStr := job.CompletedAt.Format(time.RFC3339)
		response.CompletedAt = &completedStr
	}

	c.JSON(http.StatusOK, response)
}

// CancelIngestion signals a processing job's context; the pipeline stops at
// the next chunk boundary.
func CancelIngestion(c *gin.Context) {
	db := common.GetDB()
	jobID := c.Param("job_id")

	var job common.IngestionJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingestion job not found"})
		return
	}

	running.Lock()
	cancel, ok := running.cancels[jobID]
	running.Unlock()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Job is not processing"})
		return
	}

	cancel()
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "status": "cancelling"})
}

// ProcessIngestionJob runs one ingestion in the background: parse, remap,
// persist the canonical dataset, and keep the job row's progress current.
func ProcessIngestionJob(jobID string) {
	db := common.GetDB()

	var job common.IngestionJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	running.Lock()
	running.cancels[jobID] = cancel
	running.Unlock()
	defer func() {
		cancel()
		running.Lock()
		delete(running.cancels, jobID)
		running.Unlock()
	}()

	job.Status = common.JobStatusProcessing
	job.UpdatedAt = time.Now()
	db.Save(&job)

	logger := slog.Default().With("job_id", jobID, "file", job.FileName)

	ds, headerRow, err := parseUpload(ctx, &job, db, logger)
	if err != nil {
		finishJob(db, &job, err)
		return
	}
	job.HeaderRow = headerRow

	remapped, wasRemapped, err := schema.Remap(ctx, ds, job.FileName, logger)
	if err != nil {
		finishJob(db, &job, err)
		return
	}
	job.Remapped = wasRemapped

	if err := persistDataset(&job, remapped); err != nil {
		finishJob(db, &job, err)
		return
	}

	job.TotalRows = len(remapped.Records)
	job.ProcessedRows = len(remapped.Records)
	job.Percent = 100
	job.Message = fmt.Sprintf("materialized %d records", len(remapped.Records))
	finishJob(db, &job, nil)
	log.Printf("Ingestion job %s completed: %d records from %s", job.ID, len(remapped.Records), job.FileName)
}

// parseUpload picks the source reader by extension and runs the chunked
// pipeline, saving progress to the job row between chunks.
func parseUpload(ctx context.Context, job *common.IngestionJob, db *gorm.DB, logger *slog.Logger) (*parsers.Dataset, int, error) {
	progress := &parsers.ProgressState{}
	chunks := 0
	opts := parsers.PipelineOptions{
		OnChunk: func(p *parsers.ProgressState) {
			chunks++
			if chunks%ProgressUpdateFrequency == 0 {
				job.TotalRows = p.TotalRows
				job.ProcessedRows = p.RowsProcessed
				job.Percent = p.Percent
				job.Message = p.Message
				job.UpdatedAt = time.Now()
				db.Save(job)
			}
		},
	}

	if strings.EqualFold(filepath.Ext(job.FileName), ".csv") {
		f, err := os.Open(job.FilePath)
		if err != nil {
			return nil, -1, &parsers.IngestError{Stage: "read", File: job.FileName, Err: err}
		}
		defer f.Close()
		return parsers.ReadDelimited(ctx, f, job.FileName, opts, progress, logger)
	}

	data, err := os.ReadFile(job.FilePath)
	if err != nil {
		return nil, -1, &parsers.IngestError{Stage: "read", File: job.FileName, Err: err}
	}
	return parsers.ReadWorkbook(ctx, data, job.FileName, opts, progress, logger)
}

// persistDataset writes the canonical records next to the upload and records
// the column order on the job row.
func persistDataset(job *common.IngestionJob, ds *parsers.Dataset) error {
	os.MkdirAll(common.DatasetsDir, 0755)
	path := filepath.Join(common.DatasetsDir, job.ID+".ndjson")

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := parsers.WriteDataset(f, ds); err != nil {
		return err
	}

	cols, _ := json.Marshal(ds.Columns)
	job.Columns = string(cols)
	job.DatasetPath = path
	return nil
}

// finishJob records the terminal status of a run. A cancelled run is terminal
// as cancelled, never as a partial success.
func finishJob(db *gorm.DB, job *common.IngestionJob, err error) {
	now := time.Now()
	job.UpdatedAt = now
	job.CompletedAt = &now

	switch {
	case err == nil:
		job.Status = common.JobStatusCompleted
	case errors.Is(err, parsers.ErrCancelled):
		job.Status = common.JobStatusCancelled
		job.Message = "cancelled"
		log.Printf("Ingestion job %s cancelled", job.ID)
	default:
		job.Status = common.JobStatusFailed
		job.Error = err.Error()
		log.Printf("Ingestion job %s failed: %v", job.ID, err)
	}

	db.Save(job)
}
