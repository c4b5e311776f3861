package reconciliations

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"borecon/common"
	"borecon/models"
	"borecon/parsers"
	"borecon/resolver"

	"github.com/gin-gonic/gin"
)

// DetectKeysRequest names the two completed ingestion jobs to join
type DetectKeysRequest struct {
	BoJobID      string `json:"bo_job_id" binding:"required"`
	PartnerJobID string `json:"partner_job_id" binding:"required"`
}

// RegisterRoutes wires the reconciliation endpoints
func RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/keys", DetectKeys)
}

// DetectKeys resolves the BO-side and partner-side join-key columns for a
// pair of completed ingestion jobs, using the configured models. When no
// model applies this fails hard with an actionable message; there is no
// heuristic default key.
func DetectKeys(c *gin.Context) {
	db := common.GetDB()

	var req DetectKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	boJob, err := loadCompletedJob(req.BoJobID, common.SideBO)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	partnerJob, err := loadCompletedJob(req.PartnerJobID, common.SidePartner)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	boDS, err := loadDataset(boJob)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to load BO dataset: %v", err)})
		return
	}
	partnerDS, err := loadDataset(partnerJob)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to load partner dataset: %v", err)})
		return
	}

	var modelSet []models.ReconciliationModel
	if err := db.Find(&modelSet).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reconciliation models"})
		return
	}

	c.Set("rows_processed", len(boDS.Records)+len(partnerDS.Records))

	result, err := resolver.DetectKeys(boDS, partnerDS, boJob.FileName, partnerJob.FileName, modelSet, slog.Default())
	if err != nil {
		var noModel *resolver.NoModelError
		var unresolved *resolver.KeysUnresolvedError
		if errors.As(err, &noModel) || errors.As(err, &unresolved) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func loadCompletedJob(jobID, side string) (*common.IngestionJob, error) {
	db := common.GetDB()

	var job common.IngestionJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		return nil, fmt.Errorf("ingestion job %s not found", jobID)
	}
	if job.Side != side {
		return nil, fmt.Errorf("ingestion job %s is a %s file, expected %s", jobID, job.Side, side)
	}
	if job.Status != common.JobStatusCompleted {
		return nil, fmt.Errorf("ingestion job %s is %s, not completed", jobID, job.Status)
	}
	return &job, nil
}

func loadDataset(job *common.IngestionJob) (*parsers.Dataset, error) {
	var columns []string
	if job.Columns != "" {
		if err := json.Unmarshal([]byte(job.Columns), &columns); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(job.DatasetPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parsers.ReadDataset(f, job.FileName, columns)
}
