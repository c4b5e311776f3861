package exports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"borecon/common"
	"borecon/parsers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the dataset export endpoint
func RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", StreamExport)
}

// StreamExport streams a completed ingestion job's canonical records back out
// as CSV or NDJSON, in record order, without loading the dataset into memory.
func StreamExport(c *gin.Context) {
	db := common.GetDB()

	jobID := c.Query("job_id")
	format := c.Query("format")

	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id parameter is required"})
		return
	}
	if format != "csv" && format != "ndjson" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or ndjson"})
		return
	}

	var job common.IngestionJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingestion job not found"})
		return
	}
	if job.Status != common.JobStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Job is %s, not completed", job.Status)})
		return
	}

	f, err := os.Open(job.DatasetPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open dataset"})
		return
	}
	defer f.Close()

	c.Set("rows_processed", job.TotalRows)

	if format == "ndjson" {
		c.Header("Content-Type", "application/x-ndjson")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ndjson"`, job.ID))
		c.File(job.DatasetPath)
		return
	}

	var columns []string
	if job.Columns != "" {
		if err := json.Unmarshal([]byte(job.Columns), &columns); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode column order"})
			return
		}
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, job.ID))

	w := csv.NewWriter(c.Writer)
	w.Write(columns)

	records, errs := parsers.StreamRecords(f)
	go func() {
		for range errs {
		}
	}()

	row := make([]string, len(columns))
	for rec := range records {
		for i, col := range columns {
			row[i] = rec[col]
		}
		w.Write(row)
	}
	w.Flush()
}
