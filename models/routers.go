package models

import (
	"net/http"

	"borecon/common"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the minimal model configuration API. The full CRUD
// screens live in the back-office UI; this surface exists so operators can
// list and seed models.
func RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", ListModels)
	r.POST("", CreateModel)
}

// ListModels returns all configured reconciliation models
func ListModels(c *gin.Context) {
	db := common.GetDB()

	var list []ReconciliationModel
	if err := db.Order("created_at").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load models"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateModel validates and stores a reconciliation model
func CreateModel(c *gin.Context) {
	db := common.GetDB()

	var m ReconciliationModel
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validator := NewModelValidator()
	result := validator.ValidateModelRecord(&m, 1)
	if !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"errors": result.Errors})
		return
	}

	NormalizeModelRecord(&m)
	if err := db.Create(&m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create model"})
		return
	}

	c.JSON(http.StatusCreated, m)
}
