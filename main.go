package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"borecon/common"
	"borecon/exports"
	"borecon/ingests"
	"borecon/models"
	"borecon/reconciliations"
)

func Migrate(db *gorm.DB) {
	models.AutoMigrate()
	common.AutoMigrateJobs(db)
}

func main() {
	db := common.Init()
	Migrate(db)

	sqlDB, err := db.DB()
	if err != nil {
		log.Println("Failed to get sql.DB:", err)
	} else {
		defer sqlDB.Close()
	}

	r := gin.Default()
	r.RedirectTrailingSlash = false
	r.Use(common.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	ingests.RegisterRoutes(v1.Group("/ingests"))
	exports.RegisterRoutes(v1.Group("/exports"))
	models.RegisterRoutes(v1.Group("/models"))
	reconciliations.RegisterRoutes(v1.Group("/reconciliations"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
