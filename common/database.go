package common

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// UploadsDir is where uploaded BO and partner files are stored before ingestion
const UploadsDir = "./uploads"

// DatasetsDir is where materialized canonical datasets are stored after ingestion
const DatasetsDir = "./datasets"

var db *gorm.DB

// Init opens the sqlite database and keeps a package-level handle
func Init() *gorm.DB {
	conn, err := gorm.Open(sqlite.Open("borecon.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	db = conn
	return db
}

// TestDBInit opens an in-memory database for handler tests
func TestDBInit() *gorm.DB {
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatal("Failed to open test database:", err)
	}
	db = conn
	return db
}

// GetDB returns the shared database handle
func GetDB() *gorm.DB {
	return db
}
