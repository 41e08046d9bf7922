package database

import (
	"log"
	"os"

	"dream_journal_go_backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "dream_journal.db"
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto Migrate the schema
	err = DB.AutoMigrate(&models.StorageItem{})
	if err != nil {
		log.Fatal("Failed to auto migrate:", err)
	}
}
