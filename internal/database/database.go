package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Initialize opens the sqlite database and migrates the schema.
func Initialize(dbPath string) error {
	var initErr error
	once.Do(func() {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create database directory: %w", err)
			return
		}

		var err error
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
		if err != nil {
			initErr = fmt.Errorf("failed to connect to database: %w", err)
			return
		}

		if err := db.AutoMigrate(
			&models.Contract{},
			&models.RecurringInvoiceSchedule{},
			&models.ScheduledReportSchedule{},
			&models.Invoice{},
			&models.GenerationRecord{},
			&models.User{},
		); err != nil {
			initErr = fmt.Errorf("failed to migrate database: %w", err)
			return
		}

		log.Info().Str("path", dbPath).Msg("database initialized")
	})

	return initErr
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	if db == nil {
		panic("Database not initialized. Call Initialize() first")
	}
	return db
}

// Close closes the database connection.
func Close() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}

	return sqlDB.Close()
}
