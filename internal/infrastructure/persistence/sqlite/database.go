// Package sqlite opens the embedded SQLite database
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/foodtrack/api/internal/infrastructure/config"
	gormrepo "github.com/foodtrack/api/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open opens the database file at cfg.Path, or a private in-memory
// database when the path is empty
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dsn := "file::memory:?_foreign_keys=on"
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", cfg.Path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormrepo.NewLogger(log, cfg.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// sqlite serialises writers; one connection also keeps :memory: alive
	sqlDB.SetMaxOpenConns(1)

	log.Info("Database connected",
		zap.String("driver", "sqlite"),
		zap.String("path", cfg.Path),
	)
	return db, nil
}

// Migrate creates or updates the schema from the GORM models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(gormrepo.Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
