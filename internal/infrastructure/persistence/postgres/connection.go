// Package postgres opens the PostgreSQL connection pool
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/foodtrack/api/internal/infrastructure/config"
	gormrepo "github.com/foodtrack/api/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

const pingTimeout = 10 * time.Second

// Open connects to the primary database and registers read replicas
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 gormrepo.NewLogger(log, cfg.SlowThreshold),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := registerReplicas(db, cfg); err != nil {
		return nil, err
	}

	log.Info("Database connected",
		zap.String("driver", "postgres"),
		zap.String("host", cfg.Host),
		zap.Int("replicas", len(cfg.Replicas)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return db, nil
}

// registerReplicas routes reads to the configured replica hosts
func registerReplicas(db *gorm.DB, cfg config.DatabaseConfig) error {
	if len(cfg.Replicas) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, 0, len(cfg.Replicas))
	for _, host := range cfg.Replicas {
		replica := cfg
		replica.Host = host
		replicas = append(replicas, postgres.Open(replica.DSN()))
	}

	err := db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(cfg.MaxOpenConns).
		SetConnMaxLifetime(cfg.ConnMaxLifetime))
	if err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}
	return nil
}
