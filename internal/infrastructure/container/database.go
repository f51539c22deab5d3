package container

import (
	"context"
	"fmt"

	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/infrastructure/persistence/memory"
	"github.com/foodtrack/api/internal/infrastructure/persistence/migrations"
	"github.com/foodtrack/api/internal/infrastructure/persistence/postgres"
	redisrepo "github.com/foodtrack/api/internal/infrastructure/persistence/redis"
	"github.com/foodtrack/api/internal/infrastructure/persistence/seed"
	"github.com/foodtrack/api/internal/infrastructure/persistence/sqlite"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cachePrefix namespaces every Redis key of the application
const cachePrefix = "foodtrack:"

// OpenDatabase connects to the configured driver
func OpenDatabase(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg, log)
	case "postgres":
		return postgres.Open(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate brings the schema up to date. Postgres uses the versioned SQL
// migrations; sqlite is migrated from the GORM models.
func Migrate(cfg config.DatabaseConfig, db *gorm.DB, log *zap.Logger) error {
	if cfg.Driver == "sqlite" {
		return sqlite.Migrate(db)
	}

	m, err := migrations.Open(cfg.DSN(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

func provideDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := OpenDatabase(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() error {
		log.Info("Closing database connection")
		return sqlDB.Close()
	}))

	if cfg.Database.AutoMigrate {
		if err := Migrate(cfg.Database, db, log); err != nil {
			return nil, err
		}
	}
	return db, nil
}

type cacheResult struct {
	fx.Out

	Cache outbound.CacheRepository
	// Redis is nil when the in-memory cache is used
	Redis redis.UniversalClient
}

func provideCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (cacheResult, error) {
	if !cfg.Redis.Enabled() {
		log.Info("Using in-memory cache")
		return cacheResult{Cache: memory.NewCacheRepository()}, nil
	}

	client, err := redisrepo.NewClient(context.Background(), cfg.Redis, log)
	if err != nil {
		return cacheResult{}, err
	}
	lc.Append(fx.StopHook(client.Close))
	return cacheResult{
		Cache: redisrepo.NewCacheRepository(client, cachePrefix, log),
		Redis: client,
	}, nil
}

// SeedCatalog writes the embedded starter catalog
func SeedCatalog(ctx context.Context, ingredients outbound.IngredientRepository, recipes outbound.RecipeRepository, log *zap.Logger) (seed.Result, error) {
	catalog, err := seed.Default()
	if err != nil {
		return seed.Result{}, err
	}
	return seed.NewSeeder(ingredients, recipes, log).Run(ctx, catalog)
}

func seedOnStart(lc fx.Lifecycle, cfg *config.Config, ingredients outbound.IngredientRepository, recipes outbound.RecipeRepository, log *zap.Logger) {
	if !cfg.Database.Seed {
		return
	}
	lc.Append(fx.StartHook(func(ctx context.Context) error {
		_, err := SeedCatalog(ctx, ingredients, recipes, log)
		return err
	}))
}
