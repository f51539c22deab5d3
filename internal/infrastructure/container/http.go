package container

import (
	"context"

	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/infrastructure/http/apiserver"
	"github.com/foodtrack/api/internal/infrastructure/http/handlers"
	"github.com/foodtrack/api/internal/infrastructure/monitoring"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/healthcheck"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HTTPModule provides the API server and starts it with the application
var HTTPModule = fx.Options(
	fx.Provide(
		provideHealth,
		provideServer,
	),
	fx.Invoke(registerCollectors, startServer),
)

type healthDeps struct {
	fx.In

	Config *config.Config
	DB     *gorm.DB
	Redis  redis.UniversalClient
	Logger *zap.Logger
}

func provideHealth(d healthDeps) (*healthcheck.HealthCheck, error) {
	health := healthcheck.New(d.Config.App.Version, d.Logger)

	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}
	health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	if d.Redis != nil {
		health.Register("redis", healthcheck.NewRedisChecker(d.Redis))
	}
	return health, nil
}

type serverDeps struct {
	fx.In

	Config        *config.Config
	Logger        *zap.Logger
	Users         inbound.UserService
	Recipes       inbound.RecipeService
	Ingredients   inbound.IngredientService
	MealPlans     inbound.MealPlanService
	ShoppingLists inbound.ShoppingListService
	Submissions   inbound.SubmissionService
	Reviews       inbound.ReviewService
	Media         inbound.MediaService
	Live          handlers.LiveServer
	Limiter       *security.RateLimiter
	Metrics       *monitoring.Metrics
	Tracing       *monitoring.TracingProvider
	Health        *healthcheck.HealthCheck
	Storage       outbound.ImageStorage
}

func provideServer(d serverDeps) (*apiserver.Server, error) {
	opts := apiserver.Options{
		Config: d.Config,
		Logger: d.Logger,
		Services: apiserver.Services{
			Users:         d.Users,
			Recipes:       d.Recipes,
			Ingredients:   d.Ingredients,
			MealPlans:     d.MealPlans,
			ShoppingLists: d.ShoppingLists,
			Submissions:   d.Submissions,
			Reviews:       d.Reviews,
			Media:         d.Media,
		},
		Live:    d.Live,
		Limiter: d.Limiter,
		Metrics: d.Metrics,
		Tracing: d.Tracing,
		Health:  d.Health,
	}
	// local uploads are served by the API itself
	if local, ok := d.Storage.(interface{ Root() string }); ok {
		opts.UploadsDir = local.Root()
	}
	return apiserver.New(context.Background(), opts)
}

// registerCollectors exposes connection pool and catalog gauges
func registerCollectors(cfg *config.Config, metrics *monitoring.Metrics, db *gorm.DB, recipes outbound.RecipeRepository) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := metrics.RegisterDB(sqlDB, cfg.Database.Driver); err != nil {
		return err
	}
	return metrics.RegisterCatalogSize(recipes.Count)
}

func startServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, server *apiserver.Server, cfg *config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("Starting FoodTrack API",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)
			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
