// Package container wires the application together with Uber FX
package container

import (
	"context"
	"fmt"

	"github.com/foodtrack/api/internal/application/ingredient"
	"github.com/foodtrack/api/internal/application/mealplan"
	"github.com/foodtrack/api/internal/application/media"
	"github.com/foodtrack/api/internal/application/recipe"
	"github.com/foodtrack/api/internal/application/review"
	"github.com/foodtrack/api/internal/application/shoppinglist"
	"github.com/foodtrack/api/internal/application/submission"
	"github.com/foodtrack/api/internal/application/user"
	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/infrastructure/email"
	"github.com/foodtrack/api/internal/infrastructure/http/handlers"
	"github.com/foodtrack/api/internal/infrastructure/monitoring"
	gormrepo "github.com/foodtrack/api/internal/infrastructure/persistence/gorm"
	"github.com/foodtrack/api/internal/infrastructure/realtime"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/internal/infrastructure/storage"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Module provides every component of the API server
var Module = fx.Options(
	InfrastructureModule,
	RepositoryModule,
	ServiceModule,
	HTTPModule,
)

// New builds the application for cfg. Extra options are appended, which
// lets callers invoke one-off work such as seeding.
func New(cfg *config.Config, log *logger.Logger, opts ...fx.Option) *fx.App {
	base := []fx.Option{
		fx.Supply(cfg, log, log.Logger),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		Module,
	}
	return fx.New(append(base, opts...)...)
}

// InfrastructureModule provides storage, transport and observability adapters
var InfrastructureModule = fx.Options(
	fx.Provide(
		provideDatabase,
		provideCache,
		provideMetrics,
		provideTracing,
		provideEvents,
		provideHub,
		provideRateLimiter,
		storage.New,
		func(cfg *config.Config, log *zap.Logger) (outbound.EmailService, error) {
			return email.New(cfg.Email, log)
		},
		fx.Annotate(
			func(cfg *config.Config, cache outbound.CacheRepository, log *zap.Logger) *security.TokenService {
				return security.NewTokenService(cfg.Auth, cache, log)
			},
			fx.As(new(outbound.TokenService)),
		),
	),
	fx.Invoke(watchConfig),
)

// RepositoryModule provides the GORM repositories and seeds the catalog
// when database.seed is set
var RepositoryModule = fx.Options(
	fx.Provide(
		gormrepo.NewRecipeRepository,
		gormrepo.NewIngredientRepository,
		gormrepo.NewMealPlanRepository,
		gormrepo.NewShoppingListRepository,
		gormrepo.NewSubmissionRepository,
		gormrepo.NewReviewRepository,
		gormrepo.NewUserRepository,
	),
	fx.Invoke(seedOnStart),
)

// ServiceModule provides the application services
var ServiceModule = fx.Provide(
	fx.Annotate(
		recipe.NewRecipeService,
		fx.As(new(inbound.RecipeService), new(review.RatingInvalidator), new(submission.RecipeWriter)),
	),
	fx.Annotate(
		ingredient.NewIngredientService,
		fx.As(new(inbound.IngredientService), new(submission.IngredientResolver)),
	),
	provideSelector,
	fx.Annotate(
		provideMealPlanService,
		fx.As(new(inbound.MealPlanService)),
	),
	fx.Annotate(
		shoppinglist.NewShoppingListService,
		fx.As(new(inbound.ShoppingListService)),
	),
	fx.Annotate(
		provideReviewService,
		fx.As(new(inbound.ReviewService)),
	),
	fx.Annotate(
		provideSubmissionService,
		fx.As(new(inbound.SubmissionService)),
	),
	fx.Annotate(
		func(users outbound.UserRepository, tokens outbound.TokenService, cfg *config.Config, log *zap.Logger) *user.UserService {
			return user.NewUserService(users, tokens, cfg.Auth.AdminEmails, log)
		},
		fx.As(new(inbound.UserService)),
	),
	fx.Annotate(
		media.NewMediaService,
		fx.As(new(inbound.MediaService)),
	),
)

func provideSelector(cfg *config.Config, recipes outbound.RecipeRepository) (*planning.Selector, error) {
	policy, err := planning.ParseFallbackPolicy(cfg.Planning.FallbackPolicy)
	if err != nil {
		return nil, fmt.Errorf("planning.fallback_policy: %w", err)
	}
	return planning.NewSelector(recipes, planning.WithFallback(policy)), nil
}

type mealPlanDeps struct {
	fx.In

	Config   *config.Config
	Plans    outbound.MealPlanRepository
	Recipes  outbound.RecipeRepository
	Users    outbound.UserRepository
	Selector *planning.Selector
	Metrics  outbound.PlanningMetrics
	Events   outbound.EventPublisher
	Logger   *zap.Logger
}

func provideMealPlanService(d mealPlanDeps) *mealplan.MealPlanService {
	return mealplan.NewMealPlanService(
		d.Plans, d.Recipes, d.Users, d.Selector, d.Metrics, d.Events,
		mealplan.Defaults{
			MaxPrepTime:   d.Config.Planning.DefaultMaxPrepTime,
			HouseholdSize: d.Config.Planning.DefaultHouseholdSize,
		},
		d.Logger,
	)
}

type reviewDeps struct {
	fx.In

	Config      *config.Config
	Reviews     outbound.ReviewRepository
	Recipes     outbound.RecipeRepository
	Users       outbound.UserRepository
	Email       outbound.EmailService
	Invalidator review.RatingInvalidator
	Logger      *zap.Logger
}

func provideReviewService(d reviewDeps) *review.ReviewService {
	return review.NewReviewService(
		d.Reviews, d.Recipes, d.Users, d.Email, d.Invalidator,
		review.Notification{
			AdminEmail: d.Config.Email.AdminEmail,
			APIURL:     d.Config.App.PublicURL,
		},
		d.Logger,
	)
}

type submissionDeps struct {
	fx.In

	Config      *config.Config
	Submissions outbound.SubmissionRepository
	Recipes     outbound.RecipeRepository
	Ingredients outbound.IngredientRepository
	Users       outbound.UserRepository
	Writer      submission.RecipeWriter
	Resolver    submission.IngredientResolver
	Email       outbound.EmailService
	Logger      *zap.Logger
}

func provideSubmissionService(d submissionDeps) *submission.SubmissionService {
	return submission.NewSubmissionService(
		d.Submissions, d.Recipes, d.Ingredients, d.Users, d.Writer, d.Resolver, d.Email,
		submission.Notification{
			AdminEmail:  d.Config.Email.AdminEmail,
			FrontendURL: d.Config.Email.FrontendURL,
		},
		d.Logger,
	)
}

func provideMetrics(log *zap.Logger) (*monitoring.Metrics, outbound.PlanningMetrics) {
	m := monitoring.NewMetrics(log)
	return m, m
}

func provideTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(tp.Shutdown))
	return tp, nil
}

func provideEvents(log *zap.Logger, metrics *monitoring.Metrics) (*monitoring.EventLogger, outbound.EventPublisher) {
	events := monitoring.NewEventLogger(log, metrics)
	return events, events
}

type hubResult struct {
	fx.Out

	Hub         *realtime.Hub
	Broadcaster outbound.ListBroadcaster
	Live        handlers.LiveServer
}

func provideHub(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) hubResult {
	hub := realtime.NewHub(cfg.Server.AllowedOrigins, log)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return hubResult{Hub: hub, Broadcaster: hub, Live: hub}
}

func provideRateLimiter(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *security.RateLimiter {
	limiter := security.NewRateLimiter(cfg.RateLimit, log)
	lc.Append(fx.StopHook(limiter.Close))
	return limiter
}

// watchConfig applies log level changes from the config file at runtime
func watchConfig(cfg *config.Config, log *logger.Logger) error {
	return config.Watch(cfg, log.Logger, func(next *config.Config) {
		level := logger.ParseLevel(next.App.LogLevel)
		if level != log.Level.Level() {
			log.Level.SetLevel(level)
			log.Info("Log level changed", zap.String("level", level.String()))
		}
	})
}
