// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/infrastructure/http/handlers"
	"github.com/foodtrack/api/internal/infrastructure/http/middleware"
	"github.com/foodtrack/api/internal/infrastructure/http/openapi"
	"github.com/foodtrack/api/internal/infrastructure/monitoring"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/internal/infrastructure/storage"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// compressionLevel applies to both gzip and brotli
const compressionLevel = 5

// Services are the use cases exposed over HTTP
type Services struct {
	Users         inbound.UserService
	Recipes       inbound.RecipeService
	Ingredients   inbound.IngredientService
	MealPlans     inbound.MealPlanService
	ShoppingLists inbound.ShoppingListService
	Submissions   inbound.SubmissionService
	Reviews       inbound.ReviewService
	Media         inbound.MediaService
}

// Options holds everything the server wires together. Metrics, Tracing,
// Health and UploadsDir are optional.
type Options struct {
	Config     *config.Config
	Logger     *zap.Logger
	Services   Services
	Live       handlers.LiveServer
	Limiter    *security.RateLimiter
	Metrics    *monitoring.Metrics
	Tracing    *monitoring.TracingProvider
	Health     *healthcheck.HealthCheck
	UploadsDir string
}

// Server is the JSON API HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	router *chi.Mux
	server *http.Server
}

// New builds the router and the underlying http.Server
func New(ctx context.Context, opts Options) (*Server, error) {
	docs, err := openapi.NewHandler(ctx)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: opts.Config,
		logger: opts.Logger.Named("http"),
	}
	s.router = s.routes(opts, docs)

	cfg := opts.Config.Server
	var handler http.Handler = s.router
	if opts.Tracing != nil && opts.Tracing.Enabled() {
		handler = opts.Tracing.Middleware(opts.Config.Monitoring.ServiceName)(handler)
	}
	s.server = &http.Server{
		Addr:           cfg.Address(),
		Handler:        handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
	return s, nil
}

func (s *Server) routes(opts Options, docs http.Handler) *chi.Mux {
	cfg := opts.Config
	validator := security.NewValidator()
	authH := handlers.NewAuthHandlers(opts.Services.Users, validator, s.logger)
	recipeH := handlers.NewRecipeHandlers(opts.Services.Recipes, opts.Services.Ingredients, validator, s.logger)
	communityH := handlers.NewCommunityHandlers(opts.Services.Reviews, opts.Services.Submissions, opts.Services.Media, validator, s.logger)
	planningH := handlers.NewPlanningHandlers(opts.Services.MealPlans, opts.Services.ShoppingLists, opts.Live, validator, s.logger)

	authenticate := middleware.Authenticate(opts.Services.Users, s.logger)
	admin := middleware.RequireAdmin(s.logger)
	limit := func(t security.RateLimitType) func(http.Handler) http.Handler {
		if opts.Limiter == nil || !cfg.RateLimit.Enable {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RateLimit(opts.Limiter, t, s.logger)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.NotFound(w, r, s.logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.MethodNotAllowed(w, r, s.logger)
	})

	if opts.Health != nil {
		r.Get("/health", opts.Health.LivenessHandler())
		r.Get("/health/ready", opts.Health.ReadinessHandler())
	}
	if opts.Metrics != nil && cfg.Monitoring.EnableMetrics {
		r.Handle("/metrics", opts.Metrics.Handler())
	}
	if opts.UploadsDir != "" {
		files := http.StripPrefix(storage.UploadsPath+"/", http.FileServer(http.Dir(opts.UploadsDir)))
		r.Handle(storage.UploadsPath+"/*", files)
	}
	r.Method(http.MethodGet, "/api/openapi.json", docs)

	r.Route("/api/v1", func(r chi.Router) {
		// Live subscriptions outlive the request timeout and must not be
		// buffered by the compressor.
		r.With(authenticate, limit(security.RateLimitGeneral)).
			Get("/shopping-lists/{id}/live", planningH.Live)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
			r.Use(s.compressor().Handler)
			s.apiRoutes(r, authenticate, admin, limit, authH, recipeH, communityH, planningH)
		})
	})

	return r
}

func (s *Server) apiRoutes(
	r chi.Router,
	authenticate, admin func(http.Handler) http.Handler,
	limit func(security.RateLimitType) func(http.Handler) http.Handler,
	authH *handlers.AuthHandlers,
	recipeH *handlers.RecipeHandlers,
	communityH *handlers.CommunityHandlers,
	planningH *handlers.PlanningHandlers,
) {
	r.Group(func(r chi.Router) {
		r.Use(limit(security.RateLimitAuth))
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/refresh", authH.Refresh)
	})

	// Public reads
	r.Group(func(r chi.Router) {
		r.Use(limit(security.RateLimitGeneral))
		r.Get("/recipes", recipeH.ListRecipes)
		r.Get("/recipes/slug/{slug}", recipeH.GetRecipeBySlug)
		r.Get("/recipes/{id}", recipeH.GetRecipe)
		r.Get("/recipes/{id}/servings/{servings}", recipeH.GetRecipeWithServings)
		r.Get("/recipes/{id}/reviews", communityH.ListReviews)
		r.Get("/ingredients", recipeH.ListIngredients)
		r.Get("/ingredients/{id}", recipeH.GetIngredient)

		// Moderation links carry their own secret token
		r.Delete("/reviews/delete/{token}", communityH.DeleteReviewByToken)
		r.Get("/recipe-submissions/{token}", communityH.GetSubmission)
		r.Post("/recipe-submissions/approve/{token}", communityH.ApproveSubmission)
		r.Post("/recipe-submissions/reject/{token}", communityH.RejectSubmission)
	})

	// Authenticated users
	r.Group(func(r chi.Router) {
		r.Use(authenticate, limit(security.RateLimitGeneral))

		r.Post("/auth/logout", authH.Logout)
		r.Get("/auth/profile", authH.Me)
		r.Get("/users/me", authH.Me)
		r.Patch("/users/me", authH.UpdateMe)
		r.Patch("/users/me/tutorial-seen", authH.MarkTutorialSeen)
		r.Get("/users/me/settings", authH.GetSettings)
		r.Patch("/users/me/settings", authH.UpdateSettings)

		r.Post("/recipes/{id}/reviews", communityH.CreateReview)
		r.Delete("/recipes/{id}/reviews/{reviewId}", communityH.DeleteReview)
		r.Post("/recipes/{id}/reviews/{reviewId}/report", communityH.ReportReview)
		r.Post("/recipe-submissions", communityH.Submit)
		r.Post("/upload/image", communityH.UploadImage)

		r.Get("/meal-plans", planningH.ListMealPlans)
		r.Post("/meal-plans", planningH.CreateMealPlan)
		r.Post("/meal-plans/generate", planningH.GenerateMealPlan)
		r.Get("/meal-plans/{id}", planningH.GetMealPlan)
		r.Patch("/meal-plans/{id}", planningH.UpdateMealPlan)
		r.Delete("/meal-plans/{id}", planningH.DeleteMealPlan)
		r.Post("/meal-plans/{id}/recipes", planningH.AddRecipe)
		r.Delete("/meal-plans/{id}/recipes/{recipeId}", planningH.RemoveRecipe)

		r.Get("/shopping-lists", planningH.ListShoppingLists)
		r.Post("/shopping-lists", planningH.CreateShoppingList)
		r.Post("/shopping-lists/generate", planningH.GenerateShoppingList)
		r.Get("/shopping-lists/{id}", planningH.GetShoppingList)
		r.Get("/shopping-lists/{id}/grouped", planningH.GetGroupedShoppingList)
		r.Patch("/shopping-lists/{id}", planningH.UpdateShoppingList)
		r.Delete("/shopping-lists/{id}", planningH.DeleteShoppingList)
		r.Patch("/shopping-lists/{id}/items/{itemId}", planningH.UpdateItem)
		r.Delete("/shopping-lists/{id}/items/{itemId}", planningH.RemoveItem)

		// Catalog management
		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/recipes", recipeH.CreateRecipe)
			r.Patch("/recipes/{id}", recipeH.UpdateRecipe)
			r.Delete("/recipes/{id}", recipeH.DeleteRecipe)
			r.Post("/ingredients", recipeH.CreateIngredient)
		})
	})
}

// compressor negotiates brotli ahead of gzip and deflate for JSON bodies
func (s *Server) compressor() *chimiddleware.Compressor {
	c := chimiddleware.NewCompressor(compressionLevel, "application/json", "text/plain")
	if s.config.Server.EnableCompression {
		c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
			return brotli.NewWriterLevel(w, level)
		})
	}
	return c
}

// Handler returns the routed handler without the tracing wrapper
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Server returns the underlying HTTP server instance
func (s *Server) Server() *http.Server {
	return s.server
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
