// Package apitest runs the complete API over a throwaway sqlite database
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

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
	"github.com/foodtrack/api/internal/infrastructure/container"
	"github.com/foodtrack/api/internal/infrastructure/http/apiserver"
	"github.com/foodtrack/api/internal/infrastructure/monitoring"
	gormrepo "github.com/foodtrack/api/internal/infrastructure/persistence/gorm"
	"github.com/foodtrack/api/internal/infrastructure/persistence/memory"
	"github.com/foodtrack/api/internal/infrastructure/realtime"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/internal/infrastructure/storage"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/healthcheck"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// AdminEmail registers with the admin role on every stack
const AdminEmail = "admin@foodtrack.test"

// ModerationEmail receives submission and review notifications
const ModerationEmail = "moderation@foodtrack.test"

// Outbox records the emails the services would have sent
type Outbox struct {
	mu          sync.Mutex
	submissions []outbound.SubmissionEmail
	notices     []outbound.ReviewEmail
	reports     []outbound.ReportEmail
}

var _ outbound.EmailService = (*Outbox)(nil)

func (o *Outbox) SendSubmissionApproval(_ context.Context, msg outbound.SubmissionEmail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.submissions = append(o.submissions, msg)
	return nil
}

func (o *Outbox) SendReviewNotice(_ context.Context, msg outbound.ReviewEmail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notices = append(o.notices, msg)
	return nil
}

func (o *Outbox) SendReviewReport(_ context.Context, msg outbound.ReportEmail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, msg)
	return nil
}

// Submissions returns the approval requests sent so far
func (o *Outbox) Submissions() []outbound.SubmissionEmail {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]outbound.SubmissionEmail(nil), o.submissions...)
}

// Reports returns the review reports sent so far
func (o *Outbox) Reports() []outbound.ReportEmail {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]outbound.ReportEmail(nil), o.reports...)
}

// Stack is a fully wired API server
type Stack struct {
	t       *testing.T
	Config  *config.Config
	DB      *gorm.DB
	Server  *apiserver.Server
	Handler http.Handler
	Outbox  *Outbox
}

// New wires every service over a fresh sqlite file. extraConfig is appended
// to the generated config file.
func New(t *testing.T, extraConfig string) *Stack {
	t.Helper()
	dir := t.TempDir()
	log := zaptest.NewLogger(t)

	body := fmt.Sprintf(`app:
  log_level: error
  public_url: http://api.foodtrack.test
database:
  driver: sqlite
  path: %s
storage:
  local_dir: %s
auth:
  jwt_secret: apitest-secret
  admin_emails:
    - %s
email:
  admin_email: %s
  frontend_url: http://foodtrack.test
%s`, filepath.Join(dir, "foodtrack.db"), filepath.Join(dir, "uploads"), AdminEmail, ModerationEmail, extraConfig)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	db, err := container.OpenDatabase(cfg.Database, log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, container.Migrate(cfg.Database, db, log))

	recipes := gormrepo.NewRecipeRepository(db)
	ingredients := gormrepo.NewIngredientRepository(db)
	plans := gormrepo.NewMealPlanRepository(db)
	lists := gormrepo.NewShoppingListRepository(db)
	submissions := gormrepo.NewSubmissionRepository(db)
	reviews := gormrepo.NewReviewRepository(db)
	users := gormrepo.NewUserRepository(db)

	cache := memory.NewCacheRepository()
	metrics := monitoring.NewMetrics(log)
	events := monitoring.NewEventLogger(log, metrics)
	outbox := &Outbox{}

	hub := realtime.NewHub(cfg.Server.AllowedOrigins, log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	limiter := security.NewRateLimiter(cfg.RateLimit, log)
	t.Cleanup(limiter.Close)

	images, err := storage.New(cfg, log)
	require.NoError(t, err)

	policy, err := planning.ParseFallbackPolicy(cfg.Planning.FallbackPolicy)
	require.NoError(t, err)
	selector := planning.NewSelector(recipes, planning.WithFallback(policy))

	recipeSvc := recipe.NewRecipeService(recipes, ingredients, cache, events, log)
	ingredientSvc := ingredient.NewIngredientService(ingredients, log)
	tokens := security.NewTokenService(cfg.Auth, cache, log)

	health := healthcheck.New(cfg.App.Version, log)
	health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))

	opts := apiserver.Options{
		Config: cfg,
		Logger: log,
		Services: apiserver.Services{
			Users:       user.NewUserService(users, tokens, cfg.Auth.AdminEmails, log),
			Recipes:     recipeSvc,
			Ingredients: ingredientSvc,
			MealPlans: mealplan.NewMealPlanService(plans, recipes, users, selector, metrics, events,
				mealplan.Defaults{
					MaxPrepTime:   cfg.Planning.DefaultMaxPrepTime,
					HouseholdSize: cfg.Planning.DefaultHouseholdSize,
				}, log),
			ShoppingLists: shoppinglist.NewShoppingListService(lists, plans, recipes, ingredients, hub, log),
			Submissions: submission.NewSubmissionService(submissions, recipes, ingredients, users,
				recipeSvc, ingredientSvc, outbox,
				submission.Notification{AdminEmail: cfg.Email.AdminEmail, FrontendURL: cfg.Email.FrontendURL}, log),
			Reviews: review.NewReviewService(reviews, recipes, users, outbox, recipeSvc,
				review.Notification{AdminEmail: cfg.Email.AdminEmail, APIURL: cfg.App.PublicURL}, log),
			Media: media.NewMediaService(images, log),
		},
		Live:    hub,
		Limiter: limiter,
		Metrics: metrics,
		Health:  health,
	}
	if local, ok := images.(interface{ Root() string }); ok {
		opts.UploadsDir = local.Root()
	}
	server, err := apiserver.New(context.Background(), opts)
	require.NoError(t, err)

	return &Stack{
		t:       t,
		Config:  cfg,
		DB:      db,
		Server:  server,
		Handler: server.Handler(),
		Outbox:  outbox,
	}
}

// Do sends a request with an optional JSON body and bearer token
func (s *Stack) Do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

// Register creates an account and returns its tokens
func (s *Stack) Register(email string) inbound.AuthResponse {
	s.t.Helper()
	rec := s.Do(http.MethodPost, "/api/v1/auth/register", "", inbound.RegisterCommand{
		Email:    email,
		Password: "password123",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	var auth inbound.AuthResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &auth))
	return auth
}
