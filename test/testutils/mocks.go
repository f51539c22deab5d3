// Package testutils provides mocks, factories and database helpers for tests
package testutils

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/mealplan"
	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/review"
	"github.com/foodtrack/api/internal/domain/shared"
	"github.com/foodtrack/api/internal/domain/shoppinglist"
	"github.com/foodtrack/api/internal/domain/submission"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// get returns argument i as T, or the zero value when it was registered as nil
func get[T any](args mock.Arguments, i int) T {
	var zero T
	if v, ok := args.Get(i).(T); ok {
		return v
	}
	return zero
}

// MockRecipeRepository provides a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

var _ outbound.RecipeRepository = (*MockRecipeRepository)(nil)

func (m *MockRecipeRepository) FindEligible(ctx context.Context, c planning.Criteria, limit int) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, c, limit)
	return get[[]*recipe.Recipe](args, 0), args.Error(1)
}

func (m *MockRecipeRepository) FindAny(ctx context.Context, limit int) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, limit)
	return get[[]*recipe.Recipe](args, 0), args.Error(1)
}

func (m *MockRecipeRepository) Create(ctx context.Context, r *recipe.Recipe) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRecipeRepository) Update(ctx context.Context, r *recipe.Recipe) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	return get[*recipe.Recipe](args, 0), args.Error(1)
}

func (m *MockRecipeRepository) FindBySlug(ctx context.Context, slug string) (*recipe.Recipe, error) {
	args := m.Called(ctx, slug)
	return get[*recipe.Recipe](args, 0), args.Error(1)
}

func (m *MockRecipeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, ids)
	return get[[]*recipe.Recipe](args, 0), args.Error(1)
}

func (m *MockRecipeRepository) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	args := m.Called(ctx, slug, exclude)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, q outbound.RecipeQuery) ([]*recipe.Recipe, int64, error) {
	args := m.Called(ctx, q)
	return get[[]*recipe.Recipe](args, 0), get[int64](args, 1), args.Error(2)
}

func (m *MockRecipeRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return get[int64](args, 0), args.Error(1)
}

// MockIngredientRepository provides a mock implementation of IngredientRepository
type MockIngredientRepository struct {
	mock.Mock
}

var _ outbound.IngredientRepository = (*MockIngredientRepository)(nil)

func (m *MockIngredientRepository) Create(ctx context.Context, ing *ingredient.Ingredient) error {
	return m.Called(ctx, ing).Error(0)
}

func (m *MockIngredientRepository) FindByID(ctx context.Context, id uuid.UUID) (*ingredient.Ingredient, error) {
	args := m.Called(ctx, id)
	return get[*ingredient.Ingredient](args, 0), args.Error(1)
}

func (m *MockIngredientRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*ingredient.Ingredient, error) {
	args := m.Called(ctx, ids)
	return get[[]*ingredient.Ingredient](args, 0), args.Error(1)
}

func (m *MockIngredientRepository) FindByName(ctx context.Context, name string) (*ingredient.Ingredient, error) {
	args := m.Called(ctx, name)
	return get[*ingredient.Ingredient](args, 0), args.Error(1)
}

func (m *MockIngredientRepository) List(ctx context.Context, search string, category *ingredient.Category) ([]*ingredient.Ingredient, error) {
	args := m.Called(ctx, search, category)
	return get[[]*ingredient.Ingredient](args, 0), args.Error(1)
}

// MockMealPlanRepository provides a mock implementation of MealPlanRepository
type MockMealPlanRepository struct {
	mock.Mock
}

var _ outbound.MealPlanRepository = (*MockMealPlanRepository)(nil)

func (m *MockMealPlanRepository) Create(ctx context.Context, plan *mealplan.MealPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockMealPlanRepository) Update(ctx context.Context, plan *mealplan.MealPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockMealPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMealPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error) {
	args := m.Called(ctx, id)
	return get[*mealplan.MealPlan](args, 0), args.Error(1)
}

func (m *MockMealPlanRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*mealplan.MealPlan, error) {
	args := m.Called(ctx, userID)
	return get[[]*mealplan.MealPlan](args, 0), args.Error(1)
}

// MockShoppingListRepository provides a mock implementation of ShoppingListRepository
type MockShoppingListRepository struct {
	mock.Mock
}

var _ outbound.ShoppingListRepository = (*MockShoppingListRepository)(nil)

func (m *MockShoppingListRepository) Create(ctx context.Context, list *shoppinglist.ShoppingList) error {
	return m.Called(ctx, list).Error(0)
}

func (m *MockShoppingListRepository) Update(ctx context.Context, list *shoppinglist.ShoppingList) error {
	return m.Called(ctx, list).Error(0)
}

func (m *MockShoppingListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockShoppingListRepository) FindByID(ctx context.Context, id uuid.UUID) (*shoppinglist.ShoppingList, error) {
	args := m.Called(ctx, id)
	return get[*shoppinglist.ShoppingList](args, 0), args.Error(1)
}

func (m *MockShoppingListRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*shoppinglist.ShoppingList, error) {
	args := m.Called(ctx, userID)
	return get[[]*shoppinglist.ShoppingList](args, 0), args.Error(1)
}

// MockSubmissionRepository provides a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

var _ outbound.SubmissionRepository = (*MockSubmissionRepository)(nil)

func (m *MockSubmissionRepository) Create(ctx context.Context, s *submission.Submission) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSubmissionRepository) Update(ctx context.Context, s *submission.Submission) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSubmissionRepository) FindByToken(ctx context.Context, token string) (*submission.Submission, error) {
	args := m.Called(ctx, token)
	return get[*submission.Submission](args, 0), args.Error(1)
}

// MockReviewRepository provides a mock implementation of ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

var _ outbound.ReviewRepository = (*MockReviewRepository)(nil)

func (m *MockReviewRepository) Create(ctx context.Context, r *review.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	args := m.Called(ctx, id)
	return get[*review.Review](args, 0), args.Error(1)
}

func (m *MockReviewRepository) FindByUserAndRecipe(ctx context.Context, userID, recipeID uuid.UUID) (*review.Review, error) {
	args := m.Called(ctx, userID, recipeID)
	return get[*review.Review](args, 0), args.Error(1)
}

func (m *MockReviewRepository) ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]*review.Review, error) {
	args := m.Called(ctx, recipeID)
	return get[[]*review.Review](args, 0), args.Error(1)
}

func (m *MockReviewRepository) Summary(ctx context.Context, recipeID uuid.UUID) (review.Summary, error) {
	args := m.Called(ctx, recipeID)
	return get[review.Summary](args, 0), args.Error(1)
}

func (m *MockReviewRepository) CreateReport(ctx context.Context, report *review.Report) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockReviewRepository) FindReport(ctx context.Context, reviewID, userID uuid.UUID) (*review.Report, error) {
	args := m.Called(ctx, reviewID, userID)
	return get[*review.Report](args, 0), args.Error(1)
}

func (m *MockReviewRepository) FindReportByToken(ctx context.Context, token string) (*review.Report, error) {
	args := m.Called(ctx, token)
	return get[*review.Report](args, 0), args.Error(1)
}

// MockUserRepository provides a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

var _ outbound.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	return get[*user.User](args, 0), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	return get[*user.User](args, 0), args.Error(1)
}

// MockTokenService provides a mock implementation of TokenService
type MockTokenService struct {
	mock.Mock
}

var _ outbound.TokenService = (*MockTokenService)(nil)

func (m *MockTokenService) Issue(ctx context.Context, u *user.User) (outbound.TokenPair, error) {
	args := m.Called(ctx, u)
	return get[outbound.TokenPair](args, 0), args.Error(1)
}

func (m *MockTokenService) Validate(ctx context.Context, token string, expected outbound.TokenType) (*outbound.TokenClaims, error) {
	args := m.Called(ctx, token, expected)
	return get[*outbound.TokenClaims](args, 0), args.Error(1)
}

func (m *MockTokenService) Revoke(ctx context.Context, claims *outbound.TokenClaims) error {
	return m.Called(ctx, claims).Error(0)
}

// MockEmailService provides a mock implementation of EmailService
type MockEmailService struct {
	mock.Mock
}

var _ outbound.EmailService = (*MockEmailService)(nil)

func (m *MockEmailService) SendSubmissionApproval(ctx context.Context, msg outbound.SubmissionEmail) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockEmailService) SendReviewNotice(ctx context.Context, msg outbound.ReviewEmail) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockEmailService) SendReviewReport(ctx context.Context, msg outbound.ReportEmail) error {
	return m.Called(ctx, msg).Error(0)
}

// MockImageStorage provides a mock implementation of ImageStorage.
// Save drains the body so tests can inspect what was stored.
type MockImageStorage struct {
	mock.Mock
	Stored []byte
}

var _ outbound.ImageStorage = (*MockImageStorage)(nil)

func (m *MockImageStorage) Save(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.Stored = data
	args := m.Called(ctx, name, contentType, size)
	return args.String(0), args.Error(1)
}

// EventRecorder is an EventPublisher that keeps every published event
type EventRecorder struct {
	mu     sync.Mutex
	Events []shared.DomainEvent
}

var _ outbound.EventPublisher = (*EventRecorder)(nil)

func (r *EventRecorder) Publish(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, events...)
	return nil
}

// Names returns the recorded event names in publish order
func (r *EventRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		names = append(names, e.EventName())
	}
	return names
}

// BroadcastRecorder is a ListBroadcaster that keeps every event
type BroadcastRecorder struct {
	mu     sync.Mutex
	Events []outbound.ListEvent
}

var _ outbound.ListBroadcaster = (*BroadcastRecorder)(nil)

func (r *BroadcastRecorder) Broadcast(_ uuid.UUID, event outbound.ListEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// Types returns the recorded event types in order
func (r *BroadcastRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}

// Selection is one call recorded by MetricsRecorder
type Selection struct {
	Stage     string
	Requested int
	Selected  int
}

// MetricsRecorder is a PlanningMetrics that keeps every observation
type MetricsRecorder struct {
	mu         sync.Mutex
	Selections []Selection
}

var _ outbound.PlanningMetrics = (*MetricsRecorder)(nil)

func (r *MetricsRecorder) ObserveSelection(stage string, requested, selected int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Selections = append(r.Selections, Selection{Stage: stage, Requested: requested, Selected: selected})
}
