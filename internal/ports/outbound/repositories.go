// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/mealplan"
	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/review"
	"github.com/foodtrack/api/internal/domain/shoppinglist"
	"github.com/foodtrack/api/internal/domain/submission"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/google/uuid"
)

// Lookups return (nil, nil) when the entity does not exist.

// RecipeRepository defines the interface for recipe persistence.
// It doubles as the selector's catalog.
type RecipeRepository interface {
	planning.Catalog

	Create(ctx context.Context, recipe *recipe.Recipe) error
	Update(ctx context.Context, recipe *recipe.Recipe) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	FindBySlug(ctx context.Context, slug string) (*recipe.Recipe, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error)
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)

	// List returns one page of recipes with ratings filled in, and the total match count
	List(ctx context.Context, query RecipeQuery) ([]*recipe.Recipe, int64, error)
	Count(ctx context.Context) (int64, error)
}

// RecipeSort orders recipe listings
type RecipeSort string

const (
	SortByCreatedAt RecipeSort = "createdAt"
	SortByTitle     RecipeSort = "title"
	SortByRating    RecipeSort = "rating"
)

// RecipeQuery defines search parameters for recipes
type RecipeQuery struct {
	Search      string
	DietTypes   []recipe.DietType
	Difficulty  *recipe.Difficulty
	MaxPrepTime *int
	Tools       []string
	Tags        []string
	SortBy      RecipeSort
	Offset      int
	Limit       int
}

// IngredientRepository defines the interface for ingredient persistence
type IngredientRepository interface {
	Create(ctx context.Context, ing *ingredient.Ingredient) error
	FindByID(ctx context.Context, id uuid.UUID) (*ingredient.Ingredient, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*ingredient.Ingredient, error)
	// FindByName matches case-insensitively
	FindByName(ctx context.Context, name string) (*ingredient.Ingredient, error)
	List(ctx context.Context, search string, category *ingredient.Category) ([]*ingredient.Ingredient, error)
}

// MealPlanRepository defines the interface for meal plan persistence
type MealPlanRepository interface {
	Create(ctx context.Context, plan *mealplan.MealPlan) error
	// Update saves the plan and replaces its entries
	Update(ctx context.Context, plan *mealplan.MealPlan) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error)
	// FindByUserID returns newest first
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*mealplan.MealPlan, error)
}

// ShoppingListRepository defines the interface for shopping list persistence
type ShoppingListRepository interface {
	Create(ctx context.Context, list *shoppinglist.ShoppingList) error
	// Update saves the list and replaces its items
	Update(ctx context.Context, list *shoppinglist.ShoppingList) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*shoppinglist.ShoppingList, error)
	// FindByUserID returns newest first
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*shoppinglist.ShoppingList, error)
}

// SubmissionRepository defines the interface for recipe submission persistence
type SubmissionRepository interface {
	Create(ctx context.Context, s *submission.Submission) error
	Update(ctx context.Context, s *submission.Submission) error
	FindByToken(ctx context.Context, token string) (*submission.Submission, error)
}

// ReviewRepository defines the interface for review and report persistence
type ReviewRepository interface {
	Create(ctx context.Context, r *review.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*review.Review, error)
	FindByUserAndRecipe(ctx context.Context, userID, recipeID uuid.UUID) (*review.Review, error)
	// ListByRecipe returns newest first
	ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]*review.Review, error)
	Summary(ctx context.Context, recipeID uuid.UUID) (review.Summary, error)

	CreateReport(ctx context.Context, report *review.Report) error
	FindReport(ctx context.Context, reviewID, userID uuid.UUID) (*review.Report, error)
	FindReportByToken(ctx context.Context, token string) (*review.Report, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *user.User) error
	Update(ctx context.Context, user *user.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	// Get returns ErrCacheMiss when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)
}
