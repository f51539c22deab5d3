// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
)

// RecipeService defines the use cases for the recipe catalog
// This is the primary port that HTTP handlers and other driving adapters will use
type RecipeService interface {
	// Commands - operations that modify state
	CreateRecipe(ctx context.Context, cmd RecipeCommand) (*RecipeDTO, error)
	UpdateRecipe(ctx context.Context, id uuid.UUID, cmd UpdateRecipeCommand) (*RecipeDTO, error)
	DeleteRecipe(ctx context.Context, id uuid.UUID) error

	// Queries - operations that read state
	ListRecipes(ctx context.Context, query ListRecipesQuery) (*RecipeList, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*RecipeDTO, error)
	GetRecipeBySlug(ctx context.Context, slug string) (*RecipeDTO, error)
	GetRecipeWithServings(ctx context.Context, id uuid.UUID, servings int) (*RecipeDTO, error)
}

// Command objects for operations

// RecipeCommand contains data for creating a recipe
type RecipeCommand struct {
	Title         string                  `json:"title" validate:"required,notblank,max=200"`
	Description   string                  `json:"description"`
	ImageURL      string                  `json:"imageUrl"`
	PrepTime      int                     `json:"prepTime" validate:"min=1"`
	CookTime      int                     `json:"cookTime" validate:"min=0"`
	Difficulty    recipe.Difficulty       `json:"difficulty" validate:"required,difficulty"`
	Servings      int                     `json:"servings" validate:"min=1"`
	IsAdaptable   *bool                   `json:"isAdaptable"`
	Tags          []string                `json:"tags"`
	ToolsRequired []string                `json:"toolsRequired"`
	DietTypes     []recipe.DietType       `json:"dietTypes" validate:"dive,diet"`
	Calories      *int                    `json:"calories" validate:"omitempty,min=0"`
	Carbohydrates *float64                `json:"carbohydrates" validate:"omitempty,min=0"`
	Fats          *float64                `json:"fats" validate:"omitempty,min=0"`
	Proteins      *float64                `json:"proteins" validate:"omitempty,min=0"`
	Fibers        *float64                `json:"fibers" validate:"omitempty,min=0"`
	Ingredients   []RecipeIngredientInput `json:"ingredients" validate:"dive"`
	Steps         []StepInput             `json:"steps" validate:"dive"`
}

// UpdateRecipeCommand contains a partial recipe update; absent fields are untouched
type UpdateRecipeCommand struct {
	Title         *string                 `json:"title" validate:"omitempty,max=200"`
	Description   *string                 `json:"description"`
	ImageURL      *string                 `json:"imageUrl"`
	PrepTime      *int                    `json:"prepTime" validate:"omitempty,min=1"`
	CookTime      *int                    `json:"cookTime" validate:"omitempty,min=0"`
	Difficulty    *recipe.Difficulty      `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Servings      *int                    `json:"servings" validate:"omitempty,min=1"`
	IsAdaptable   *bool                   `json:"isAdaptable"`
	Tags          []string                `json:"tags"`
	ToolsRequired []string                `json:"toolsRequired"`
	DietTypes     []recipe.DietType       `json:"dietTypes" validate:"omitempty,dive,oneof=VEGETARIAN VEGAN PESCATARIAN"`
	Calories      *int                    `json:"calories" validate:"omitempty,min=0"`
	Carbohydrates *float64                `json:"carbohydrates" validate:"omitempty,min=0"`
	Fats          *float64                `json:"fats" validate:"omitempty,min=0"`
	Proteins      *float64                `json:"proteins" validate:"omitempty,min=0"`
	Fibers        *float64                `json:"fibers" validate:"omitempty,min=0"`
	Ingredients   []RecipeIngredientInput `json:"ingredients" validate:"omitempty,dive"`
	Steps         []StepInput             `json:"steps" validate:"omitempty,dive"`
}

// RecipeIngredientInput is one ingredient line of a recipe command
type RecipeIngredientInput struct {
	IngredientID uuid.UUID   `json:"ingredientId" validate:"required"`
	Quantity     float64     `json:"quantity" validate:"min=0"`
	Unit         recipe.Unit `json:"unit" validate:"required,unit"`
	Optional     bool        `json:"optional"`
}

// StepInput is one preparation step of a recipe command
type StepInput struct {
	StepNumber  int    `json:"stepNumber" validate:"min=1"`
	Instruction string `json:"instruction" validate:"required"`
}

// Query objects

// ListRecipesQuery defines catalog search parameters
type ListRecipesQuery struct {
	Search        string
	DietTypes     []recipe.DietType
	Difficulty    *recipe.Difficulty
	MaxPrepTime   *int
	ToolsRequired []string
	Tags          []string
	SortBy        string
	Page          int
	Limit         int
}

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Response DTOs

// RecipeDTO is the data transfer object for recipes
type RecipeDTO struct {
	ID            uuid.UUID             `json:"id"`
	Title         string                `json:"title"`
	Slug          string                `json:"slug"`
	Description   string                `json:"description"`
	ImageURL      string                `json:"imageUrl,omitempty"`
	PrepTime      int                   `json:"prepTime"`
	CookTime      int                   `json:"cookTime"`
	Difficulty    recipe.Difficulty     `json:"difficulty"`
	Servings      int                   `json:"servings"`
	IsAdaptable   bool                  `json:"isAdaptable"`
	Tags          []string              `json:"tags"`
	ToolsRequired []string              `json:"toolsRequired"`
	DietTypes     []recipe.DietType     `json:"dietTypes"`
	Calories      *int                  `json:"calories"`
	Carbohydrates *float64              `json:"carbohydrates"`
	Fats          *float64              `json:"fats"`
	Proteins      *float64              `json:"proteins"`
	Fibers        *float64              `json:"fibers"`
	Ingredients   []RecipeIngredientDTO `json:"ingredients"`
	Steps         []StepDTO             `json:"steps"`
	AverageRating *float64              `json:"averageRating"`
	ReviewCount   int                   `json:"reviewCount"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// RecipeIngredientDTO is one ingredient line of a recipe
type RecipeIngredientDTO struct {
	IngredientID uuid.UUID   `json:"ingredientId"`
	Name         string      `json:"name"`
	Quantity     float64     `json:"quantity"`
	Unit         recipe.Unit `json:"unit"`
	Optional     bool        `json:"optional"`
}

// StepDTO is one preparation step
type StepDTO struct {
	StepNumber  int    `json:"stepNumber"`
	Instruction string `json:"instruction"`
}

// RecipeList is one page of recipes
type RecipeList struct {
	Data []RecipeDTO `json:"data"`
	Meta PageMeta    `json:"meta"`
}

// PageMeta describes a page of results
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// IngredientService defines the use cases for the ingredient reference list
type IngredientService interface {
	ListIngredients(ctx context.Context, search string, category string) ([]IngredientDTO, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*IngredientDTO, error)
	CreateIngredient(ctx context.Context, cmd CreateIngredientCommand) (*IngredientDTO, error)
	FindOrCreateIngredient(ctx context.Context, name string) (*IngredientDTO, error)
}

// CreateIngredientCommand contains data for creating an ingredient
type CreateIngredientCommand struct {
	Name        string      `json:"name" validate:"required,max=100"`
	Category    string      `json:"category" validate:"required,category"`
	DefaultUnit recipe.Unit `json:"defaultUnit" validate:"required,unit"`
}

// IngredientDTO is the data transfer object for ingredients
type IngredientDTO struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	DefaultUnit recipe.Unit `json:"defaultUnit"`
}
