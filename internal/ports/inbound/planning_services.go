package inbound

import (
	"context"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
)

// MealPlanService defines the use cases for meal plans
type MealPlanService interface {
	CreateMealPlan(ctx context.Context, userID uuid.UUID, cmd CreateMealPlanCommand) (*MealPlanDTO, error)
	GenerateMealPlan(ctx context.Context, userID uuid.UUID, cmd GenerateMealPlanCommand) (*MealPlanDTO, error)
	ListMealPlans(ctx context.Context, userID uuid.UUID) ([]MealPlanDTO, error)
	GetMealPlan(ctx context.Context, id, userID uuid.UUID) (*MealPlanDTO, error)
	UpdateMealPlan(ctx context.Context, id, userID uuid.UUID, cmd UpdateMealPlanCommand) (*MealPlanDTO, error)
	DeleteMealPlan(ctx context.Context, id, userID uuid.UUID) error
	AddRecipe(ctx context.Context, id, userID uuid.UUID, cmd AddRecipeCommand) (*MealPlanDTO, error)
	RemoveRecipe(ctx context.Context, id, recipeID, userID uuid.UUID) (*MealPlanDTO, error)
}

// CreateMealPlanCommand contains data for creating a meal plan
type CreateMealPlanCommand struct {
	Title     string      `json:"title" validate:"required,notblank,max=200"`
	RecipeIDs []uuid.UUID `json:"recipeIds"`
}

// GenerateMealPlanCommand asks the planner for a set of recipes. Absent
// constraints fall back to the user's settings.
type GenerateMealPlanCommand struct {
	NumberOfMeals  int                `json:"numberOfMeals" validate:"min=1,max=21"`
	DietTypes      []recipe.DietType  `json:"dietTypes" validate:"omitempty,dive,oneof=VEGETARIAN VEGAN PESCATARIAN"`
	MaxDifficulty  *recipe.Difficulty `json:"maxDifficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	MaxPrepTime    *int               `json:"maxPrepTime" validate:"omitempty,min=5,max=240"`
	ToolsAvailable []string           `json:"toolsAvailable"`
}

// UpdateMealPlanCommand renames a meal plan
type UpdateMealPlanCommand struct {
	Title string `json:"title" validate:"required,notblank,max=200"`
}

// AddRecipeCommand plans a recipe
type AddRecipeCommand struct {
	RecipeID   uuid.UUID  `json:"recipeId" validate:"required"`
	Servings   *int       `json:"servings" validate:"omitempty,min=1"`
	PlannedFor *time.Time `json:"plannedFor"`
}

// MealPlanDTO is the data transfer object for meal plans
type MealPlanDTO struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"userId"`
	Title      string             `json:"title"`
	Recipes    []PlannedRecipeDTO `json:"recipes"`
	Generation *GenerationDTO     `json:"generation,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// PlannedRecipeDTO is one entry of a meal plan
type PlannedRecipeDTO struct {
	ID         uuid.UUID  `json:"id"`
	RecipeID   uuid.UUID  `json:"recipeId"`
	Servings   int        `json:"servings"`
	PlannedFor *time.Time `json:"plannedFor"`
	Recipe     *RecipeDTO `json:"recipe,omitempty"`
}

// GenerationDTO tells the caller how far the planner relaxed the request
type GenerationDTO struct {
	Stage     string `json:"stage"`
	Relaxed   bool   `json:"relaxed"`
	Requested int    `json:"requested"`
	Selected  int    `json:"selected"`
}

// ShoppingListService defines the use cases for shopping lists
type ShoppingListService interface {
	CreateShoppingList(ctx context.Context, userID uuid.UUID, cmd CreateShoppingListCommand) (*ShoppingListDTO, error)
	GenerateFromMealPlan(ctx context.Context, userID uuid.UUID, cmd GenerateShoppingListCommand) (*ShoppingListDTO, error)
	ListShoppingLists(ctx context.Context, userID uuid.UUID) ([]ShoppingListDTO, error)
	GetShoppingList(ctx context.Context, id, userID uuid.UUID) (*ShoppingListDTO, error)
	GetGroupedShoppingList(ctx context.Context, id, userID uuid.UUID) (*GroupedShoppingListDTO, error)
	UpdateShoppingList(ctx context.Context, id, userID uuid.UUID, cmd UpdateShoppingListCommand) (*ShoppingListDTO, error)
	DeleteShoppingList(ctx context.Context, id, userID uuid.UUID) error
	UpdateItem(ctx context.Context, id, itemID, userID uuid.UUID, cmd UpdateItemCommand) (*ShoppingItemDTO, error)
	RemoveItem(ctx context.Context, id, itemID, userID uuid.UUID) error
	// Authorize checks that userID may watch the list live
	Authorize(ctx context.Context, id, userID uuid.UUID) error
}

// CreateShoppingListCommand contains data for an empty shopping list
type CreateShoppingListCommand struct {
	Title      string     `json:"title" validate:"required,notblank,max=200"`
	MealPlanID *uuid.UUID `json:"mealPlanId"`
}

// GenerateShoppingListCommand builds a list from a meal plan
type GenerateShoppingListCommand struct {
	MealPlanID uuid.UUID `json:"mealPlanId" validate:"required"`
	Title      string    `json:"title" validate:"max=200"`
}

// UpdateShoppingListCommand changes a list title or status
type UpdateShoppingListCommand struct {
	Title  *string `json:"title" validate:"omitempty,max=200"`
	Status *string `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE COMPLETED"`
}

// UpdateItemCommand ticks an item or corrects its quantity
type UpdateItemCommand struct {
	Checked  *bool    `json:"checked"`
	Quantity *float64 `json:"quantity" validate:"omitempty,min=0"`
}

// ShoppingListDTO is the data transfer object for shopping lists
type ShoppingListDTO struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"userId"`
	MealPlanID *uuid.UUID        `json:"mealPlanId"`
	Title      string            `json:"title"`
	Status     string            `json:"status"`
	Items      []ShoppingItemDTO `json:"items"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// ShoppingItemDTO is one line of a shopping list
type ShoppingItemDTO struct {
	ID           uuid.UUID   `json:"id"`
	IngredientID uuid.UUID   `json:"ingredientId"`
	Name         string      `json:"name"`
	Category     string      `json:"category"`
	Quantity     float64     `json:"quantity"`
	Unit         recipe.Unit `json:"unit"`
	Checked      bool        `json:"checked"`
}

// GroupedShoppingListDTO is a shopping list with items grouped by category
type GroupedShoppingListDTO struct {
	ShoppingListDTO
	Groups []ItemGroupDTO `json:"groups"`
}

// ItemGroupDTO gathers the items of one ingredient category
type ItemGroupDTO struct {
	Category string            `json:"category"`
	Items    []ShoppingItemDTO `json:"items"`
}
