// Package gorm provides GORM model definitions and repositories
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserModel represents the GORM model for users
type UserModel struct {
	ID              uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Email           string      `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName       string      `gorm:"type:varchar(100)"`
	LastName        string      `gorm:"type:varchar(100)"`
	PasswordHash    string      `gorm:"type:varchar(255);not null"`
	Role            string      `gorm:"type:varchar(20);not null;default:'user'"`
	HasSeenTutorial bool        `gorm:"not null;default:false"`
	HouseholdSize   int         `gorm:"not null;default:4"`
	DietPreferences StringSlice `gorm:"type:text"`
	Difficulty      *string     `gorm:"column:difficulty_preference;type:varchar(10)"`
	MaxPrepTime     *int
	ToolsAvailable  StringSlice `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IngredientModel represents the GORM model for ingredients
type IngredientModel struct {
	ID uuid.UUID `gorm:"type:char(36);primaryKey"`
	// NameKey is the lowercased name backing case-insensitive uniqueness
	NameKey     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name        string `gorm:"type:varchar(255);not null"`
	Category    string `gorm:"type:varchar(20);not null;index"`
	DefaultUnit string `gorm:"type:varchar(10);not null"`
	CreatedAt   time.Time
}

// RecipeModel represents the GORM model for recipes
type RecipeModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Title       string    `gorm:"type:varchar(200);not null;index"`
	Description string    `gorm:"type:text"`
	ImageURL    string    `gorm:"type:text"`
	PrepTime    int       `gorm:"not null"`
	CookTime    int       `gorm:"not null;default:0"`
	// TotalTime is PrepTime + CookTime, kept for eligibility queries
	TotalTime     int       `gorm:"not null;index"`
	Difficulty    string    `gorm:"type:varchar(10);not null;index"`
	Servings      int       `gorm:"not null"`
	IsAdaptable   bool      `gorm:"not null;default:true"`
	Calories      *int      `gorm:"column:calories"`
	Carbohydrates *float64  `gorm:"column:carbohydrates"`
	Fats          *float64  `gorm:"column:fats"`
	Proteins      *float64  `gorm:"column:proteins"`
	Fibers        *float64  `gorm:"column:fibers"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time

	Ingredients []RecipeIngredientModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Steps       []RecipeStepModel       `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Diets       []RecipeDietModel       `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Tools       []RecipeToolModel       `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Tags        []RecipeTagModel        `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeIngredientModel is one ingredient line of a recipe
type RecipeIngredientModel struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID     uuid.UUID `gorm:"type:char(36);not null;index"`
	IngredientID uuid.UUID `gorm:"type:char(36);not null;index"`
	Position     int       `gorm:"not null"`
	Quantity     float64   `gorm:"not null"`
	Unit         string    `gorm:"type:varchar(10);not null"`
	Optional     bool      `gorm:"not null;default:false"`

	Ingredient IngredientModel `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT"`
}

// RecipeStepModel is one numbered step of a recipe
type RecipeStepModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID    uuid.UUID `gorm:"type:char(36);not null;index"`
	Number      int       `gorm:"not null"`
	Instruction string    `gorm:"type:text;not null"`
}

// RecipeDietModel tags a recipe with a diet type
type RecipeDietModel struct {
	RecipeID uuid.UUID `gorm:"type:char(36);primaryKey"`
	DietType string    `gorm:"type:varchar(20);primaryKey"`
}

// RecipeToolModel names a tool a recipe needs
type RecipeToolModel struct {
	RecipeID uuid.UUID `gorm:"type:char(36);primaryKey"`
	Tool     string    `gorm:"type:varchar(100);primaryKey"`
}

// RecipeTagModel attaches a free-form tag to a recipe
type RecipeTagModel struct {
	RecipeID uuid.UUID `gorm:"type:char(36);primaryKey"`
	Tag      string    `gorm:"type:varchar(100);primaryKey"`
	Position int       `gorm:"not null;default:0"`
}

// ReviewModel represents the GORM model for recipe reviews
type ReviewModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_reviews_user_recipe"`
	RecipeID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_reviews_user_recipe;index"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`

	Recipe  RecipeModel         `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Reports []ReviewReportModel `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
}

// ReviewReportModel flags a review for moderation
type ReviewReportModel struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey"`
	ReviewID      uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_reports_review_user"`
	UserID        uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_reports_review_user"`
	DeletionToken string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	CreatedAt     time.Time
}

// MealPlanModel represents the GORM model for meal plans
type MealPlanModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index"`
	Title     string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Entries []MealPlanRecipeModel `gorm:"foreignKey:MealPlanID;constraint:OnDelete:CASCADE"`
}

// MealPlanRecipeModel is one recipe planned in a meal plan
type MealPlanRecipeModel struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey"`
	MealPlanID uuid.UUID `gorm:"type:char(36);not null;index"`
	RecipeID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Position   int       `gorm:"not null"`
	Servings   int       `gorm:"not null"`
	PlannedFor *time.Time

	Recipe RecipeModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// ShoppingListModel represents the GORM model for shopping lists
type ShoppingListModel struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey"`
	UserID     uuid.UUID  `gorm:"type:char(36);not null;index"`
	MealPlanID *uuid.UUID `gorm:"type:char(36);index"`
	Title      string     `gorm:"type:varchar(200);not null"`
	Status     string     `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	CreatedAt  time.Time  `gorm:"index"`
	UpdatedAt  time.Time

	MealPlan *MealPlanModel          `gorm:"foreignKey:MealPlanID;constraint:OnDelete:SET NULL"`
	Items    []ShoppingListItemModel `gorm:"foreignKey:ShoppingListID;constraint:OnDelete:CASCADE"`
}

// ShoppingListItemModel is one line of a shopping list
type ShoppingListItemModel struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	ShoppingListID uuid.UUID `gorm:"type:char(36);not null;index"`
	IngredientID   uuid.UUID `gorm:"type:char(36);not null"`
	Position       int       `gorm:"not null"`
	Quantity       float64   `gorm:"not null"`
	Unit           string    `gorm:"type:varchar(10);not null"`
	Checked        bool      `gorm:"not null;default:false"`

	Ingredient IngredientModel `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT"`
}

// SubmissionModel represents the GORM model for recipe submissions.
// The proposed recipe and its lines are stored as JSON documents.
type SubmissionModel struct {
	ID              uuid.UUID                  `gorm:"type:char(36);primaryKey"`
	UserID          uuid.UUID                  `gorm:"type:char(36);not null;index"`
	RecipeID        *uuid.UUID                 `gorm:"type:char(36);index"`
	Status          string                     `gorm:"type:varchar(20);not null;index"`
	ApprovalToken   string                     `gorm:"type:varchar(64);uniqueIndex;not null"`
	Details         JSONDocument[detailsDoc]   `gorm:"type:text;not null"`
	Lines           JSONDocument[[]submitLine] `gorm:"type:text;not null"`
	ReviewedAt      *time.Time
	RejectionReason string `gorm:"type:text"`
	CreatedAt       time.Time
}

// TableName methods for custom table names
func (UserModel) TableName() string             { return "users" }
func (IngredientModel) TableName() string       { return "ingredients" }
func (RecipeModel) TableName() string           { return "recipes" }
func (RecipeIngredientModel) TableName() string { return "recipe_ingredients" }
func (RecipeStepModel) TableName() string       { return "recipe_steps" }
func (RecipeDietModel) TableName() string       { return "recipe_diet_types" }
func (RecipeToolModel) TableName() string       { return "recipe_tools" }
func (RecipeTagModel) TableName() string        { return "recipe_tags" }
func (ReviewModel) TableName() string           { return "reviews" }
func (ReviewReportModel) TableName() string     { return "review_reports" }
func (MealPlanModel) TableName() string         { return "meal_plans" }
func (MealPlanRecipeModel) TableName() string   { return "meal_plan_recipes" }
func (ShoppingListModel) TableName() string     { return "shopping_lists" }
func (ShoppingListItemModel) TableName() string { return "shopping_list_items" }
func (SubmissionModel) TableName() string       { return "recipe_submissions" }

// Models lists every model in dependency order for AutoMigrate
func Models() []interface{} {
	return []interface{}{
		&UserModel{},
		&IngredientModel{},
		&RecipeModel{},
		&RecipeIngredientModel{},
		&RecipeStepModel{},
		&RecipeDietModel{},
		&RecipeToolModel{},
		&RecipeTagModel{},
		&ReviewModel{},
		&ReviewReportModel{},
		&MealPlanModel{},
		&MealPlanRecipeModel{},
		&ShoppingListModel{},
		&ShoppingListItemModel{},
		&SubmissionModel{},
	}
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	return string(b), err
}

// JSONDocument stores any JSON-serializable value in a text column
type JSONDocument[T any] struct {
	Data T
}

// Scan implements the sql.Scanner interface
func (j *JSONDocument[T]) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, &j.Data)
	case string:
		return json.Unmarshal([]byte(v), &j.Data)
	default:
		return fmt.Errorf("cannot scan %T into JSONDocument", value)
	}
}

// Value implements the driver.Valuer interface
func (j JSONDocument[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	return string(b), err
}
