// Package ingredient defines the shared ingredient reference data.
package ingredient

import (
	"errors"
	"strings"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
)

var (
	ErrNameRequired       = errors.New("ingredient name is required")
	ErrInvalidCategory    = errors.New("unknown ingredient category")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrNameAlreadyExists  = errors.New("an ingredient with this name already exists")
)

// Category groups ingredients by store aisle
type Category string

const (
	CategoryFresh  Category = "FRESH"
	CategoryMeat   Category = "MEAT"
	CategoryFish   Category = "FISH"
	CategoryDairy  Category = "DAIRY"
	CategoryBakery Category = "BAKERY"
	CategoryFrozen Category = "FROZEN"
	CategoryPantry Category = "PANTRY"
	CategorySpices Category = "SPICES"
	CategoryOther  Category = "OTHER"
)

// Categories lists every category in aisle order
var Categories = []Category{
	CategoryFresh, CategoryMeat, CategoryFish, CategoryDairy, CategoryBakery,
	CategoryFrozen, CategoryPantry, CategorySpices, CategoryOther,
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	switch c {
	case CategoryFresh, CategoryMeat, CategoryFish, CategoryDairy, CategoryBakery,
		CategoryFrozen, CategoryPantry, CategorySpices, CategoryOther:
		return true
	}
	return false
}

// Ingredient is a reusable ingredient referenced by recipe lines and shopping list items
type Ingredient struct {
	ID          uuid.UUID
	Name        string
	Category    Category
	DefaultUnit recipe.Unit
	CreatedAt   time.Time
}

// New creates a validated ingredient
func New(name string, category Category, unit recipe.Unit) (*Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if !unit.IsValid() {
		return nil, recipe.ErrInvalidUnit
	}
	return &Ingredient{
		ID:          uuid.New(),
		Name:        name,
		Category:    category,
		DefaultUnit: unit,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewUncategorized creates the placeholder used when a submitted recipe names
// an ingredient the catalog does not know yet.
func NewUncategorized(name string) (*Ingredient, error) {
	return New(name, CategoryOther, recipe.UnitPiece)
}
