// Package recipe contains the catalog recipe aggregate.
// Recipes are read by the planner and the shopping list builder and written
// by administrators or through approved submissions.
package recipe

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/foodtrack/api/internal/domain/shared"
	"github.com/google/uuid"
)

// Details holds the editable attributes of a recipe
type Details struct {
	Title       string
	Description string
	ImageURL    string
	PrepTime    int // minutes
	CookTime    int // minutes
	Difficulty  Difficulty
	Servings    int
	IsAdaptable bool
	Tags        []string
	Tools       []string
	DietTypes   []DietType
	Nutrition   Nutrition
	Ingredients []IngredientLine
	Steps       []Step
}

// Validate checks the attribute invariants of a recipe
func (d Details) Validate() error {
	if d.Title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(d.Title) > 200 {
		return ErrTitleTooLong
	}
	if d.PrepTime < 1 {
		return ErrInvalidPrepTime
	}
	if d.CookTime < 0 {
		return ErrInvalidCookTime
	}
	if d.Servings < 1 {
		return ErrInvalidServings
	}
	if !d.Difficulty.IsValid() {
		return ErrInvalidDifficulty
	}
	for _, diet := range d.DietTypes {
		if !diet.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidDietType, diet)
		}
	}
	for i, line := range d.Ingredients {
		if err := line.Validate(); err != nil {
			return fmt.Errorf("ingredient %d: %w", i+1, err)
		}
	}
	for _, step := range d.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", step.Number, err)
		}
	}
	return nil
}

// Patch carries a partial update; nil fields are left untouched
type Patch struct {
	Title       *string
	Description *string
	ImageURL    *string
	PrepTime    *int
	CookTime    *int
	Difficulty  *Difficulty
	Servings    *int
	IsAdaptable *bool
	Tags        []string
	Tools       []string
	DietTypes   []DietType
	Nutrition   *Nutrition
	Ingredients []IngredientLine
	Steps       []Step
}

// Recipe is the catalog aggregate root
type Recipe struct {
	shared.AggregateRoot

	id      uuid.UUID
	slug    string
	details Details

	averageRating *float64
	reviewCount   int

	createdAt time.Time
	updatedAt time.Time
}

// NewRecipe creates a new Recipe with validation
func NewRecipe(details Details) (*Recipe, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	slug := Slugify(details.Title)
	if slug == "" {
		return nil, ErrEmptySlug
	}

	now := time.Now().UTC()
	r := &Recipe{
		id:        uuid.New(),
		slug:      slug,
		details:   normalize(details),
		createdAt: now,
		updatedAt: now,
	}
	r.Record(RecipeCreatedEvent{RecipeID: r.id, Slug: slug, CreatedAt: now})

	return r, nil
}

// Rehydrate rebuilds a recipe loaded from storage without re-validating it
func Rehydrate(id uuid.UUID, slug string, details Details, createdAt, updatedAt time.Time) *Recipe {
	return &Recipe{
		id:        id,
		slug:      slug,
		details:   normalize(details),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func normalize(d Details) Details {
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.Tools == nil {
		d.Tools = []string{}
	}
	if d.DietTypes == nil {
		d.DietTypes = []DietType{}
	}
	return d
}

func (r *Recipe) ID() uuid.UUID                 { return r.id }
func (r *Recipe) Slug() string                  { return r.slug }
func (r *Recipe) Title() string                 { return r.details.Title }
func (r *Recipe) Description() string           { return r.details.Description }
func (r *Recipe) ImageURL() string              { return r.details.ImageURL }
func (r *Recipe) PrepTime() int                 { return r.details.PrepTime }
func (r *Recipe) CookTime() int                 { return r.details.CookTime }
func (r *Recipe) Difficulty() Difficulty        { return r.details.Difficulty }
func (r *Recipe) Servings() int                 { return r.details.Servings }
func (r *Recipe) IsAdaptable() bool             { return r.details.IsAdaptable }
func (r *Recipe) Tags() []string                { return r.details.Tags }
func (r *Recipe) Tools() []string               { return r.details.Tools }
func (r *Recipe) DietTypes() []DietType         { return r.details.DietTypes }
func (r *Recipe) Nutrition() Nutrition          { return r.details.Nutrition }
func (r *Recipe) Ingredients() []IngredientLine { return r.details.Ingredients }
func (r *Recipe) Steps() []Step                 { return r.details.Steps }
func (r *Recipe) CreatedAt() time.Time          { return r.createdAt }
func (r *Recipe) UpdatedAt() time.Time          { return r.updatedAt }

// Details returns a copy of the editable attributes
func (r *Recipe) Details() Details {
	return r.details
}

// TotalTime is prep time plus cook time in minutes
func (r *Recipe) TotalTime() int {
	return r.details.PrepTime + r.details.CookTime
}

// AverageRating is nil when the recipe has no reviews
func (r *Recipe) AverageRating() *float64 {
	return r.averageRating
}

// ReviewCount returns the number of reviews backing AverageRating
func (r *Recipe) ReviewCount() int {
	return r.reviewCount
}

// SetRating attaches review statistics computed by the store
func (r *Recipe) SetRating(average *float64, count int) {
	r.averageRating = average
	r.reviewCount = count
}

// HasDiet reports whether the recipe is tagged with every given diet
func (r *Recipe) HasDiet(diets []DietType) bool {
	for _, want := range diets {
		found := false
		for _, have := range r.details.DietTypes {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Apply updates the recipe with a partial patch. A new title regenerates the slug.
func (r *Recipe) Apply(p Patch) error {
	next := r.details
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.ImageURL != nil {
		next.ImageURL = *p.ImageURL
	}
	if p.PrepTime != nil {
		next.PrepTime = *p.PrepTime
	}
	if p.CookTime != nil {
		next.CookTime = *p.CookTime
	}
	if p.Difficulty != nil {
		next.Difficulty = *p.Difficulty
	}
	if p.Servings != nil {
		next.Servings = *p.Servings
	}
	if p.IsAdaptable != nil {
		next.IsAdaptable = *p.IsAdaptable
	}
	if p.Tags != nil {
		next.Tags = p.Tags
	}
	if p.Tools != nil {
		next.Tools = p.Tools
	}
	if p.DietTypes != nil {
		next.DietTypes = p.DietTypes
	}
	if p.Nutrition != nil {
		next.Nutrition = *p.Nutrition
	}
	if p.Ingredients != nil {
		next.Ingredients = p.Ingredients
	}
	if p.Steps != nil {
		next.Steps = p.Steps
	}

	if err := next.Validate(); err != nil {
		return err
	}

	slug := r.slug
	if p.Title != nil {
		slug = Slugify(next.Title)
		if slug == "" {
			return ErrEmptySlug
		}
	}

	r.details = normalize(next)
	r.slug = slug
	r.updatedAt = time.Now().UTC()
	r.Record(RecipeUpdatedEvent{RecipeID: r.id, Slug: slug, UpdatedAt: r.updatedAt})

	return nil
}

// ScaledTo returns a copy of the recipe whose ingredient quantities are
// scaled from the base serving count to the requested one.
func (r *Recipe) ScaledTo(servings int) (*Recipe, error) {
	if servings < 1 || r.details.Servings < 1 {
		return nil, ErrInvalidServings
	}
	ratio := float64(servings) / float64(r.details.Servings)

	scaled := *r
	scaled.AggregateRoot = shared.AggregateRoot{}
	scaled.details.Servings = servings
	scaled.details.Ingredients = make([]IngredientLine, len(r.details.Ingredients))
	for i, line := range r.details.Ingredients {
		line.Quantity *= ratio
		scaled.details.Ingredients[i] = line
	}

	return &scaled, nil
}
