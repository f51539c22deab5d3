// Package mealplan defines a user's meal plan aggregate.
package mealplan

import (
	"errors"
	"strings"
	"time"

	"github.com/foodtrack/api/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultServings is used for recipes added without an explicit serving count
const DefaultServings = 4

var (
	ErrTitleRequired    = errors.New("meal plan title is required")
	ErrInvalidServings  = errors.New("servings must be at least 1")
	ErrMealPlanNotFound = errors.New("meal plan not found")
	ErrRecipeNotInPlan  = errors.New("recipe not found in meal plan")
	ErrNotOwner         = errors.New("you do not have access to this meal plan")
)

// Entry is one recipe scheduled in a plan
type Entry struct {
	ID         uuid.UUID
	RecipeID   uuid.UUID
	Servings   int
	PlannedFor *time.Time
}

// MealPlan is a titled set of planned recipes owned by one user
type MealPlan struct {
	shared.AggregateRoot

	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Entries   []Entry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an empty meal plan
func New(userID uuid.UUID, title string) (*MealPlan, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	now := time.Now().UTC()
	return &MealPlan{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Entries:   []Entry{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GeneratedTitle is the title given to generated plans, e.g. "Menu du 19/10/2026"
func GeneratedTitle(day time.Time) string {
	return "Menu du " + day.Format("02/01/2006")
}

// OwnedBy reports whether userID owns the plan
func (p *MealPlan) OwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

// Rename changes the plan title
func (p *MealPlan) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrTitleRequired
	}
	p.Title = title
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Plan schedules a recipe, updating servings and date when it is already planned
func (p *MealPlan) Plan(recipeID uuid.UUID, servings int, plannedFor *time.Time) (Entry, error) {
	if servings < 1 {
		return Entry{}, ErrInvalidServings
	}
	p.UpdatedAt = time.Now().UTC()

	for i := range p.Entries {
		if p.Entries[i].RecipeID == recipeID {
			p.Entries[i].Servings = servings
			if plannedFor != nil {
				p.Entries[i].PlannedFor = plannedFor
			}
			return p.Entries[i], nil
		}
	}

	entry := Entry{ID: uuid.New(), RecipeID: recipeID, Servings: servings, PlannedFor: plannedFor}
	p.Entries = append(p.Entries, entry)
	p.Record(RecipePlannedEvent{MealPlanID: p.ID, RecipeID: recipeID, Servings: servings, At: p.UpdatedAt})
	return entry, nil
}

// Unplan removes a recipe from the plan
func (p *MealPlan) Unplan(recipeID uuid.UUID) (Entry, error) {
	for i, e := range p.Entries {
		if e.RecipeID == recipeID {
			p.Entries = append(p.Entries[:i], p.Entries[i+1:]...)
			p.UpdatedAt = time.Now().UTC()
			return e, nil
		}
	}
	return Entry{}, ErrRecipeNotInPlan
}

// RecipeIDs lists the planned recipes in plan order
func (p *MealPlan) RecipeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p.Entries))
	for i, e := range p.Entries {
		ids[i] = e.RecipeID
	}
	return ids
}

// RecipePlannedEvent is raised when a recipe is added to a plan
type RecipePlannedEvent struct {
	MealPlanID uuid.UUID
	RecipeID   uuid.UUID
	Servings   int
	At         time.Time
}

func (e RecipePlannedEvent) EventName() string     { return "mealplan.recipe_planned" }
func (e RecipePlannedEvent) OccurredAt() time.Time { return e.At }
