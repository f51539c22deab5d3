package recipe

import (
	"time"

	"github.com/google/uuid"
)

// RecipeCreatedEvent is raised when a recipe enters the catalog
type RecipeCreatedEvent struct {
	RecipeID  uuid.UUID
	Slug      string
	CreatedAt time.Time
}

func (e RecipeCreatedEvent) EventName() string {
	return "recipe.created"
}

func (e RecipeCreatedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// RecipeUpdatedEvent is raised when a recipe is edited
type RecipeUpdatedEvent struct {
	RecipeID  uuid.UUID
	Slug      string
	UpdatedAt time.Time
}

func (e RecipeUpdatedEvent) EventName() string {
	return "recipe.updated"
}

func (e RecipeUpdatedEvent) OccurredAt() time.Time {
	return e.UpdatedAt
}
