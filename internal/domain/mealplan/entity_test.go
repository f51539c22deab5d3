package mealplan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	owner := uuid.New()

	plan, err := New(owner, "  Semaine 42 ")

	require.NoError(t, err)
	assert.Equal(t, "Semaine 42", plan.Title)
	assert.True(t, plan.OwnedBy(owner))
	assert.False(t, plan.OwnedBy(uuid.New()))
	assert.Empty(t, plan.Entries)

	_, err = New(owner, "   ")
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestGeneratedTitle(t *testing.T) {
	day := time.Date(2026, time.March, 7, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, "Menu du 07/03/2026", GeneratedTitle(day))
}

func TestMealPlan_Plan(t *testing.T) {
	t.Run("adds a new entry and records an event", func(t *testing.T) {
		// Arrange
		plan, _ := New(uuid.New(), "Semaine")
		recipeID := uuid.New()

		// Act
		entry, err := plan.Plan(recipeID, DefaultServings, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, recipeID, entry.RecipeID)
		assert.Equal(t, 4, entry.Servings)
		require.Len(t, plan.Entries, 1)

		events := plan.PullEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "mealplan.recipe_planned", events[0].EventName())
	})

	t.Run("updates an already planned recipe", func(t *testing.T) {
		// Arrange
		plan, _ := New(uuid.New(), "Semaine")
		recipeID := uuid.New()
		first, _ := plan.Plan(recipeID, 2, nil)
		plan.PullEvents()
		monday := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

		// Act
		second, err := plan.Plan(recipeID, 6, &monday)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 6, second.Servings)
		require.NotNil(t, second.PlannedFor)
		assert.True(t, monday.Equal(*second.PlannedFor))
		assert.Len(t, plan.Entries, 1)
		assert.Empty(t, plan.PullEvents())
	})

	t.Run("rejects servings below one", func(t *testing.T) {
		plan, _ := New(uuid.New(), "Semaine")

		_, err := plan.Plan(uuid.New(), 0, nil)

		assert.ErrorIs(t, err, ErrInvalidServings)
		assert.Empty(t, plan.Entries)
	})
}

func TestMealPlan_Unplan(t *testing.T) {
	plan, _ := New(uuid.New(), "Semaine")
	a, b := uuid.New(), uuid.New()
	_, _ = plan.Plan(a, 4, nil)
	_, _ = plan.Plan(b, 4, nil)

	removed, err := plan.Unplan(a)
	require.NoError(t, err)
	assert.Equal(t, a, removed.RecipeID)
	assert.Equal(t, []uuid.UUID{b}, plan.RecipeIDs())

	_, err = plan.Unplan(a)
	assert.ErrorIs(t, err, ErrRecipeNotInPlan)
}

func TestMealPlan_Rename(t *testing.T) {
	plan, _ := New(uuid.New(), "Semaine")

	require.NoError(t, plan.Rename("Vacances"))
	assert.Equal(t, "Vacances", plan.Title)
	assert.ErrorIs(t, plan.Rename(""), ErrTitleRequired)
	assert.Equal(t, "Vacances", plan.Title)
}
