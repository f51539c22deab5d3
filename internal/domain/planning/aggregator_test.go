package planning

import (
	"math"
	"testing"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipeWithLines(servings int, lines ...recipe.IngredientLine) *recipe.Recipe {
	return recipe.Rehydrate(uuid.New(), "r", recipe.Details{
		Title:       "r",
		PrepTime:    10,
		Difficulty:  recipe.DifficultyEasy,
		Servings:    servings,
		Ingredients: lines,
	}, time.Now(), time.Now())
}

func TestAggregate(t *testing.T) {
	milk := uuid.New()
	flour := uuid.New()
	eggs := uuid.New()

	t.Run("scales by planned over base servings", func(t *testing.T) {
		// Arrange
		x := recipeWithLines(2, recipe.IngredientLine{IngredientID: milk, Quantity: 100, Unit: recipe.UnitMilliliter})

		// Act
		got, err := Aggregate([]PlanEntry{{Recipe: x, Servings: 4}})

		// Assert
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, milk, got[0].IngredientID)
		assert.Equal(t, recipe.UnitMilliliter, got[0].Unit)
		assert.InDelta(t, 200.0, got[0].Quantity, 1e-9)
	})

	t.Run("sums matching ingredient and unit across recipes", func(t *testing.T) {
		// Arrange
		crepes := recipeWithLines(4,
			recipe.IngredientLine{IngredientID: milk, Quantity: 500, Unit: recipe.UnitMilliliter},
			recipe.IngredientLine{IngredientID: flour, Quantity: 250, Unit: recipe.UnitGram},
			recipe.IngredientLine{IngredientID: eggs, Quantity: 4, Unit: recipe.UnitPiece},
		)
		quiche := recipeWithLines(6,
			recipe.IngredientLine{IngredientID: eggs, Quantity: 3, Unit: recipe.UnitPiece},
			recipe.IngredientLine{IngredientID: milk, Quantity: 300, Unit: recipe.UnitMilliliter},
		)

		// Act
		got, err := Aggregate([]PlanEntry{{Recipe: crepes, Servings: 2}, {Recipe: quiche, Servings: 4}})

		// Assert
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, milk, got[0].IngredientID)
		assert.InDelta(t, 250.0+200.0, got[0].Quantity, 1e-9)
		assert.InDelta(t, 125.0, got[1].Quantity, 1e-9)
		assert.InDelta(t, 2.0+2.0, got[2].Quantity, 1e-9)
	})

	t.Run("keeps fractional quantities unrounded", func(t *testing.T) {
		x := recipeWithLines(3, recipe.IngredientLine{IngredientID: eggs, Quantity: 1, Unit: recipe.UnitPiece})

		got, err := Aggregate([]PlanEntry{{Recipe: x, Servings: 1}})

		require.NoError(t, err)
		assert.InDelta(t, 1.0/3.0, got[0].Quantity, 1e-12)
	})

	t.Run("does not convert between units", func(t *testing.T) {
		// Arrange
		a := recipeWithLines(1, recipe.IngredientLine{IngredientID: milk, Quantity: 200, Unit: recipe.UnitMilliliter})
		b := recipeWithLines(1, recipe.IngredientLine{IngredientID: milk, Quantity: 1, Unit: recipe.UnitPiece})

		// Act
		got, err := Aggregate([]PlanEntry{{Recipe: a, Servings: 1}, {Recipe: b, Servings: 1}})

		// Assert
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, AggregatedIngredient{IngredientID: milk, Unit: recipe.UnitMilliliter, Quantity: 200}, got[0])
		assert.Equal(t, AggregatedIngredient{IngredientID: milk, Unit: recipe.UnitPiece, Quantity: 1}, got[1])
	})

	t.Run("is additive in servings", func(t *testing.T) {
		x := recipeWithLines(4, recipe.IngredientLine{IngredientID: flour, Quantity: 300, Unit: recipe.UnitGram})

		for _, pair := range [][2]int{{1, 1}, {2, 6}, {3, 5}, {7, 1}} {
			split, err := Aggregate([]PlanEntry{{Recipe: x, Servings: pair[0]}, {Recipe: x, Servings: pair[1]}})
			require.NoError(t, err)
			whole, err := Aggregate([]PlanEntry{{Recipe: x, Servings: pair[0] + pair[1]}})
			require.NoError(t, err)
			first, err := Aggregate([]PlanEntry{{Recipe: x, Servings: pair[0]}})
			require.NoError(t, err)
			second, err := Aggregate([]PlanEntry{{Recipe: x, Servings: pair[1]}})
			require.NoError(t, err)

			assert.InDelta(t, first[0].Quantity+second[0].Quantity, split[0].Quantity, 1e-9)
			assert.InDelta(t, whole[0].Quantity, split[0].Quantity, 1e-9)
		}
	})

	t.Run("rejects non-positive base servings", func(t *testing.T) {
		broken := recipeWithLines(0, recipe.IngredientLine{IngredientID: milk, Quantity: 100, Unit: recipe.UnitMilliliter})

		got, err := Aggregate([]PlanEntry{{Recipe: broken, Servings: 2}})

		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrInvalidServings)
		assert.Contains(t, err.Error(), broken.ID().String())
	})

	t.Run("rejects quantities that overflow", func(t *testing.T) {
		huge := recipe.IngredientLine{IngredientID: flour, Quantity: math.MaxFloat64, Unit: recipe.UnitGram}

		scaled, err := Aggregate([]PlanEntry{{Recipe: recipeWithLines(1, huge), Servings: 2}})
		assert.Nil(t, scaled)
		assert.ErrorIs(t, err, ErrNonFiniteQuantity)

		summed, err := Aggregate([]PlanEntry{{Recipe: recipeWithLines(1, huge, huge), Servings: 1}})
		assert.Nil(t, summed)
		assert.ErrorIs(t, err, ErrNonFiniteQuantity)
		assert.Contains(t, err.Error(), flour.String())
	})

	t.Run("empty plan yields empty list", func(t *testing.T) {
		got, err := Aggregate(nil)

		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
