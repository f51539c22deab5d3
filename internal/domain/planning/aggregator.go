package planning

import (
	"fmt"
	"math"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
)

// PlanEntry is one planned recipe and the servings it is planned for
type PlanEntry struct {
	Recipe   *recipe.Recipe
	Servings int
}

// AggregatedIngredient is one consolidated shopping line
type AggregatedIngredient struct {
	IngredientID uuid.UUID
	Unit         recipe.Unit
	Quantity     float64
}

type lineKey struct {
	ingredientID uuid.UUID
	unit         recipe.Unit
}

// Aggregate scales every entry's ingredient lines to its planned servings and
// sums lines sharing ingredient and unit. Lines for the same ingredient in
// different units stay separate; quantities are not rounded. Output follows
// first appearance.
func Aggregate(entries []PlanEntry) ([]AggregatedIngredient, error) {
	index := make(map[lineKey]int)
	lines := make([]AggregatedIngredient, 0)

	for _, entry := range entries {
		base := entry.Recipe.Servings()
		if base <= 0 {
			return nil, fmt.Errorf("%w: recipe %s has base servings %d",
				ErrInvalidServings, entry.Recipe.ID(), base)
		}
		if entry.Servings < 0 {
			return nil, fmt.Errorf("%w: recipe %s planned for %d servings",
				ErrInvalidServings, entry.Recipe.ID(), entry.Servings)
		}
		ratio := float64(entry.Servings) / float64(base)

		for _, ing := range entry.Recipe.Ingredients() {
			key := lineKey{ingredientID: ing.IngredientID, unit: ing.Unit}
			scaled := ing.Quantity * ratio

			if i, ok := index[key]; ok {
				scaled += lines[i].Quantity
				if !finite(scaled) {
					return nil, fmt.Errorf("%w: ingredient %s", ErrNonFiniteQuantity, ing.IngredientID)
				}
				lines[i].Quantity = scaled
				continue
			}
			if !finite(scaled) {
				return nil, fmt.Errorf("%w: ingredient %s", ErrNonFiniteQuantity, ing.IngredientID)
			}
			index[key] = len(lines)
			lines = append(lines, AggregatedIngredient{
				IngredientID: ing.IngredientID,
				Unit:         ing.Unit,
				Quantity:     scaled,
			})
		}
	}

	return lines, nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
