package security

import (
	stderrors "errors"
	"testing"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecipeCommand() inbound.RecipeCommand {
	return inbound.RecipeCommand{
		Title:      "Crêpes",
		PrepTime:   10,
		CookTime:   20,
		Difficulty: recipe.DifficultyEasy,
		Servings:   4,
		DietTypes:  []recipe.DietType{recipe.DietVegetarian},
		Ingredients: []inbound.RecipeIngredientInput{
			{IngredientID: uuid.New(), Quantity: 250, Unit: recipe.UnitGram},
		},
		Steps: []inbound.StepInput{{StepNumber: 1, Instruction: "Mélanger"}},
	}
}

func fieldErrors(t *testing.T, err error) errors.ValidationErrors {
	t.Helper()
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr), "expected an AppError, got %v", err)
	assert.Equal(t, errors.CodeValidationFailed, appErr.Code)

	fes, ok := appErr.Metadata["validation_errors"].(errors.ValidationErrors)
	require.True(t, ok)
	return fes
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, fe := range fieldErrors(t, err) {
		out[fe.Field] = fe.Tag
	}
	return out
}

func TestValidator_Struct(t *testing.T) {
	v := NewValidator()

	t.Run("valid command passes", func(t *testing.T) {
		assert.NoError(t, v.Struct(validRecipeCommand()))
	})

	tests := []struct {
		name   string
		mutate func(*inbound.RecipeCommand)
		field  string
		tag    string
	}{
		{"missing title", func(c *inbound.RecipeCommand) { c.Title = "" }, "title", "required"},
		{"blank title", func(c *inbound.RecipeCommand) { c.Title = "   " }, "title", "notblank"},
		{"zero prep time", func(c *inbound.RecipeCommand) { c.PrepTime = 0 }, "prepTime", "min"},
		{"unknown difficulty", func(c *inbound.RecipeCommand) { c.Difficulty = "EXTREME" }, "difficulty", "difficulty"},
		{"unknown diet", func(c *inbound.RecipeCommand) { c.DietTypes = []recipe.DietType{"KETO"} }, "dietTypes[0]", "diet"},
		{"unknown unit", func(c *inbound.RecipeCommand) { c.Ingredients[0].Unit = "CUP" }, "ingredients[0].unit", "unit"},
		{"negative quantity", func(c *inbound.RecipeCommand) { c.Ingredients[0].Quantity = -1 }, "ingredients[0].quantity", "min"},
		{"empty instruction", func(c *inbound.RecipeCommand) { c.Steps[0].Instruction = "" }, "steps[0].instruction", "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cmd := validRecipeCommand()
			tt.mutate(&cmd)

			// Act
			err := v.Struct(cmd)

			// Assert
			fields := fieldsOf(t, err)
			assert.Equal(t, tt.tag, fields[tt.field], "fields: %v", fields)
		})
	}

	t.Run("reports every failing field", func(t *testing.T) {
		err := v.Struct(inbound.RegisterCommand{Email: "not-an-email", Password: "short"})

		fields := fieldsOf(t, err)
		assert.Equal(t, "email", fields["email"])
		assert.Equal(t, "min", fields["password"])
	})

	t.Run("category accepts any case", func(t *testing.T) {
		assert.NoError(t, v.Struct(inbound.CreateIngredientCommand{Name: "Farine", Category: "pantry", DefaultUnit: recipe.UnitGram}))

		fields := fieldsOf(t, v.Struct(inbound.CreateIngredientCommand{Name: "Farine", Category: "AISLE", DefaultUnit: recipe.UnitGram}))
		assert.Equal(t, "category", fields["category"])
	})

	t.Run("messages name the field", func(t *testing.T) {
		cmd := validRecipeCommand()
		cmd.Servings = 0

		fes := fieldErrors(t, v.Struct(cmd))
		require.Len(t, fes, 1)
		assert.Equal(t, "servings must be at least 1", fes[0].Message)
	})
}
