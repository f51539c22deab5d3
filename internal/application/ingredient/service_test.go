package ingredient

import (
	"context"
	"testing"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/foodtrack/api/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newService(t *testing.T) (*IngredientService, *testutils.MockIngredientRepository) {
	repo := new(testutils.MockIngredientRepository)
	return NewIngredientService(repo, zaptest.NewLogger(t)), repo
}

func TestCreateIngredient(t *testing.T) {
	t.Run("creates with normalized category", func(t *testing.T) {
		// Arrange
		svc, repo := newService(t)
		repo.On("FindByName", mock.Anything, "Basil").Return(nil, nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*ingredient.Ingredient")).Return(nil)

		// Act
		dto, err := svc.CreateIngredient(context.Background(), inbound.CreateIngredientCommand{
			Name:        "Basil",
			Category:    "spices",
			DefaultUnit: recipe.UnitBunch,
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "SPICES", dto.Category)
		assert.NotEqual(t, uuid.Nil, dto.ID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		svc, repo := newService(t)
		existing := testutils.NewFactory(testutils.DefaultSeed).Ingredient(ingredient.CategorySpices)
		repo.On("FindByName", mock.Anything, "Basil").Return(existing, nil)

		_, err := svc.CreateIngredient(context.Background(), inbound.CreateIngredientCommand{
			Name:        "Basil",
			Category:    "SPICES",
			DefaultUnit: recipe.UnitBunch,
		})

		testutils.AssertAppError(t, err, errors.CodeConflict)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.CreateIngredient(context.Background(), inbound.CreateIngredientCommand{
			Name:        "Basil",
			Category:    "HERBS",
			DefaultUnit: recipe.UnitBunch,
		})

		testutils.AssertAppError(t, err, errors.CodeValidationFailed)
	})
}

func TestListIngredients_CategoryFilter(t *testing.T) {
	svc, repo := newService(t)
	dairy := ingredient.CategoryDairy
	repo.On("List", mock.Anything, "milk", &dairy).Return([]*ingredient.Ingredient{}, nil)

	list, err := svc.ListIngredients(context.Background(), "  milk ", "dairy")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ListIngredients(context.Background(), "", "aisle-9")
	testutils.AssertAppError(t, err, errors.CodeValidationFailed)
}

func TestGetIngredient_NotFound(t *testing.T) {
	svc, repo := newService(t)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := svc.GetIngredient(context.Background(), id)

	testutils.AssertAppError(t, err, errors.CodeNotFound)
}

func TestFindOrCreate(t *testing.T) {
	t.Run("returns existing", func(t *testing.T) {
		svc, repo := newService(t)
		existing := testutils.NewFactory(testutils.DefaultSeed).Ingredient(ingredient.CategoryFresh)
		repo.On("FindByName", mock.Anything, existing.Name).Return(existing, nil)

		got, err := svc.FindOrCreate(context.Background(), " "+existing.Name+" ")

		require.NoError(t, err)
		assert.Equal(t, existing.ID, got.ID)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("creates uncategorized", func(t *testing.T) {
		svc, repo := newService(t)
		repo.On("FindByName", mock.Anything, "Sumac").Return(nil, nil)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		got, err := svc.FindOrCreateIngredient(context.Background(), "Sumac")

		require.NoError(t, err)
		assert.Equal(t, string(ingredient.CategoryOther), got.Category)
	})
}
