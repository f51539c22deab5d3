package submission

import (
	"strings"
	"testing"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SubmissionTestSuite struct {
	suite.Suite
	flour uuid.UUID
}

func (suite *SubmissionTestSuite) SetupTest() {
	suite.flour = uuid.New()
}

func (suite *SubmissionTestSuite) proposal() (recipe.Details, []Line) {
	details := recipe.Details{
		Title:      "Galette bretonne",
		PrepTime:   10,
		CookTime:   5,
		Difficulty: recipe.DifficultyMedium,
		Servings:   4,
		Steps:      []recipe.Step{{Number: 1, Instruction: "Cuire"}},
	}
	lines := []Line{
		{IngredientID: &suite.flour, IngredientName: "Farine de sarrasin", Quantity: 250, Unit: recipe.UnitGram},
		{IngredientName: " Andouille ", Quantity: 1, Unit: recipe.UnitPiece},
	}
	return details, lines
}

func (suite *SubmissionTestSuite) TestNew() {
	suite.Run("ValidProposal_ShouldBePendingWithToken", func() {
		// Arrange
		details, lines := suite.proposal()

		// Act
		s, err := New(uuid.New(), nil, details, lines)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), StatusPending, s.Status)
		assert.Len(suite.T(), s.ApprovalToken, 64)
		assert.False(suite.T(), s.IsEdit())
		assert.Equal(suite.T(), []string{"Andouille"}, s.UnresolvedNames())
		for _, l := range s.Lines {
			assert.NotEqual(suite.T(), uuid.Nil, l.ID)
		}
	})

	suite.Run("TokensAreUnique", func() {
		a, err := NewToken()
		require.NoError(suite.T(), err)
		b, err := NewToken()
		require.NoError(suite.T(), err)

		assert.NotEqual(suite.T(), a, b)
		assert.Equal(suite.T(), strings.ToLower(a), a)
	})

	suite.Run("LineWithoutIdOrName_ShouldFail", func() {
		details, lines := suite.proposal()
		lines[1].IngredientName = "  "

		_, err := New(uuid.New(), nil, details, lines)

		assert.ErrorIs(suite.T(), err, ErrIngredientNameless)
	})

	suite.Run("InvalidRecipe_ShouldFail", func() {
		details, lines := suite.proposal()
		details.PrepTime = 0

		_, err := New(uuid.New(), nil, details, lines)

		assert.ErrorIs(suite.T(), err, recipe.ErrInvalidPrepTime)
	})
}

func (suite *SubmissionTestSuite) TestRecipeDetails() {
	details, lines := suite.proposal()
	s, err := New(uuid.New(), nil, details, lines)
	require.NoError(suite.T(), err)
	sausage := uuid.New()

	suite.Run("ResolvesNamedLines", func() {
		d, err := s.RecipeDetails(func(name string) (uuid.UUID, bool) {
			return sausage, name == "Andouille"
		})

		require.NoError(suite.T(), err)
		require.Len(suite.T(), d.Ingredients, 2)
		assert.Equal(suite.T(), suite.flour, d.Ingredients[0].IngredientID)
		assert.Equal(suite.T(), sausage, d.Ingredients[1].IngredientID)
		assert.NoError(suite.T(), d.Validate())
	})

	suite.Run("MissingName_ShouldFail", func() {
		_, err := s.RecipeDetails(func(string) (uuid.UUID, bool) { return uuid.Nil, false })

		assert.ErrorIs(suite.T(), err, ErrUnresolvedLine)
	})
}

func (suite *SubmissionTestSuite) TestReview() {
	now := time.Now()

	suite.Run("ApproveOnce", func() {
		details, lines := suite.proposal()
		s, _ := New(uuid.New(), nil, details, lines)

		require.NoError(suite.T(), s.Approve(now))
		assert.Equal(suite.T(), StatusApproved, s.Status)
		require.NotNil(suite.T(), s.ReviewedAt)

		assert.ErrorIs(suite.T(), s.Approve(now), ErrAlreadyReviewed)
		assert.ErrorIs(suite.T(), s.Reject("late", now), ErrAlreadyReviewed)
	})

	suite.Run("RejectKeepsReason", func() {
		details, lines := suite.proposal()
		s, _ := New(uuid.New(), nil, details, lines)

		require.NoError(suite.T(), s.Reject(" doublon ", now))
		assert.Equal(suite.T(), StatusRejected, s.Status)
		assert.Equal(suite.T(), "doublon", s.RejectionReason)
		assert.ErrorIs(suite.T(), s.Approve(now), ErrAlreadyReviewed)
	})
}

func TestSubmissionTestSuite(t *testing.T) {
	suite.Run(t, new(SubmissionTestSuite))
}
