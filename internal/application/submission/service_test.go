package submission

import (
	"context"
	"testing"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/submission"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/foodtrack/api/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Create(ctx context.Context, details recipe.Details) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, details)
	dto, _ := args.Get(0).(*inbound.RecipeDTO)
	return dto, args.Error(1)
}

func (m *mockWriter) Update(ctx context.Context, id uuid.UUID, patch recipe.Patch) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, id, patch)
	dto, _ := args.Get(0).(*inbound.RecipeDTO)
	return dto, args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) FindOrCreate(ctx context.Context, name string) (*ingredient.Ingredient, error) {
	args := m.Called(ctx, name)
	ing, _ := args.Get(0).(*ingredient.Ingredient)
	return ing, args.Error(1)
}

type SubmissionServiceSuite struct {
	suite.Suite
	ctx         context.Context
	factory     *testutils.Factory
	submissions *testutils.MockSubmissionRepository
	recipes     *testutils.MockRecipeRepository
	ingredients *testutils.MockIngredientRepository
	users       *testutils.MockUserRepository
	email       *testutils.MockEmailService
	writer      *mockWriter
	resolver    *mockResolver
	service     *SubmissionService
}

func TestSubmissionService(t *testing.T) {
	suite.Run(t, new(SubmissionServiceSuite))
}

func (s *SubmissionServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.factory = testutils.NewFactory(testutils.DefaultSeed)
	s.submissions = new(testutils.MockSubmissionRepository)
	s.recipes = new(testutils.MockRecipeRepository)
	s.ingredients = new(testutils.MockIngredientRepository)
	s.users = new(testutils.MockUserRepository)
	s.email = new(testutils.MockEmailService)
	s.writer = new(mockWriter)
	s.resolver = new(mockResolver)
	s.service = NewSubmissionService(s.submissions, s.recipes, s.ingredients, s.users, s.writer, s.resolver, s.email,
		Notification{AdminEmail: "admin@foodtrack.local", FrontendURL: "https://foodtrack.local/"},
		zaptest.NewLogger(s.T()))
}

func (s *SubmissionServiceSuite) command(lines ...inbound.SubmissionIngredientInput) inbound.SubmitRecipeCommand {
	return inbound.SubmitRecipeCommand{
		RecipeCommand: inbound.RecipeCommand{
			Title:      "Shakshuka",
			PrepTime:   10,
			CookTime:   20,
			Difficulty: recipe.DifficultyEasy,
			Servings:   2,
			Steps:      []inbound.StepInput{{StepNumber: 1, Instruction: "Simmer the sauce"}},
		},
		Ingredients: lines,
	}
}

func (s *SubmissionServiceSuite) TestSubmit_ResolvesKnownNamesAndMailsAdmin() {
	// Arrange
	eggs := s.factory.Ingredient(ingredient.CategoryDairy)
	submitter := s.factory.User("password123")
	s.ingredients.On("FindByName", mock.Anything, eggs.Name).Return(eggs, nil)
	s.ingredients.On("FindByName", mock.Anything, "Harissa").Return(nil, nil)
	s.submissions.On("Create", mock.Anything, mock.AnythingOfType("*submission.Submission")).Return(nil)
	s.users.On("FindByID", mock.Anything, submitter.ID()).Return(submitter, nil)
	var sent outbound.SubmissionEmail
	s.email.On("SendSubmissionApproval", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(outbound.SubmissionEmail) }).
		Return(nil)

	// Act
	dto, err := s.service.Submit(s.ctx, submitter.ID(), s.command(
		inbound.SubmissionIngredientInput{IngredientName: eggs.Name, Quantity: 4, Unit: recipe.UnitPiece},
		inbound.SubmissionIngredientInput{IngredientName: " Harissa ", Quantity: 1, Unit: recipe.UnitTablespoon},
	))

	// Assert
	s.Require().NoError(err)
	s.Equal(string(submission.StatusPending), dto.Status)
	s.Require().Len(dto.Ingredients, 2)
	s.Require().NotNil(dto.Ingredients[0].IngredientID)
	s.Equal(eggs.ID, *dto.Ingredients[0].IngredientID)
	s.Nil(dto.Ingredients[1].IngredientID)
	s.Equal("admin@foodtrack.local", sent.To)
	s.Equal(submitter.Email(), sent.SubmittedBy)
	s.Contains(sent.ApprovalURL, "https://foodtrack.local/recipe-submissions/approve/")
	s.False(sent.IsEdit)
}

func (s *SubmissionServiceSuite) TestSubmit_EditOfUnknownRecipe() {
	id := uuid.New()
	s.recipes.On("FindByID", mock.Anything, id).Return(nil, nil)
	cmd := s.command()
	cmd.RecipeID = &id

	_, err := s.service.Submit(s.ctx, uuid.New(), cmd)

	testutils.AssertAppError(s.T(), err, errors.CodeRecipeNotFound)
	s.submissions.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *SubmissionServiceSuite) pending(recipeID *uuid.UUID, lines ...submission.Line) *submission.Submission {
	sub, err := submission.New(uuid.New(), recipeID, s.factory.Recipe().WithTitle("Shakshuka").Details(), lines)
	s.Require().NoError(err)
	s.submissions.On("FindByToken", mock.Anything, sub.ApprovalToken).Return(sub, nil)
	return sub
}

func (s *SubmissionServiceSuite) TestApprove_CreatesIngredientsThenRecipe() {
	// Arrange
	harissa, err := ingredient.NewUncategorized("Harissa")
	s.Require().NoError(err)
	sub := s.pending(nil, submission.Line{IngredientName: "Harissa", Quantity: 1, Unit: recipe.UnitTablespoon})
	s.resolver.On("FindOrCreate", mock.Anything, "Harissa").Return(harissa, nil)
	created := &inbound.RecipeDTO{ID: uuid.New(), Title: "Shakshuka"}
	s.writer.On("Create", mock.Anything, mock.MatchedBy(func(d recipe.Details) bool {
		return len(d.Ingredients) == 1 && d.Ingredients[0].IngredientID == harissa.ID
	})).Return(created, nil)
	s.submissions.On("Update", mock.Anything, sub).Return(nil)

	// Act
	dto, err := s.service.Approve(s.ctx, sub.ApprovalToken)

	// Assert
	s.Require().NoError(err)
	s.Equal(created.ID, dto.ID)
	s.Equal(submission.StatusApproved, sub.Status)
	s.NotNil(sub.ReviewedAt)
}

func (s *SubmissionServiceSuite) TestApprove_EditUpdatesRecipe() {
	recipeID := uuid.New()
	sub := s.pending(&recipeID)
	s.writer.On("Update", mock.Anything, recipeID, mock.AnythingOfType("recipe.Patch")).
		Return(&inbound.RecipeDTO{ID: recipeID}, nil)
	s.submissions.On("Update", mock.Anything, sub).Return(nil)

	dto, err := s.service.Approve(s.ctx, sub.ApprovalToken)

	s.Require().NoError(err)
	s.Equal(recipeID, dto.ID)
	s.writer.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *SubmissionServiceSuite) TestApprove_Twice() {
	sub := s.pending(nil)
	s.Require().NoError(sub.Reject("duplicate", sub.CreatedAt))

	_, err := s.service.Approve(s.ctx, sub.ApprovalToken)

	testutils.AssertAppError(s.T(), err, errors.CodeBadRequest)
}

func (s *SubmissionServiceSuite) TestApprove_WriterErrorKeepsPending() {
	sub := s.pending(nil)
	s.writer.On("Create", mock.Anything, mock.Anything).Return(nil, errors.NewSlugAlreadyExistsError("shakshuka"))

	_, err := s.service.Approve(s.ctx, sub.ApprovalToken)

	testutils.AssertAppError(s.T(), err, errors.CodeSlugAlreadyExists)
	s.Equal(submission.StatusPending, sub.Status)
	s.submissions.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

func (s *SubmissionServiceSuite) TestReject() {
	// Arrange
	sub := s.pending(nil)
	s.submissions.On("Update", mock.Anything, sub).Return(nil)
	s.submissions.On("FindByToken", mock.Anything, "missing").Return(nil, nil)

	// Act
	err := s.service.Reject(s.ctx, sub.ApprovalToken, "Not a recipe")
	againErr := s.service.Reject(s.ctx, sub.ApprovalToken, "")
	missingErr := s.service.Reject(s.ctx, "missing", "")

	// Assert
	s.Require().NoError(err)
	s.Equal(submission.StatusRejected, sub.Status)
	testutils.AssertAppError(s.T(), againErr, errors.CodeBadRequest)
	testutils.AssertAppError(s.T(), missingErr, errors.CodeNotFound)
}
