package mealplan

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/foodtrack/api/internal/domain/mealplan"
	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/foodtrack/api/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type MealPlanServiceSuite struct {
	suite.Suite
	ctx     context.Context
	factory *testutils.Factory
	plans   *testutils.MockMealPlanRepository
	recipes *testutils.MockRecipeRepository
	users   *testutils.MockUserRepository
	metrics *testutils.MetricsRecorder
	events  *testutils.EventRecorder
	owner   *user.User
}

func TestMealPlanService(t *testing.T) {
	suite.Run(t, new(MealPlanServiceSuite))
}

func (s *MealPlanServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.factory = testutils.NewFactory(testutils.DefaultSeed)
	s.plans = new(testutils.MockMealPlanRepository)
	s.recipes = new(testutils.MockRecipeRepository)
	s.users = new(testutils.MockUserRepository)
	s.metrics = &testutils.MetricsRecorder{}
	s.events = &testutils.EventRecorder{}
	s.owner = s.factory.User("password123")
}

func (s *MealPlanServiceSuite) service(pool planning.Pool, policy planning.FallbackPolicy) *MealPlanService {
	selector := planning.NewSelector(pool,
		planning.WithFallback(policy),
		planning.WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	svc := NewMealPlanService(s.plans, s.recipes, s.users, selector, s.metrics, s.events,
		Defaults{MaxPrepTime: 120, HouseholdSize: 4}, zaptest.NewLogger(s.T()))
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return svc
}

func (s *MealPlanServiceSuite) expectRecipesLookup() {
	s.recipes.On("FindByIDs", mock.Anything, mock.Anything).Return([]*recipe.Recipe{}, nil)
}

func (s *MealPlanServiceSuite) TestGenerateMealPlan_StrictStage() {
	// Arrange
	var pool planning.Pool
	for i := 0; i < 5; i++ {
		pool = append(pool, s.factory.Recipe().WithTimes(10, 10).WithTags("tag-"+string(rune('a'+i))).Build())
	}
	svc := s.service(pool, planning.FallbackAnyRecipe)
	s.users.On("FindByID", mock.Anything, s.owner.ID()).Return(s.owner, nil)
	s.plans.On("Create", mock.Anything, mock.AnythingOfType("*mealplan.MealPlan")).Return(nil)
	s.expectRecipesLookup()

	// Act
	dto, err := svc.GenerateMealPlan(s.ctx, s.owner.ID(), inbound.GenerateMealPlanCommand{NumberOfMeals: 3})

	// Assert
	s.Require().NoError(err)
	s.Len(dto.Recipes, 3)
	s.Equal("Menu du 19/10/2026", dto.Title)
	s.Require().NotNil(dto.Generation)
	s.Equal(planning.StageStrict, dto.Generation.Stage)
	s.False(dto.Generation.Relaxed)
	for _, entry := range dto.Recipes {
		s.Equal(user.DefaultHouseholdSize, entry.Servings)
	}
	s.Equal([]testutils.Selection{{Stage: planning.StageStrict, Requested: 3, Selected: 3}}, s.metrics.Selections)
	s.Len(s.events.Names(), 3)
}

func (s *MealPlanServiceSuite) TestGenerateMealPlan_RequestOverridesSettings() {
	// Arrange
	household := 2
	s.Require().NoError(s.owner.UpdateSettings(user.SettingsPatch{
		HouseholdSize:   &household,
		DietPreferences: []recipe.DietType{recipe.DietVegan},
	}))
	vegetarian := s.factory.Recipe().WithDiets(recipe.DietVegetarian).Build()
	meat := s.factory.Recipe().Build()
	svc := s.service(planning.Pool{meat, vegetarian}, planning.FallbackNone)
	s.users.On("FindByID", mock.Anything, s.owner.ID()).Return(s.owner, nil)
	s.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	s.expectRecipesLookup()

	// Act
	dto, err := svc.GenerateMealPlan(s.ctx, s.owner.ID(), inbound.GenerateMealPlanCommand{
		NumberOfMeals: 1,
		DietTypes:     []recipe.DietType{recipe.DietVegetarian},
	})

	// Assert
	s.Require().NoError(err)
	s.Require().Len(dto.Recipes, 1)
	s.Equal(vegetarian.ID(), dto.Recipes[0].RecipeID)
	s.Equal(2, dto.Recipes[0].Servings)
}

func (s *MealPlanServiceSuite) TestGenerateMealPlan_ShortWithoutFallback() {
	// Arrange
	svc := s.service(planning.Pool{s.factory.Recipe().Build()}, planning.FallbackNone)
	s.users.On("FindByID", mock.Anything, s.owner.ID()).Return(s.owner, nil)
	s.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	s.expectRecipesLookup()

	// Act
	dto, err := svc.GenerateMealPlan(s.ctx, s.owner.ID(), inbound.GenerateMealPlanCommand{NumberOfMeals: 4})

	// Assert
	s.Require().NoError(err)
	s.Len(dto.Recipes, 1)
	s.Equal(planning.StageDietOnly, dto.Generation.Stage)
	s.Equal(4, dto.Generation.Requested)
	s.Equal(1, dto.Generation.Selected)
}

func (s *MealPlanServiceSuite) TestGenerateMealPlan_Validation() {
	svc := s.service(nil, planning.FallbackAnyRecipe)
	tooLong := 300

	tests := []struct {
		name string
		cmd  inbound.GenerateMealPlanCommand
	}{
		{"zero meals", inbound.GenerateMealPlanCommand{NumberOfMeals: 0}},
		{"too many meals", inbound.GenerateMealPlanCommand{NumberOfMeals: MaxGeneratedMeals + 1}},
		{"prep time out of range", inbound.GenerateMealPlanCommand{NumberOfMeals: 2, MaxPrepTime: &tooLong}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := svc.GenerateMealPlan(s.ctx, s.owner.ID(), tt.cmd)
			testutils.AssertAppError(s.T(), err, errors.CodeValidationFailed)
		})
	}
	s.users.AssertNotCalled(s.T(), "FindByID", mock.Anything, mock.Anything)
}

func (s *MealPlanServiceSuite) TestGenerateMealPlan_UnknownUser() {
	svc := s.service(nil, planning.FallbackAnyRecipe)
	s.users.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := svc.GenerateMealPlan(s.ctx, uuid.New(), inbound.GenerateMealPlanCommand{NumberOfMeals: 2})

	testutils.AssertAppError(s.T(), err, errors.CodeUserNotFound)
}

func (s *MealPlanServiceSuite) TestCreateMealPlan_MissingRecipe() {
	// Arrange
	svc := s.service(nil, planning.FallbackAnyRecipe)
	known := s.factory.Recipe().Build()
	missing := uuid.New()
	s.recipes.On("FindByIDs", mock.Anything, []uuid.UUID{known.ID(), missing}).Return([]*recipe.Recipe{known}, nil)

	// Act
	_, err := svc.CreateMealPlan(s.ctx, s.owner.ID(), inbound.CreateMealPlanCommand{
		Title:     "Week 42",
		RecipeIDs: []uuid.UUID{known.ID(), missing},
	})

	// Assert
	testutils.AssertAppError(s.T(), err, errors.CodeRecipeNotFound)
	s.plans.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *MealPlanServiceSuite) TestOwnership() {
	// Arrange
	svc := s.service(nil, planning.FallbackAnyRecipe)
	plan, err := mealplan.New(s.owner.ID(), "Mine")
	s.Require().NoError(err)
	s.plans.On("FindByID", mock.Anything, plan.ID).Return(plan, nil)

	// Act
	_, getErr := svc.GetMealPlan(s.ctx, plan.ID, uuid.New())
	delErr := svc.DeleteMealPlan(s.ctx, plan.ID, uuid.New())

	// Assert
	testutils.AssertAppError(s.T(), getErr, errors.CodeForbidden)
	testutils.AssertAppError(s.T(), delErr, errors.CodeForbidden)
	s.plans.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)
}

func (s *MealPlanServiceSuite) TestAddAndRemoveRecipe() {
	// Arrange
	svc := s.service(nil, planning.FallbackAnyRecipe)
	plan, err := mealplan.New(s.owner.ID(), "Week 42")
	s.Require().NoError(err)
	r := s.factory.Recipe().Build()
	servings := 6
	s.plans.On("FindByID", mock.Anything, plan.ID).Return(plan, nil)
	s.plans.On("Update", mock.Anything, plan).Return(nil)
	s.recipes.On("FindByID", mock.Anything, r.ID()).Return(r, nil)
	s.recipes.On("FindByIDs", mock.Anything, mock.Anything).Return([]*recipe.Recipe{r}, nil)

	// Act
	added, err := svc.AddRecipe(s.ctx, plan.ID, s.owner.ID(), inbound.AddRecipeCommand{RecipeID: r.ID(), Servings: &servings})
	s.Require().NoError(err)
	removed, err := svc.RemoveRecipe(s.ctx, plan.ID, r.ID(), s.owner.ID())
	s.Require().NoError(err)
	_, missingErr := svc.RemoveRecipe(s.ctx, plan.ID, r.ID(), s.owner.ID())

	// Assert
	s.Require().Len(added.Recipes, 1)
	s.Equal(6, added.Recipes[0].Servings)
	s.Require().NotNil(added.Recipes[0].Recipe)
	s.Equal(r.Title(), added.Recipes[0].Recipe.Title)
	s.Empty(removed.Recipes)
	testutils.AssertAppError(s.T(), missingErr, errors.CodeNotFound)
}

func (s *MealPlanServiceSuite) TestUpdateMealPlan_BlankTitle() {
	svc := s.service(nil, planning.FallbackAnyRecipe)
	plan, err := mealplan.New(s.owner.ID(), "Week 42")
	s.Require().NoError(err)
	s.plans.On("FindByID", mock.Anything, plan.ID).Return(plan, nil)

	_, err = svc.UpdateMealPlan(s.ctx, plan.ID, s.owner.ID(), inbound.UpdateMealPlanCommand{Title: "   "})

	testutils.AssertAppError(s.T(), err, errors.CodeValidationFailed)
}
