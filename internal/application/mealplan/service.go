// Package mealplan provides the application layer for meal planning
package mealplan

import (
	"context"
	stderrors "errors"
	"time"

	recipeapp "github.com/foodtrack/api/internal/application/recipe"
	"github.com/foodtrack/api/internal/domain/mealplan"
	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxGeneratedMeals bounds a single generation request
const MaxGeneratedMeals = 21

// Defaults fill generation constraints the request and the user's settings leave open
type Defaults struct {
	MaxPrepTime   int
	HouseholdSize int
}

// MealPlanService implements the meal plan use cases
type MealPlanService struct {
	plans    outbound.MealPlanRepository
	recipes  outbound.RecipeRepository
	users    outbound.UserRepository
	selector *planning.Selector
	metrics  outbound.PlanningMetrics
	events   outbound.EventPublisher
	defaults Defaults
	now      func() time.Time
	logger   *zap.Logger
}

// NewMealPlanService creates a new meal plan service
func NewMealPlanService(
	plans outbound.MealPlanRepository,
	recipes outbound.RecipeRepository,
	users outbound.UserRepository,
	selector *planning.Selector,
	metrics outbound.PlanningMetrics,
	events outbound.EventPublisher,
	defaults Defaults,
	logger *zap.Logger,
) *MealPlanService {
	if defaults.MaxPrepTime <= 0 {
		defaults.MaxPrepTime = 120
	}
	if defaults.HouseholdSize <= 0 {
		defaults.HouseholdSize = mealplan.DefaultServings
	}
	return &MealPlanService{
		plans:    plans,
		recipes:  recipes,
		users:    users,
		selector: selector,
		metrics:  metrics,
		events:   events,
		defaults: defaults,
		now:      time.Now,
		logger:   logger.Named("meal-plan-service"),
	}
}

var _ inbound.MealPlanService = (*MealPlanService)(nil)

// CreateMealPlan creates a plan holding the given recipes at default servings
func (s *MealPlanService) CreateMealPlan(ctx context.Context, userID uuid.UUID, cmd inbound.CreateMealPlanCommand) (*inbound.MealPlanDTO, error) {
	plan, err := mealplan.New(userID, cmd.Title)
	if err != nil {
		return nil, translate(err)
	}
	if len(cmd.RecipeIDs) > 0 {
		found, err := s.recipes.FindByIDs(ctx, cmd.RecipeIDs)
		if err != nil {
			return nil, errors.NewDatabaseError("find recipes", err)
		}
		if missing := firstMissing(cmd.RecipeIDs, found); missing != uuid.Nil {
			return nil, errors.NewRecipeNotFoundError(missing.String())
		}
		for _, id := range cmd.RecipeIDs {
			if _, err := plan.Plan(id, mealplan.DefaultServings, nil); err != nil {
				return nil, translate(err)
			}
		}
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, errors.NewDatabaseError("create meal plan", err)
	}
	s.publish(ctx, plan)

	s.logger.Info("Meal plan created",
		zap.String("meal_plan_id", plan.ID.String()),
		zap.Int("recipes", len(plan.Entries)),
	)
	return s.toDTO(ctx, plan)
}

// GenerateMealPlan builds a plan from the selector. Constraints missing from
// the request fall back to the user's settings, then to service defaults.
func (s *MealPlanService) GenerateMealPlan(ctx context.Context, userID uuid.UUID, cmd inbound.GenerateMealPlanCommand) (*inbound.MealPlanDTO, error) {
	if cmd.NumberOfMeals < 1 || cmd.NumberOfMeals > MaxGeneratedMeals {
		return nil, errors.NewValidationError("numberOfMeals must be between 1 and 21")
	}
	if cmd.MaxPrepTime != nil && (*cmd.MaxPrepTime < user.MinMaxPrepTime || *cmd.MaxPrepTime > user.MaxMaxPrepTime) {
		return nil, errors.NewValidationError(user.ErrInvalidMaxPrepTime.Error())
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.NewDatabaseError("find user", err)
	}
	if u == nil {
		return nil, errors.NewUserNotFoundError(userID.String())
	}
	settings := u.Settings()

	req := s.buildRequest(cmd, settings)
	started := time.Now()
	result, err := s.selector.Select(ctx, req)
	if err != nil {
		if isRequestError(err) {
			return nil, errors.NewValidationError(err.Error())
		}
		return nil, errors.NewDatabaseError("select recipes", err)
	}
	s.metrics.ObserveSelection(result.Stage, req.Count, len(result.Recipes), time.Since(started))

	fields := []zap.Field{
		zap.String("user_id", userID.String()),
		zap.String("stage", result.Stage),
		zap.Int("requested", req.Count),
		zap.Int("selected", len(result.Recipes)),
	}
	if len(result.Recipes) < req.Count {
		s.logger.Warn("Catalog could not satisfy meal plan request", fields...)
	} else {
		s.logger.Info("Recipes selected for meal plan", fields...)
	}

	plan, err := mealplan.New(userID, mealplan.GeneratedTitle(s.now()))
	if err != nil {
		return nil, translate(err)
	}
	servings := settings.HouseholdSize
	if servings < 1 {
		servings = s.defaults.HouseholdSize
	}
	for _, r := range result.Recipes {
		if _, err := plan.Plan(r.ID(), servings, nil); err != nil {
			return nil, translate(err)
		}
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, errors.NewDatabaseError("create meal plan", err)
	}
	s.publish(ctx, plan)

	dto, err := s.toDTO(ctx, plan)
	if err != nil {
		return nil, err
	}
	dto.Generation = &inbound.GenerationDTO{
		Stage:     result.Stage,
		Relaxed:   result.Relaxed,
		Requested: req.Count,
		Selected:  len(result.Recipes),
	}
	return dto, nil
}

func (s *MealPlanService) buildRequest(cmd inbound.GenerateMealPlanCommand, settings user.Settings) planning.Request {
	req := planning.Request{
		Count:         cmd.NumberOfMeals,
		DietTypes:     settings.DietPreferences,
		MaxDifficulty: recipe.DifficultyHard,
		MaxTotalTime:  s.defaults.MaxPrepTime,
		Tools:         settings.ToolsAvailable,
	}
	if cmd.DietTypes != nil {
		req.DietTypes = cmd.DietTypes
	}
	switch {
	case cmd.MaxDifficulty != nil:
		req.MaxDifficulty = *cmd.MaxDifficulty
	case settings.DifficultyPreference != nil:
		req.MaxDifficulty = *settings.DifficultyPreference
	}
	switch {
	case cmd.MaxPrepTime != nil:
		req.MaxTotalTime = *cmd.MaxPrepTime
	case settings.MaxPrepTime != nil:
		req.MaxTotalTime = *settings.MaxPrepTime
	}
	if cmd.ToolsAvailable != nil {
		req.Tools = cmd.ToolsAvailable
	}
	return req
}

// ListMealPlans lists the user's plans, newest first
func (s *MealPlanService) ListMealPlans(ctx context.Context, userID uuid.UUID) ([]inbound.MealPlanDTO, error) {
	plans, err := s.plans.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.NewDatabaseError("list meal plans", err)
	}

	var ids []uuid.UUID
	for _, p := range plans {
		ids = append(ids, p.RecipeIDs()...)
	}
	byID, err := s.recipesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]inbound.MealPlanDTO, 0, len(plans))
	for _, p := range plans {
		out = append(out, assemble(p, byID))
	}
	return out, nil
}

// GetMealPlan returns one plan owned by userID
func (s *MealPlanService) GetMealPlan(ctx context.Context, id, userID uuid.UUID) (*inbound.MealPlanDTO, error) {
	plan, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, plan)
}

// UpdateMealPlan renames a plan
func (s *MealPlanService) UpdateMealPlan(ctx context.Context, id, userID uuid.UUID, cmd inbound.UpdateMealPlanCommand) (*inbound.MealPlanDTO, error) {
	plan, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := plan.Rename(cmd.Title); err != nil {
		return nil, translate(err)
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, errors.NewDatabaseError("update meal plan", err)
	}
	return s.toDTO(ctx, plan)
}

// DeleteMealPlan removes a plan
func (s *MealPlanService) DeleteMealPlan(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete meal plan", err)
	}
	s.logger.Info("Meal plan deleted", zap.String("meal_plan_id", id.String()))
	return nil
}

// AddRecipe plans a recipe, or updates its servings and date when already planned
func (s *MealPlanService) AddRecipe(ctx context.Context, id, userID uuid.UUID, cmd inbound.AddRecipeCommand) (*inbound.MealPlanDTO, error) {
	plan, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	r, err := s.recipes.FindByID(ctx, cmd.RecipeID)
	if err != nil {
		return nil, errors.NewDatabaseError("find recipe", err)
	}
	if r == nil {
		return nil, errors.NewRecipeNotFoundError(cmd.RecipeID.String())
	}

	servings := mealplan.DefaultServings
	if cmd.Servings != nil {
		servings = *cmd.Servings
	}
	if _, err := plan.Plan(cmd.RecipeID, servings, cmd.PlannedFor); err != nil {
		return nil, translate(err)
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, errors.NewDatabaseError("update meal plan", err)
	}
	s.publish(ctx, plan)
	return s.toDTO(ctx, plan)
}

// RemoveRecipe unplans a recipe
func (s *MealPlanService) RemoveRecipe(ctx context.Context, id, recipeID, userID uuid.UUID) (*inbound.MealPlanDTO, error) {
	plan, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if _, err := plan.Unplan(recipeID); err != nil {
		return nil, translate(err)
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, errors.NewDatabaseError("update meal plan", err)
	}
	return s.toDTO(ctx, plan)
}

// Owned loads a plan and checks that userID owns it
func (s *MealPlanService) Owned(ctx context.Context, id, userID uuid.UUID) (*mealplan.MealPlan, error) {
	return s.owned(ctx, id, userID)
}

func (s *MealPlanService) owned(ctx context.Context, id, userID uuid.UUID) (*mealplan.MealPlan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find meal plan", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("meal plan")
	}
	if !plan.OwnedBy(userID) {
		return nil, errors.NewForbiddenError(mealplan.ErrNotOwner.Error())
	}
	return plan, nil
}

func (s *MealPlanService) toDTO(ctx context.Context, plan *mealplan.MealPlan) (*inbound.MealPlanDTO, error) {
	byID, err := s.recipesByID(ctx, plan.RecipeIDs())
	if err != nil {
		return nil, err
	}
	dto := assemble(plan, byID)
	return &dto, nil
}

func (s *MealPlanService) recipesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*recipe.Recipe, error) {
	byID := make(map[uuid.UUID]*recipe.Recipe, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	found, err := s.recipes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.NewDatabaseError("find recipes", err)
	}
	for _, r := range found {
		byID[r.ID()] = r
	}
	return byID, nil
}

func (s *MealPlanService) publish(ctx context.Context, plan *mealplan.MealPlan) {
	if err := s.events.Publish(ctx, plan.PullEvents()...); err != nil {
		s.logger.Error("Failed to publish events", zap.String("meal_plan_id", plan.ID.String()), zap.Error(err))
	}
}

func assemble(plan *mealplan.MealPlan, recipes map[uuid.UUID]*recipe.Recipe) inbound.MealPlanDTO {
	dto := inbound.MealPlanDTO{
		ID:        plan.ID,
		UserID:    plan.UserID,
		Title:     plan.Title,
		Recipes:   make([]inbound.PlannedRecipeDTO, 0, len(plan.Entries)),
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}
	for _, e := range plan.Entries {
		entry := inbound.PlannedRecipeDTO{
			ID:         e.ID,
			RecipeID:   e.RecipeID,
			Servings:   e.Servings,
			PlannedFor: e.PlannedFor,
		}
		if r, ok := recipes[e.RecipeID]; ok {
			rd := recipeapp.ToDTO(r)
			entry.Recipe = &rd
		}
		dto.Recipes = append(dto.Recipes, entry)
	}
	return dto
}

func firstMissing(want []uuid.UUID, found []*recipe.Recipe) uuid.UUID {
	have := make(map[uuid.UUID]bool, len(found))
	for _, r := range found {
		have[r.ID()] = true
	}
	for _, id := range want {
		if !have[id] {
			return id
		}
	}
	return uuid.Nil
}

func isRequestError(err error) bool {
	return stderrors.Is(err, planning.ErrInvalidCount) ||
		stderrors.Is(err, planning.ErrInvalidDifficulty) ||
		stderrors.Is(err, planning.ErrInvalidMaxTime)
}

func translate(err error) error {
	switch {
	case stderrors.Is(err, mealplan.ErrTitleRequired),
		stderrors.Is(err, mealplan.ErrInvalidServings):
		return errors.NewValidationError(err.Error())
	case stderrors.Is(err, mealplan.ErrRecipeNotInPlan):
		return errors.NewNotFoundError("recipe in meal plan")
	}
	return errors.Wrap(err, "meal plan operation failed")
}
