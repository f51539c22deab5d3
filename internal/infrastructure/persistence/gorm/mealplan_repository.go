package gorm

import (
	"context"

	"github.com/foodtrack/api/internal/domain/mealplan"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MealPlanRepository implements the meal plan repository interface using GORM
type MealPlanRepository struct {
	db *gorm.DB
}

// NewMealPlanRepository creates a new meal plan repository
func NewMealPlanRepository(db *gorm.DB) outbound.MealPlanRepository {
	return &MealPlanRepository{db: db}
}

// Create creates a plan and its entries
func (r *MealPlanRepository) Create(ctx context.Context, plan *mealplan.MealPlan) error {
	model := MealPlanToModel(plan)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		return insertAll(tx, model.Entries)
	})
}

// Update saves the plan and replaces its entries
func (r *MealPlanRepository) Update(ctx context.Context, plan *mealplan.MealPlan) error {
	model := MealPlanToModel(plan)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRow(tx, model, model.ID); err != nil {
			return err
		}
		if err := tx.Where("meal_plan_id = ?", model.ID).Delete(&MealPlanRecipeModel{}).Error; err != nil {
			return err
		}
		return insertAll(tx, model.Entries)
	})
}

// Delete deletes a plan and its entries
func (r *MealPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, &MealPlanModel{}, id)
}

// FindByID finds a plan by ID
func (r *MealPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error) {
	var model MealPlanModel
	found, err := first(ctx, r.preloaded(), &model, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return ModelToMealPlan(&model), nil
}

// FindByUserID returns the user's plans, newest first
func (r *MealPlanRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*mealplan.MealPlan, error) {
	var models []MealPlanModel
	err := r.preloaded().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	plans := make([]*mealplan.MealPlan, 0, len(models))
	for i := range models {
		plans = append(plans, ModelToMealPlan(&models[i]))
	}
	return plans, nil
}

func (r *MealPlanRepository) preloaded() *gorm.DB {
	return r.db.Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}
