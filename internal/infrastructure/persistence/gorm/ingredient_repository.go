package gorm

import (
	"context"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IngredientRepository implements the ingredient repository interface using GORM
type IngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *gorm.DB) outbound.IngredientRepository {
	return &IngredientRepository{db: db}
}

// Create creates a new ingredient; names are unique ignoring case
func (r *IngredientRepository) Create(ctx context.Context, ing *ingredient.Ingredient) error {
	return r.db.WithContext(ctx).Create(IngredientToModel(ing)).Error
}

// FindByID finds an ingredient by ID
func (r *IngredientRepository) FindByID(ctx context.Context, id uuid.UUID) (*ingredient.Ingredient, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName finds an ingredient by name, ignoring case
func (r *IngredientRepository) FindByName(ctx context.Context, name string) (*ingredient.Ingredient, error) {
	return r.findOne(ctx, "name_key = ?", nameKey(name))
}

func (r *IngredientRepository) findOne(ctx context.Context, query string, args ...interface{}) (*ingredient.Ingredient, error) {
	var model IngredientModel
	found, err := first(ctx, r.db, &model, query, args...)
	if err != nil || !found {
		return nil, err
	}
	return ModelToIngredient(&model), nil
}

// FindByIDs loads the ingredients with the given ids, in name order
func (r *IngredientRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*ingredient.Ingredient, error) {
	if len(ids) == 0 {
		return []*ingredient.Ingredient{}, nil
	}
	var models []IngredientModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	return toIngredients(models), nil
}

// List returns ingredients by name, optionally filtered by a name fragment and category
func (r *IngredientRepository) List(ctx context.Context, search string, category *ingredient.Category) ([]*ingredient.Ingredient, error) {
	q := r.db.WithContext(ctx).Model(&IngredientModel{})
	if key := nameKey(search); key != "" {
		q = q.Where("name_key LIKE ? ESCAPE '\\'", "%"+escapeLike(key)+"%")
	}
	if category != nil {
		q = q.Where("category = ?", string(*category))
	}

	var models []IngredientModel
	if err := q.Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	return toIngredients(models), nil
}

func toIngredients(models []IngredientModel) []*ingredient.Ingredient {
	out := make([]*ingredient.Ingredient, 0, len(models))
	for i := range models {
		out = append(out, ModelToIngredient(&models[i]))
	}
	return out
}
