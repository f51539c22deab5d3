// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create creates a new recipe with its lines, steps and labels
func (r *RecipeRepository) Create(ctx context.Context, entity *recipe.Recipe) error {
	model := RecipeToModel(entity)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		return insertChildren(tx, model)
	})
}

// Update saves the recipe and replaces its child rows
func (r *RecipeRepository) Update(ctx context.Context, entity *recipe.Recipe) error {
	model := RecipeToModel(entity)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRow(tx, model, model.ID); err != nil {
			return err
		}
		for _, child := range []interface{}{
			&RecipeIngredientModel{}, &RecipeStepModel{}, &RecipeDietModel{}, &RecipeToolModel{}, &RecipeTagModel{},
		} {
			if err := tx.Where("recipe_id = ?", model.ID).Delete(child).Error; err != nil {
				return err
			}
		}
		return insertChildren(tx, model)
	})
}

func insertChildren(tx *gorm.DB, model *RecipeModel) error {
	if err := insertAll(tx, model.Ingredients); err != nil {
		return fmt.Errorf("insert ingredient lines: %w", err)
	}
	if err := insertAll(tx, model.Steps); err != nil {
		return fmt.Errorf("insert steps: %w", err)
	}
	if err := insertAll(tx, model.Diets); err != nil {
		return fmt.Errorf("insert diet types: %w", err)
	}
	if err := insertAll(tx, model.Tools); err != nil {
		return fmt.Errorf("insert tools: %w", err)
	}
	if err := insertAll(tx, model.Tags); err != nil {
		return fmt.Errorf("insert tags: %w", err)
	}
	return nil
}

// Delete deletes a recipe; child rows and reviews cascade
func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, &RecipeModel{}, id)
}

// FindByID finds a recipe by ID
func (r *RecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySlug finds a recipe by slug
func (r *RecipeRepository) FindBySlug(ctx context.Context, slug string) (*recipe.Recipe, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

func (r *RecipeRepository) findOne(ctx context.Context, query string, args ...interface{}) (*recipe.Recipe, error) {
	var model RecipeModel
	found, err := first(ctx, r.preloaded(), &model, query, args...)
	if err != nil || !found {
		return nil, err
	}

	recipes, err := r.withRatings(ctx, []RecipeModel{model})
	if err != nil {
		return nil, err
	}
	return recipes[0], nil
}

// FindByIDs loads recipes keeping the order of ids; unknown ids are skipped
func (r *RecipeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error) {
	if len(ids) == 0 {
		return []*recipe.Recipe{}, nil
	}

	var models []RecipeModel
	if err := r.preloaded().WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]RecipeModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	ordered := make([]RecipeModel, 0, len(models))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if _, dup := seen[id]; !ok || dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, m)
	}

	return r.withRatings(ctx, ordered)
}

// SlugExists reports whether another recipe than exclude owns slug
func (r *RecipeRepository) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RecipeModel{}).
		Where("slug = ? AND id <> ?", slug, exclude).
		Count(&count).Error
	return count > 0, err
}

// List returns one page of recipes matching query and the total match count
func (r *RecipeRepository) List(ctx context.Context, query outbound.RecipeQuery) ([]*recipe.Recipe, int64, error) {
	var total int64
	if err := r.raw(ctx, countQuery(query)).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}
	if total == 0 {
		return []*recipe.Recipe{}, 0, nil
	}

	ids, err := r.selectIDs(ctx, listQuery(query))
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	recipes, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// Count returns the number of recipes in the catalog
func (r *RecipeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&RecipeModel{}).Count(&count).Error
	return count, err
}

// FindEligible returns up to limit random recipes satisfying c
func (r *RecipeRepository) FindEligible(ctx context.Context, c planning.Criteria, limit int) ([]*recipe.Recipe, error) {
	ids, err := r.selectIDs(ctx, eligibleQuery(c, limit))
	if err != nil {
		return nil, fmt.Errorf("find eligible recipes: %w", err)
	}
	return r.FindByIDs(ctx, ids)
}

// FindAny returns the oldest limit recipes
func (r *RecipeRepository) FindAny(ctx context.Context, limit int) ([]*recipe.Recipe, error) {
	ids, err := r.selectIDs(ctx, anyQuery(limit))
	if err != nil {
		return nil, fmt.Errorf("find any recipes: %w", err)
	}
	return r.FindByIDs(ctx, ids)
}

func (r *RecipeRepository) preloaded() *gorm.DB {
	return r.db.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Ingredients.Ingredient").
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("number") }).
		Preload("Diets").
		Preload("Tools").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

func (r *RecipeRepository) raw(ctx context.Context, q sq.SelectBuilder) *gorm.DB {
	sql, args, err := q.ToSql()
	if err != nil {
		db := r.db.WithContext(ctx)
		_ = db.AddError(err)
		return db
	}
	return r.db.WithContext(ctx).Raw(sql, args...)
}

func (r *RecipeRepository) selectIDs(ctx context.Context, q sq.SelectBuilder) ([]uuid.UUID, error) {
	var raw []string
	if err := r.raw(ctx, q).Scan(&raw).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("scan recipe id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type ratingRow struct {
	RecipeID    uuid.UUID
	AvgRating   float64
	ReviewCount int
}

// withRatings converts models and attaches their review aggregates
func (r *RecipeRepository) withRatings(ctx context.Context, models []RecipeModel) ([]*recipe.Recipe, error) {
	recipes := make([]*recipe.Recipe, 0, len(models))
	if len(models) == 0 {
		return recipes, nil
	}

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID.String())
	}
	var rows []ratingRow
	if err := r.raw(ctx, ratingsQuery(ids)).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	ratings := make(map[uuid.UUID]ratingRow, len(rows))
	for _, row := range rows {
		ratings[row.RecipeID] = row
	}

	for i := range models {
		entity := ModelToRecipe(&models[i])
		if row, ok := ratings[models[i].ID]; ok && row.ReviewCount > 0 {
			avg := row.AvgRating
			entity.SetRating(&avg, row.ReviewCount)
		}
		recipes = append(recipes, entity)
	}
	return recipes, nil
}

var _ outbound.RecipeRepository = (*RecipeRepository)(nil)
