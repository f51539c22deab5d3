package gorm

import (
	"context"

	"github.com/foodtrack/api/internal/domain/shoppinglist"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShoppingListRepository implements the shopping list repository interface using GORM
type ShoppingListRepository struct {
	db *gorm.DB
}

// NewShoppingListRepository creates a new shopping list repository
func NewShoppingListRepository(db *gorm.DB) outbound.ShoppingListRepository {
	return &ShoppingListRepository{db: db}
}

// Create creates a list and its items
func (r *ShoppingListRepository) Create(ctx context.Context, list *shoppinglist.ShoppingList) error {
	model := ShoppingListToModel(list)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		return insertAll(tx, model.Items)
	})
}

// Update saves the list and replaces its items
func (r *ShoppingListRepository) Update(ctx context.Context, list *shoppinglist.ShoppingList) error {
	model := ShoppingListToModel(list)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRow(tx, model, model.ID); err != nil {
			return err
		}
		if err := tx.Where("shopping_list_id = ?", model.ID).Delete(&ShoppingListItemModel{}).Error; err != nil {
			return err
		}
		return insertAll(tx, model.Items)
	})
}

// Delete deletes a list and its items
func (r *ShoppingListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, &ShoppingListModel{}, id)
}

// FindByID finds a list by ID
func (r *ShoppingListRepository) FindByID(ctx context.Context, id uuid.UUID) (*shoppinglist.ShoppingList, error) {
	var model ShoppingListModel
	found, err := first(ctx, r.preloaded(), &model, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return ModelToShoppingList(&model), nil
}

// FindByUserID returns the user's lists, newest first
func (r *ShoppingListRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*shoppinglist.ShoppingList, error) {
	var models []ShoppingListModel
	err := r.preloaded().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	lists := make([]*shoppinglist.ShoppingList, 0, len(models))
	for i := range models {
		lists = append(lists, ModelToShoppingList(&models[i]))
	}
	return lists, nil
}

func (r *ShoppingListRepository) preloaded() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}
