package gorm

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by writes that matched no row
var ErrNotFound = errors.New("record not found")

// nameKey is the case-insensitive lookup key of a name
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// first loads one row into dest; found is false when nothing matched
func first(ctx context.Context, db *gorm.DB, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := db.WithContext(ctx).Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// updateRow overwrites every column of model except created_at, leaving
// associations alone
func updateRow(tx *gorm.DB, model interface{}, id interface{}) error {
	result := tx.Model(model).
		Where("id = ?", id).
		Select("*").
		Omit(clause.Associations, "id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteRow removes the row of model with the given id
func deleteRow(ctx context.Context, db *gorm.DB, model interface{}, id interface{}) error {
	result := db.WithContext(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// insertAll creates rows when there are any
func insertAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}
