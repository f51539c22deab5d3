package gorm

import (
	"context"

	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository implements the user repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) outbound.UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Create(UserToModel(u)).Error
}

// Update updates an existing user
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	model := UserToModel(u)
	return updateRow(r.db.WithContext(ctx), model, model.ID)
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail finds a user by email address
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*user.User, error) {
	var model UserModel
	found, err := first(ctx, r.db, &model, query, args...)
	if err != nil || !found {
		return nil, err
	}
	return ModelToUser(&model), nil
}
