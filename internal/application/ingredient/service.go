// Package ingredient provides the application layer for the ingredient reference list
package ingredient

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngredientService implements the ingredient use cases
type IngredientService struct {
	repo   outbound.IngredientRepository
	logger *zap.Logger
}

// NewIngredientService creates a new ingredient service
func NewIngredientService(repo outbound.IngredientRepository, logger *zap.Logger) *IngredientService {
	return &IngredientService{
		repo:   repo,
		logger: logger.Named("ingredient-service"),
	}
}

var _ inbound.IngredientService = (*IngredientService)(nil)

// ListIngredients lists ingredients matching an optional name fragment and category
func (s *IngredientService) ListIngredients(ctx context.Context, search, category string) ([]inbound.IngredientDTO, error) {
	var filter *ingredient.Category
	if category != "" {
		c := ingredient.Category(strings.ToUpper(category))
		if !c.IsValid() {
			return nil, errors.NewValidationError("unknown ingredient category").WithMetadata("category", category)
		}
		filter = &c
	}

	found, err := s.repo.List(ctx, strings.TrimSpace(search), filter)
	if err != nil {
		return nil, errors.NewDatabaseError("list ingredients", err)
	}
	out := make([]inbound.IngredientDTO, 0, len(found))
	for _, ing := range found {
		out = append(out, ToDTO(ing))
	}
	return out, nil
}

// GetIngredient retrieves an ingredient by ID
func (s *IngredientService) GetIngredient(ctx context.Context, id uuid.UUID) (*inbound.IngredientDTO, error) {
	ing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find ingredient", err)
	}
	if ing == nil {
		return nil, errors.NewNotFoundError("ingredient")
	}
	dto := ToDTO(ing)
	return &dto, nil
}

// CreateIngredient adds an ingredient; names are unique regardless of case
func (s *IngredientService) CreateIngredient(ctx context.Context, cmd inbound.CreateIngredientCommand) (*inbound.IngredientDTO, error) {
	ing, err := ingredient.New(cmd.Name, ingredient.Category(strings.ToUpper(cmd.Category)), cmd.DefaultUnit)
	if err != nil {
		return nil, translate(err)
	}

	existing, err := s.repo.FindByName(ctx, ing.Name)
	if err != nil {
		return nil, errors.NewDatabaseError("find ingredient by name", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError(ingredient.ErrNameAlreadyExists.Error()).WithMetadata("name", ing.Name)
	}

	if err := s.repo.Create(ctx, ing); err != nil {
		return nil, errors.NewDatabaseError("create ingredient", err)
	}
	s.logger.Info("Ingredient created", zap.String("ingredient_id", ing.ID.String()), zap.String("name", ing.Name))

	dto := ToDTO(ing)
	return &dto, nil
}

// FindOrCreateIngredient returns the ingredient with that name, creating an
// uncategorized one when none exists
func (s *IngredientService) FindOrCreateIngredient(ctx context.Context, name string) (*inbound.IngredientDTO, error) {
	ing, err := s.FindOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(ing)
	return &dto, nil
}

// FindOrCreate is FindOrCreateIngredient returning the entity
func (s *IngredientService) FindOrCreate(ctx context.Context, name string) (*ingredient.Ingredient, error) {
	existing, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, errors.NewDatabaseError("find ingredient by name", err)
	}
	if existing != nil {
		return existing, nil
	}

	ing, err := ingredient.NewUncategorized(name)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.repo.Create(ctx, ing); err != nil {
		return nil, errors.NewDatabaseError("create ingredient", err)
	}
	s.logger.Info("Created uncategorized ingredient", zap.String("name", ing.Name))
	return ing, nil
}

// ToDTO converts an ingredient to its transfer object
func ToDTO(ing *ingredient.Ingredient) inbound.IngredientDTO {
	return inbound.IngredientDTO{
		ID:          ing.ID,
		Name:        ing.Name,
		Category:    string(ing.Category),
		DefaultUnit: ing.DefaultUnit,
	}
}

func translate(err error) error {
	switch {
	case stderrors.Is(err, ingredient.ErrNameRequired),
		stderrors.Is(err, ingredient.ErrInvalidCategory),
		stderrors.Is(err, recipe.ErrInvalidUnit):
		return errors.NewValidationError(err.Error())
	}
	return errors.Wrap(err, "ingredient operation failed")
}
