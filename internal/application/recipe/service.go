// Package recipe provides the application layer for the recipe catalog
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	recipeCacheTTL    = 10 * time.Minute
	listCacheTTL      = 2 * time.Minute
	listVersionKey    = "recipes:version"
	recipeKeyTemplate = "recipe:%s"
)

// RecipeService implements the recipe use cases
type RecipeService struct {
	recipeRepo     outbound.RecipeRepository
	ingredientRepo outbound.IngredientRepository
	cache          outbound.CacheRepository
	events         outbound.EventPublisher
	logger         *zap.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(
	recipeRepo outbound.RecipeRepository,
	ingredientRepo outbound.IngredientRepository,
	cache outbound.CacheRepository,
	events outbound.EventPublisher,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo:     recipeRepo,
		ingredientRepo: ingredientRepo,
		cache:          cache,
		events:         events,
		logger:         logger.Named("recipe-service"),
	}
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// CreateRecipe creates a new recipe
func (s *RecipeService) CreateRecipe(ctx context.Context, cmd inbound.RecipeCommand) (*inbound.RecipeDTO, error) {
	s.logger.Info("Creating new recipe", zap.String("title", cmd.Title))
	return s.Create(ctx, DetailsFromCommand(cmd))
}

// Create validates and stores recipe attributes. Submissions reuse it on approval.
func (s *RecipeService) Create(ctx context.Context, details recipe.Details) (*inbound.RecipeDTO, error) {
	entity, err := recipe.NewRecipe(details)
	if err != nil {
		return nil, translate(err)
	}

	if err := s.checkSlug(ctx, entity.Slug(), uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.checkIngredients(ctx, entity.Ingredients()); err != nil {
		return nil, err
	}

	if err := s.recipeRepo.Create(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("create recipe", err)
	}
	s.publish(ctx, entity)
	s.bumpListVersion(ctx)

	s.logger.Info("Recipe created successfully",
		zap.String("recipe_id", entity.ID().String()),
		zap.String("slug", entity.Slug()),
	)
	return s.reload(ctx, entity.ID())
}

// UpdateRecipe applies a partial update
func (s *RecipeService) UpdateRecipe(ctx context.Context, id uuid.UUID, cmd inbound.UpdateRecipeCommand) (*inbound.RecipeDTO, error) {
	return s.Update(ctx, id, patchFromCommand(cmd))
}

// Update applies a patch to a stored recipe
func (s *RecipeService) Update(ctx context.Context, id uuid.UUID, patch recipe.Patch) (*inbound.RecipeDTO, error) {
	s.logger.Info("Updating recipe", zap.String("recipe_id", id.String()))

	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entity.Apply(patch); err != nil {
		return nil, translate(err)
	}
	if patch.Title != nil {
		if err := s.checkSlug(ctx, entity.Slug(), id); err != nil {
			return nil, err
		}
	}
	if patch.Ingredients != nil {
		if err := s.checkIngredients(ctx, entity.Ingredients()); err != nil {
			return nil, err
		}
	}

	if err := s.recipeRepo.Update(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("update recipe", err)
	}
	s.publish(ctx, entity)
	s.Invalidate(ctx, id)

	return s.reload(ctx, id)
}

// DeleteRecipe removes a recipe
func (s *RecipeService) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.recipeRepo.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete recipe", err)
	}
	s.Invalidate(ctx, id)

	s.logger.Info("Recipe deleted", zap.String("recipe_id", id.String()))
	return nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*inbound.RecipeDTO, error) {
	key := fmt.Sprintf(recipeKeyTemplate, id)
	var cached inbound.RecipeDTO
	if s.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(entity)
	s.setCached(ctx, key, dto, recipeCacheTTL)
	return &dto, nil
}

// GetRecipeBySlug retrieves a recipe by slug
func (s *RecipeService) GetRecipeBySlug(ctx context.Context, slug string) (*inbound.RecipeDTO, error) {
	entity, err := s.recipeRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, errors.NewDatabaseError("find recipe by slug", err)
	}
	if entity == nil {
		return nil, errors.NewNotFoundError("recipe").WithMetadata("slug", slug)
	}
	dto := ToDTO(entity)
	return &dto, nil
}

// GetRecipeWithServings returns the recipe scaled to servings
func (s *RecipeService) GetRecipeWithServings(ctx context.Context, id uuid.UUID, servings int) (*inbound.RecipeDTO, error) {
	if servings < 1 {
		return nil, errors.NewValidationError("servings must be at least 1")
	}
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	scaled, err := entity.ScaledTo(servings)
	if err != nil {
		return nil, translate(err)
	}
	dto := ToDTO(scaled)
	return &dto, nil
}

// ListRecipes searches the catalog
func (s *RecipeService) ListRecipes(ctx context.Context, q inbound.ListRecipesQuery) (*inbound.RecipeList, error) {
	page, limit := normalizePage(q.Page, q.Limit)
	sortBy, err := parseSort(q.SortBy)
	if err != nil {
		return nil, err
	}
	query := outbound.RecipeQuery{
		Search:      strings.TrimSpace(q.Search),
		DietTypes:   q.DietTypes,
		Difficulty:  q.Difficulty,
		MaxPrepTime: q.MaxPrepTime,
		Tools:       q.ToolsRequired,
		Tags:        q.Tags,
		SortBy:      sortBy,
		Offset:      (page - 1) * limit,
		Limit:       limit,
	}

	key := s.listKey(ctx, query)
	var cached inbound.RecipeList
	if s.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	recipes, total, err := s.recipeRepo.List(ctx, query)
	if err != nil {
		return nil, errors.NewDatabaseError("list recipes", err)
	}

	list := &inbound.RecipeList{
		Data: make([]inbound.RecipeDTO, 0, len(recipes)),
		Meta: inbound.PageMeta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}
	for _, r := range recipes {
		list.Data = append(list.Data, ToDTO(r))
	}
	s.setCached(ctx, key, list, listCacheTTL)
	return list, nil
}

func (s *RecipeService) load(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	entity, err := s.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find recipe", err)
	}
	if entity == nil {
		return nil, errors.NewRecipeNotFoundError(id.String())
	}
	return entity, nil
}

func (s *RecipeService) reload(ctx context.Context, id uuid.UUID) (*inbound.RecipeDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(entity)
	return &dto, nil
}

func (s *RecipeService) checkSlug(ctx context.Context, slug string, self uuid.UUID) error {
	taken, err := s.recipeRepo.SlugExists(ctx, slug, self)
	if err != nil {
		return errors.NewDatabaseError("check slug", err)
	}
	if taken {
		return errors.NewSlugAlreadyExistsError(slug)
	}
	return nil
}

func (s *RecipeService) checkIngredients(ctx context.Context, lines []recipe.IngredientLine) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.IngredientID)
	}
	found, err := s.ingredientRepo.FindByIDs(ctx, ids)
	if err != nil {
		return errors.NewDatabaseError("find ingredients", err)
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, ing := range found {
		known[ing.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return errors.NewValidationError(fmt.Sprintf("unknown ingredient %s", id))
		}
	}
	return nil
}

func (s *RecipeService) publish(ctx context.Context, entity *recipe.Recipe) {
	if err := s.events.Publish(ctx, entity.PullEvents()...); err != nil {
		s.logger.Error("Failed to publish events",
			zap.String("recipe_id", entity.ID().String()),
			zap.Error(err),
		)
	}
}

func (s *RecipeService) getCached(ctx context.Context, key string, dst any) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("Discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *RecipeService) setCached(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// listKey namespaces listings by a version bumped on every write
func (s *RecipeService) listKey(ctx context.Context, q outbound.RecipeQuery) string {
	version := "0"
	if data, err := s.cache.Get(ctx, listVersionKey); err == nil {
		version = string(data)
	}
	raw, _ := json.Marshal(q)
	sum := sha1.Sum(raw)
	return "recipes:v" + version + ":" + hex.EncodeToString(sum[:])
}

func (s *RecipeService) bumpListVersion(ctx context.Context) {
	if _, err := s.cache.Increment(ctx, listVersionKey); err != nil {
		s.logger.Warn("Failed to bump recipe list version", zap.Error(err))
	}
}

// Invalidate drops the cached recipe and every cached listing
func (s *RecipeService) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, fmt.Sprintf(recipeKeyTemplate, id)); err != nil {
		s.logger.Warn("Failed to invalidate recipe cache", zap.String("recipe_id", id.String()), zap.Error(err))
	}
	s.bumpListVersion(ctx)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = inbound.DefaultPage
	}
	if limit < 1 {
		limit = inbound.DefaultLimit
	}
	if limit > inbound.MaxLimit {
		limit = inbound.MaxLimit
	}
	return page, limit
}

func parseSort(raw string) (outbound.RecipeSort, error) {
	switch outbound.RecipeSort(raw) {
	case "", outbound.SortByCreatedAt:
		return outbound.SortByCreatedAt, nil
	case outbound.SortByTitle, outbound.SortByRating:
		return outbound.RecipeSort(raw), nil
	}
	return "", errors.NewValidationError("sortBy must be one of createdAt, title, rating").
		WithMetadata("sortBy", raw)
}

// translate maps domain validation errors onto AppErrors
func translate(err error) error {
	switch {
	case stderrors.Is(err, recipe.ErrEmptySlug),
		stderrors.Is(err, recipe.ErrTitleRequired),
		stderrors.Is(err, recipe.ErrTitleTooLong),
		stderrors.Is(err, recipe.ErrInvalidPrepTime),
		stderrors.Is(err, recipe.ErrInvalidCookTime),
		stderrors.Is(err, recipe.ErrInvalidServings),
		stderrors.Is(err, recipe.ErrInvalidDifficulty),
		stderrors.Is(err, recipe.ErrInvalidDietType),
		stderrors.Is(err, recipe.ErrInvalidUnit),
		stderrors.Is(err, recipe.ErrMissingIngredient),
		stderrors.Is(err, recipe.ErrNegativeQuantity),
		stderrors.Is(err, recipe.ErrInvalidStepNumber),
		stderrors.Is(err, recipe.ErrEmptyInstruction):
		return errors.NewValidationError(err.Error())
	}
	return errors.Wrap(err, "recipe operation failed")
}
