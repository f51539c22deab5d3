package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RecipeHandlers serves the recipe catalog and the ingredient reference list
type RecipeHandlers struct {
	base
	recipes     inbound.RecipeService
	ingredients inbound.IngredientService
}

// NewRecipeHandlers creates the catalog handlers
func NewRecipeHandlers(
	recipes inbound.RecipeService,
	ingredients inbound.IngredientService,
	validator *security.Validator,
	logger *zap.Logger,
) *RecipeHandlers {
	return &RecipeHandlers{
		base:        base{validator: validator, logger: logger},
		recipes:     recipes,
		ingredients: ingredients,
	}
}

// ListRecipes handles GET /api/v1/recipes
func (h *RecipeHandlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	query, err := parseRecipeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.recipes.ListRecipes(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func parseRecipeQuery(r *http.Request) (inbound.ListRecipesQuery, error) {
	q := r.URL.Query()
	query := inbound.ListRecipesQuery{
		Search:        q.Get("search"),
		ToolsRequired: queryList(r, "toolsRequired"),
		Tags:          queryList(r, "tags"),
		SortBy:        q.Get("sortBy"),
	}

	for _, raw := range queryList(r, "dietTypes") {
		diet := recipe.DietType(strings.ToUpper(raw))
		if !diet.IsValid() {
			return query, errors.NewValidationError("unknown diet type").WithMetadata("dietTypes", raw)
		}
		query.DietTypes = append(query.DietTypes, diet)
	}

	if raw := q.Get("difficulty"); raw != "" {
		difficulty := recipe.Difficulty(strings.ToUpper(raw))
		if !difficulty.IsValid() {
			return query, errors.NewValidationError("unknown difficulty").WithMetadata("difficulty", raw)
		}
		query.Difficulty = &difficulty
	}

	maxPrep, err := queryInt(r, "maxPrepTime")
	if err != nil {
		return query, err
	}
	if maxPrep != nil && *maxPrep < 1 {
		return query, errors.NewValidationError("maxPrepTime must be positive")
	}
	query.MaxPrepTime = maxPrep

	// page and limit are normalized by the service
	if page, err := queryInt(r, "page"); err != nil {
		return query, err
	} else if page != nil {
		query.Page = *page
	}
	if limit, err := queryInt(r, "limit"); err != nil {
		return query, err
	} else if limit != nil {
		query.Limit = *limit
	}
	return query, nil
}

// CreateRecipe handles POST /api/v1/recipes
func (h *RecipeHandlers) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.RecipeCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.recipes.CreateRecipe(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

// GetRecipe handles GET /api/v1/recipes/{id}
func (h *RecipeHandlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dto, err := h.recipes.GetRecipe(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// GetRecipeBySlug handles GET /api/v1/recipes/slug/{slug}
func (h *RecipeHandlers) GetRecipeBySlug(w http.ResponseWriter, r *http.Request) {
	dto, err := h.recipes.GetRecipeBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// GetRecipeWithServings handles GET /api/v1/recipes/{id}/servings/{servings}
func (h *RecipeHandlers) GetRecipeWithServings(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	servings, err := strconv.Atoi(chi.URLParam(r, "servings"))
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("servings must be an integer"))
		return
	}

	dto, err := h.recipes.GetRecipeWithServings(r.Context(), id, servings)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// UpdateRecipe handles PATCH /api/v1/recipes/{id}
func (h *RecipeHandlers) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.UpdateRecipeCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	dto, err := h.recipes.UpdateRecipe(r.Context(), id, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// DeleteRecipe handles DELETE /api/v1/recipes/{id}
func (h *RecipeHandlers) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.recipes.DeleteRecipe(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Recipe deleted"})
}

// ListIngredients handles GET /api/v1/ingredients
func (h *RecipeHandlers) ListIngredients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.ingredients.ListIngredients(r.Context(), q.Get("search"), q.Get("category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// CreateIngredient handles POST /api/v1/ingredients
func (h *RecipeHandlers) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CreateIngredientCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	dto, err := h.ingredients.CreateIngredient(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, dto)
}

// GetIngredient handles GET /api/v1/ingredients/{id}
func (h *RecipeHandlers) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dto, err := h.ingredients.GetIngredient(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}
