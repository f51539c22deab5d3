package handlers

import (
	"net/http"

	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LiveServer upgrades a request into a live shopping list subscription
type LiveServer interface {
	Serve(w http.ResponseWriter, r *http.Request, listID uuid.UUID) error
}

// PlanningHandlers serves meal plans and shopping lists
type PlanningHandlers struct {
	base
	plans inbound.MealPlanService
	lists inbound.ShoppingListService
	live  LiveServer
}

// NewPlanningHandlers creates the meal plan and shopping list handlers
func NewPlanningHandlers(
	plans inbound.MealPlanService,
	lists inbound.ShoppingListService,
	live LiveServer,
	validator *security.Validator,
	logger *zap.Logger,
) *PlanningHandlers {
	return &PlanningHandlers{
		base:  base{validator: validator, logger: logger},
		plans: plans,
		lists: lists,
		live:  live,
	}
}

// ListMealPlans handles GET /api/v1/meal-plans
func (h *PlanningHandlers) ListMealPlans(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plans, err := h.plans.ListMealPlans(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plans)
}

// CreateMealPlan handles POST /api/v1/meal-plans
func (h *PlanningHandlers) CreateMealPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.CreateMealPlanCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.plans.CreateMealPlan(r.Context(), userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, plan)
}

// GenerateMealPlan handles POST /api/v1/meal-plans/generate
func (h *PlanningHandlers) GenerateMealPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.GenerateMealPlanCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.plans.GenerateMealPlan(r.Context(), userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, plan)
}

// GetMealPlan handles GET /api/v1/meal-plans/{id}
func (h *PlanningHandlers) GetMealPlan(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	plan, err := h.plans.GetMealPlan(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

// UpdateMealPlan handles PATCH /api/v1/meal-plans/{id}
func (h *PlanningHandlers) UpdateMealPlan(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	var cmd inbound.UpdateMealPlanCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.plans.UpdateMealPlan(r.Context(), id, userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

// DeleteMealPlan handles DELETE /api/v1/meal-plans/{id}
func (h *PlanningHandlers) DeleteMealPlan(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	if err := h.plans.DeleteMealPlan(r.Context(), id, userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Meal plan deleted"})
}

// AddRecipe handles POST /api/v1/meal-plans/{id}/recipes
func (h *PlanningHandlers) AddRecipe(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	var cmd inbound.AddRecipeCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.plans.AddRecipe(r.Context(), id, userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

// RemoveRecipe handles DELETE /api/v1/meal-plans/{id}/recipes/{recipeId}
func (h *PlanningHandlers) RemoveRecipe(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	recipeID, err := pathUUID(r, "recipeId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.plans.RemoveRecipe(r.Context(), id, recipeID, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

// ListShoppingLists handles GET /api/v1/shopping-lists
func (h *PlanningHandlers) ListShoppingLists(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lists, err := h.lists.ListShoppingLists(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, lists)
}

// CreateShoppingList handles POST /api/v1/shopping-lists
func (h *PlanningHandlers) CreateShoppingList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.CreateShoppingListCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.lists.CreateShoppingList(r.Context(), userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, list)
}

// GenerateShoppingList handles POST /api/v1/shopping-lists/generate
func (h *PlanningHandlers) GenerateShoppingList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.GenerateShoppingListCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.lists.GenerateFromMealPlan(r.Context(), userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, list)
}

// GetShoppingList handles GET /api/v1/shopping-lists/{id}
func (h *PlanningHandlers) GetShoppingList(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	list, err := h.lists.GetShoppingList(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// GetGroupedShoppingList handles GET /api/v1/shopping-lists/{id}/grouped
func (h *PlanningHandlers) GetGroupedShoppingList(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	grouped, err := h.lists.GetGroupedShoppingList(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, grouped)
}

// UpdateShoppingList handles PATCH /api/v1/shopping-lists/{id}
func (h *PlanningHandlers) UpdateShoppingList(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	var cmd inbound.UpdateShoppingListCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.lists.UpdateShoppingList(r.Context(), id, userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// DeleteShoppingList handles DELETE /api/v1/shopping-lists/{id}
func (h *PlanningHandlers) DeleteShoppingList(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	if err := h.lists.DeleteShoppingList(r.Context(), id, userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Shopping list deleted"})
}

// UpdateItem handles PATCH /api/v1/shopping-lists/{id}/items/{itemId}
func (h *PlanningHandlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	itemID, err := pathUUID(r, "itemId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.UpdateItemCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	item, err := h.lists.UpdateItem(r.Context(), id, itemID, userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

// RemoveItem handles DELETE /api/v1/shopping-lists/{id}/items/{itemId}
func (h *PlanningHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	itemID, err := pathUUID(r, "itemId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.lists.RemoveItem(r.Context(), id, itemID, userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed"})
}

// Live handles GET /api/v1/shopping-lists/{id}/live. Only the owner may
// subscribe; the check runs before the upgrade so refusals are plain JSON.
func (h *PlanningHandlers) Live(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownedResource(w, r)
	if !ok {
		return
	}
	if err := h.lists.Authorize(r.Context(), id, userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.live.Serve(w, r, id); err != nil {
		h.logger.Debug("Live subscription refused",
			zap.String("list_id", id.String()),
			zap.Error(err),
		)
	}
}

// ownedResource reads the caller and the {id} path parameter, writing the
// error response itself when either is missing.
func (h *PlanningHandlers) ownedResource(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
