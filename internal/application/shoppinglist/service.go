// Package shoppinglist provides the application layer for shopping lists
package shoppinglist

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"time"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/mealplan"
	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/domain/shoppinglist"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShoppingListService implements the shopping list use cases
type ShoppingListService struct {
	lists       outbound.ShoppingListRepository
	plans       outbound.MealPlanRepository
	recipes     outbound.RecipeRepository
	ingredients outbound.IngredientRepository
	live        outbound.ListBroadcaster
	logger      *zap.Logger
}

// NewShoppingListService creates a new shopping list service
func NewShoppingListService(
	lists outbound.ShoppingListRepository,
	plans outbound.MealPlanRepository,
	recipes outbound.RecipeRepository,
	ingredients outbound.IngredientRepository,
	live outbound.ListBroadcaster,
	logger *zap.Logger,
) *ShoppingListService {
	return &ShoppingListService{
		lists:       lists,
		plans:       plans,
		recipes:     recipes,
		ingredients: ingredients,
		live:        live,
		logger:      logger.Named("shopping-list-service"),
	}
}

var _ inbound.ShoppingListService = (*ShoppingListService)(nil)

// CreateShoppingList creates an empty draft list
func (s *ShoppingListService) CreateShoppingList(ctx context.Context, userID uuid.UUID, cmd inbound.CreateShoppingListCommand) (*inbound.ShoppingListDTO, error) {
	if cmd.MealPlanID != nil {
		if _, err := s.ownedPlan(ctx, *cmd.MealPlanID, userID); err != nil {
			return nil, err
		}
	}
	list, err := shoppinglist.New(userID, cmd.Title, cmd.MealPlanID)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.lists.Create(ctx, list); err != nil {
		return nil, errors.NewDatabaseError("create shopping list", err)
	}
	return s.toDTO(ctx, list)
}

// GenerateFromMealPlan aggregates the ingredients of every planned recipe
// into a new list
func (s *ShoppingListService) GenerateFromMealPlan(ctx context.Context, userID uuid.UUID, cmd inbound.GenerateShoppingListCommand) (*inbound.ShoppingListDTO, error) {
	plan, err := s.ownedPlan(ctx, cmd.MealPlanID, userID)
	if err != nil {
		return nil, err
	}

	found, err := s.recipes.FindByIDs(ctx, plan.RecipeIDs())
	if err != nil {
		return nil, errors.NewDatabaseError("find recipes", err)
	}
	entries := make([]planning.PlanEntry, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		for _, r := range found {
			if r.ID() == e.RecipeID {
				entries = append(entries, planning.PlanEntry{Recipe: r, Servings: e.Servings})
				break
			}
		}
	}

	lines, err := planning.Aggregate(entries)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		title = shoppinglist.TitleForMealPlan(plan.Title, time.Now())
	}
	list, err := shoppinglist.FromAggregation(userID, plan.ID, title, lines)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.lists.Create(ctx, list); err != nil {
		return nil, errors.NewDatabaseError("create shopping list", err)
	}

	s.logger.Info("Shopping list generated",
		zap.String("shopping_list_id", list.ID.String()),
		zap.String("meal_plan_id", plan.ID.String()),
		zap.Int("recipes", len(entries)),
		zap.Int("items", len(list.Items)),
	)
	return s.toDTO(ctx, list)
}

// ListShoppingLists lists the user's lists, newest first
func (s *ShoppingListService) ListShoppingLists(ctx context.Context, userID uuid.UUID) ([]inbound.ShoppingListDTO, error) {
	lists, err := s.lists.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.NewDatabaseError("list shopping lists", err)
	}

	var ids []uuid.UUID
	for _, l := range lists {
		ids = append(ids, ingredientIDs(l)...)
	}
	names, err := s.ingredientIndex(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]inbound.ShoppingListDTO, 0, len(lists))
	for _, l := range lists {
		out = append(out, assemble(l, names))
	}
	return out, nil
}

// GetShoppingList returns a list with items sorted by ingredient name
func (s *ShoppingListService) GetShoppingList(ctx context.Context, id, userID uuid.UUID) (*inbound.ShoppingListDTO, error) {
	list, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, list)
}

// GetGroupedShoppingList returns a list with items grouped by category in aisle order
func (s *ShoppingListService) GetGroupedShoppingList(ctx context.Context, id, userID uuid.UUID) (*inbound.GroupedShoppingListDTO, error) {
	dto, err := s.GetShoppingList(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return &inbound.GroupedShoppingListDTO{ShoppingListDTO: *dto, Groups: Group(dto.Items)}, nil
}

// Group buckets items by category following ingredient.Categories order.
// Items keep their relative order inside a group.
func Group(items []inbound.ShoppingItemDTO) []inbound.ItemGroupDTO {
	buckets := make(map[string][]inbound.ShoppingItemDTO)
	for _, item := range items {
		buckets[item.Category] = append(buckets[item.Category], item)
	}
	groups := make([]inbound.ItemGroupDTO, 0, len(buckets))
	for _, c := range ingredient.Categories {
		if bucket, ok := buckets[string(c)]; ok {
			groups = append(groups, inbound.ItemGroupDTO{Category: string(c), Items: bucket})
		}
	}
	return groups
}

// UpdateShoppingList changes title or status
func (s *ShoppingListService) UpdateShoppingList(ctx context.Context, id, userID uuid.UUID, cmd inbound.UpdateShoppingListCommand) (*inbound.ShoppingListDTO, error) {
	list, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	var status *shoppinglist.Status
	if cmd.Status != nil {
		st := shoppinglist.Status(strings.ToUpper(*cmd.Status))
		status = &st
	}
	if err := list.Update(cmd.Title, status); err != nil {
		return nil, translate(err)
	}
	if err := s.lists.Update(ctx, list); err != nil {
		return nil, errors.NewDatabaseError("update shopping list", err)
	}

	dto, err := s.toDTO(ctx, list)
	if err != nil {
		return nil, err
	}
	s.live.Broadcast(list.ID, outbound.ListEvent{Type: outbound.ListUpdated, ListID: list.ID, Payload: dto})
	return dto, nil
}

// DeleteShoppingList removes a list
func (s *ShoppingListService) DeleteShoppingList(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.lists.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete shopping list", err)
	}
	s.live.Broadcast(id, outbound.ListEvent{Type: outbound.ListDeleted, ListID: id})
	return nil
}

// UpdateItem ticks an item or corrects its quantity
func (s *ShoppingListService) UpdateItem(ctx context.Context, id, itemID, userID uuid.UUID, cmd inbound.UpdateItemCommand) (*inbound.ShoppingItemDTO, error) {
	list, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	item, err := list.UpdateItem(itemID, cmd.Checked, cmd.Quantity)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.lists.Update(ctx, list); err != nil {
		return nil, errors.NewDatabaseError("update shopping list item", err)
	}

	index, err := s.ingredientIndex(ctx, []uuid.UUID{item.IngredientID})
	if err != nil {
		return nil, err
	}
	dto := itemDTO(item, index)
	s.live.Broadcast(list.ID, outbound.ListEvent{Type: outbound.ListItemUpdated, ListID: list.ID, ItemID: item.ID, Payload: dto})
	return &dto, nil
}

// RemoveItem drops an item from a list
func (s *ShoppingListService) RemoveItem(ctx context.Context, id, itemID, userID uuid.UUID) error {
	list, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}
	if _, err := list.RemoveItem(itemID); err != nil {
		return translate(err)
	}
	if err := s.lists.Update(ctx, list); err != nil {
		return errors.NewDatabaseError("remove shopping list item", err)
	}
	s.live.Broadcast(list.ID, outbound.ListEvent{Type: outbound.ListItemRemoved, ListID: list.ID, ItemID: itemID})
	return nil
}

// Authorize checks that userID owns the list
func (s *ShoppingListService) Authorize(ctx context.Context, id, userID uuid.UUID) error {
	_, err := s.owned(ctx, id, userID)
	return err
}

func (s *ShoppingListService) owned(ctx context.Context, id, userID uuid.UUID) (*shoppinglist.ShoppingList, error) {
	list, err := s.lists.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find shopping list", err)
	}
	if list == nil {
		return nil, errors.NewNotFoundError("shopping list")
	}
	if !list.OwnedBy(userID) {
		return nil, errors.NewForbiddenError(shoppinglist.ErrNotOwner.Error())
	}
	return list, nil
}

func (s *ShoppingListService) ownedPlan(ctx context.Context, id, userID uuid.UUID) (*mealplan.MealPlan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find meal plan", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("meal plan")
	}
	if !plan.OwnedBy(userID) {
		return nil, errors.NewForbiddenError(mealplan.ErrNotOwner.Error())
	}
	return plan, nil
}

func (s *ShoppingListService) toDTO(ctx context.Context, list *shoppinglist.ShoppingList) (*inbound.ShoppingListDTO, error) {
	index, err := s.ingredientIndex(ctx, ingredientIDs(list))
	if err != nil {
		return nil, err
	}
	dto := assemble(list, index)
	return &dto, nil
}

func (s *ShoppingListService) ingredientIndex(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*ingredient.Ingredient, error) {
	index := make(map[uuid.UUID]*ingredient.Ingredient, len(ids))
	if len(ids) == 0 {
		return index, nil
	}
	found, err := s.ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.NewDatabaseError("find ingredients", err)
	}
	for _, ing := range found {
		index[ing.ID] = ing
	}
	return index, nil
}

func ingredientIDs(list *shoppinglist.ShoppingList) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(list.Items))
	for _, it := range list.Items {
		ids = append(ids, it.IngredientID)
	}
	return ids
}

func assemble(list *shoppinglist.ShoppingList, index map[uuid.UUID]*ingredient.Ingredient) inbound.ShoppingListDTO {
	dto := inbound.ShoppingListDTO{
		ID:         list.ID,
		UserID:     list.UserID,
		MealPlanID: list.MealPlanID,
		Title:      list.Title,
		Status:     string(list.Status),
		Items:      make([]inbound.ShoppingItemDTO, 0, len(list.Items)),
		CreatedAt:  list.CreatedAt,
		UpdatedAt:  list.UpdatedAt,
	}
	for _, it := range list.Items {
		dto.Items = append(dto.Items, itemDTO(it, index))
	}
	sort.SliceStable(dto.Items, func(i, j int) bool {
		return strings.ToLower(dto.Items[i].Name) < strings.ToLower(dto.Items[j].Name)
	})
	return dto
}

func itemDTO(it shoppinglist.Item, index map[uuid.UUID]*ingredient.Ingredient) inbound.ShoppingItemDTO {
	dto := inbound.ShoppingItemDTO{
		ID:           it.ID,
		IngredientID: it.IngredientID,
		Category:     string(ingredient.CategoryOther),
		Quantity:     it.Quantity,
		Unit:         it.Unit,
		Checked:      it.Checked,
	}
	if ing, ok := index[it.IngredientID]; ok {
		dto.Name = ing.Name
		dto.Category = string(ing.Category)
	}
	return dto
}

func translate(err error) error {
	switch {
	case stderrors.Is(err, shoppinglist.ErrTitleRequired),
		stderrors.Is(err, shoppinglist.ErrInvalidStatus),
		stderrors.Is(err, shoppinglist.ErrInvalidQuantity):
		return errors.NewValidationError(err.Error())
	case stderrors.Is(err, shoppinglist.ErrItemNotFound):
		return errors.NewNotFoundError("item")
	}
	return errors.Wrap(err, "shopping list operation failed")
}
