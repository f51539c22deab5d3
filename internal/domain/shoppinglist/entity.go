// Package shoppinglist defines the shopping list aggregate.
package shoppinglist

import (
	"errors"
	"strings"
	"time"

	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
)

var (
	ErrTitleRequired   = errors.New("shopping list title is required")
	ErrInvalidStatus   = errors.New("status must be DRAFT, ACTIVE or COMPLETED")
	ErrInvalidQuantity = errors.New("quantity cannot be negative")
	ErrListNotFound    = errors.New("shopping list not found")
	ErrItemNotFound    = errors.New("item not found in shopping list")
	ErrNotOwner        = errors.New("you do not have access to this shopping list")
)

// Status is the lifecycle state of a list
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Item is one line to buy
type Item struct {
	ID           uuid.UUID
	IngredientID uuid.UUID
	Quantity     float64
	Unit         recipe.Unit
	Checked      bool
}

// ShoppingList is owned by one user and optionally derived from a meal plan
type ShoppingList struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	MealPlanID *uuid.UUID
	Title      string
	Status     Status
	Items      []Item
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New creates an empty draft list
func New(userID uuid.UUID, title string, mealPlanID *uuid.UUID) (*ShoppingList, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	now := time.Now().UTC()
	return &ShoppingList{
		ID:         uuid.New(),
		UserID:     userID,
		MealPlanID: mealPlanID,
		Title:      title,
		Status:     StatusDraft,
		Items:      []Item{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// TitleForMealPlan is the default title of a list generated from a plan
func TitleForMealPlan(planTitle string, now time.Time) string {
	if strings.TrimSpace(planTitle) == "" {
		planTitle = "Menu - " + now.Format("2006-01-02")
	}
	return "Liste de courses - " + planTitle
}

// FromAggregation builds a draft list whose items are the aggregated lines
func FromAggregation(userID, mealPlanID uuid.UUID, title string, lines []planning.AggregatedIngredient) (*ShoppingList, error) {
	list, err := New(userID, title, &mealPlanID)
	if err != nil {
		return nil, err
	}
	list.Items = make([]Item, 0, len(lines))
	for _, line := range lines {
		list.Items = append(list.Items, Item{
			ID:           uuid.New(),
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
		})
	}
	return list, nil
}

// OwnedBy reports whether userID owns the list
func (l *ShoppingList) OwnedBy(userID uuid.UUID) bool {
	return l.UserID == userID
}

// Update changes title and status; empty values are ignored
func (l *ShoppingList) Update(title *string, status *Status) error {
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return ErrTitleRequired
		}
		l.Title = t
	}
	if status != nil {
		if !status.IsValid() {
			return ErrInvalidStatus
		}
		l.Status = *status
	}
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// Item returns the item with the given id
func (l *ShoppingList) Item(itemID uuid.UUID) (*Item, error) {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			return &l.Items[i], nil
		}
	}
	return nil, ErrItemNotFound
}

// UpdateItem ticks an item or corrects its quantity
func (l *ShoppingList) UpdateItem(itemID uuid.UUID, checked *bool, quantity *float64) (Item, error) {
	item, err := l.Item(itemID)
	if err != nil {
		return Item{}, err
	}
	if quantity != nil {
		if *quantity < 0 {
			return Item{}, ErrInvalidQuantity
		}
		item.Quantity = *quantity
	}
	if checked != nil {
		item.Checked = *checked
	}
	l.UpdatedAt = time.Now().UTC()
	return *item, nil
}

// RemoveItem drops an item from the list
func (l *ShoppingList) RemoveItem(itemID uuid.UUID) (Item, error) {
	for i, it := range l.Items {
		if it.ID == itemID {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			l.UpdatedAt = time.Now().UTC()
			return it, nil
		}
	}
	return Item{}, ErrItemNotFound
}
