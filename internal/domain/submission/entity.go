// Package submission models user-proposed recipes awaiting moderation.
package submission

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
)

var (
	ErrSubmissionNotFound = errors.New("recipe submission not found")
	ErrAlreadyReviewed    = errors.New("this submission has already been reviewed")
	ErrIngredientNameless = errors.New("ingredient needs an id or a name")
	ErrUnresolvedLine     = errors.New("ingredient could not be resolved")
)

// tokenBytes is the entropy of an approval token before hex encoding
const tokenBytes = 32

// Status of a submission
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Line is a proposed ingredient, known by id or only by name
type Line struct {
	ID             uuid.UUID
	IngredientID   *uuid.UUID
	IngredientName string
	Quantity       float64
	Unit           recipe.Unit
	Optional       bool
}

// Resolved reports whether the line points to a catalog ingredient
func (l Line) Resolved() bool {
	return l.IngredientID != nil && *l.IngredientID != uuid.Nil
}

// Submission is a recipe proposal, either new or an edit of RecipeID
type Submission struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	RecipeID        *uuid.UUID
	Status          Status
	ApprovalToken   string
	Details         recipe.Details
	Lines           []Line
	ReviewedAt      *time.Time
	RejectionReason string
	CreatedAt       time.Time
}

// New validates a proposal and gives it a fresh approval token.
// Details.Ingredients is ignored; lines carry the ingredients instead.
func New(userID uuid.UUID, recipeID *uuid.UUID, details recipe.Details, lines []Line) (*Submission, error) {
	details.Ingredients = nil
	if err := details.Validate(); err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].IngredientName = strings.TrimSpace(lines[i].IngredientName)
		if !lines[i].Resolved() && lines[i].IngredientName == "" {
			return nil, fmt.Errorf("ingredient %d: %w", i+1, ErrIngredientNameless)
		}
		if lines[i].Quantity < 0 {
			return nil, fmt.Errorf("ingredient %d: %w", i+1, recipe.ErrNegativeQuantity)
		}
		if !lines[i].Unit.IsValid() {
			return nil, fmt.Errorf("ingredient %d: %w: %q", i+1, recipe.ErrInvalidUnit, lines[i].Unit)
		}
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	return &Submission{
		ID:            uuid.New(),
		UserID:        userID,
		RecipeID:      recipeID,
		Status:        StatusPending,
		ApprovalToken: token,
		Details:       details,
		Lines:         lines,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// NewToken returns 32 random bytes hex-encoded
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IsEdit reports whether the submission proposes changes to an existing recipe
func (s *Submission) IsEdit() bool {
	return s.RecipeID != nil
}

// UnresolvedNames lists the ingredient names that have no catalog id yet
func (s *Submission) UnresolvedNames() []string {
	var names []string
	for _, l := range s.Lines {
		if !l.Resolved() {
			names = append(names, l.IngredientName)
		}
	}
	return names
}

// RecipeDetails builds the recipe attributes once every line has an id.
// resolve maps an ingredient name to its catalog id.
func (s *Submission) RecipeDetails(resolve func(name string) (uuid.UUID, bool)) (recipe.Details, error) {
	d := s.Details
	d.Ingredients = make([]recipe.IngredientLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		var id uuid.UUID
		switch {
		case l.Resolved():
			id = *l.IngredientID
		default:
			found, ok := resolve(l.IngredientName)
			if !ok {
				return recipe.Details{}, fmt.Errorf("%w: %s", ErrUnresolvedLine, l.IngredientName)
			}
			id = found
		}
		d.Ingredients = append(d.Ingredients, recipe.IngredientLine{
			IngredientID: id,
			Name:         l.IngredientName,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			Optional:     l.Optional,
		})
	}
	return d, nil
}

// Approve marks a pending submission approved
func (s *Submission) Approve(at time.Time) error {
	if s.Status != StatusPending {
		return ErrAlreadyReviewed
	}
	s.Status = StatusApproved
	s.ReviewedAt = &at
	return nil
}

// Reject marks a pending submission rejected
func (s *Submission) Reject(reason string, at time.Time) error {
	if s.Status != StatusPending {
		return ErrAlreadyReviewed
	}
	s.Status = StatusRejected
	s.RejectionReason = strings.TrimSpace(reason)
	s.ReviewedAt = &at
	return nil
}
