package outbound

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/foodtrack/api/internal/domain/shared"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/google/uuid"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent keys
var ErrCacheMiss = errors.New("cache miss")

// ErrInvalidToken is returned when a token fails validation or was revoked
var ErrInvalidToken = errors.New("invalid or expired token")

// EventPublisher delivers domain events recorded by aggregates
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.DomainEvent) error
}

// EmailService sends moderation notices to the administrator
type EmailService interface {
	SendSubmissionApproval(ctx context.Context, msg SubmissionEmail) error
	SendReviewNotice(ctx context.Context, msg ReviewEmail) error
	SendReviewReport(ctx context.Context, msg ReportEmail) error
}

// SubmissionEmail asks the administrator to approve a recipe submission
type SubmissionEmail struct {
	To           string
	SubmissionID uuid.UUID
	RecipeTitle  string
	SubmittedBy  string
	ApprovalURL  string
	IsEdit       bool
}

// ReviewEmail tells the administrator a review was posted
type ReviewEmail struct {
	To          string
	RecipeID    uuid.UUID
	RecipeTitle string
	Author      string
	Rating      int
	Comment     string
}

// ReportEmail tells the administrator a review was reported
type ReportEmail struct {
	To          string
	RecipeID    uuid.UUID
	RecipeTitle string
	ReviewID    uuid.UUID
	Reporter    string
	Rating      int
	Comment     string
	DeletionURL string
}

// ImageStorage persists uploaded images and returns their public URL
type ImageStorage interface {
	Save(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
}

// TokenType distinguishes access from refresh tokens
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// TokenPair is issued on login, registration and refresh
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenClaims is the validated content of a token
type TokenClaims struct {
	TokenID   string
	UserID    uuid.UUID
	Email     string
	Role      user.Role
	Type      TokenType
	ExpiresAt time.Time
}

// TokenService issues, validates and revokes JWTs
type TokenService interface {
	Issue(ctx context.Context, u *user.User) (TokenPair, error)
	Validate(ctx context.Context, token string, expected TokenType) (*TokenClaims, error)
	Revoke(ctx context.Context, claims *TokenClaims) error
}

// ListBroadcaster pushes shopping list changes to live subscribers
type ListBroadcaster interface {
	Broadcast(listID uuid.UUID, event ListEvent)
}

// ListEvent is one change to a shopping list
type ListEvent struct {
	Type   string    `json:"type"`
	ListID uuid.UUID `json:"listId"`
	ItemID uuid.UUID `json:"itemId,omitempty"`
	// Payload is the changed item or list
	Payload any `json:"payload,omitempty"`
}

// Shopping list event types
const (
	ListItemUpdated = "item.updated"
	ListItemRemoved = "item.removed"
	ListUpdated     = "list.updated"
	ListDeleted     = "list.deleted"
)

// PlanningMetrics records selector outcomes
type PlanningMetrics interface {
	ObserveSelection(stage string, requested, selected int, duration time.Duration)
}
