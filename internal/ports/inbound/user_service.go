package inbound

import (
	"context"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
)

// UserService defines authentication and profile use cases
type UserService interface {
	Register(ctx context.Context, cmd RegisterCommand) (*AuthResponse, error)
	Login(ctx context.Context, cmd LoginCommand) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, claims *outbound.TokenClaims) error
	// Authenticate validates an access token
	Authenticate(ctx context.Context, accessToken string) (*outbound.TokenClaims, error)

	GetMe(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, cmd UpdateUserCommand) (*UserDTO, error)
	MarkTutorialSeen(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	GetSettings(ctx context.Context, userID uuid.UUID) (*SettingsDTO, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, cmd UpdateSettingsCommand) (*SettingsDTO, error)
}

// RegisterCommand contains user registration data
type RegisterCommand struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

// LoginCommand contains user login data
type LoginCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshCommand exchanges a refresh token
type RefreshCommand struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// UpdateUserCommand changes profile names
type UpdateUserCommand struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
}

// UpdateSettingsCommand is a partial settings update
type UpdateSettingsCommand struct {
	HouseholdSize        *int               `json:"householdSize" validate:"omitempty,min=1,max=20"`
	DietPreferences      []recipe.DietType  `json:"dietPreferences" validate:"omitempty,dive,oneof=VEGETARIAN VEGAN PESCATARIAN"`
	DifficultyPreference *recipe.Difficulty `json:"difficultyPreference" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	MaxPrepTime          *int               `json:"maxPrepTime" validate:"omitempty,min=5,max=240"`
	ToolsAvailable       []string           `json:"toolsAvailable"`
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Role            string    `json:"role"`
	HasSeenTutorial bool      `json:"hasSeenTutorial"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SettingsDTO represents planning preferences
type SettingsDTO struct {
	HouseholdSize        int                `json:"householdSize"`
	DietPreferences      []recipe.DietType  `json:"dietPreferences"`
	DifficultyPreference *recipe.Difficulty `json:"difficultyPreference"`
	MaxPrepTime          *int               `json:"maxPrepTime"`
	ToolsAvailable       []string           `json:"toolsAvailable"`
}

// AuthResponse contains authentication response data
type AuthResponse struct {
	User         UserDTO   `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
