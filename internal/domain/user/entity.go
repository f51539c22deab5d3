// Package user defines the user domain entity
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultHouseholdSize = 4
	MinHouseholdSize     = 1
	MaxHouseholdSize     = 20
	MinMaxPrepTime       = 5
	MaxMaxPrepTime       = 240
)

var (
	ErrEmailRequired        = errors.New("email is required")
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrPasswordTooShort     = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong      = errors.New("password too long")
	ErrNameTooLong          = errors.New("name too long")
	ErrInvalidHouseholdSize = errors.New("household size must be between 1 and 20")
	ErrInvalidMaxPrepTime   = errors.New("max prep time must be between 5 and 240 minutes")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailAlreadyExists   = errors.New("email already exists")
)

// Role represents the role of a user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Settings are the planning preferences used when generating meal plans
type Settings struct {
	HouseholdSize        int
	DietPreferences      []recipe.DietType
	DifficultyPreference *recipe.Difficulty
	MaxPrepTime          *int
	ToolsAvailable       []string
}

// DefaultSettings returns the settings of a freshly registered user
func DefaultSettings() Settings {
	return Settings{
		HouseholdSize:   DefaultHouseholdSize,
		DietPreferences: []recipe.DietType{},
		ToolsAvailable:  []string{},
	}
}

// Validate checks settings ranges
func (s Settings) Validate() error {
	if s.HouseholdSize < MinHouseholdSize || s.HouseholdSize > MaxHouseholdSize {
		return ErrInvalidHouseholdSize
	}
	for _, d := range s.DietPreferences {
		if !d.IsValid() {
			return fmt.Errorf("%w: %q", recipe.ErrInvalidDietType, d)
		}
	}
	if s.DifficultyPreference != nil && !s.DifficultyPreference.IsValid() {
		return recipe.ErrInvalidDifficulty
	}
	if s.MaxPrepTime != nil && (*s.MaxPrepTime < MinMaxPrepTime || *s.MaxPrepTime > MaxMaxPrepTime) {
		return ErrInvalidMaxPrepTime
	}
	return nil
}

// SettingsPatch carries a partial settings update; nil fields are left untouched
type SettingsPatch struct {
	HouseholdSize        *int
	DietPreferences      []recipe.DietType
	DifficultyPreference *recipe.Difficulty
	MaxPrepTime          *int
	ToolsAvailable       []string
}

// User represents a user in the system
type User struct {
	id              uuid.UUID
	email           string
	firstName       string
	lastName        string
	passwordHash    string
	role            Role
	hasSeenTutorial bool
	settings        Settings
	createdAt       time.Time
	updatedAt       time.Time
}

// NewUser creates a new user with validation
func NewUser(email, password, firstName, lastName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateName(firstName, lastName); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.New(),
		email:        email,
		firstName:    strings.TrimSpace(firstName),
		lastName:     strings.TrimSpace(lastName),
		passwordHash: string(hashedPassword),
		role:         RoleUser,
		settings:     DefaultSettings(),
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Snapshot is the persisted form of a user
type Snapshot struct {
	ID              uuid.UUID
	Email           string
	FirstName       string
	LastName        string
	PasswordHash    string
	Role            Role
	HasSeenTutorial bool
	Settings        Settings
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Rehydrate rebuilds a user loaded from storage
func Rehydrate(s Snapshot) *User {
	if s.Role == "" {
		s.Role = RoleUser
	}
	if s.Settings.HouseholdSize == 0 {
		s.Settings.HouseholdSize = DefaultHouseholdSize
	}
	return &User{
		id:              s.ID,
		email:           s.Email,
		firstName:       s.FirstName,
		lastName:        s.LastName,
		passwordHash:    s.PasswordHash,
		role:            s.Role,
		hasSeenTutorial: s.HasSeenTutorial,
		settings:        s.Settings,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
	}
}

// Snapshot exports the user for storage
func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:              u.id,
		Email:           u.email,
		FirstName:       u.firstName,
		LastName:        u.lastName,
		PasswordHash:    u.passwordHash,
		Role:            u.role,
		HasSeenTutorial: u.hasSeenTutorial,
		Settings:        u.settings,
		CreatedAt:       u.createdAt,
		UpdatedAt:       u.updatedAt,
	}
}

func (u *User) ID() uuid.UUID         { return u.id }
func (u *User) Email() string         { return u.email }
func (u *User) FirstName() string     { return u.firstName }
func (u *User) LastName() string      { return u.lastName }
func (u *User) Role() Role            { return u.role }
func (u *User) IsAdmin() bool         { return u.role == RoleAdmin }
func (u *User) HasSeenTutorial() bool { return u.hasSeenTutorial }
func (u *User) Settings() Settings    { return u.settings }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }

// CheckPassword verifies if the provided password matches
func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password))
}

// UpdatePassword updates the user's password
func (u *User) UpdatePassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	u.passwordHash = string(hashedPassword)
	u.updatedAt = time.Now().UTC()
	return nil
}

// UpdateName changes first and last name; nil leaves a field untouched
func (u *User) UpdateName(firstName, lastName *string) error {
	first, last := u.firstName, u.lastName
	if firstName != nil {
		first = strings.TrimSpace(*firstName)
	}
	if lastName != nil {
		last = strings.TrimSpace(*lastName)
	}
	if err := validateName(first, last); err != nil {
		return err
	}
	u.firstName, u.lastName = first, last
	u.updatedAt = time.Now().UTC()
	return nil
}

// MarkTutorialSeen records that the onboarding tutorial was shown
func (u *User) MarkTutorialSeen() {
	u.hasSeenTutorial = true
	u.updatedAt = time.Now().UTC()
}

// Promote grants the admin role
func (u *User) Promote() {
	u.role = RoleAdmin
	u.updatedAt = time.Now().UTC()
}

// UpdateSettings applies a partial settings update
func (u *User) UpdateSettings(p SettingsPatch) error {
	next := u.settings
	if p.HouseholdSize != nil {
		next.HouseholdSize = *p.HouseholdSize
	}
	if p.DietPreferences != nil {
		next.DietPreferences = p.DietPreferences
	}
	if p.DifficultyPreference != nil {
		next.DifficultyPreference = p.DifficultyPreference
	}
	if p.MaxPrepTime != nil {
		next.MaxPrepTime = p.MaxPrepTime
	}
	if p.ToolsAvailable != nil {
		next.ToolsAvailable = p.ToolsAvailable
	}
	if err := next.Validate(); err != nil {
		return err
	}
	u.settings = next
	u.updatedAt = time.Now().UTC()
	return nil
}

// Validation functions
func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return ErrInvalidEmail
	}
	if len(email) > 255 {
		return ErrInvalidEmail
	}
	return nil
}

func validateName(first, last string) error {
	if len(first) > 100 || len(last) > 100 {
		return ErrNameTooLong
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}
