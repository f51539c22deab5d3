// Package user provides the application layer for user management
package user

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService implements user management use cases
type UserService struct {
	userRepo    outbound.UserRepository
	tokens      outbound.TokenService
	adminEmails map[string]struct{}
	logger      *zap.Logger
}

// NewUserService creates a new user service. Accounts registered with one of
// adminEmails get the admin role.
func NewUserService(
	userRepo outbound.UserRepository,
	tokens outbound.TokenService,
	adminEmails []string,
	logger *zap.Logger,
) *UserService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &UserService{
		userRepo:    userRepo,
		tokens:      tokens,
		adminEmails: admins,
		logger:      logger.Named("user-service"),
	}
}

var _ inbound.UserService = (*UserService)(nil)

// Register creates a new user account
func (s *UserService) Register(ctx context.Context, cmd inbound.RegisterCommand) (*inbound.AuthResponse, error) {
	email := normalizeEmail(cmd.Email)
	s.logger.Info("Registering new user", zap.String("email", email))

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewDatabaseError("find user by email", err)
	}
	if existingUser != nil {
		return nil, errors.NewEmailAlreadyExistsError(email)
	}

	newUser, err := user.NewUser(email, cmd.Password, cmd.FirstName, cmd.LastName)
	if err != nil {
		return nil, translate(err)
	}
	if _, ok := s.adminEmails[email]; ok {
		newUser.Promote()
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, errors.NewDatabaseError("create user", err)
	}

	s.logger.Info("User registered successfully",
		zap.String("user_id", newUser.ID().String()),
		zap.String("role", string(newUser.Role())),
	)
	return s.authenticate(ctx, newUser)
}

// Login authenticates a user
func (s *UserService) Login(ctx context.Context, cmd inbound.LoginCommand) (*inbound.AuthResponse, error) {
	email := normalizeEmail(cmd.Email)
	s.logger.Info("User login attempt", zap.String("email", email))

	userEntity, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewDatabaseError("find user by email", err)
	}
	if userEntity == nil {
		return nil, errors.NewInvalidCredentialsError()
	}
	if err := userEntity.CheckPassword(cmd.Password); err != nil {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", userEntity.ID().String()))
		return nil, errors.NewInvalidCredentialsError()
	}

	s.logger.Info("User logged in successfully", zap.String("user_id", userEntity.ID().String()))
	return s.authenticate(ctx, userEntity)
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is revoked.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*inbound.AuthResponse, error) {
	claims, err := s.tokens.Validate(ctx, refreshToken, outbound.RefreshToken)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid refresh token")
	}
	userEntity, err := s.load(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errors.CodeUserNotFound) {
			return nil, errors.NewUnauthorizedError("invalid refresh token")
		}
		return nil, err
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return nil, errors.NewExternalServiceError("token store", err)
	}
	return s.authenticate(ctx, userEntity)
}

// Logout revokes the presented access token
func (s *UserService) Logout(ctx context.Context, claims *outbound.TokenClaims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return errors.NewExternalServiceError("token store", err)
	}
	s.logger.Info("User logged out", zap.String("user_id", claims.UserID.String()))
	return nil
}

// Authenticate validates an access token
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*outbound.TokenClaims, error) {
	claims, err := s.tokens.Validate(ctx, accessToken, outbound.AccessToken)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid or expired token").WithCause(err)
	}
	return claims, nil
}

// GetMe returns the caller's profile
func (s *UserService) GetMe(ctx context.Context, userID uuid.UUID) (*inbound.UserDTO, error) {
	userEntity, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(userEntity)
	return &dto, nil
}

// UpdateMe changes the caller's names
func (s *UserService) UpdateMe(ctx context.Context, userID uuid.UUID, cmd inbound.UpdateUserCommand) (*inbound.UserDTO, error) {
	updated, err := s.mutate(ctx, userID, func(u *user.User) error {
		return u.UpdateName(cmd.FirstName, cmd.LastName)
	})
	if err != nil {
		return nil, err
	}
	dto := ToDTO(updated)
	return &dto, nil
}

// MarkTutorialSeen records that the onboarding tutorial was shown
func (s *UserService) MarkTutorialSeen(ctx context.Context, userID uuid.UUID) (*inbound.UserDTO, error) {
	updated, err := s.mutate(ctx, userID, func(u *user.User) error {
		u.MarkTutorialSeen()
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := ToDTO(updated)
	return &dto, nil
}

// GetSettings returns the caller's planning preferences
func (s *UserService) GetSettings(ctx context.Context, userID uuid.UUID) (*inbound.SettingsDTO, error) {
	userEntity, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := SettingsToDTO(userEntity.Settings())
	return &dto, nil
}

// UpdateSettings applies a partial settings update
func (s *UserService) UpdateSettings(ctx context.Context, userID uuid.UUID, cmd inbound.UpdateSettingsCommand) (*inbound.SettingsDTO, error) {
	patch := user.SettingsPatch{
		HouseholdSize:        cmd.HouseholdSize,
		DietPreferences:      cmd.DietPreferences,
		DifficultyPreference: cmd.DifficultyPreference,
		MaxPrepTime:          cmd.MaxPrepTime,
		ToolsAvailable:       cmd.ToolsAvailable,
	}
	updated, err := s.mutate(ctx, userID, func(u *user.User) error {
		return u.UpdateSettings(patch)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("User settings updated", zap.String("user_id", userID.String()))

	dto := SettingsToDTO(updated.Settings())
	return &dto, nil
}

// mutate loads a user, applies change and stores the result
func (s *UserService) mutate(ctx context.Context, userID uuid.UUID, change func(*user.User) error) (*user.User, error) {
	userEntity, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := change(userEntity); err != nil {
		return nil, translate(err)
	}
	if err := s.userRepo.Update(ctx, userEntity); err != nil {
		return nil, errors.NewDatabaseError("update user", err)
	}
	return userEntity, nil
}

func (s *UserService) load(ctx context.Context, id uuid.UUID) (*user.User, error) {
	userEntity, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find user", err)
	}
	if userEntity == nil {
		return nil, errors.NewUserNotFoundError(id.String())
	}
	return userEntity, nil
}

func (s *UserService) authenticate(ctx context.Context, u *user.User) (*inbound.AuthResponse, error) {
	pair, err := s.tokens.Issue(ctx, u)
	if err != nil {
		return nil, errors.NewInternalError("failed to generate tokens").WithCause(err)
	}
	return &inbound.AuthResponse{
		User:         ToDTO(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

// ToDTO converts a user entity to its transfer object
func ToDTO(u *user.User) inbound.UserDTO {
	return inbound.UserDTO{
		ID:              u.ID(),
		Email:           u.Email(),
		FirstName:       u.FirstName(),
		LastName:        u.LastName(),
		Role:            string(u.Role()),
		HasSeenTutorial: u.HasSeenTutorial(),
		CreatedAt:       u.CreatedAt(),
	}
}

// SettingsToDTO converts settings, never returning nil slices
func SettingsToDTO(st user.Settings) inbound.SettingsDTO {
	return inbound.SettingsDTO{
		HouseholdSize:        st.HouseholdSize,
		DietPreferences:      append([]recipe.DietType{}, st.DietPreferences...),
		DifficultyPreference: st.DifficultyPreference,
		MaxPrepTime:          st.MaxPrepTime,
		ToolsAvailable:       append([]string{}, st.ToolsAvailable...),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func translate(err error) error {
	switch {
	case stderrors.Is(err, user.ErrEmailRequired),
		stderrors.Is(err, user.ErrInvalidEmail),
		stderrors.Is(err, user.ErrPasswordTooShort),
		stderrors.Is(err, user.ErrPasswordTooLong),
		stderrors.Is(err, user.ErrNameTooLong),
		stderrors.Is(err, user.ErrInvalidHouseholdSize),
		stderrors.Is(err, user.ErrInvalidMaxPrepTime),
		stderrors.Is(err, recipe.ErrInvalidDietType),
		stderrors.Is(err, recipe.ErrInvalidDifficulty):
		return errors.NewValidationError(err.Error())
	}
	return errors.Wrap(err, "user operation failed")
}
