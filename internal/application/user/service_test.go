package user

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/foodtrack/api/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type UserServiceSuite struct {
	suite.Suite
	ctx     context.Context
	factory *testutils.Factory
	users   *testutils.MockUserRepository
	tokens  *testutils.MockTokenService
	service *UserService
	pair    outbound.TokenPair
}

func TestUserService(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.factory = testutils.NewFactory(testutils.DefaultSeed)
	s.users = new(testutils.MockUserRepository)
	s.tokens = new(testutils.MockTokenService)
	s.service = NewUserService(s.users, s.tokens, []string{" Chef@FoodTrack.local "}, zaptest.NewLogger(s.T()))
	s.pair = outbound.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: time.Now().Add(time.Hour)}
}

func (s *UserServiceSuite) TestRegister_Success() {
	// Arrange
	s.users.On("FindByEmail", mock.Anything, "cook@example.com").Return(nil, nil)
	s.users.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(nil)
	s.tokens.On("Issue", mock.Anything, mock.AnythingOfType("*user.User")).Return(s.pair, nil)

	// Act
	resp, err := s.service.Register(s.ctx, inbound.RegisterCommand{
		Email:     "  Cook@Example.com",
		Password:  "password123",
		FirstName: "Julia",
	})

	// Assert
	s.Require().NoError(err)
	s.Equal("cook@example.com", resp.User.Email)
	s.Equal(string(user.RoleUser), resp.User.Role)
	s.Equal("access", resp.AccessToken)
	s.Equal("refresh", resp.RefreshToken)
	s.users.AssertExpectations(s.T())
}

func (s *UserServiceSuite) TestRegister_AdminEmailPromotes() {
	s.users.On("FindByEmail", mock.Anything, "chef@foodtrack.local").Return(nil, nil)
	s.users.On("Create", mock.Anything, mock.MatchedBy(func(u *user.User) bool { return u.IsAdmin() })).Return(nil)
	s.tokens.On("Issue", mock.Anything, mock.Anything).Return(s.pair, nil)

	resp, err := s.service.Register(s.ctx, inbound.RegisterCommand{Email: "chef@foodtrack.local", Password: "password123"})

	s.Require().NoError(err)
	s.Equal(string(user.RoleAdmin), resp.User.Role)
}

func (s *UserServiceSuite) TestRegister_Failures() {
	existing := s.factory.User("password123")
	s.users.On("FindByEmail", mock.Anything, existing.Email()).Return(existing, nil)
	s.users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)

	tests := []struct {
		name string
		cmd  inbound.RegisterCommand
		code errors.ErrorCode
	}{
		{"email taken", inbound.RegisterCommand{Email: existing.Email(), Password: "password123"}, errors.CodeEmailAlreadyExists},
		{"short password", inbound.RegisterCommand{Email: "new@example.com", Password: "short"}, errors.CodeValidationFailed},
		{"malformed email", inbound.RegisterCommand{Email: "not-an-email", Password: "password123"}, errors.CodeValidationFailed},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Register(s.ctx, tt.cmd)
			testutils.AssertAppError(s.T(), err, tt.code)
		})
	}
	s.users.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *UserServiceSuite) TestLogin() {
	// Arrange
	u := s.factory.User("password123")
	s.users.On("FindByEmail", mock.Anything, u.Email()).Return(u, nil)
	s.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)
	s.tokens.On("Issue", mock.Anything, u).Return(s.pair, nil)

	// Act
	resp, err := s.service.Login(s.ctx, inbound.LoginCommand{Email: u.Email(), Password: "password123"})
	_, wrongErr := s.service.Login(s.ctx, inbound.LoginCommand{Email: u.Email(), Password: "wrong-password"})
	_, ghostErr := s.service.Login(s.ctx, inbound.LoginCommand{Email: "ghost@example.com", Password: "password123"})

	// Assert
	s.Require().NoError(err)
	s.Equal(u.ID(), resp.User.ID)
	testutils.AssertAppError(s.T(), wrongErr, errors.CodeInvalidCredentials)
	testutils.AssertAppError(s.T(), ghostErr, errors.CodeInvalidCredentials)
	s.tokens.AssertNumberOfCalls(s.T(), "Issue", 1)
}

func (s *UserServiceSuite) TestRefresh_RevokesOldToken() {
	// Arrange
	u := s.factory.User("password123")
	claims := &outbound.TokenClaims{TokenID: "jti-1", UserID: u.ID(), Type: outbound.RefreshToken}
	s.tokens.On("Validate", mock.Anything, "refresh-1", outbound.RefreshToken).Return(claims, nil)
	s.tokens.On("Validate", mock.Anything, "bogus", outbound.RefreshToken).Return(nil, stderrors.New("signature is invalid"))
	s.users.On("FindByID", mock.Anything, u.ID()).Return(u, nil)
	s.tokens.On("Revoke", mock.Anything, claims).Return(nil)
	s.tokens.On("Issue", mock.Anything, u).Return(s.pair, nil)

	// Act
	resp, err := s.service.Refresh(s.ctx, "refresh-1")
	_, bogusErr := s.service.Refresh(s.ctx, "bogus")

	// Assert
	s.Require().NoError(err)
	s.Equal("access", resp.AccessToken)
	s.tokens.AssertCalled(s.T(), "Revoke", mock.Anything, claims)
	testutils.AssertAppError(s.T(), bogusErr, errors.CodeUnauthorized)
}

func (s *UserServiceSuite) TestRefresh_DeletedUser() {
	claims := &outbound.TokenClaims{UserID: uuid.New(), Type: outbound.RefreshToken}
	s.tokens.On("Validate", mock.Anything, "refresh", outbound.RefreshToken).Return(claims, nil)
	s.users.On("FindByID", mock.Anything, claims.UserID).Return(nil, nil)

	_, err := s.service.Refresh(s.ctx, "refresh")

	testutils.AssertAppError(s.T(), err, errors.CodeUnauthorized)
	s.tokens.AssertNotCalled(s.T(), "Revoke", mock.Anything, mock.Anything)
}

func (s *UserServiceSuite) TestLogoutAndAuthenticate() {
	claims := &outbound.TokenClaims{TokenID: "jti-2", UserID: uuid.New(), Type: outbound.AccessToken}
	s.tokens.On("Revoke", mock.Anything, claims).Return(nil)
	s.tokens.On("Validate", mock.Anything, "good", outbound.AccessToken).Return(claims, nil)
	s.tokens.On("Validate", mock.Anything, "revoked", outbound.AccessToken).Return(nil, stderrors.New("token revoked"))

	s.NoError(s.service.Logout(s.ctx, claims))
	got, err := s.service.Authenticate(s.ctx, "good")
	s.Require().NoError(err)
	s.Equal(claims.UserID, got.UserID)
	_, err = s.service.Authenticate(s.ctx, "revoked")
	testutils.AssertAppError(s.T(), err, errors.CodeUnauthorized)
}

func (s *UserServiceSuite) TestSettings() {
	// Arrange
	u := s.factory.User("password123")
	s.users.On("FindByID", mock.Anything, u.ID()).Return(u, nil)
	s.users.On("Update", mock.Anything, u).Return(nil)
	household := 3
	prep := 45

	// Act
	defaults, err := s.service.GetSettings(s.ctx, u.ID())
	s.Require().NoError(err)
	updated, err := s.service.UpdateSettings(s.ctx, u.ID(), inbound.UpdateSettingsCommand{
		HouseholdSize:   &household,
		MaxPrepTime:     &prep,
		DietPreferences: []recipe.DietType{recipe.DietVegetarian},
	})

	// Assert
	s.Require().NoError(err)
	s.Equal(user.DefaultHouseholdSize, defaults.HouseholdSize)
	s.NotNil(defaults.ToolsAvailable)
	s.Equal(3, updated.HouseholdSize)
	s.Require().NotNil(updated.MaxPrepTime)
	s.Equal(45, *updated.MaxPrepTime)
	s.Equal([]recipe.DietType{recipe.DietVegetarian}, updated.DietPreferences)
}

func (s *UserServiceSuite) TestUpdateSettings_OutOfRange() {
	u := s.factory.User("password123")
	s.users.On("FindByID", mock.Anything, u.ID()).Return(u, nil)
	household := 0

	_, err := s.service.UpdateSettings(s.ctx, u.ID(), inbound.UpdateSettingsCommand{HouseholdSize: &household})

	testutils.AssertAppError(s.T(), err, errors.CodeValidationFailed)
	s.users.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

func (s *UserServiceSuite) TestMarkTutorialSeen() {
	u := s.factory.User("password123")
	s.users.On("FindByID", mock.Anything, u.ID()).Return(u, nil)
	s.users.On("Update", mock.Anything, u).Return(nil)

	dto, err := s.service.MarkTutorialSeen(s.ctx, u.ID())

	s.Require().NoError(err)
	s.True(dto.HasSeenTutorial)
}

func (s *UserServiceSuite) TestGetMe_Unknown() {
	id := uuid.New()
	s.users.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := s.service.GetMe(s.ctx, id)

	testutils.AssertAppError(s.T(), err, errors.CodeUserNotFound)
}
