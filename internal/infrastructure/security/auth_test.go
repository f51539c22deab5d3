package security

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/infrastructure/persistence/memory"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/test/testutils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// TokenServiceTestSuite provides a test suite for TokenService
type TokenServiceTestSuite struct {
	suite.Suite
	cfg     config.AuthConfig
	cache   *memory.CacheRepository
	service *TokenService
	clock   time.Time
	user    *user.User
}

func (s *TokenServiceTestSuite) SetupTest() {
	s.cfg = config.AuthConfig{
		JWTSecret:         "test-secret-key-for-testing-only-32-bytes",
		Issuer:            "foodtrack-test",
		AccessExpiration:  15 * time.Minute,
		RefreshExpiration: 7 * 24 * time.Hour,
	}
	s.cache = memory.NewCacheRepository()
	s.service = NewTokenService(s.cfg, s.cache, zap.NewNop())
	s.clock = time.Now().Truncate(time.Second)
	s.service.now = func() time.Time { return s.clock }
	s.user = testutils.NewFactory(testutils.DefaultSeed).User("correct-horse-battery")
}

func (s *TokenServiceTestSuite) TearDownTest() {
	_ = s.cache.Close()
}

func (s *TokenServiceTestSuite) TestIssueAndValidate() {
	ctx := context.Background()

	s.Run("AccessToken_RoundTrip_ShouldCarryIdentity", func() {
		// Arrange
		pair, err := s.service.Issue(ctx, s.user)
		s.Require().NoError(err)

		// Act
		claims, err := s.service.Validate(ctx, pair.AccessToken, outbound.AccessToken)

		// Assert
		s.Require().NoError(err)
		s.Equal(s.user.ID(), claims.UserID)
		s.Equal(s.user.Email(), claims.Email)
		s.Equal(user.RoleUser, claims.Role)
		s.Equal(outbound.AccessToken, claims.Type)
		s.NotEmpty(claims.TokenID)
		s.True(pair.ExpiresAt.Equal(s.clock.Add(s.cfg.AccessExpiration)))
	})

	s.Run("RefreshToken_ShouldOutliveAccessToken", func() {
		pair, err := s.service.Issue(ctx, s.user)
		s.Require().NoError(err)

		claims, err := s.service.Validate(ctx, pair.RefreshToken, outbound.RefreshToken)

		s.Require().NoError(err)
		s.True(claims.ExpiresAt.After(pair.ExpiresAt))
	})

	s.Run("WrongType_ShouldBeRejected", func() {
		pair, err := s.service.Issue(ctx, s.user)
		s.Require().NoError(err)

		_, err = s.service.Validate(ctx, pair.RefreshToken, outbound.AccessToken)
		s.ErrorIs(err, outbound.ErrInvalidToken)

		_, err = s.service.Validate(ctx, pair.AccessToken, outbound.RefreshToken)
		s.ErrorIs(err, outbound.ErrInvalidToken)
	})
}

func (s *TokenServiceTestSuite) TestRejectsBadTokens() {
	ctx := context.Background()
	pair, err := s.service.Issue(ctx, s.user)
	s.Require().NoError(err)

	tests := []struct {
		name  string
		token func() string
	}{
		{name: "Empty", token: func() string { return "" }},
		{name: "Garbage", token: func() string { return "not.a.jwt" }},
		{
			name: "TamperedPayload",
			token: func() string {
				parts := strings.Split(pair.AccessToken, ".")
				parts[1] = parts[1][:len(parts[1])-2] + "AA"
				return strings.Join(parts, ".")
			},
		},
		{
			name: "OtherSecret",
			token: func() string {
				other := NewTokenService(config.AuthConfig{
					JWTSecret:        "a-completely-different-secret-value",
					Issuer:           s.cfg.Issuer,
					AccessExpiration: time.Minute,
				}, s.cache, zap.NewNop())
				p, err := other.Issue(ctx, s.user)
				s.Require().NoError(err)
				return p.AccessToken
			},
		},
		{
			name: "OtherIssuer",
			token: func() string {
				cfg := s.cfg
				cfg.Issuer = "someone-else"
				p, err := NewTokenService(cfg, s.cache, zap.NewNop()).Issue(ctx, s.user)
				s.Require().NoError(err)
				return p.AccessToken
			},
		},
		{
			name: "NoneAlgorithm",
			token: func() string {
				claims := &Claims{UserID: s.user.ID().String(), TokenType: outbound.AccessToken}
				claims.Issuer = s.cfg.Issuer
				claims.Audience = jwt.ClaimStrings{audience}
				claims.ExpiresAt = jwt.NewNumericDate(s.clock.Add(time.Hour))
				signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
				s.Require().NoError(err)
				return signed
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			claims, err := s.service.Validate(ctx, tt.token(), outbound.AccessToken)

			s.Nil(claims)
			s.ErrorIs(err, outbound.ErrInvalidToken)
		})
	}
}

func (s *TokenServiceTestSuite) TestExpiry() {
	ctx := context.Background()
	pair, err := s.service.Issue(ctx, s.user)
	s.Require().NoError(err)

	s.clock = s.clock.Add(s.cfg.AccessExpiration + time.Second)

	_, err = s.service.Validate(ctx, pair.AccessToken, outbound.AccessToken)
	s.ErrorIs(err, outbound.ErrInvalidToken)

	_, err = s.service.Validate(ctx, pair.RefreshToken, outbound.RefreshToken)
	s.NoError(err)
}

func (s *TokenServiceTestSuite) TestRevoke() {
	ctx := context.Background()

	s.Run("RevokedToken_ShouldFailValidation", func() {
		// Arrange
		pair, err := s.service.Issue(ctx, s.user)
		s.Require().NoError(err)
		claims, err := s.service.Validate(ctx, pair.AccessToken, outbound.AccessToken)
		s.Require().NoError(err)

		// Act
		s.Require().NoError(s.service.Revoke(ctx, claims))

		// Assert
		_, err = s.service.Validate(ctx, pair.AccessToken, outbound.AccessToken)
		s.ErrorIs(err, outbound.ErrInvalidToken)
		s.Contains(err.Error(), "revoked")
	})

	s.Run("OtherTokensOfSameUser_ShouldStayValid", func() {
		first, err := s.service.Issue(ctx, s.user)
		s.Require().NoError(err)
		second, err := s.service.Issue(ctx, s.user)
		s.Require().NoError(err)

		claims, err := s.service.Validate(ctx, first.AccessToken, outbound.AccessToken)
		s.Require().NoError(err)
		s.Require().NoError(s.service.Revoke(ctx, claims))

		_, err = s.service.Validate(ctx, second.AccessToken, outbound.AccessToken)
		s.NoError(err)
	})

	s.Run("ExpiredClaims_ShouldBeNoop", func() {
		claims := &outbound.TokenClaims{TokenID: "gone", ExpiresAt: s.clock.Add(-time.Minute)}

		s.NoError(s.service.Revoke(ctx, claims))

		exists, err := s.cache.Exists(ctx, "revoked_token:gone")
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("MissingTokenID_ShouldError", func() {
		s.Error(s.service.Revoke(ctx, &outbound.TokenClaims{}))
		s.Error(s.service.Revoke(ctx, nil))
	})
}

func TestTokenServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TokenServiceTestSuite))
}

// failingCache reports an outage on every call
type failingCache struct {
	outbound.CacheRepository
}

func (failingCache) Exists(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestValidate_RevocationStoreDown(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(config.AuthConfig{
		JWTSecret:        "test-secret-key-for-testing-only-32-bytes",
		Issuer:           "foodtrack-test",
		AccessExpiration: time.Minute,
	}, &failingCache{}, zap.NewNop())
	u := testutils.NewFactory(testutils.DefaultSeed).User("correct-horse-battery")

	pair, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	claims, err := svc.Validate(ctx, pair.AccessToken, outbound.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, u.ID(), claims.UserID)
}
