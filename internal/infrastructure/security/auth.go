// Package security issues and validates JWTs and validates request payloads
package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	audience        = "foodtrack-api"
	revokedTokenKey = "revoked_token:%s"
)

// Claims represents JWT claims structure
type Claims struct {
	UserID    string             `json:"user_id"`
	Email     string             `json:"email"`
	Role      string             `json:"role"`
	TokenType outbound.TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService signs HS256 tokens and tracks revocations in the cache
type TokenService struct {
	secret            []byte
	issuer            string
	accessExpiration  time.Duration
	refreshExpiration time.Duration
	cache             outbound.CacheRepository
	logger            *zap.Logger
	now               func() time.Time
}

// NewTokenService creates a token service from the auth configuration
func NewTokenService(cfg config.AuthConfig, cache outbound.CacheRepository, logger *zap.Logger) *TokenService {
	return &TokenService{
		secret:            []byte(cfg.JWTSecret),
		issuer:            cfg.Issuer,
		accessExpiration:  cfg.AccessExpiration,
		refreshExpiration: cfg.RefreshExpiration,
		cache:             cache,
		logger:            logger.Named("token-service"),
		now:               time.Now,
	}
}

var _ outbound.TokenService = (*TokenService)(nil)

// Issue creates an access and refresh token pair for u
func (s *TokenService) Issue(_ context.Context, u *user.User) (outbound.TokenPair, error) {
	now := s.now()

	access, accessExp, err := s.sign(u, outbound.AccessToken, now, s.accessExpiration)
	if err != nil {
		return outbound.TokenPair{}, err
	}
	refresh, _, err := s.sign(u, outbound.RefreshToken, now, s.refreshExpiration)
	if err != nil {
		return outbound.TokenPair{}, err
	}

	return outbound.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
	}, nil
}

func (s *TokenService) sign(u *user.User, typ outbound.TokenType, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID:    u.ID().String(),
		Email:     u.Email(),
		Role:      string(u.Role()),
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   u.ID().String(),
			Audience:  []string{audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

// Validate parses token and checks signature, expiry, type and revocation.
// Every failure wraps outbound.ErrInvalidToken.
func (s *TokenService) Validate(ctx context.Context, token string, expected outbound.TokenType) (*outbound.TokenClaims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", outbound.ErrInvalidToken, err)
	}

	if claims.TokenType != expected {
		return nil, fmt.Errorf("%w: expected %s token, got %s", outbound.ErrInvalidToken, expected, claims.TokenType)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", outbound.ErrInvalidToken)
	}

	revoked, err := s.cache.Exists(ctx, fmt.Sprintf(revokedTokenKey, claims.ID))
	if err != nil {
		// an unreachable revocation store must not lock everyone out
		s.logger.Warn("Failed to check token revocation", zap.Error(err))
	} else if revoked {
		return nil, fmt.Errorf("%w: token has been revoked", outbound.ErrInvalidToken)
	}

	return &outbound.TokenClaims{
		TokenID:   claims.ID,
		UserID:    userID,
		Email:     claims.Email,
		Role:      user.Role(claims.Role),
		Type:      claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke blacklists a token until it would have expired
func (s *TokenService) Revoke(ctx context.Context, claims *outbound.TokenClaims) error {
	if claims == nil || claims.TokenID == "" {
		return errors.New("token has no id")
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, fmt.Sprintf(revokedTokenKey, claims.TokenID), []byte("1"), ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
