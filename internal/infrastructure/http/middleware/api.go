package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/infrastructure/http/respond"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticator validates bearer access tokens
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*outbound.TokenClaims, error)
}

// Security adds security headers for API responses
func Security() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")

			next.ServeHTTP(w, r)
		})
	}
}

// CORS answers preflight requests and allows the configured origins. A
// single "*" entry allows any origin.
func CORS(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				_, ok := allowed[origin]
				if allowAll || ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate requires a valid access token and stores its claims in the
// request context.
func Authenticate(auth Authenticator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Error(w, r, logger, errors.NewUnauthorizedError("Authorization header required"))
				return
			}

			claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				respond.Error(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin refuses authenticated users without the admin role
func RequireAdmin(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				respond.Error(w, r, logger, errors.NewUnauthorizedError(""))
				return
			}
			if claims.Role != user.RoleAdmin {
				respond.Error(w, r, logger, errors.NewInsufficientPermissionsError("manage the catalog"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on WebSocket upgrades, so upgrades may pass the token as
// ?access_token= instead.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			token := r.URL.Query().Get("access_token")
			return token, token != ""
		}
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// WithClaims stores validated token claims in ctx
func WithClaims(ctx context.Context, claims *outbound.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the caller's claims, nil for anonymous requests
func ClaimsFromContext(ctx context.Context) *outbound.TokenClaims {
	claims, _ := ctx.Value(claimsKey).(*outbound.TokenClaims)
	return claims
}

// UserIDFromContext extracts the authenticated user id
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return uuid.Nil, false
	}
	return claims.UserID, true
}
