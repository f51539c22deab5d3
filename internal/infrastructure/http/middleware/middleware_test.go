package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type fakeAuth map[string]*outbound.TokenClaims

func (f fakeAuth) Authenticate(ctx context.Context, token string) (*outbound.TokenClaims, error) {
	claims, found := f[token]
	if !found {
		return nil, errors.NewUnauthorizedError("invalid or expired token")
	}
	return claims, nil
}

type observed struct {
	method, route string
	status        int
}

type fakeMetrics struct {
	mu       sync.Mutex
	seen     []observed
	inFlight int
}

func (f *fakeMetrics) ObserveHTTP(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, observed{method, route, status})
}

func (f *fakeMetrics) RequestStarted()  { f.inFlight++ }
func (f *fakeMetrics) RequestFinished() { f.inFlight-- }

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthenticate(t *testing.T) {
	member := &outbound.TokenClaims{UserID: uuid.New(), Role: user.RoleUser}
	auth := fakeAuth{"good": member}

	var seen *outbound.TokenClaims
	handler := Authenticate(auth, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
		{"scheme is case-insensitive", "bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			// Act
			handler.ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, member, seen)
			} else {
				assert.Nil(t, seen)
				assert.Equal(t, errors.CodeUnauthorized, errorCode(t, rec))
			}
		})
	}
}

func TestAuthenticate_WebSocketQueryToken(t *testing.T) {
	member := &outbound.TokenClaims{UserID: uuid.New(), Role: user.RoleUser}
	handler := Authenticate(fakeAuth{"good": member}, zap.NewNop())(ok)

	upgrade := httptest.NewRequest(http.MethodGet, "/api/v1/shopping-lists/x/live?access_token=good", nil)
	upgrade.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, upgrade)
	assert.Equal(t, http.StatusOK, rec.Code)

	plain := httptest.NewRequest(http.MethodGet, "/api/v1/users/me?access_token=good", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, plain)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(zap.NewNop())(ok)

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes", nil)
		req = req.WithContext(WithClaims(req.Context(), &outbound.TokenClaims{Role: user.RoleAdmin}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes", nil)
		req = req.WithContext(WithClaims(req.Context(), &outbound.TokenClaims{Role: user.RoleUser}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, errors.CodeInsufficientPermissions, errorCode(t, rec))
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/recipes", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	// Arrange
	limiter := security.NewRateLimiter(config.RateLimitConfig{
		RequestsPerMin:     60,
		BurstSize:          2,
		AuthRequestsPerMin: 2,
		CleanupInterval:    time.Minute,
	}, zap.NewNop())
	t.Cleanup(limiter.Close)
	handler := RateLimit(limiter, security.RateLimitGeneral, zap.NewNop())(ok)

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// Act
	first := call("10.0.0.1:1234")
	second := call("10.0.0.1:5678")
	third := call("10.0.0.1:9999")
	other := call("10.0.0.2:1234")

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "1", third.Header().Get("Retry-After"))
	assert.Equal(t, errors.CodeTooManyRequests, errorCode(t, third))
	assert.Equal(t, http.StatusOK, other.Code, "budgets are per client")
}

func TestRateLimit_KeysAuthenticatedUsersById(t *testing.T) {
	limiter := security.NewRateLimiter(config.RateLimitConfig{
		RequestsPerMin: 60, BurstSize: 1, AuthRequestsPerMin: 2, CleanupInterval: time.Minute,
	}, zap.NewNop())
	t.Cleanup(limiter.Close)
	handler := RateLimit(limiter, security.RateLimitGeneral, zap.NewNop())(ok)
	claims := &outbound.TokenClaims{UserID: uuid.New()}

	codes := make([]int, 0, 2)
	for _, remote := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		req = req.WithContext(WithClaims(req.Context(), claims))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	// Arrange
	m := &fakeMetrics{}
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/v1/recipes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	// Act
	for _, path := range []string{"/api/v1/recipes/" + uuid.NewString(), "/api/v1/recipes/" + uuid.NewString(), "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	// Assert
	require.Len(t, m.seen, 3)
	assert.Equal(t, observed{"GET", "/api/v1/recipes/{id}", http.StatusNotFound}, m.seen[0])
	assert.Equal(t, observed{"GET", "/api/v1/recipes/{id}", http.StatusNotFound}, m.seen[1])
	assert.Equal(t, observed{"GET", "/health", http.StatusOK}, m.seen[2])
	assert.Zero(t, m.inFlight)
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"http://localhost:3000"})(ok)

	t.Run("allowed origin is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("foreign origin gets no grant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/meal-plans", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "PATCH")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})
}

func TestSecurity(t *testing.T) {
	rec := httptest.NewRecorder()

	Security()(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}
