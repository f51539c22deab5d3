package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChecker struct {
	status Status
	calls  atomic.Int32
}

func (s *stubChecker) Check(ctx context.Context) Check {
	s.calls.Add(1)
	return Check{Status: s.status, LastChecked: time.Now()}
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(ctx context.Context) error {
	return p.err
}

func TestHealthCheck_Check(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]Status
		want     Status
	}{
		{"no checkers", nil, StatusHealthy},
		{"all healthy", map[string]Status{"database": StatusHealthy, "redis": StatusHealthy}, StatusHealthy},
		{"degraded wins over healthy", map[string]Status{"database": StatusHealthy, "redis": StatusDegraded}, StatusDegraded},
		{"unhealthy wins over degraded", map[string]Status{"database": StatusUnhealthy, "redis": StatusDegraded}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			hc := New("1.0.0", zap.NewNop())
			for name, status := range tt.statuses {
				hc.Register(name, &stubChecker{status: status})
			}

			// Act
			response := hc.Check(context.Background())

			// Assert
			assert.Equal(t, tt.want, response.Status)
			assert.Equal(t, "1.0.0", response.Version)
			assert.Len(t, response.Checks, len(tt.statuses))
		})
	}
}

func TestHealthCheck_ChecksAreNamedAndSorted(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.Register("redis", &stubChecker{status: StatusHealthy})
	hc.Register("database", &stubChecker{status: StatusHealthy})

	response := hc.Check(context.Background())

	require.Len(t, response.Checks, 2)
	assert.Equal(t, "database", response.Checks[0].Name)
	assert.Equal(t, "redis", response.Checks[1].Name)
}

func TestHealthCheck_CachesWithinTTL(t *testing.T) {
	// Arrange
	hc := New("1.0.0", zap.NewNop())
	checker := &stubChecker{status: StatusHealthy}
	hc.Register("database", checker)

	// Act
	hc.Check(context.Background())
	hc.Check(context.Background())

	// Assert
	assert.Equal(t, int32(1), checker.calls.Load())

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), checker.calls.Load())
}

func TestReadinessHandler(t *testing.T) {
	t.Run("healthy answers 200", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("database", NewDatabaseChecker(stubPinger{}))
		rec := httptest.NewRecorder()

		hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy database answers 503", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("database", NewDatabaseChecker(stubPinger{err: errors.New("connection refused")}))
		rec := httptest.NewRecorder()

		hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})

	t.Run("degraded still answers 200", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("redis", &stubChecker{status: StatusDegraded})
		rec := httptest.NewRecorder()

		hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLivenessHandler(t *testing.T) {
	hc := New("2.3.4", zap.NewNop())
	hc.Register("database", &stubChecker{status: StatusUnhealthy})
	rec := httptest.NewRecorder()

	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"version":"2.3.4"`)
}

func TestCheck_MarshalsDurationInMilliseconds(t *testing.T) {
	raw, err := json.Marshal(Check{Name: "database", Status: StatusHealthy, Duration: 1500 * time.Millisecond})

	require.NoError(t, err)
	assert.Contains(t, string(raw), `"duration_ms":1500`)
}
