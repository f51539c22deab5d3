// Package middleware provides HTTP middleware components
// following the Chain of Responsibility pattern
package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/foodtrack/api/internal/infrastructure/http/respond"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HTTPMetrics records served requests
type HTTPMetrics interface {
	ObserveHTTP(method, route string, status int, duration time.Duration)
	RequestStarted()
	RequestFinished()
}

// Logger writes one structured line per request
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("user_agent", r.UserAgent()),
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("HTTP request", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}
		})
	}
}

// Metrics records request counts and latencies labelled by route pattern,
// so path parameters do not explode label cardinality.
func Metrics(m HTTPMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			m.RequestStarted()
			defer m.RequestFinished()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.ObserveHTTP(r.Method, route, status, time.Since(start))
		})
	}
}

// RateLimit refuses requests beyond the client's budget for limitType with
// 429 and a Retry-After header. Authenticated clients are keyed by user id,
// anonymous ones by address.
func RateLimit(limiter *security.RateLimiter, limitType security.RateLimitType, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, wait := limiter.Allow(limitType, clientKey(r))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			respond.Error(w, r, logger, errors.NewAppError(
				errors.CodeTooManyRequests,
				"Too many requests",
				"retry after "+strconv.Itoa(retryAfter)+"s",
			).WithMetadata("retry_after", retryAfter))
		})
	}
}

func clientKey(r *http.Request) string {
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		return "user:" + claims.UserID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
