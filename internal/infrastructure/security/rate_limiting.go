package security

import (
	"sync"
	"time"

	"github.com/foodtrack/api/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitType selects which budget a request draws from
type RateLimitType string

const (
	RateLimitGeneral RateLimitType = "general"
	RateLimitAuth    RateLimitType = "auth"
)

// RateLimitRule is the token bucket for one limit type
type RateLimitRule struct {
	RequestsPerMin int
	Burst          int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client and limit type
type RateLimiter struct {
	rules   map[RateLimitType]RateLimitRule
	idleTTL time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewRateLimiter creates a limiter from configuration and starts its janitor
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	authBurst := cfg.AuthRequestsPerMin / 2
	if authBurst < 1 {
		authBurst = 1
	}

	r := &RateLimiter{
		rules: map[RateLimitType]RateLimitRule{
			RateLimitGeneral: {RequestsPerMin: cfg.RequestsPerMin, Burst: cfg.BurstSize},
			RateLimitAuth:    {RequestsPerMin: cfg.AuthRequestsPerMin, Burst: authBurst},
		},
		idleTTL: 2 * interval,
		logger:  logger.Named("rate-limiter"),
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go r.cleanup(interval)
	return r
}

// Allow reports whether client may make one more request of type t, and how
// long it should wait otherwise. Types without a positive rate are unlimited.
func (r *RateLimiter) Allow(t RateLimitType, client string) (bool, time.Duration) {
	rule, ok := r.rules[t]
	if !ok || rule.RequestsPerMin <= 0 {
		return true, 0
	}

	key := string(t) + ":" + client
	now := r.now()

	r.mu.Lock()
	cl, ok := r.clients[key]
	if !ok {
		burst := rule.Burst
		if burst < 1 {
			burst = 1
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(float64(rule.RequestsPerMin)/60), burst)}
		r.clients[key] = cl
	}
	cl.lastSeen = now
	r.mu.Unlock()

	res := cl.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		r.logger.Debug("Rate limit exceeded",
			zap.String("type", string(t)),
			zap.String("client", client),
			zap.Duration("retry_after", delay),
		)
		return false, delay
	}
	return true, 0
}

// Rule returns the configured rule for t
func (r *RateLimiter) Rule(t RateLimitType) RateLimitRule {
	return r.rules[t]
}

// Close stops the janitor
func (r *RateLimiter) Close() {
	r.once.Do(func() { close(r.stop) })
}

func (r *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

// sweep forgets clients idle for longer than idleTTL
func (r *RateLimiter) sweep() {
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, cl := range r.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(r.clients, key)
		}
	}
}
