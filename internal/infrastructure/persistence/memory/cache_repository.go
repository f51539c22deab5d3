// Package memory provides the in-memory cache used when Redis is not configured
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/foodtrack/api/internal/ports/outbound"
)

// cleanupInterval is how often expired entries are swept
const cleanupInterval = time.Minute

type cacheItem struct {
	value []byte
	// expiresAt is zero for entries that never expire
	expiresAt time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// CacheRepository implements outbound.CacheRepository over a map
type CacheRepository struct {
	mu   sync.RWMutex
	data map[string]cacheItem
	now  func() time.Time

	stop chan struct{}
	once sync.Once
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a new in-memory cache and starts its sweeper.
// Call Close to stop the sweeper.
func NewCacheRepository() *CacheRepository {
	repo := &CacheRepository{
		data: make(map[string]cacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go repo.cleanup()
	return repo
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	item, ok := r.data[key]
	r.mu.RUnlock()

	if !ok || item.expired(r.now()) {
		return nil, outbound.ErrCacheMiss
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a value; a zero ttl never expires
func (r *CacheRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := cacheItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = r.now().Add(ttl)
	}

	r.mu.Lock()
	r.data[key] = item
	r.mu.Unlock()
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.data, key)
	r.mu.Unlock()
	return nil
}

// Exists checks if a key exists in cache
func (r *CacheRepository) Exists(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	item, ok := r.data[key]
	r.mu.RUnlock()
	return ok && !item.expired(r.now()), nil
}

// Increment atomically increments a counter stored as a decimal string
func (r *CacheRepository) Increment(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	item, ok := r.data[key]
	if ok && !item.expired(r.now()) {
		parsed, err := strconv.ParseInt(string(item.value), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	} else {
		item = cacheItem{}
	}
	n++
	item.value = []byte(strconv.FormatInt(n, 10))
	r.data[key] = item
	return n, nil
}

// Len returns the number of stored entries, expired ones included
func (r *CacheRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Close stops the sweeper
func (r *CacheRepository) Close() error {
	r.once.Do(func() { close(r.stop) })
	return nil
}

func (r *CacheRepository) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *CacheRepository) sweep() {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, item := range r.data {
		if item.expired(now) {
			delete(r.data, key)
		}
	}
}
