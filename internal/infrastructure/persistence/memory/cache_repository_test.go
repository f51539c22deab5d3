package memory

import (
	"context"
	"testing"
	"time"

	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheRepository, *time.Time) {
	t.Helper()
	clock := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	c := NewCacheRepository()
	c.now = func() time.Time { return clock }
	t.Cleanup(func() { _ = c.Close() })
	return c, &clock
}

func TestCacheRepository_GetSet(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	*clock = clock.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheRepository_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	*clock = clock.Add(365 * 24 * time.Hour)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheRepository_Increment(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	for want := int64(1); want <= 3; want++ {
		n, err := c.Increment(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	raw, err := c.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "3", string(raw))

	require.NoError(t, c.Set(ctx, "text", []byte("abc"), 0))
	_, err = c.Increment(ctx, "text")
	assert.Error(t, err)
}

func TestCacheRepository_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("abc"), 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'z'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestCacheRepository_Sweep(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	*clock = clock.Add(time.Minute)

	c.sweep()

	assert.Equal(t, 1, c.Len())
}
