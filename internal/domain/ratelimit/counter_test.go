package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCounterForTest(t *testing.T) (Counter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCounter(client), mr
}

func TestRedisCounter_SetsExpiryOnFirstHit(t *testing.T) {
	c, mr := newRedisCounterForTest(t)
	ctx := context.Background()

	n, ttl, err := c.Incr(ctx, "ratelimit:chat:u1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, ttl)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:chat:u1"))

	n, ttl, err = c.Incr(ctx, "ratelimit:chat:u1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.LessOrEqual(t, ttl, time.Minute)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisCounter_WindowExpires(t *testing.T) {
	c, mr := newRedisCounterForTest(t)
	ctx := context.Background()

	_, _, err := c.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	_, _, err = c.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)
	n, _, err := c.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisCounter_RepairsMissingExpiry(t *testing.T) {
	c, mr := newRedisCounterForTest(t)
	require.NoError(t, mr.Set("k", "5"))

	n, ttl, err := c.Incr(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, time.Minute, ttl)
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestRedisCounter_ServiceIntegration(t *testing.T) {
	c, _ := newRedisCounterForTest(t)
	svc := NewService(c, newMockViolationRepo(), zerolog.Nop())
	limit := Limit{MaxRequests: 2, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := svc.Check(ctx, "ip:1.2.3.4", "feedback", limit)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := svc.Check(ctx, "ip:1.2.3.4", "feedback", limit)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 60, d.RetryAfterSeconds)
}

func TestMemoryCounter_EvictsExpiredWindows(t *testing.T) {
	c := NewMemoryCounter().(*memoryCounter)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1025; i++ {
		_, _, _ = c.Incr(ctx, "k"+time.Duration(i).String(), time.Second)
	}
	now = now.Add(2 * time.Second)
	_, _, _ = c.Incr(ctx, "fresh", time.Second)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.windows, 1)
}
