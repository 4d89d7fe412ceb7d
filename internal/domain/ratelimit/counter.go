package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Counter increments a windowed counter and reports the new count and the
// time left in the window. The window starts at the first hit.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Counter namespaces. Quotas the server enforces for its own features never
// share a counter with quotas checked on behalf of API callers.
const (
	scopeService = "svc"
	scopeCaller  = "rpc"
)

// counterKey includes the window so a differently sized window over the same
// endpoint and identifier starts its own count.
func counterKey(scope, endpoint, identifier string, window time.Duration) string {
	return fmt.Sprintf("ratelimit:%s:%s:%ds:%s", scope, endpoint, int64(window/time.Second), identifier)
}

type redisCounter struct {
	client *redis.Client
}

// NewRedisCounter shares counters across replicas via INCR and EXPIRE.
func NewRedisCounter(client *redis.Client) Counter {
	return &redisCounter{client: client}
}

func (r *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("increment %s: %w", key, err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		return n, window, nil
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ttl %s: %w", key, err)
	}
	if ttl < 0 {
		// A key without expiry would never reset.
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = window
	}
	return n, ttl, nil
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

type memoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

// NewMemoryCounter keeps counters in process memory.
func NewMemoryCounter() Counter {
	return &memoryCounter{windows: make(map[string]*memoryWindow), now: time.Now}
}

func (m *memoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(window)}
		m.windows[key] = w
		if len(m.windows) > 1024 {
			m.evictLocked(now)
		}
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

func (m *memoryCounter) evictLocked(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
