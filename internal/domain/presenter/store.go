package presenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// StateStore keeps the latest state of each session.
type StateStore interface {
	Save(ctx context.Context, s State) error
	Get(ctx context.Context, sessionID string) (State, error)
	// Sweep drops sessions last updated before cutoff and returns how many.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
}

// NewMemoryStore returns a process-local StateStore. Audiences connected to
// other replicas will not see its updates.
func NewMemoryStore() StateStore {
	return &memoryStore{sessions: make(map[string]State)}
}

func (m *memoryStore) Save(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = s
	return nil
}

func (m *memoryStore) Get(_ context.Context, sessionID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return State{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.Timestamp.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a StateStore shared by every replica. Keys expire
// after ttl, so Sweep has nothing to do.
func NewRedisStore(client *redis.Client, ttl time.Duration) StateStore {
	if ttl <= 0 {
		ttl = StateTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func stateKey(sessionID string) string {
	return "presenter:state:" + sessionID
}

func (r *redisStore) Save(ctx context.Context, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode presenter state: %w", err)
	}
	if err := r.client.Set(ctx, stateKey(s.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save presenter state: %w", err)
	}
	return nil
}

func (r *redisStore) Get(ctx context.Context, sessionID string) (State, error) {
	data, err := r.client.Get(ctx, stateKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("load presenter state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode presenter state: %w", err)
	}
	return s, nil
}

func (r *redisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}
