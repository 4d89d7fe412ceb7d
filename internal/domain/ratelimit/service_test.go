package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockViolationRepo struct {
	mu    sync.Mutex
	store map[uuid.UUID]*Violation
	fail  error
}

func newMockViolationRepo() *mockViolationRepo {
	return &mockViolationRepo{store: make(map[uuid.UUID]*Violation)}
}

func (m *mockViolationRepo) Create(_ context.Context, v *Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	v.ID = uuid.New()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	m.store[v.ID] = v
	return nil
}

func (m *mockViolationRepo) List(_ context.Context, limit, offset int) ([]*Violation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Violation
	for _, v := range m.store {
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockViolationRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, v := range m.store {
		if v.CreatedAt.Before(cutoff) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *mockViolationRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

func newTestService() (*Service, *mockViolationRepo, *memoryCounter) {
	repo := newMockViolationRepo()
	counter := NewMemoryCounter().(*memoryCounter)
	return NewService(counter, repo, zerolog.Nop()), repo, counter
}

// -- Tests --

func TestCheck_AllowsUpToLimit(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	limit := Limit{MaxRequests: 3, Window: time.Minute}

	for i := 1; i <= 3; i++ {
		d, err := svc.Check(ctx, "a@example.com", "access-request", limit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if d.Remaining != int64(3-i) {
			t.Errorf("request %d: expected remaining %d, got %d", i, 3-i, d.Remaining)
		}
	}

	d, err := svc.Check(ctx, "a@example.com", "access-request", limit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("fourth request should be refused")
	}
	if d.Remaining != 0 || d.Count != 4 {
		t.Errorf("unexpected decision %+v", d)
	}
	if d.RetryAfterSeconds < 1 || d.RetryAfterSeconds > 60 {
		t.Errorf("expected retry-after within the window, got %d", d.RetryAfterSeconds)
	}
	if repo.count() != 1 {
		t.Errorf("expected one violation row, got %d", repo.count())
	}

	// Further refusals in the same window are not recorded again.
	_, _ = svc.Check(ctx, "a@example.com", "access-request", limit)
	if repo.count() != 1 {
		t.Errorf("expected still one violation row, got %d", repo.count())
	}
}

func TestCheck_WindowResets(t *testing.T) {
	svc, _, counter := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return now }
	limit := Limit{MaxRequests: 1, Window: time.Minute}

	if d, _ := svc.Check(ctx, "id", "chat", limit); !d.Allowed {
		t.Fatal("first request should be allowed")
	}
	if d, _ := svc.Check(ctx, "id", "chat", limit); d.Allowed {
		t.Fatal("second request should be refused")
	}
	now = now.Add(time.Minute)
	if d, _ := svc.Check(ctx, "id", "chat", limit); !d.Allowed {
		t.Fatal("request in a new window should be allowed")
	}
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	limit := Limit{MaxRequests: 1, Window: time.Minute}

	_, _ = svc.Check(ctx, "alice", "chat", limit)
	if d, _ := svc.Check(ctx, "bob", "chat", limit); !d.Allowed {
		t.Error("a different identifier has its own counter")
	}
	if d, _ := svc.Check(ctx, "alice", "feedback", limit); !d.Allowed {
		t.Error("a different endpoint has its own counter")
	}
}

func TestCheck_InvalidLimit(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Check(context.Background(), "a", "b", Limit{}); err == nil {
		t.Fatal("expected error for zero limit")
	}
}

func TestCheck_ViolationLogFailureDoesNotFail(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.fail = errors.New("db down")
	limit := Limit{MaxRequests: 1, Window: time.Minute}
	ctx := context.Background()

	_, _ = svc.Check(ctx, "a", "b", limit)
	d, err := svc.Check(ctx, "a", "b", limit)
	if err != nil {
		t.Fatalf("expected refusal without error, got %v", err)
	}
	if d.Allowed {
		t.Error("expected refusal")
	}
}

func TestEnforce(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	limit := Limit{MaxRequests: 1, Window: time.Minute}

	if err := svc.Enforce(ctx, "a", "b", limit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.Enforce(ctx, "a", "b", limit)
	if !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited, got %v", err)
	}
	var le *LimitedError
	if !errors.As(err, &le) || le.Seconds() < 1 {
		t.Errorf("expected LimitedError with retry-after, got %v", err)
	}
}

func TestLogViolation_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.LogViolation(ctx, "", "chat", 5); err == nil {
		t.Error("expected error for empty identifier")
	}
	if _, err := svc.LogViolation(ctx, "id", "", 5); err == nil {
		t.Error("expected error for empty endpoint")
	}
	v, err := svc.LogViolation(ctx, "id", "chat", 21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ID == uuid.Nil || v.RequestCount != 21 {
		t.Errorf("unexpected violation %+v", v)
	}
}

func TestPurge(t *testing.T) {
	svc, repo, _ := newTestService()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	_ = repo.Create(ctx, &Violation{Identifier: "old", Endpoint: "x", CreatedAt: now.AddDate(0, 0, -31)})
	_ = repo.Create(ctx, &Violation{Identifier: "new", Endpoint: "x", CreatedAt: now.AddDate(0, 0, -1)})

	n, err := svc.Purge(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || repo.count() != 1 {
		t.Errorf("expected one deleted and one left, got deleted=%d left=%d", n, repo.count())
	}
	if _, err := svc.Purge(ctx, 0); err == nil {
		t.Error("expected error for zero retention")
	}
}

func TestCheckCaller_SeparateFromServiceQuotas(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	long := Limit{MaxRequests: 1, Window: 24 * time.Hour}

	for i := 0; i < 3; i++ {
		_, _ = svc.CheckCaller(ctx, "email:victim@example.com", "access-request", long)
	}
	if d, _ := svc.CheckCaller(ctx, "email:victim@example.com", "access-request", long); d.Allowed {
		t.Fatal("caller counter should be exhausted")
	}

	d, err := svc.Check(ctx, "email:victim@example.com", "access-request", Limit{MaxRequests: 3, Window: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Count != 1 {
		t.Errorf("service quota must be untouched by caller checks, got %+v", d)
	}
}

func TestCheck_WindowIsPartOfCounter(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.Check(ctx, "u1", "chat", Limit{MaxRequests: 1, Window: time.Minute})
	if d, _ := svc.Check(ctx, "u1", "chat", Limit{MaxRequests: 1, Window: time.Hour}); !d.Allowed {
		t.Error("a different window must start its own count")
	}
}

func TestCounterKey(t *testing.T) {
	got := counterKey(scopeCaller, "chat", "user:u1", time.Minute)
	if got != "ratelimit:rpc:chat:60s:user:u1" {
		t.Errorf("counterKey = %q", got)
	}
	if counterKey(scopeService, "chat", "user:u1", time.Minute) == got {
		t.Error("service and caller scopes must not collide")
	}
}
