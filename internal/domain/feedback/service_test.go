package feedback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/ratelimit"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

// -- Mocks --

type mockRepo struct {
	mu    sync.Mutex
	items []*Entry
}

func (m *mockRepo) Create(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	stored := *e
	m.items = append(m.items, &stored)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Entry
	for i := len(m.items) - 1; i >= 0; i-- {
		out = append(out, m.items[i])
	}
	total := len(out)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (m *mockRepo) Summary(_ context.Context) (*Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Summary{ByCategory: make(map[string]int)}
	sum := 0
	for _, e := range m.items {
		s.Count++
		sum += e.Rating
		s.ByCategory[e.Category]++
	}
	if s.Count > 0 {
		s.AverageRating = float64(sum) / float64(s.Count)
	}
	return s, nil
}

type mockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (l *mockLimiter) Enforce(_ context.Context, identifier, endpoint string, limit ratelimit.Limit) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[endpoint+":"+identifier]++
	if l.counts[endpoint+":"+identifier] > limit.MaxRequests {
		return &ratelimit.LimitedError{RetryAfter: time.Minute}
	}
	return nil
}

func newTestService() (*Service, *mockRepo) {
	repo := &mockRepo{}
	return NewService(repo, &mockLimiter{}, zerolog.Nop()), repo
}

// -- Tests --

func TestSubmit_DefaultsCategory(t *testing.T) {
	svc, _ := newTestService()
	e, err := svc.Submit(context.Background(), SubmitRequest{Rating: 4, Comment: " nice <i>charts</i> "}, "", "ip:1.1.1.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Category != "general" {
		t.Errorf("expected default category, got %q", e.Category)
	}
	if e.Comment != "nice charts" {
		t.Errorf("expected sanitized comment, got %q", e.Comment)
	}
	if e.UserID != "" {
		t.Errorf("expected anonymous entry, got %q", e.UserID)
	}
}

func TestSubmit_Validation(t *testing.T) {
	svc, _ := newTestService()
	cases := []SubmitRequest{
		{Rating: 0},
		{Rating: 6},
		{Rating: 3, Category: "other"},
		{Rating: 3, Comment: strings.Repeat("c", 2001)},
	}
	for _, req := range cases {
		if _, err := svc.Submit(context.Background(), req, "", "ip:x"); !validate.IsValidation(err) {
			t.Errorf("%+v: expected validation error, got %v", req, err)
		}
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if _, err := svc.Submit(ctx, SubmitRequest{Rating: 5}, "u1", "user:u1"); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}
	if _, err := svc.Submit(ctx, SubmitRequest{Rating: 5}, "u1", "user:u1"); !errors.Is(err, ratelimit.ErrLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.Submit(ctx, SubmitRequest{Rating: 5, Category: "usability"}, "", "a")
	_, _ = svc.Submit(ctx, SubmitRequest{Rating: 4}, "", "b")
	_, _ = svc.Submit(ctx, SubmitRequest{Rating: 4}, "", "c")

	s, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Count != 3 {
		t.Errorf("expected 3, got %d", s.Count)
	}
	if s.AverageRating != 4.33 {
		t.Errorf("expected 4.33, got %v", s.AverageRating)
	}
	if s.ByCategory["general"] != 2 || s.ByCategory["usability"] != 1 {
		t.Errorf("unexpected breakdown %v", s.ByCategory)
	}
}
