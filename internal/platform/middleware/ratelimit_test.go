package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
)

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

// hit runs one request for userID ("" for anonymous) through h.
func hit(e *echo.Echo, h echo.HandlerFunc, userID string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	if userID != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), userID, "", []string{auth.RoleUser}))
	}
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_Burst(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		requests int
		allowed  int
	}{
		{"within burst", 5, 5, 5},
		{"one over burst", 2, 3, 2},
		{"single token", 1, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			h := RateLimit(RateLimitConfig{RequestsPerSecond: 0.01, BurstSize: tt.burst})(okHandler)

			allowed := 0
			for i := 0; i < tt.requests; i++ {
				rec, err := hit(e, h, "")
				if err == nil {
					allowed++
					if got := rec.Header().Get("X-RateLimit-Limit"); got != "0" {
						t.Errorf("X-RateLimit-Limit = %q", got)
					}
					continue
				}
				var he *echo.HTTPError
				if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
					t.Fatalf("request %d: expected 429, got %v", i+1, err)
				}
			}
			if allowed != tt.allowed {
				t.Errorf("allowed %d of %d, want %d", allowed, tt.requests, tt.allowed)
			}
		})
	}
}

func TestRateLimit_RefusalHeaders(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(okHandler)

	if _, err := hit(e, h, "u-1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	rec, err := hit(e, h, "u-1")
	if err == nil {
		t.Fatal("expected second request to be refused")
	}

	secs, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || secs < 1 {
		t.Errorf("Retry-After = %q, want integer >= 1", rec.Header().Get("Retry-After"))
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("X-RateLimit-Limit = %q, want 1", got)
	}
}

func TestRateLimit_CallersDoNotShareBuckets(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 0.01, BurstSize: 1})(okHandler)

	if _, err := hit(e, h, "presenter-1"); err != nil {
		t.Fatalf("presenter-1: %v", err)
	}
	if _, err := hit(e, h, "presenter-1"); err == nil {
		t.Fatal("presenter-1 should be throttled on the second call")
	}
	if _, err := hit(e, h, "viewer-2"); err != nil {
		t.Fatalf("viewer-2 must have its own bucket: %v", err)
	}
	// Anonymous callers are keyed by IP, separate from both users.
	if _, err := hit(e, h, ""); err != nil {
		t.Fatalf("anonymous: %v", err)
	}
}

func TestRateLimitKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	if got := RateLimitKey(c); got != "ip:192.0.2.10" {
		t.Errorf("anonymous key = %q", got)
	}

	c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), "u-1", "", nil)))
	if got := RateLimitKey(c); got != "user:u-1" {
		t.Errorf("user key = %q", got)
	}
}

func TestRateLimiterStore_Sweep(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	first := store.getBucket("a")
	if store.getBucket("a") != first {
		t.Fatal("expected the same bucket for a repeated key")
	}
	store.getBucket("b")

	store.sweep(time.Now())
	if store.size() != 2 {
		t.Fatalf("sweep inside the TTL dropped buckets: %d left", store.size())
	}
	store.sweep(time.Now().Add(2 * time.Minute))
	if store.size() != 0 {
		t.Errorf("expected idle buckets dropped, %d left", store.size())
	}
}

func TestRateLimiterStore_NoTTLNeverSweeps(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	store.getBucket("a")
	store.sweep(time.Now().Add(24 * time.Hour))
	if store.size() != 1 {
		t.Errorf("expected bucket kept without IdleTTL, got %d", store.size())
	}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 50 || cfg.BurstSize != 100 || cfg.IdleTTL != 10*time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestTokenBucket_RetryAfterWithZeroRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	b.allow()
	if ra := b.retryAfter(); ra != 1 {
		t.Errorf("retryAfter = %d, want 1", ra)
	}
}
