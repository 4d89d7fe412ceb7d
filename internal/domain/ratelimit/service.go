package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type Service struct {
	counter Counter
	repo    ViolationRepository
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(counter Counter, repo ViolationRepository, logger zerolog.Logger) *Service {
	return &Service{counter: counter, repo: repo, logger: logger, now: time.Now}
}

// Check counts one request from identifier against endpoint's limit. The
// first refused request of a window is recorded as a violation; a failure to
// record it is logged and does not change the decision.
func (s *Service) Check(ctx context.Context, identifier, endpoint string, limit Limit) (*Decision, error) {
	return s.check(ctx, scopeService, identifier, endpoint, limit)
}

// CheckCaller is Check for limits supplied by API callers. Its counters live
// apart from the server's own quotas, so a caller can neither consume nor
// stretch them.
func (s *Service) CheckCaller(ctx context.Context, identifier, endpoint string, limit Limit) (*Decision, error) {
	return s.check(ctx, scopeCaller, identifier, endpoint, limit)
}

func (s *Service) check(ctx context.Context, scope, identifier, endpoint string, limit Limit) (*Decision, error) {
	if limit.MaxRequests <= 0 || limit.Window <= 0 {
		return nil, fmt.Errorf("limit must have positive max requests and window")
	}
	count, ttl, err := s.counter.Incr(ctx, counterKey(scope, endpoint, identifier, limit.Window), limit.Window)
	if err != nil {
		return nil, err
	}
	max := int64(limit.MaxRequests)
	d := &Decision{Allowed: count <= max, Count: count, Remaining: max - count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = ttl
		d.RetryAfterSeconds = (&LimitedError{RetryAfter: ttl}).Seconds()
		if count == max+1 {
			if _, err := s.LogViolation(ctx, identifier, endpoint, int(count)); err != nil {
				s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("failed to record rate limit violation")
			}
		}
	}
	return d, nil
}

// Enforce is Check for callers that only need a yes or no. A refused request
// yields a *LimitedError.
func (s *Service) Enforce(ctx context.Context, identifier, endpoint string, limit Limit) error {
	d, err := s.Check(ctx, identifier, endpoint, limit)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &LimitedError{RetryAfter: d.RetryAfter}
	}
	return nil
}

func (s *Service) LogViolation(ctx context.Context, identifier, endpoint string, requestCount int) (*Violation, error) {
	if err := (LogRequest{Identifier: identifier, Endpoint: endpoint, RequestCount: requestCount}).Validate(); err != nil {
		return nil, err
	}
	v := &Violation{Identifier: identifier, Endpoint: endpoint, RequestCount: requestCount}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("record violation: %w", err)
	}
	s.logger.Warn().
		Str("identifier", identifier).
		Str("endpoint", endpoint).
		Int("request_count", requestCount).
		Msg("rate limit exceeded")
	return v, nil
}

func (s *Service) ListViolations(ctx context.Context, limit, offset int) ([]*Violation, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Purge deletes violations older than retention.
func (s *Service) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}
	n, err := s.repo.DeleteBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge violations: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Msg("purged rate limit violations")
	}
	return n, nil
}
