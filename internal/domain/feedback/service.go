package feedback

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/ratelimit"
)

// SubmitLimit caps submissions per user, or per IP for anonymous callers.
var SubmitLimit = ratelimit.Limit{MaxRequests: 10, Window: 60 * time.Minute}

// Limiter is satisfied by *ratelimit.Service.
type Limiter interface {
	Enforce(ctx context.Context, identifier, endpoint string, limit ratelimit.Limit) error
}

type Service struct {
	repo    Repository
	limiter Limiter
	logger  zerolog.Logger
}

func NewService(repo Repository, limiter Limiter, logger zerolog.Logger) *Service {
	return &Service{repo: repo, limiter: limiter, logger: logger}
}

// Submit stores an entry. userID is empty for anonymous callers; requester
// identifies the caller for rate limiting.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, userID, requester string) (*Entry, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.limiter.Enforce(ctx, requester, "feedback", SubmitLimit); err != nil {
		return nil, err
	}
	e := &Entry{
		UserID:   userID,
		Page:     req.Page,
		Rating:   req.Rating,
		Category: req.Category,
		Comment:  req.Comment,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	sum, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize feedback: %w", err)
	}
	sum.AverageRating = math.Round(sum.AverageRating*100) / 100
	return sum, nil
}
