package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/ratelimit"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/notification"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

// SubmitLimit caps submissions per email address.
var SubmitLimit = ratelimit.Limit{MaxRequests: 3, Window: 60 * time.Minute}

const rateLimitEndpoint = "access-request"

// Limiter is satisfied by *ratelimit.Service.
type Limiter interface {
	Enforce(ctx context.Context, identifier, endpoint string, limit ratelimit.Limit) error
}

// Notifier is satisfied by *notification.Mailer.
type Notifier interface {
	SendTemplate(ctx context.Context, templateID, recipient string, data map[string]string) error
}

type Config struct {
	// AdminEmail receives a message for every new request.
	AdminEmail string
	// AppURL is the public dashboard origin used to build links.
	AppURL string
}

type Service struct {
	repo    Repository
	limiter Limiter
	mailer  Notifier
	cfg     Config
	logger  zerolog.Logger
}

func NewService(repo Repository, limiter Limiter, mailer Notifier, cfg Config, logger zerolog.Logger) *Service {
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	return &Service{repo: repo, limiter: limiter, mailer: mailer, cfg: cfg, logger: logger}
}

// Submit stores a pending request and tells the admin. A failed admin email
// is logged and does not fail the submission.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Request, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.limiter.Enforce(ctx, "email:"+req.Email, rateLimitEndpoint, SubmitLimit); err != nil {
		return nil, err
	}

	r := &Request{
		Name:         req.Name,
		Email:        req.Email,
		Organization: req.Organization,
		Role:         req.Role,
		Reason:       req.Reason,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create access request: %w", err)
	}

	if s.cfg.AdminEmail == "" {
		s.logger.Warn().Str("request_id", r.ID.String()).Msg("ADMIN_EMAIL not set; skipping access request notification")
		return r, nil
	}
	err := s.mailer.SendTemplate(ctx, notification.TemplateAccessRequested, s.cfg.AdminEmail, map[string]string{
		"name":         r.Name,
		"email":        r.Email,
		"organization": orDash(r.Organization),
		"role":         orDash(r.Role),
		"reason":       orDash(r.Reason),
		"review_url":   s.cfg.AppURL + "/admin/access-requests",
	})
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", r.ID.String()).Msg("failed to notify admin of access request")
	}
	return r, nil
}

// Decide approves or denies a pending request and emails the requester. When
// the email fails the row stays updated and the returned error wraps
// ErrNotify.
func (s *Service) Decide(ctx context.Context, req DecisionRequest, reviewer string) (*Request, error) {
	status, ok := statusFor(req.Action)
	if !ok {
		return nil, validate.Collect(validate.OneOf("action", req.Action, ActionApprove, ActionDeny))
	}
	id, err := uuid.Parse(req.RequestID)
	if err != nil {
		return nil, validate.Collect(&validate.FieldError{Field: "requestId", Message: "must be a valid id"})
	}

	r, err := s.repo.Review(ctx, id, status, reviewer)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotPending) {
			return nil, err
		}
		return nil, fmt.Errorf("review access request: %w", err)
	}

	templateID := notification.TemplateAccessDenied
	data := map[string]string{"name": r.Name}
	if status == StatusApproved {
		templateID = notification.TemplateAccessApproved
		data["walkthrough_url"] = s.cfg.AppURL + "/walkthrough"
	}
	if err := s.mailer.SendTemplate(ctx, templateID, r.Email, data); err != nil {
		s.logger.Error().Err(err).Str("request_id", r.ID.String()).Str("status", string(status)).
			Msg("access decision saved but email failed")
		return r, fmt.Errorf("%w: %v", ErrNotify, err)
	}

	s.logger.Info().Str("request_id", r.ID.String()).Str("status", string(status)).Str("reviewer", reviewer).
		Msg("access request reviewed")
	return r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Request, int, error) {
	if status != "" && !validStatus(status) {
		return nil, 0, validate.Collect(validate.OneOf("status", status,
			string(StatusPending), string(StatusApproved), string(StatusDenied)))
	}
	return s.repo.List(ctx, Status(status), limit, offset)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
