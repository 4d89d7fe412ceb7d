// Package access manages requests from prospective viewers to see the
// clinical walkthrough. Admins approve or deny them and the requester is told
// by email.
package access

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

const (
	ActionApprove = "approve"
	ActionDeny    = "deny"
)

var (
	ErrNotFound   = errors.New("access request not found")
	ErrNotPending = errors.New("access request has already been reviewed")
	// ErrNotify means the decision was stored but the requester could not
	// be emailed.
	ErrNotify = errors.New("decision saved but notification email failed")
)

// Request is one row of walkthrough_access_requests.
type Request struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Organization string     `json:"organization,omitempty"`
	Role         string     `json:"role,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	Status       Status     `json:"status"`
	ReviewedBy   *string    `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// SubmitRequest is the public form body.
type SubmitRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
	Reason       string `json:"reason"`
}

// Normalize strips markup and surrounding whitespace and lower-cases the
// email address.
func (r *SubmitRequest) Normalize() {
	r.Name = validate.Text(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Organization = validate.Text(r.Organization)
	r.Role = validate.Text(r.Role)
	r.Reason = validate.Text(r.Reason)
}

func (r SubmitRequest) Validate() error {
	return validate.Collect(
		validate.Length("name", r.Name, 1, 100),
		validate.Email("email", r.Email),
		validate.MaxLength("organization", r.Organization, 200),
		validate.MaxLength("role", r.Role, 100),
		validate.MaxLength("reason", r.Reason, 1000),
	)
}

// DecisionRequest is the admin's approve or deny call.
type DecisionRequest struct {
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
}

// DecisionResponse mirrors what the dashboard expects back.
type DecisionResponse struct {
	Success bool   `json:"success"`
	Status  Status `json:"status"`
}

func statusFor(action string) (Status, bool) {
	switch action {
	case ActionApprove:
		return StatusApproved, true
	case ActionDeny:
		return StatusDenied, true
	}
	return "", false
}

func validStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	}
	return false
}
