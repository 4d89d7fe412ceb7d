package ratelimit

import (
	"time"

	"github.com/google/uuid"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

// Limit is a fixed-window quota.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// Decision is the outcome of counting one request against a Limit.
type Decision struct {
	Allowed    bool          `json:"allowed"`
	Count      int64         `json:"count"`
	Remaining  int64         `json:"remaining"`
	RetryAfter time.Duration `json:"-"`
	// RetryAfterSeconds is set only when the request was refused.
	RetryAfterSeconds int `json:"retryAfterSeconds,omitempty"`
}

// Violation is a persisted record of a refused request.
type Violation struct {
	ID           uuid.UUID `json:"id"`
	Identifier   string    `json:"identifier"`
	Endpoint     string    `json:"endpoint"`
	RequestCount int       `json:"requestCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CheckRequest is the body of POST /rate-limit/check.
type CheckRequest struct {
	Identifier    string `json:"identifier"`
	Endpoint      string `json:"endpoint"`
	MaxRequests   int    `json:"maxRequests"`
	WindowMinutes int    `json:"windowMinutes"`
}

func (r CheckRequest) Validate() error {
	return validate.Collect(
		validate.Length("identifier", r.Identifier, 1, 255),
		validate.Length("endpoint", r.Endpoint, 1, 255),
		validate.Range("maxRequests", r.MaxRequests, 1, 10000),
		validate.Range("windowMinutes", r.WindowMinutes, 1, 1440),
	)
}

func (r CheckRequest) Limit() Limit {
	return Limit{MaxRequests: r.MaxRequests, Window: time.Duration(r.WindowMinutes) * time.Minute}
}

// LogRequest is the body of POST /rate-limit/violations.
type LogRequest struct {
	Identifier   string `json:"identifier"`
	Endpoint     string `json:"endpoint"`
	RequestCount int    `json:"requestCount"`
}

func (r LogRequest) Validate() error {
	return validate.Collect(
		validate.Length("identifier", r.Identifier, 1, 255),
		validate.Length("endpoint", r.Endpoint, 1, 255),
		validate.Range("requestCount", r.RequestCount, 0, 1<<30),
	)
}
