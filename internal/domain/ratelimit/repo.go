package ratelimit

import (
	"context"
	"time"
)

type ViolationRepository interface {
	Create(ctx context.Context, v *Violation) error
	List(ctx context.Context, limit, offset int) ([]*Violation, int, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
