package access

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// List filters by status when it is non-empty. Newest first.
	List(ctx context.Context, status Status, limit, offset int) ([]*Request, int, error)
	// Review moves a pending request to status. It returns ErrNotPending
	// when the row exists but was already reviewed.
	Review(ctx context.Context, id uuid.UUID, status Status, reviewer string) (*Request, error)
}
