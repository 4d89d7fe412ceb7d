package roles

import "context"

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]*Assignment, error)
	// Grant is idempotent: granting an existing role returns the stored row.
	Grant(ctx context.Context, a *Assignment) error
	Revoke(ctx context.Context, userID, role string) error
}
