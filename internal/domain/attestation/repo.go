package attestation

import (
	"context"

	"github.com/google/uuid"
)

type GroupRepository interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)
	List(ctx context.Context, limit, offset int) ([]*Group, int, error)
	ListAll(ctx context.Context) ([]*Group, error)
}

type AttestationRepository interface {
	Create(ctx context.Context, a *Attestation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Attestation, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Attestation, int, error)
	// AllByGroup returns every attestation of a group, oldest first.
	AllByGroup(ctx context.Context, groupID uuid.UUID) ([]*Attestation, error)
}
