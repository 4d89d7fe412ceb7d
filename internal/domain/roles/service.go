package roles

import (
	"context"
	"fmt"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RolesForUser implements auth.RoleResolver. Authenticated users without any
// stored assignment are plain users.
func (s *Service) RolesForUser(ctx context.Context, userID string) ([]string, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	if len(items) == 0 {
		return []string{auth.RoleUser}, nil
	}
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.Role)
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*Assignment, error) {
	if err := validate.Length("userId", userID, 1, 255); err != nil {
		return nil, validate.Collect(err)
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Grant(ctx context.Context, req GrantRequest) (*Assignment, error) {
	if err := validateAssignment(req.UserID, req.Role); err != nil {
		return nil, err
	}
	a := &Assignment{UserID: req.UserID, Role: req.Role}
	if err := s.repo.Grant(ctx, a); err != nil {
		return nil, fmt.Errorf("grant role: %w", err)
	}
	return a, nil
}

func (s *Service) Revoke(ctx context.Context, userID, role string) error {
	if err := validateAssignment(userID, role); err != nil {
		return err
	}
	return s.repo.Revoke(ctx, userID, role)
}

func validateAssignment(userID, role string) error {
	return validate.Collect(
		validate.Length("userId", userID, 1, 255),
		validate.OneOf("role", role, auth.RoleAdmin, auth.RolePresenter, auth.RoleUser),
	)
}

var _ auth.RoleResolver = (*Service)(nil)
