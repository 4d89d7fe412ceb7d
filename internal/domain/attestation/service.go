package attestation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	groups       GroupRepository
	attestations AttestationRepository
	logger       zerolog.Logger
}

func NewService(groups GroupRepository, attestations AttestationRepository, logger zerolog.Logger) *Service {
	return &Service{groups: groups, attestations: attestations, logger: logger}
}

func (s *Service) CreateGroup(ctx context.Context, req CreateGroupRequest, createdBy string) (*Group, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}
	g := &Group{Name: req.Name, Description: req.Description, CreatedBy: createdBy}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create attestation group: %w", err)
	}
	return g, nil
}

func (s *Service) GetGroup(ctx context.Context, id uuid.UUID) (*Group, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *Service) ListGroups(ctx context.Context, limit, offset int) ([]*Group, int, error) {
	return s.groups.List(ctx, limit, offset)
}

// Attest records a signed attestation in groupID. The group must exist and
// the attestor must have acknowledged the statement.
func (s *Service) Attest(ctx context.Context, groupID uuid.UUID, req AttestRequest, client Client) (*Attestation, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	a := &Attestation{
		GroupID:         groupID,
		AttestorName:    req.AttestorName,
		AttestorEmail:   req.AttestorEmail,
		Organization:    req.Organization,
		PatentReference: req.PatentReference,
		Statement:       req.Statement,
		Signature:       req.Signature,
		Acknowledged:    true,
		IPAddress:       truncate(client.IPAddress, 64),
		UserAgent:       truncate(client.UserAgent, 512),
	}
	if err := s.attestations.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create attestation: %w", err)
	}
	s.logger.Info().Str("group_id", groupID.String()).Str("attestation_id", a.ID.String()).Msg("attestation recorded")
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Attestation, error) {
	return s.attestations.GetByID(ctx, id)
}

func (s *Service) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Attestation, int, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, 0, err
	}
	return s.attestations.ListByGroup(ctx, groupID, limit, offset)
}

// Export builds an XLSX workbook with one sheet per group. With no ids every
// group is exported.
func (s *Service) Export(ctx context.Context, groupIDs ...uuid.UUID) ([]byte, error) {
	var groups []*Group
	if len(groupIDs) == 0 {
		all, err := s.groups.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list attestation groups: %w", err)
		}
		groups = all
	}
	for _, id := range groupIDs {
		g, err := s.groups.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	sheets := make([]sheet, 0, len(groups))
	for _, g := range groups {
		rows, err := s.attestations.AllByGroup(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list attestations for %s: %w", g.ID, err)
		}
		sheets = append(sheets, sheet{group: g, rows: rows})
	}
	return buildWorkbook(sheets)
}
