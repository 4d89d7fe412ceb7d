package attestation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/db"
)

// =========== Group Repository ===========

type groupRepoPG struct{ conn db.Querier }

func NewGroupRepoPG(conn db.Querier) GroupRepository {
	return &groupRepoPG{conn: conn}
}

const groupCols = `g.id, g.name, COALESCE(g.description, ''), COALESCE(g.created_by, ''), g.created_at,
	(SELECT COUNT(*) FROM patent_attestations a WHERE a.group_id = g.id)`

func scanGroup(row pgx.Row) (*Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.AttestationCount)
	return &g, err
}

func (r *groupRepoPG) Create(ctx context.Context, g *Group) error {
	g.ID = uuid.New()
	return r.conn.QueryRow(ctx, `
		INSERT INTO attestation_groups (id, name, description, created_by)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		RETURNING created_at`,
		g.ID, g.Name, g.Description, g.CreatedBy).Scan(&g.CreatedAt)
}

func (r *groupRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Group, error) {
	g, err := scanGroup(r.conn.QueryRow(ctx, `SELECT `+groupCols+` FROM attestation_groups g WHERE g.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrGroupNotFound
	}
	return g, err
}

func (r *groupRepoPG) List(ctx context.Context, limit, offset int) ([]*Group, int, error) {
	var total int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM attestation_groups`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+groupCols+` FROM attestation_groups g
		ORDER BY g.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

func (r *groupRepoPG) ListAll(ctx context.Context) ([]*Group, error) {
	return r.query(ctx, `SELECT `+groupCols+` FROM attestation_groups g ORDER BY g.created_at`)
}

func (r *groupRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Group, error) {
	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

// =========== Attestation Repository ===========

type attestationRepoPG struct{ conn db.Querier }

func NewAttestationRepoPG(conn db.Querier) AttestationRepository {
	return &attestationRepoPG{conn: conn}
}

const attestationCols = `id, group_id, attestor_name, attestor_email, COALESCE(organization, ''),
	COALESCE(patent_reference, ''), COALESCE(statement, ''), signature, acknowledged,
	COALESCE(ip_address, ''), COALESCE(user_agent, ''), attested_at`

func scanAttestation(row pgx.Row) (*Attestation, error) {
	var a Attestation
	err := row.Scan(&a.ID, &a.GroupID, &a.AttestorName, &a.AttestorEmail, &a.Organization,
		&a.PatentReference, &a.Statement, &a.Signature, &a.Acknowledged,
		&a.IPAddress, &a.UserAgent, &a.AttestedAt)
	return &a, err
}

func (r *attestationRepoPG) Create(ctx context.Context, a *Attestation) error {
	a.ID = uuid.New()
	return r.conn.QueryRow(ctx, `
		INSERT INTO patent_attestations (id, group_id, attestor_name, attestor_email, organization,
			patent_reference, statement, signature, acknowledged, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9,
			NULLIF($10, ''), NULLIF($11, ''))
		RETURNING attested_at`,
		a.ID, a.GroupID, a.AttestorName, a.AttestorEmail, a.Organization,
		a.PatentReference, a.Statement, a.Signature, a.Acknowledged, a.IPAddress, a.UserAgent,
	).Scan(&a.AttestedAt)
}

func (r *attestationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Attestation, error) {
	a, err := scanAttestation(r.conn.QueryRow(ctx, `SELECT `+attestationCols+` FROM patent_attestations WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrAttestationNotFound
	}
	return a, err
}

func (r *attestationRepoPG) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Attestation, int, error) {
	var total int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM patent_attestations WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+attestationCols+` FROM patent_attestations
		WHERE group_id = $1 ORDER BY attested_at DESC LIMIT $2 OFFSET $3`, groupID, limit, offset)
	return items, total, err
}

func (r *attestationRepoPG) AllByGroup(ctx context.Context, groupID uuid.UUID) ([]*Attestation, error) {
	return r.query(ctx, `SELECT `+attestationCols+` FROM patent_attestations
		WHERE group_id = $1 ORDER BY attested_at`, groupID)
}

func (r *attestationRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Attestation, error) {
	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Attestation
	for rows.Next() {
		a, err := scanAttestation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
