package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/db"
)

type repoPG struct{ conn db.Querier }

func NewRepoPG(conn db.Querier) Repository {
	return &repoPG{conn: conn}
}

const requestCols = `id, name, email, COALESCE(organization, ''), COALESCE(role, ''),
	COALESCE(reason, ''), status, reviewed_by, reviewed_at, created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Organization, &r.Role, &r.Reason,
		&r.Status, &r.ReviewedBy, &r.ReviewedAt, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (p *repoPG) Create(ctx context.Context, r *Request) error {
	r.ID = uuid.New()
	r.Status = StatusPending
	return p.conn.QueryRow(ctx, `
		INSERT INTO walkthrough_access_requests (id, name, email, organization, role, reason, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
		RETURNING created_at, updated_at`,
		r.ID, r.Name, r.Email, r.Organization, r.Role, r.Reason, r.Status,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
}

func (p *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	r, err := scanRequest(p.conn.QueryRow(ctx,
		`SELECT `+requestCols+` FROM walkthrough_access_requests WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return r, err
}

func (p *repoPG) List(ctx context.Context, status Status, limit, offset int) ([]*Request, int, error) {
	var total int
	if err := p.conn.QueryRow(ctx, `SELECT COUNT(*) FROM walkthrough_access_requests
		WHERE ($1 = '' OR status = $1)`, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.conn.Query(ctx, `SELECT `+requestCols+` FROM walkthrough_access_requests
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, rows.Err()
}

func (p *repoPG) Review(ctx context.Context, id uuid.UUID, status Status, reviewer string) (*Request, error) {
	r, err := scanRequest(p.conn.QueryRow(ctx, `
		UPDATE walkthrough_access_requests
		SET status = $2, reviewed_by = $3, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestCols, id, status, reviewer))
	if db.IsNoRows(err) {
		if _, getErr := p.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotPending
	}
	return r, err
}
