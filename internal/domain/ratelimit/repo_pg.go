package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/db"
)

type violationRepoPG struct{ conn db.Querier }

func NewViolationRepoPG(conn db.Querier) ViolationRepository {
	return &violationRepoPG{conn: conn}
}

const violationCols = `id, identifier, endpoint, request_count, created_at`

func (r *violationRepoPG) scanViolation(row pgx.Row) (*Violation, error) {
	var v Violation
	err := row.Scan(&v.ID, &v.Identifier, &v.Endpoint, &v.RequestCount, &v.CreatedAt)
	return &v, err
}

func (r *violationRepoPG) Create(ctx context.Context, v *Violation) error {
	v.ID = uuid.New()
	return r.conn.QueryRow(ctx, `
		INSERT INTO rate_limit_violations (id, identifier, endpoint, request_count)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		v.ID, v.Identifier, v.Endpoint, v.RequestCount).Scan(&v.CreatedAt)
}

func (r *violationRepoPG) List(ctx context.Context, limit, offset int) ([]*Violation, int, error) {
	var total int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM rate_limit_violations`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn.Query(ctx, `SELECT `+violationCols+` FROM rate_limit_violations
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Violation
	for rows.Next() {
		v, err := r.scanViolation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func (r *violationRepoPG) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM rate_limit_violations WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
