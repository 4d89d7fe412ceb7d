package roles

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/db"
)

type repoPG struct{ conn db.Querier }

func NewRepoPG(conn db.Querier) Repository {
	return &repoPG{conn: conn}
}

const roleCols = `id, user_id, role, created_at`

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.UserID, &a.Role, &a.CreatedAt)
	return &a, err
}

func (r *repoPG) ListByUser(ctx context.Context, userID string) ([]*Assignment, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+roleCols+` FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) Grant(ctx context.Context, a *Assignment) error {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO UPDATE SET role = EXCLUDED.role
		RETURNING `+roleCols, a.UserID, a.Role)
	stored, err := scanAssignment(row)
	if err != nil {
		return err
	}
	*a = *stored
	return nil
}

func (r *repoPG) Revoke(ctx context.Context, userID, role string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
