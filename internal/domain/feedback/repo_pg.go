package feedback

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

const entryCols = `id, COALESCE(user_id, ''), COALESCE(page, ''), rating, category, COALESCE(comment, ''), created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.Page, &e.Rating, &e.Category, &e.Comment, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	return r.conn.QueryRow(ctx, `
		INSERT INTO feedback (id, user_id, page, rating, category, comment)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, NULLIF($6, ''))
		RETURNING created_at`,
		e.ID, e.UserID, e.Page, e.Rating, e.Category, e.Comment).Scan(&e.CreatedAt)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn.Query(ctx, `SELECT `+entryCols+` FROM feedback
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Summary(ctx context.Context) (*Summary, error) {
	s := &Summary{ByCategory: make(map[string]int)}
	if err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8 FROM feedback`).Scan(&s.Count, &s.AverageRating); err != nil {
		return nil, err
	}
	rows, err := r.conn.Query(ctx, `SELECT category, COUNT(*) FROM feedback GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		s.ByCategory[category] = n
	}
	return s, rows.Err()
}
