package clauses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type Repository interface {
	List(ctx context.Context, search string) ([]Clause, error)
	Get(ctx context.Context, id int64) (Clause, error)
	TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error)
	Create(ctx context.Context, c Clause) (Clause, error)
	Update(ctx context.Context, c Clause) (Clause, error)
	Delete(ctx context.Context, id int64) error
	CountReferences(ctx context.Context, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, search string) ([]Clause, error) {
	query := `SELECT id, title, body FROM clauses`
	var args []any
	if search != "" {
		query += ` WHERE title ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY title ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clauses: %w", err)
	}
	defer rows.Close()

	items := make([]Clause, 0)
	for rows.Next() {
		var c Clause
		if err := rows.Scan(&c.ID, &c.Title, &c.Body); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Clause, error) {
	var c Clause
	err := r.pool.QueryRow(ctx, `SELECT id, title, body FROM clauses WHERE id = $1`, id).Scan(&c.ID, &c.Title, &c.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Clause{}, fmt.Errorf("%w: clause %d", shared.ErrNotFound, id)
	}
	return c, err
}

func (r *repository) TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clauses WHERE lower(title) = lower($1) AND id <> $2)`,
		title, excludeID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, c Clause) (Clause, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO clauses (title, body) VALUES ($1, $2) RETURNING id`, c.Title, c.Body).Scan(&c.ID)
	if err != nil {
		return Clause{}, err
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, c Clause) (Clause, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE clauses SET title = $1, body = $2 WHERE id = $3`, c.Title, c.Body, c.ID)
	if err != nil {
		return Clause{}, err
	}
	if tag.RowsAffected() == 0 {
		return Clause{}, fmt.Errorf("%w: clause %d", shared.ErrNotFound, c.ID)
	}
	return c, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clauses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: clause %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) CountReferences(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM quote_clauses WHERE clause_id = $1)
		     + (SELECT COUNT(*) FROM quote_template_clauses WHERE clause_id = $1)`, id).Scan(&n)
	return n, err
}
