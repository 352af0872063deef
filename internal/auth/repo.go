package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	CountUsers(ctx context.Context) (int, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) (*User, error)
	Update(ctx context.Context, u User) (*User, error)
	Delete(ctx context.Context, id int64) error
	CountAuthoredQuotes(ctx context.Context, id int64) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, COALESCE(phone, ''), COALESCE(job_title, ''), created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.JobTitle, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// FindByEmail fetches a user by email, ignoring case.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return u, err
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return u, err
}

func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PGRepository) Create(ctx context.Context, u User) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role, phone, job_title)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.JobTitle))
}

func (r *PGRepository) Update(ctx context.Context, u User) (*User, error) {
	updated, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET name = $1, email = $2, password_hash = $3, role = $4,
		       phone = NULLIF($5, ''), job_title = NULLIF($6, '')
		WHERE id = $7
		RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.JobTitle, u.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", shared.ErrNotFound, u.ID)
	}
	return updated, err
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *PGRepository) CountAuthoredQuotes(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes WHERE author_id = $1`, id).Scan(&n)
	return n, err
}

var _ Repository = (*PGRepository)(nil)
