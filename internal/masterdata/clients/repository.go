package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type Repository interface {
	List(ctx context.Context, search string) ([]Client, error)
	Get(ctx context.Context, id int64) (Client, error)
	TaxIDTaken(ctx context.Context, taxID string, excludeID int64) (bool, error)
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) (Client, error)
	Delete(ctx context.Context, id int64) error
	CountQuotes(ctx context.Context, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, name, COALESCE(tax_id, ''), COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(postal_code, ''), COALESCE(street, ''), COALESCE(number, ''), COALESCE(complement, ''),
	COALESCE(district, ''), COALESCE(city, ''), COALESCE(state, '')`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.PostalCode,
		&c.Street, &c.Number, &c.Complement, &c.District, &c.City, &c.State)
	return c, err
}

func (r *repository) List(ctx context.Context, search string) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	var args []any
	if search != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	items := make([]Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, fmt.Errorf("%w: client %d", shared.ErrNotFound, id)
	}
	return c, err
}

func (r *repository) TaxIDTaken(ctx context.Context, taxID string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clients WHERE tax_id = $1 AND id <> $2)`, taxID, excludeID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, c Client) (Client, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (name, tax_id, email, phone, postal_code, street, number, complement, district, city, state)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
		        NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''))
		RETURNING id`,
		c.Name, c.TaxID, c.Email, c.Phone, c.PostalCode, c.Street, c.Number, c.Complement, c.District, c.City, c.State,
	).Scan(&c.ID)
	if err != nil {
		return Client{}, err
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, c Client) (Client, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clients SET name = $1, tax_id = NULLIF($2, ''), email = NULLIF($3, ''), phone = NULLIF($4, ''),
		       postal_code = NULLIF($5, ''), street = NULLIF($6, ''), number = NULLIF($7, ''),
		       complement = NULLIF($8, ''), district = NULLIF($9, ''), city = NULLIF($10, ''), state = NULLIF($11, '')
		WHERE id = $12`,
		c.Name, c.TaxID, c.Email, c.Phone, c.PostalCode, c.Street, c.Number, c.Complement, c.District, c.City, c.State, c.ID,
	)
	if err != nil {
		return Client{}, err
	}
	if tag.RowsAffected() == 0 {
		return Client{}, fmt.Errorf("%w: client %d", shared.ErrNotFound, c.ID)
	}
	return c, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: client %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) CountQuotes(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes WHERE client_id = $1`, id).Scan(&n)
	return n, err
}
