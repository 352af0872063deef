package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type Repository interface {
	List(ctx context.Context, search string) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	// DescriptionTaken reports whether another product (id != excludeID) uses description, ignoring case.
	DescriptionTaken(ctx context.Context, description string, excludeID int64) (bool, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
	// CountReferences counts quote and template lines pointing at the product.
	CountReferences(ctx context.Context, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, description, tariff_code, unit_price`

func (r *repository) List(ctx context.Context, search string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var args []any
	if search != "" {
		query += ` WHERE description ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY description ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Description, &p.TariffCode, &p.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Description, &p.TariffCode, &p.UnitPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return p, err
}

func (r *repository) DescriptionTaken(ctx context.Context, description string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE lower(description) = lower($1) AND id <> $2)`,
		description, excludeID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (description, tariff_code, unit_price) VALUES ($1, $2, $3) RETURNING id`,
		p.Description, p.TariffCode, p.UnitPrice).Scan(&p.ID)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, p Product) (Product, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET description = $1, tariff_code = $2, unit_price = $3 WHERE id = $4`,
		p.Description, p.TariffCode, p.UnitPrice, p.ID)
	if err != nil {
		return Product{}, err
	}
	if tag.RowsAffected() == 0 {
		return Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, p.ID)
	}
	return p, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) CountReferences(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM quote_items WHERE product_id = $1)
		     + (SELECT COUNT(*) FROM quote_template_items WHERE product_id = $1)`, id).Scan(&n)
	return n, err
}
