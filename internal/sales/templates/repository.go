package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sistema-orcamento/orcamento/internal/platform/db"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Template, error)
	List(ctx context.Context) ([]Summary, error)
	Create(ctx context.Context, name, description string) (int64, error)
	UpdateHeader(ctx context.Context, id int64, name, description string) error
	InsertItem(ctx context.Context, templateID int64, position int, productID int64, quantity decimal.Decimal) error
	InsertClause(ctx context.Context, templateID int64, position int, clauseID int64) error
	DeleteItems(ctx context.Context, templateID int64) error
	DeleteClauses(ctx context.Context, templateID int64) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (*Template, error) {
	var t Template
	err := r.db.QueryRow(ctx, `SELECT id, name, description FROM quote_templates WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: template %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT ti.product_id, p.description, p.unit_price, p.tariff_code, ti.quantity
		FROM quote_template_items ti
		JOIN products p ON p.id = ti.product_id
		WHERE ti.template_id = $1
		ORDER BY ti.position ASC, ti.id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("get template items: %w", err)
	}
	t.Items = make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Description, &it.UnitPrice, &it.TariffCode, &it.Quantity); err != nil {
			rows.Close()
			return nil, err
		}
		t.Items = append(t.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx, `
		SELECT c.id, c.title, c.body
		FROM quote_template_clauses tc
		JOIN clauses c ON c.id = tc.clause_id
		WHERE tc.template_id = $1
		ORDER BY tc.position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("get template clauses: %w", err)
	}
	defer rows.Close()
	t.Clauses = make([]Clause, 0)
	for rows.Next() {
		var c Clause
		if err := rows.Scan(&c.ClauseID, &c.Title, &c.Body); err != nil {
			return nil, err
		}
		t.Clauses = append(t.Clauses, c)
	}
	return &t, rows.Err()
}

func (r *repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.name, t.description,
		       (SELECT COUNT(*) FROM quote_template_items ti WHERE ti.template_id = t.id),
		       (SELECT COUNT(*) FROM quote_template_clauses tc WHERE tc.template_id = t.id)
		FROM quote_templates t
		ORDER BY t.name ASC, t.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.ItemCount, &s.ClauseCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quote_templates (name, description) VALUES ($1, $2) RETURNING id`,
		name, description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert template: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, id int64, name, description string) error {
	tag, err := r.db.Exec(ctx, `UPDATE quote_templates SET name = $2, description = $3 WHERE id = $1`, id, name, description)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: template %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, templateID int64, position int, productID int64, quantity decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quote_template_items (template_id, product_id, quantity, position)
		VALUES ($1, $2, $3, $4)`, templateID, productID, quantity, position)
	if err != nil {
		return fmt.Errorf("insert template item: %w", err)
	}
	return nil
}

func (r *repository) InsertClause(ctx context.Context, templateID int64, position int, clauseID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quote_template_clauses (template_id, clause_id, position)
		VALUES ($1, $2, $3)`, templateID, clauseID, position)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: clause %d listed twice", shared.ErrValidation, clauseID)
	}
	if err != nil {
		return fmt.Errorf("insert template clause: %w", err)
	}
	return nil
}

func (r *repository) DeleteItems(ctx context.Context, templateID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quote_template_items WHERE template_id = $1`, templateID)
	return err
}

func (r *repository) DeleteClauses(ctx context.Context, templateID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quote_template_clauses WHERE template_id = $1`, templateID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quote_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: template %d", shared.ErrNotFound, id)
	}
	return nil
}
