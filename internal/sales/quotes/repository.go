package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistema-orcamento/orcamento/internal/masterdata/clients"
	"github.com/sistema-orcamento/orcamento/internal/platform/db"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// Repository persists quotes. Multi-row writes run inside WithTx.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, search string) ([]Summary, error)
	// Create inserts the header and returns the new id and creation timestamp.
	Create(ctx context.Context, q Quote) (int64, time.Time, error)
	// UpdateHeader replaces header fields, increments the revision and returns it.
	// Only a stored DRAFT is written; otherwise ErrQuoteLocked.
	UpdateHeader(ctx context.Context, q Quote) (int, error)
	// UpdateStatus moves a stored DRAFT to status; otherwise ErrQuoteLocked.
	UpdateStatus(ctx context.Context, id int64, status Status) error
	InsertItem(ctx context.Context, quoteID int64, position int, item Item) error
	InsertClause(ctx context.Context, quoteID int64, position int, clauseID int64) error
	DeleteItems(ctx context.Context, quoteID int64) error
	DeleteClauses(ctx context.Context, quoteID int64) error
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

func dateOrNil(d *shared.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func fromPGDate(d pgtype.Date) *shared.Date {
	if !d.Valid {
		return nil
	}
	v := shared.NewDate(d.Time)
	return &v
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	var (
		q          Quote
		c          clients.Client
		validUntil pgtype.Date
		authorID   pgtype.Int8
		authorName pgtype.Text
		authorMail pgtype.Text
	)
	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.client_id, o.author_id, o.status, o.revision, o.valid_until,
		       COALESCE(o.notes, ''), COALESCE(o.contact_name, ''), COALESCE(o.contact_email, ''),
		       o.created_at, o.total,
		       c.name, COALESCE(c.tax_id, ''), COALESCE(c.email, ''), COALESCE(c.phone, ''),
		       COALESCE(c.postal_code, ''), COALESCE(c.street, ''), COALESCE(c.number, ''),
		       COALESCE(c.complement, ''), COALESCE(c.district, ''), COALESCE(c.city, ''), COALESCE(c.state, ''),
		       u.name, u.email
		FROM quotes o
		JOIN clients c ON c.id = o.client_id
		LEFT JOIN users u ON u.id = o.author_id
		WHERE o.id = $1`, id,
	).Scan(
		&q.ID, &q.ClientID, &authorID, &q.Status, &q.Revision, &validUntil,
		&q.Notes, &q.ContactName, &q.ContactEmail,
		&q.CreatedAt, &q.Total,
		&c.Name, &c.TaxID, &c.Email, &c.Phone,
		&c.PostalCode, &c.Street, &c.Number,
		&c.Complement, &c.District, &c.City, &c.State,
		&authorName, &authorMail,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: quote %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	c.ID = q.ClientID
	q.Client = &c
	q.ValidUntil = fromPGDate(validUntil)
	if authorID.Valid {
		q.AuthorID = &authorID.Int64
		q.Author = &Author{ID: authorID.Int64, Name: authorName.String, Email: authorMail.String}
	}

	if q.Items, err = r.items(ctx, id); err != nil {
		return nil, err
	}
	if q.Clauses, err = r.clauses(ctx, id); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) items(ctx context.Context, quoteID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.product_id, p.description, i.quantity, i.unit_price, i.tariff_code, i.discount_percent
		FROM quote_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.quote_id = $1
		ORDER BY i.position ASC, i.id ASC`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("get quote items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TariffCode, &it.DiscountPercent); err != nil {
			return nil, err
		}
		items = append(items, it.withSubtotal())
	}
	return items, rows.Err()
}

func (r *repository) clauses(ctx context.Context, quoteID int64) ([]ClauseRef, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.title, c.body
		FROM quote_clauses qc
		JOIN clauses c ON c.id = qc.clause_id
		WHERE qc.quote_id = $1
		ORDER BY qc.position ASC`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("get quote clauses: %w", err)
	}
	defer rows.Close()

	refs := make([]ClauseRef, 0)
	for rows.Next() {
		var c ClauseRef
		if err := rows.Scan(&c.ClauseID, &c.Title, &c.Body); err != nil {
			return nil, err
		}
		refs = append(refs, c)
	}
	return refs, rows.Err()
}

// List filters by client name or quote id (case-insensitive substring), newest first.
func (r *repository) List(ctx context.Context, search string) ([]Summary, error) {
	query := `
		SELECT o.id, o.client_id, c.name, COALESCE(u.name, ''), o.status, o.revision, o.valid_until, o.created_at, o.total
		FROM quotes o
		JOIN clients c ON c.id = o.client_id
		LEFT JOIN users u ON u.id = o.author_id`
	var args []any
	if search != "" {
		query += ` WHERE c.name ILIKE $1 OR CAST(o.id AS TEXT) ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY o.id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			s          Summary
			validUntil pgtype.Date
		)
		if err := rows.Scan(&s.ID, &s.ClientID, &s.ClientName, &s.AuthorName, &s.Status, &s.Revision, &validUntil, &s.CreatedAt, &s.Total); err != nil {
			return nil, err
		}
		s.ValidUntil = fromPGDate(validUntil)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quote) (int64, time.Time, error) {
	var (
		id        int64
		createdAt time.Time
	)
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotes (client_id, author_id, status, revision, valid_until, notes, contact_name, contact_email, total)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9)
		RETURNING id, created_at`,
		q.ClientID, q.AuthorID, q.Status, q.Revision, dateOrNil(q.ValidUntil),
		q.Notes, q.ContactName, q.ContactEmail, q.Total,
	).Scan(&id, &createdAt)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("insert quote: %w", err)
	}
	return id, createdAt, nil
}

func (r *repository) UpdateHeader(ctx context.Context, q Quote) (int, error) {
	var revision int
	err := r.db.QueryRow(ctx, `
		UPDATE quotes
		SET client_id = $1, valid_until = $2, notes = NULLIF($3, ''), contact_name = NULLIF($4, ''),
		    contact_email = NULLIF($5, ''), total = $6, revision = revision + 1
		WHERE id = $7 AND status = $8
		RETURNING revision`,
		q.ClientID, dateOrNil(q.ValidUntil), q.Notes, q.ContactName, q.ContactEmail, q.Total, q.ID, StatusDraft,
	).Scan(&revision)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.notWritable(ctx, q.ID)
	}
	if err != nil {
		return 0, fmt.Errorf("update quote: %w", err)
	}
	return revision, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotes SET status = $1 WHERE id = $2 AND status = $3`, status, id, StatusDraft)
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.notWritable(ctx, id)
	}
	return nil
}

// notWritable explains a conditional write that matched no row: the quote is gone
// or has left DRAFT since it was read.
func (r *repository) notWritable(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check quote: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: quote %d", shared.ErrNotFound, id)
	}
	return fmt.Errorf("quote %d: %w", id, ErrQuoteLocked)
}

func (r *repository) InsertItem(ctx context.Context, quoteID int64, position int, it Item) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quote_items (quote_id, product_id, quantity, unit_price, tariff_code, discount_percent, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		quoteID, it.ProductID, it.Quantity, it.UnitPrice, it.TariffCode, it.DiscountPercent, position)
	if err != nil {
		return fmt.Errorf("insert quote item: %w", err)
	}
	return nil
}

func (r *repository) InsertClause(ctx context.Context, quoteID int64, position int, clauseID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO quote_clauses (quote_id, clause_id, position) VALUES ($1, $2, $3)`,
		quoteID, clauseID, position)
	if err != nil {
		return fmt.Errorf("insert quote clause: %w", err)
	}
	return nil
}

func (r *repository) DeleteItems(ctx context.Context, quoteID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, quoteID)
	return err
}

func (r *repository) DeleteClauses(ctx context.Context, quoteID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quote_clauses WHERE quote_id = $1`, quoteID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote %d", shared.ErrNotFound, id)
	}
	return nil
}
