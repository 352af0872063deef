package company

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Get(ctx context.Context) (Profile, error)
	Update(ctx context.Context, p Profile) (Profile, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Get returns the singleton profile; a missing row yields an empty profile.
func (r *repository) Get(ctx context.Context) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		INSERT INTO company_profile (id) VALUES (1) ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING trade_name, legal_name, tax_id, full_address, contact_phone, contact_email, website, logo_url`,
	).Scan(&p.TradeName, &p.LegalName, &p.TaxID, &p.FullAddress, &p.ContactPhone, &p.ContactEmail, &p.Website, &p.LogoURL)
	return p, err
}

func (r *repository) Update(ctx context.Context, p Profile) (Profile, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO company_profile (id, trade_name, legal_name, tax_id, full_address, contact_phone, contact_email, website, logo_url)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			trade_name = EXCLUDED.trade_name,
			legal_name = EXCLUDED.legal_name,
			tax_id = EXCLUDED.tax_id,
			full_address = EXCLUDED.full_address,
			contact_phone = EXCLUDED.contact_phone,
			contact_email = EXCLUDED.contact_email,
			website = EXCLUDED.website,
			logo_url = EXCLUDED.logo_url`,
		p.TradeName, p.LegalName, p.TaxID, p.FullAddress, p.ContactPhone, p.ContactEmail, p.Website, p.LogoURL)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}
