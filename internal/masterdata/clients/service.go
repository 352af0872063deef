package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/sistema-orcamento/orcamento/internal/platform/db"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search string) ([]Client, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req ClientRequest) (Client, error) {
	c, err := s.prepare(ctx, 0, req)
	if err != nil {
		return Client{}, err
	}
	created, err := s.repo.Create(ctx, c)
	if db.IsUniqueViolation(err) {
		return Client{}, duplicateTaxID(c.TaxID)
	}
	return created, err
}

func (s *Service) Update(ctx context.Context, id int64, req ClientRequest) (Client, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Client{}, err
	}
	c, err := s.prepare(ctx, id, req)
	if err != nil {
		return Client{}, err
	}
	updated, err := s.repo.Update(ctx, c)
	if db.IsUniqueViolation(err) {
		return Client{}, duplicateTaxID(c.TaxID)
	}
	return updated, err
}

// Delete refuses while any quote is addressed to the client.
func (s *Service) Delete(ctx context.Context, id int64) error {
	n, err := s.repo.CountQuotes(ctx, id)
	if err != nil {
		return fmt.Errorf("count client quotes: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: client %d has %d quote(s)", shared.ErrInUse, id, n)
	}
	err = s.repo.Delete(ctx, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: client %d is referenced", shared.ErrInUse, id)
	}
	return err
}

func (s *Service) prepare(ctx context.Context, id int64, req ClientRequest) (Client, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.TaxID = shared.DigitsOnly(req.TaxID)
	req.Phone = shared.DigitsOnly(req.Phone)
	req.PostalCode = shared.DigitsOnly(req.PostalCode)
	req.Email = strings.TrimSpace(req.Email)
	req.State = strings.ToUpper(strings.TrimSpace(req.State))
	if err := shared.ValidateStruct(req); err != nil {
		return Client{}, err
	}
	if req.TaxID != "" {
		taken, err := s.repo.TaxIDTaken(ctx, req.TaxID, id)
		if err != nil {
			return Client{}, fmt.Errorf("check client tax id: %w", err)
		}
		if taken {
			return Client{}, duplicateTaxID(req.TaxID)
		}
	}
	return Client{
		ID:         id,
		Name:       req.Name,
		TaxID:      req.TaxID,
		Email:      req.Email,
		Phone:      req.Phone,
		PostalCode: req.PostalCode,
		Street:     strings.TrimSpace(req.Street),
		Number:     strings.TrimSpace(req.Number),
		Complement: strings.TrimSpace(req.Complement),
		District:   strings.TrimSpace(req.District),
		City:       strings.TrimSpace(req.City),
		State:      req.State,
	}, nil
}

func duplicateTaxID(taxID string) error {
	return fmt.Errorf("%w: a client with tax id %s already exists", shared.ErrDuplicate, taxID)
}
