package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/sistema-orcamento/orcamento/internal/platform/db"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// pricePlaces matches the NUMERIC(14,2) unit_price column.
const pricePlaces = 2

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search string) ([]Product, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req ProductRequest) (Product, error) {
	p, err := s.prepare(ctx, 0, req)
	if err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if db.IsUniqueViolation(err) {
		return Product{}, duplicateDescription(p.Description)
	}
	return created, err
}

func (s *Service) Update(ctx context.Context, id int64, req ProductRequest) (Product, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Product{}, err
	}
	p, err := s.prepare(ctx, id, req)
	if err != nil {
		return Product{}, err
	}
	updated, err := s.repo.Update(ctx, p)
	if db.IsUniqueViolation(err) {
		return Product{}, duplicateDescription(p.Description)
	}
	return updated, err
}

// Delete refuses while any quote or template line references the product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("count product references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: product %d is used by %d line item(s)", shared.ErrInUse, id, refs)
	}
	err = s.repo.Delete(ctx, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: product %d is referenced", shared.ErrInUse, id)
	}
	return err
}

func (s *Service) prepare(ctx context.Context, id int64, req ProductRequest) (Product, error) {
	req.Description = strings.TrimSpace(req.Description)
	req.TariffCode = strings.TrimSpace(req.TariffCode)
	if err := shared.ValidateStruct(req); err != nil {
		return Product{}, err
	}
	if !shared.HasAtMostPlaces(req.UnitPrice, pricePlaces) {
		return Product{}, fmt.Errorf("%w: unit_price allows at most %d decimal places", shared.ErrValidation, pricePlaces)
	}
	taken, err := s.repo.DescriptionTaken(ctx, req.Description, id)
	if err != nil {
		return Product{}, fmt.Errorf("check product description: %w", err)
	}
	if taken {
		return Product{}, duplicateDescription(req.Description)
	}
	return Product{
		ID:          id,
		Description: req.Description,
		TariffCode:  req.TariffCode,
		UnitPrice:   req.UnitPrice,
	}, nil
}

func duplicateDescription(description string) error {
	return fmt.Errorf("%w: a product described %q already exists", shared.ErrDuplicate, description)
}
