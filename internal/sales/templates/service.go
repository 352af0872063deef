package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sistema-orcamento/orcamento/internal/masterdata/products"
	"github.com/sistema-orcamento/orcamento/internal/sales/quotes"
	salesshared "github.com/sistema-orcamento/orcamento/internal/sales/shared"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type Service struct {
	repo     Repository
	products quotes.ProductCatalog
	clauses  quotes.ClauseCatalog
}

func NewService(repo Repository, productCatalog quotes.ProductCatalog, clauseCatalog quotes.ClauseCatalog) *Service {
	return &Service{repo: repo, products: productCatalog, clauses: clauseCatalog}
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Template, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateTemplateRequest) (*Template, error) {
	if err := s.check(ctx, &req); err != nil {
		return nil, err
	}
	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		if id, err = repo.Create(ctx, req.Name, req.Description); err != nil {
			return err
		}
		return writeChildren(ctx, repo, id, req)
	})
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update replaces header, items and clauses in one transaction.
func (s *Service) Update(ctx context.Context, id int64, req UpdateTemplateRequest) (*Template, error) {
	if err := s.check(ctx, &req); err != nil {
		return nil, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, id, req.Name, req.Description); err != nil {
			return err
		}
		if err := repo.DeleteItems(ctx, id); err != nil {
			return fmt.Errorf("delete template items: %w", err)
		}
		if err := repo.DeleteClauses(ctx, id); err != nil {
			return fmt.Errorf("delete template clauses: %w", err)
		}
		return writeChildren(ctx, repo, id, req)
	})
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Materialize expands a template into a new draft. Lines take the template quantity
// and the current catalog price and tariff with no discount. The template is only read.
func (s *Service) Materialize(ctx context.Context, id int64) (*quotes.Draft, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	draft := quotes.NewDraft()
	for _, it := range t.Items {
		product := products.Product{
			ID:          it.ProductID,
			Description: it.Description,
			TariffCode:  it.TariffCode,
			UnitPrice:   it.UnitPrice,
		}
		if err := draft.AddOrUpdateLine(quotes.AppendPosition, product, quotes.LineInput{Quantity: it.Quantity}); err != nil {
			return nil, fmt.Errorf("materialize template %d: %w", id, err)
		}
	}
	for _, c := range t.Clauses {
		if err := draft.AttachClause(clauseOf(c)); err != nil {
			return nil, fmt.Errorf("materialize template %d: %w", id, err)
		}
	}
	return draft, nil
}

// check normalizes req and verifies every referenced product and clause exists.
func (s *Service) check(ctx context.Context, req *CreateTemplateRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := shared.ValidateStruct(req); err != nil {
		return err
	}
	for i, it := range req.Items {
		if !shared.HasAtMostPlaces(it.Quantity, salesshared.QuantityPlaces) {
			return fmt.Errorf("%w: item %d: quantity allows at most %d decimal places", shared.ErrValidation, i+1, salesshared.QuantityPlaces)
		}
		if _, err := s.products.Get(ctx, it.ProductID); err != nil {
			return missing(err, fmt.Sprintf("item %d: product %d", i+1, it.ProductID))
		}
	}
	for _, clauseID := range req.ClauseIDs {
		if _, err := s.clauses.Get(ctx, clauseID); err != nil {
			return missing(err, fmt.Sprintf("clause %d", clauseID))
		}
	}
	return nil
}

func writeChildren(ctx context.Context, repo Repository, id int64, req CreateTemplateRequest) error {
	for i, it := range req.Items {
		if err := repo.InsertItem(ctx, id, i, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	for i, clauseID := range req.ClauseIDs {
		if err := repo.InsertClause(ctx, id, i, clauseID); err != nil {
			return err
		}
	}
	return nil
}

func missing(err error, what string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("%w: %s does not exist", shared.ErrValidation, what)
	}
	return fmt.Errorf("lookup %s: %w", what, err)
}
