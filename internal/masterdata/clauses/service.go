package clauses

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

func (s *Service) List(ctx context.Context, search string) ([]Clause, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *Service) Get(ctx context.Context, id int64) (Clause, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req ClauseRequest) (Clause, error) {
	c, err := s.prepare(ctx, 0, req)
	if err != nil {
		return Clause{}, err
	}
	created, err := s.repo.Create(ctx, c)
	if db.IsUniqueViolation(err) {
		return Clause{}, duplicateTitle(c.Title)
	}
	return created, err
}

func (s *Service) Update(ctx context.Context, id int64, req ClauseRequest) (Clause, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Clause{}, err
	}
	c, err := s.prepare(ctx, id, req)
	if err != nil {
		return Clause{}, err
	}
	updated, err := s.repo.Update(ctx, c)
	if db.IsUniqueViolation(err) {
		return Clause{}, duplicateTitle(c.Title)
	}
	return updated, err
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("count clause references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: clause %d is attached to %d quote(s) or template(s)", shared.ErrInUse, id, refs)
	}
	err = s.repo.Delete(ctx, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: clause %d is referenced", shared.ErrInUse, id)
	}
	return err
}

func (s *Service) prepare(ctx context.Context, id int64, req ClauseRequest) (Clause, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := shared.ValidateStruct(req); err != nil {
		return Clause{}, err
	}
	taken, err := s.repo.TitleTaken(ctx, req.Title, id)
	if err != nil {
		return Clause{}, fmt.Errorf("check clause title: %w", err)
	}
	if taken {
		return Clause{}, duplicateTitle(req.Title)
	}
	return Clause{ID: id, Title: req.Title, Body: req.Body}, nil
}

func duplicateTitle(title string) error {
	return fmt.Errorf("%w: a clause titled %q already exists", shared.ErrDuplicate, title)
}
