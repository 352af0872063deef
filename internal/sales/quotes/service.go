package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sistema-orcamento/orcamento/internal/masterdata/clauses"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/clients"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/products"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// ProductCatalog looks up products for price and tariff snapshots.
type ProductCatalog interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// ClauseCatalog looks up clause texts.
type ClauseCatalog interface {
	Get(ctx context.Context, id int64) (clauses.Clause, error)
}

// ClientDirectory looks up quote recipients.
type ClientDirectory interface {
	Get(ctx context.Context, id int64) (clients.Client, error)
}

// ArchiveEnqueuer schedules rendering of an approved quote into the document archive.
type ArchiveEnqueuer interface {
	EnqueueArchive(ctx context.Context, quoteID int64) error
}

// StatusRecorder observes successful status transitions.
type StatusRecorder interface {
	QuoteStatusChanged(status string)
}

type Service struct {
	repo     Repository
	products ProductCatalog
	clauses  ClauseCatalog
	clients  ClientDirectory
	archive  ArchiveEnqueuer
	metrics  StatusRecorder
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithArchiveEnqueuer enables archiving on approval.
func WithArchiveEnqueuer(e ArchiveEnqueuer) Option {
	return func(s *Service) { s.archive = e }
}

func WithStatusRecorder(m StatusRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used to derive expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, productCatalog ProductCatalog, clauseCatalog ClauseCatalog, clientDirectory ClientDirectory, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:     repo,
		products: productCatalog,
		clauses:  clauseCatalog,
		clients:  clientDirectory,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compose builds a draft from wire lines and clause ids, snapshotting catalog data.
func (s *Service) Compose(ctx context.Context, lines []LineRequest, clauseIDs []int64) (*Draft, error) {
	draft := NewDraft()
	for i, line := range lines {
		product, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			return nil, lookupError(err, "item %d: product %d", i+1, line.ProductID)
		}
		if err := draft.AddOrUpdateLine(AppendPosition, product, line.input()); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	for _, id := range clauseIDs {
		clause, err := s.clauses.Get(ctx, id)
		if err != nil {
			return nil, lookupError(err, "clause %d", id)
		}
		if err := draft.AttachClause(clause); err != nil {
			return nil, err
		}
	}
	return draft, nil
}

// PriceDraft composes and prices a draft without persisting it.
func (s *Service) PriceDraft(ctx context.Context, req DraftRequest) (*DraftPreview, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	draft, err := s.Compose(ctx, req.Items, req.ClauseIDs)
	if err != nil {
		return nil, err
	}
	return &DraftPreview{Draft: draft, Total: draft.Total()}, nil
}

func (s *Service) Create(ctx context.Context, req CreateQuoteRequest, authorID int64) (*Quote, error) {
	q, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	q.Status = StatusDraft
	q.Revision = 1
	if authorID > 0 {
		q.AuthorID = &authorID
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, createdAt, err := repo.Create(ctx, *q)
		if err != nil {
			return err
		}
		q.ID, q.CreatedAt = id, createdAt
		return writeChildren(ctx, repo, q)
	})
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	q.EffectiveStatus = q.StatusAt(s.now())
	return q, nil
}

// Update replaces items and clauses of a DRAFT quote and bumps its revision by one.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuoteRequest) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsTerminal() {
		return nil, fmt.Errorf("quote %d: %w", id, ErrQuoteLocked)
	}
	q, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	q.ID = id
	q.Status = existing.Status
	q.AuthorID = existing.AuthorID
	q.Author = existing.Author
	q.CreatedAt = existing.CreatedAt

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		revision, err := repo.UpdateHeader(ctx, *q)
		if err != nil {
			return err
		}
		q.Revision = revision
		if err := repo.DeleteItems(ctx, id); err != nil {
			return fmt.Errorf("delete quote items: %w", err)
		}
		if err := repo.DeleteClauses(ctx, id); err != nil {
			return fmt.Errorf("delete quote clauses: %w", err)
		}
		return writeChildren(ctx, repo, q)
	})
	if err != nil {
		return nil, fmt.Errorf("update quote: %w", err)
	}
	q.EffectiveStatus = q.StatusAt(s.now())
	return q, nil
}

// ChangeStatus moves a DRAFT quote to APPROVED or CANCELLED. Expired drafts may be
// cancelled but not approved.
func (s *Service) ChangeStatus(ctx context.Context, id int64, next Status) (*Quote, error) {
	if next != StatusApproved && next != StatusCancelled {
		return nil, fmt.Errorf("%w: status must be %s or %s", shared.ErrValidation, StatusApproved, StatusCancelled)
	}
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusDraft {
		return nil, fmt.Errorf("quote %d is %s: %w", id, q.Status, ErrQuoteLocked)
	}
	now := s.now()
	if next == StatusApproved && q.IsExpired(now) {
		return nil, fmt.Errorf("quote %d: %w", id, ErrQuoteExpired)
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	q.Status = next
	q.EffectiveStatus = q.StatusAt(now)
	if s.metrics != nil {
		s.metrics.QuoteStatusChanged(string(next))
	}

	if next == StatusApproved && s.archive != nil {
		if err := s.archive.EnqueueArchive(ctx, id); err != nil {
			s.logger.Warn("enqueue quote archive", slog.Int64("quote_id", id), slog.Any("error", err))
		}
	}
	return q, nil
}

// Delete removes the quote and its child rows regardless of status.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteItems(ctx, id); err != nil {
			return fmt.Errorf("delete quote items: %w", err)
		}
		if err := repo.DeleteClauses(ctx, id); err != nil {
			return fmt.Errorf("delete quote clauses: %w", err)
		}
		return repo.Delete(ctx, id)
	})
}

func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q.EffectiveStatus = q.StatusAt(s.now())
	return q, nil
}

func (s *Service) List(ctx context.Context, search string) ([]Summary, error) {
	rows, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range rows {
		rows[i].EffectiveStatus = deriveStatus(rows[i].Status, rows[i].ValidUntil, now)
	}
	return rows, nil
}

// prepare validates the request and composes the header plus children it describes.
func (s *Service) prepare(ctx context.Context, req CreateQuoteRequest) (*Quote, error) {
	req.ContactName = strings.TrimSpace(req.ContactName)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	client, err := s.clients.Get(ctx, req.ClientID)
	if err != nil {
		return nil, lookupError(err, "client %d", req.ClientID)
	}
	draft, err := s.Compose(ctx, req.Items, req.ClauseIDs)
	if err != nil {
		return nil, err
	}
	return &Quote{
		ClientID:     req.ClientID,
		Client:       &client,
		ValidUntil:   req.ValidUntil,
		Notes:        strings.TrimSpace(req.Notes),
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		Total:        draft.Total(),
		Items:        draft.Items,
		Clauses:      draft.Clauses,
	}, nil
}

func writeChildren(ctx context.Context, repo Repository, q *Quote) error {
	for i, it := range q.Items {
		if err := repo.InsertItem(ctx, q.ID, i, it); err != nil {
			return err
		}
	}
	for i, c := range q.Clauses {
		if err := repo.InsertClause(ctx, q.ID, i, c.ClauseID); err != nil {
			return err
		}
	}
	return nil
}

// lookupError turns a missing reference into a validation failure.
func lookupError(err error, format string, args ...any) error {
	if errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("%w: %s does not exist", shared.ErrValidation, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("lookup %s: %w", fmt.Sprintf(format, args...), err)
}
