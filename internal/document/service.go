package document

import (
	"context"
	"time"

	"github.com/sistema-orcamento/orcamento/internal/masterdata/company"
	"github.com/sistema-orcamento/orcamento/internal/sales/quotes"
)

type QuoteSource interface {
	Get(ctx context.Context, id int64) (*quotes.Quote, error)
}

type ProfileSource interface {
	Get(ctx context.Context) (company.Profile, error)
}

// PDFConverter turns rendered HTML into a PDF.
type PDFConverter interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// RenderRecorder counts rendered documents by format.
type RenderRecorder interface {
	DocumentRendered(format string)
}

// Service loads a quote and the company profile and renders them.
type Service struct {
	quotes   QuoteSource
	profiles ProfileSource
	renderer *Renderer
	pdf      PDFConverter
	payment  Payment
	metrics  RenderRecorder
	now      func() time.Time
}

type Option func(*Service)

func WithRenderRecorder(m RenderRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(quoteSource QuoteSource, profiles ProfileSource, renderer *Renderer, pdf PDFConverter, payment Payment, opts ...Option) *Service {
	s := &Service{
		quotes:   quoteSource,
		profiles: profiles,
		renderer: renderer,
		pdf:      pdf,
		payment:  payment,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View builds the print model of quote id. The profile is fetched once per call.
func (s *Service) View(ctx context.Context, id int64) (View, *quotes.Quote, error) {
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return View{}, nil, err
	}
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return View{}, nil, err
	}
	return Build(q, profile, s.payment, s.now()), q, nil
}

func (s *Service) HTML(ctx context.Context, id int64) ([]byte, error) {
	v, _, err := s.View(ctx, id)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.HTML(v)
	if err != nil {
		return nil, err
	}
	s.rendered("html")
	return html, nil
}

// PDF renders the document and returns it with the quote it was built from.
func (s *Service) PDF(ctx context.Context, id int64) ([]byte, *quotes.Quote, error) {
	v, q, err := s.View(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	html, err := s.renderer.HTML(v)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.pdf.RenderHTML(ctx, html)
	if err != nil {
		return nil, nil, err
	}
	s.rendered("pdf")
	return pdf, q, nil
}

func (s *Service) rendered(format string) {
	if s.metrics != nil {
		s.metrics.DocumentRendered(format)
	}
}
