package company

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Get returns the company profile through the cache.
func (s *Service) Get(ctx context.Context) (Profile, error) {
	p, err := s.cache.Fetch(ctx, s.repo.Get)
	if err != nil {
		return Profile{}, fmt.Errorf("load company profile: %w", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, req ProfileRequest) (Profile, error) {
	req.TradeName = strings.TrimSpace(req.TradeName)
	req.TaxID = shared.DigitsOnly(req.TaxID)
	req.ContactPhone = shared.DigitsOnly(req.ContactPhone)
	if err := shared.ValidateStruct(req); err != nil {
		return Profile{}, err
	}
	p, err := s.repo.Update(ctx, Profile(req))
	if err != nil {
		return Profile{}, fmt.Errorf("update company profile: %w", err)
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate company profile cache", slog.Any("error", err))
	}
	return p, nil
}
