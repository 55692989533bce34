package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CryptoChat/internal/domain/models"
	domrepo "CryptoChat/internal/domain/repository"
	"CryptoChat/pkg/cache"
)

// CachePortfolioStore keeps each session's portfolio as one JSON value in a
// cache.Service, so it works on top of both the in-memory and Redis caches.
type CachePortfolioStore struct {
	cache  cache.Service
	prefix string
	ttl    time.Duration
}

// NewCachePortfolioStore stores under "<prefix>:<session>". A zero ttl keeps
// portfolios until cleared.
func NewCachePortfolioStore(c cache.Service, prefix string, ttl time.Duration) *CachePortfolioStore {
	if prefix == "" {
		prefix = "portfolio"
	}
	return &CachePortfolioStore{cache: c, prefix: prefix, ttl: ttl}
}

var _ domrepo.PortfolioStore = (*CachePortfolioStore)(nil)

func (s *CachePortfolioStore) Load(ctx context.Context, sessionID string) (models.Portfolio, error) {
	var p models.Portfolio
	if err := s.cache.Get(ctx, s.key(sessionID), &p); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return models.Portfolio{}, nil
		}
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	if p == nil {
		p = models.Portfolio{}
	}
	return p, nil
}

// Save replaces the stored portfolio. Saving an empty portfolio removes it.
func (s *CachePortfolioStore) Save(ctx context.Context, sessionID string, p models.Portfolio) error {
	if p.IsEmpty() {
		return s.Clear(ctx, sessionID)
	}
	if err := s.cache.Set(ctx, s.key(sessionID), p, s.ttl); err != nil {
		return fmt.Errorf("save portfolio: %w", err)
	}
	return nil
}

func (s *CachePortfolioStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, s.key(sessionID)); err != nil {
		return fmt.Errorf("clear portfolio: %w", err)
	}
	return nil
}

func (s *CachePortfolioStore) key(sessionID string) string {
	return cache.Key(s.prefix, sessionID)
}
