package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studybuddy/study-buddy-api/internal/catalog"
)

const catalogCacheKey = "catalog:options"

// CatalogService exposes the course reference catalog to the API, caching
// the formatted listing. The catalog itself is immutable per process, so the
// cache is purely an amortization of the formatting work across instances.
type CatalogService struct {
	catalog *catalog.Catalog
	cache   *CacheService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(cat *catalog.Catalog, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalog: cat, cache: cache, ttl: ttl, logger: logger}
}

// List returns the full catalog formatted for display.
func (s *CatalogService) List(ctx context.Context) ([]catalog.Option, error) {
	var cached []catalog.Option
	if hit, _ := s.cache.Get(ctx, catalogCacheKey, &cached); hit {
		return cached, nil
	}

	options := s.catalog.List()
	if len(options) > 0 {
		if err := s.cache.Set(ctx, catalogCacheKey, options, s.ttl); err != nil {
			s.logger.Warn("failed to cache catalog listing", zap.Error(err))
		}
	}
	return options, nil
}

// Search returns catalog entries matching the query.
func (s *CatalogService) Search(ctx context.Context, query string) ([]catalog.Option, error) {
	return s.catalog.Search(query), nil
}
