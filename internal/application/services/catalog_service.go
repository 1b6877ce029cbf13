package services

import (
	"context"
	"fmt"

	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

// CatalogService orchestrates catalog reads with a cache-first pattern.
type CatalogService struct {
	backend CatalogBackend
	cache   interfaces.CatalogCache
	logger  *logging.ChanneledLogger
}

func NewCatalogService(backend CatalogBackend, cache interfaces.CatalogCache, logger *logging.ChanneledLogger) *CatalogService {
	return &CatalogService{backend: backend, cache: cache, logger: logger}
}

func (s *CatalogService) Categories(ctx context.Context) ([]catalog.Category, error) {
	if cached, ok := s.cache.GetCategories(); ok {
		return cached, nil
	}
	categories, err := s.backend.FetchCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	s.cache.SetCategories(categories)
	return categories, nil
}

func (s *CatalogService) Subcategories(ctx context.Context) ([]catalog.Subcategory, error) {
	if cached, ok := s.cache.GetSubcategories(); ok {
		return cached, nil
	}
	subcategories, err := s.backend.FetchSubcategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subcategories: %w", err)
	}
	s.cache.SetSubcategories(subcategories)
	return subcategories, nil
}

func (s *CatalogService) Products(ctx context.Context, vendorID string) ([]catalog.Product, error) {
	if cached, ok := s.cache.GetProducts(vendorID); ok {
		return cached, nil
	}
	products, err := s.backend.FetchProducts(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	s.cache.SetProducts(vendorID, products)
	return products, nil
}

func (s *CatalogService) Profile(ctx context.Context, vendorID string) (*backend.VendorProfile, error) {
	if cached, ok := s.cache.GetProfile(vendorID); ok {
		return cached, nil
	}
	profile, err := s.backend.FetchVendorProfile(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor profile: %w", err)
	}
	s.cache.SetProfile(vendorID, profile)
	return profile, nil
}

// Invalidate drops the vendor's cached products and profile.
func (s *CatalogService) Invalidate(vendorID string) {
	s.cache.InvalidateVendor(vendorID)
}
