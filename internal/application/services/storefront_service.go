package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
)

// PageData is everything a storefront page renders against.
type PageData struct {
	VendorID     string
	VendorName   string
	Page         template.PageType
	Resolution   *template.Resolution
	FromBackend  bool
	Catalog      catalog.Catalog
	Profile      *backend.VendorProfile
	SectionOrder []string
}

// StorefrontService loads page data for a route entry.
type StorefrontService struct {
	templates   *TemplateService
	catalog     *CatalogService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

func NewStorefrontService(templates *TemplateService, catalog *CatalogService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *StorefrontService {
	return &StorefrontService{templates: templates, catalog: catalog, logger: logger, perfTracker: perfTracker}
}

// Refresh drops the vendor's cached catalog so the next load refetches it.
func (s *StorefrontService) Refresh(vendorID string) {
	s.catalog.Invalidate(vendorID)
}

// LoadPage fetches the template, products, categories, subcategories and
// vendor profile concurrently. Each fetch falls back on its own; none cancels
// another. When ctx ends first the results are discarded and ctx.Err() is
// returned.
func (s *StorefrontService) LoadPage(ctx context.Context, vendorID string, page template.PageType) (*PageData, error) {
	marker := s.perfTracker.StartOperation("load_page", vendorID)
	defer s.perfTracker.CompleteOperation(marker)
	marker.AddMetadata("page", string(page))

	var (
		res           *template.Resolution
		fromBackend   bool
		products      []catalog.Product
		categories    []catalog.Category
		subcategories []catalog.Subcategory
		profile       *backend.VendorProfile
	)

	// every task returns nil so the group never cancels its siblings
	var g errgroup.Group
	g.Go(func() error {
		res, fromBackend = s.templates.Load(ctx, vendorID, page)
		return nil
	})
	g.Go(func() error {
		var err error
		if products, err = s.catalog.Products(ctx, vendorID); err != nil {
			s.warn(ctx, "Products unavailable", vendorID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if categories, err = s.catalog.Categories(ctx); err != nil {
			s.warn(ctx, "Categories unavailable", vendorID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if subcategories, err = s.catalog.Subcategories(ctx); err != nil {
			s.warn(ctx, "Subcategories unavailable", vendorID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if profile, err = s.catalog.Profile(ctx, vendorID); err != nil {
			s.warn(ctx, "Vendor profile unavailable", vendorID, err)
		}
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.logger.Catalog().Debug("Page load abandoned", "vendorId", vendorID, "page", page)
		marker.SetError(err)
		return nil, err
	}

	data := &PageData{
		VendorID:     vendorID,
		VendorName:   profile.DisplayName(vendorID),
		Page:         page,
		Resolution:   res,
		FromBackend:  fromBackend,
		Catalog:      catalog.NewCatalog(categories, subcategories, products),
		Profile:      profile,
		SectionOrder: res.OrderOrDefault(),
	}
	marker.SetSuccess(true)
	return data, nil
}

func (s *StorefrontService) warn(ctx context.Context, msg, vendorID string, err error) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Catalog().Warn(msg, "vendorId", vendorID, "error", err)
}
