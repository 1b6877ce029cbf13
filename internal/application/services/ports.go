package services

import (
	"context"
	"time"

	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/domain/tracking"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
)

// TemplateBackend fetches template documents.
type TemplateBackend interface {
	FetchTemplate(ctx context.Context, vendorID string, page template.PageType) (*template.Resolution, error)
}

// CatalogBackend fetches live commerce data.
type CatalogBackend interface {
	FetchProducts(ctx context.Context, vendorID string) ([]catalog.Product, error)
	FetchCategories(ctx context.Context) ([]catalog.Category, error)
	FetchSubcategories(ctx context.Context) ([]catalog.Subcategory, error)
	FetchVendorProfile(ctx context.Context, vendorID string) (*backend.VendorProfile, error)
}

// ShopperBackend is the vendor's template API.
type ShopperBackend interface {
	TemplateAPIFetch(ctx context.Context, vendorID, token string, r backend.Request) (*backend.Response, error)
}

// AnalyticsBackend receives visit events.
type AnalyticsBackend interface {
	PostEvent(ctx context.Context, event tracking.Event) error
	LookupGeo(ctx context.Context, ip string) (*tracking.Geo, error)
}

// AssetBackend downloads vendor assets.
type AssetBackend interface {
	AssetURL(path string) string
	FetchAsset(ctx context.Context, url string) ([]byte, error)
}

// SessionStore is the per-vendor shopper session storage.
type SessionStore interface {
	GetAuth(ctx context.Context, vendorID string) *shopper.VendorSession
	SetAuth(ctx context.Context, vendorID string, session shopper.VendorSession) error
	ClearAuth(ctx context.Context, vendorID string) error
	Identity(ctx context.Context, vendorID, clientIP string, visitorTTL time.Duration) (tracking.Identity, error)
}
