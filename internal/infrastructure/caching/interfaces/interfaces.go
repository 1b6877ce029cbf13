// Package interfaces defines cache operation contracts shared by the cache
// manager and the cleanup worker.
package interfaces

import (
	"time"

	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
)

// CatalogCache holds fetched catalog data. Categories and subcategories are
// shared across vendors; products and profiles are per vendor.
type CatalogCache interface {
	GetCategories() ([]catalog.Category, bool)
	SetCategories(categories []catalog.Category)
	GetSubcategories() ([]catalog.Subcategory, bool)
	SetSubcategories(subcategories []catalog.Subcategory)
	GetProducts(vendorID string) ([]catalog.Product, bool)
	SetProducts(vendorID string, products []catalog.Product)
	GetProfile(vendorID string) (*backend.VendorProfile, bool)
	SetProfile(vendorID string, profile *backend.VendorProfile)
	InvalidateVendor(vendorID string)
}

// LogoCache holds encoded logo images keyed by vendor and source.
type LogoCache interface {
	GetLogo(key string) ([]byte, bool)
	SetLogo(key string, image []byte)
}

// Purgeable is anything the cleanup worker sweeps.
type Purgeable interface {
	Name() string
	PurgeExpired(now time.Time) int
}
