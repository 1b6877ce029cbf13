// Package manager provides centralized cache operations with vendor isolation
// by delegating to TTL stores.
package manager

import (
	"time"

	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

var (
	_ interfaces.CatalogCache = (*Manager)(nil)
	_ interfaces.LogoCache    = (*Manager)(nil)
)

const sharedKey = "all"

// Manager owns every in-memory cache.
type Manager struct {
	categories    *stores.TTLStore[[]catalog.Category]
	subcategories *stores.TTLStore[[]catalog.Subcategory]
	products      *stores.TTLStore[[]catalog.Product]
	profiles      *stores.TTLStore[*backend.VendorProfile]
	logos         *stores.TTLStore[[]byte]
	logger        *logging.ChanneledLogger
}

func NewManager(catalogTTL, logoTTL time.Duration, logger *logging.ChanneledLogger) *Manager {
	logger.Cache().Info("Initializing cache manager",
		"stores", []string{"categories", "subcategories", "products", "profiles", "logos"},
		"catalogTTL", catalogTTL,
		"logoTTL", logoTTL)

	return &Manager{
		categories:    stores.NewTTLStore[[]catalog.Category]("categories", catalogTTL),
		subcategories: stores.NewTTLStore[[]catalog.Subcategory]("subcategories", catalogTTL),
		products:      stores.NewTTLStore[[]catalog.Product]("products", catalogTTL),
		profiles:      stores.NewTTLStore[*backend.VendorProfile]("profiles", catalogTTL),
		logos:         stores.NewTTLStore[[]byte]("logos", logoTTL),
		logger:        logger,
	}
}

func (m *Manager) GetCategories() ([]catalog.Category, bool) { return m.categories.Get(sharedKey) }
func (m *Manager) SetCategories(categories []catalog.Category) {
	m.categories.Set(sharedKey, categories)
}

func (m *Manager) GetSubcategories() ([]catalog.Subcategory, bool) {
	return m.subcategories.Get(sharedKey)
}
func (m *Manager) SetSubcategories(subcategories []catalog.Subcategory) {
	m.subcategories.Set(sharedKey, subcategories)
}

func (m *Manager) GetProducts(vendorID string) ([]catalog.Product, bool) {
	return m.products.Get(vendorID)
}
func (m *Manager) SetProducts(vendorID string, products []catalog.Product) {
	m.products.Set(vendorID, products)
}

func (m *Manager) GetProfile(vendorID string) (*backend.VendorProfile, bool) {
	return m.profiles.Get(vendorID)
}
func (m *Manager) SetProfile(vendorID string, profile *backend.VendorProfile) {
	m.profiles.Set(vendorID, profile)
}

// InvalidateVendor drops the vendor's products and profile.
func (m *Manager) InvalidateVendor(vendorID string) {
	m.products.Delete(vendorID)
	m.profiles.Delete(vendorID)
	m.logger.Cache().Debug("Invalidated vendor cache", "vendorId", vendorID)
}

func (m *Manager) GetLogo(key string) ([]byte, bool) { return m.logos.Get(key) }
func (m *Manager) SetLogo(key string, image []byte)  { m.logos.Set(key, image) }

// Purgeables lists the stores the cleanup worker sweeps.
func (m *Manager) Purgeables() []interfaces.Purgeable {
	return []interfaces.Purgeable{m.categories, m.subcategories, m.products, m.profiles, m.logos}
}

// Stats reports every store.
func (m *Manager) Stats() []stores.Stats {
	return []stores.Stats{
		m.categories.Stats(),
		m.subcategories.Stats(),
		m.products.Stats(),
		m.profiles.Stats(),
		m.logos.Stats(),
	}
}
