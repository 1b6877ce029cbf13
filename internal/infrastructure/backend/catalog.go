package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
)

// FetchProducts loads the vendor's public products, falling back to the
// vendor listing.
func (c *Client) FetchProducts(ctx context.Context, vendorID string) ([]catalog.Product, error) {
	id := url.PathEscape(vendorID)
	body, err := c.get(ctx, "/products/public/vendor/"+id, nil, "")
	if err != nil {
		c.logger.Catalog().Debug("Public product listing failed, trying vendor listing", "vendorId", vendorID, "error", err)
		body, err = c.get(ctx, "/products/vendor/"+id, nil, c.cfg.VendorToken)
		if err != nil {
			return nil, err
		}
	}
	items, ok := extractList(body, "products", "items")
	if !ok {
		return nil, fmt.Errorf("unexpected product listing shape")
	}
	return catalog.NormalizeProducts(items), nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]catalog.Category, error) {
	body, err := c.get(ctx, "/categories", nil, "")
	if err != nil {
		return nil, err
	}
	items, ok := extractList(body, "categories", "items")
	if !ok {
		return nil, fmt.Errorf("unexpected category listing shape")
	}
	return catalog.NormalizeCategories(items), nil
}

func (c *Client) FetchSubcategories(ctx context.Context) ([]catalog.Subcategory, error) {
	body, err := c.get(ctx, "/subcategories", nil, "")
	if err != nil {
		return nil, err
	}
	items, ok := extractList(body, "subcategories", "subCategories", "items")
	if !ok {
		return nil, fmt.Errorf("unexpected subcategory listing shape")
	}
	return catalog.NormalizeSubcategories(items), nil
}

// VendorProfile is the public part of a vendor record.
type VendorProfile struct {
	ID        string `json:"_id"`
	StoreName string `json:"storeName"`
	ShopName  string `json:"shopName"`
	Name      string `json:"name"`
	Logo      string `json:"logo"`
}

// DisplayName is the first non-empty store name, else fallback.
func (p *VendorProfile) DisplayName(fallback string) string {
	if p == nil {
		return fallback
	}
	for _, name := range []string{p.StoreName, p.ShopName, p.Name} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return fallback
}

func (c *Client) FetchVendorProfile(ctx context.Context, vendorID string) (*VendorProfile, error) {
	body, err := c.get(ctx, "/vendors/"+url.PathEscape(vendorID)+"/profile", nil, "")
	if err != nil {
		return nil, err
	}
	var profile VendorProfile
	if err := json.Unmarshal(unwrapData(body), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode vendor profile: %w", err)
	}
	return &profile, nil
}
