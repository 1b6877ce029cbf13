// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/domain/navigation"
	"github.com/AtRiskMedia/storefront-go/internal/domain/preview"
	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/storefront-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/storefront-go/internal/presentation/templates"
)

// StorefrontHandlers serves the vendor storefront HTML pages.
type StorefrontHandlers struct {
	storefront  *services.StorefrontService
	templates   *services.TemplateService
	auth        *services.AuthService
	commerce    *services.CommerceService
	logo        *services.LogoService
	renderer    *templates.Renderer
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewStorefrontHandlers creates storefront handlers with injected dependencies
func NewStorefrontHandlers(
	storefront *services.StorefrontService,
	templateService *services.TemplateService,
	auth *services.AuthService,
	commerce *services.CommerceService,
	logo *services.LogoService,
	renderer *templates.Renderer,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *StorefrontHandlers {
	return &StorefrontHandlers{
		storefront:  storefront,
		templates:   templateService,
		auth:        auth,
		commerce:    commerce,
		logo:        logo,
		renderer:    renderer,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// load fetches page data. It reports false when the client went away, in
// which case nothing is written.
func (h *StorefrontHandlers) load(c *gin.Context, page template.PageType) (*services.PageData, bool) {
	vendor, ok := middleware.GetVendorContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "vendor context not found"})
		return nil, false
	}
	data, err := h.storefront.LoadPage(c.Request.Context(), vendor.VendorID, page)
	if err != nil {
		h.logger.HTTP().Debug("Client left before page data arrived", "vendorId", vendor.VendorID, "path", c.Request.URL.Path)
		c.Abort()
		return nil, false
	}
	return data, true
}

func (h *StorefrontHandlers) view(c *gin.Context, data *services.PageData, kind templates.Kind) *templates.View {
	session := h.auth.Current(c.Request.Context(), data.VendorID)
	state := preview.NewState(data.Resolution)
	state.SectionOrder = data.SectionOrder

	v := &templates.View{
		Kind:     kind,
		Path:     c.Request.URL.Path,
		Data:     data,
		State:    state,
		SignedIn: session != nil,
	}
	if session != nil {
		v.User = session.User
	}
	v.Nav = navigation.Compose(navigation.Input{
		VendorID:      data.VendorID,
		Template:      state.Template,
		CategoryMap:   data.Catalog.Map,
		Categories:    data.Catalog.Categories,
		Subcategories: data.Catalog.Subcategories,
		ActivePage:    c.Request.URL.Path,
		SignedIn:      v.SignedIn,
	})
	if state.Template.Logo() != "" {
		v.LogoURL = navigation.BasePath(data.VendorID) + "/logo"
	}
	return v
}

func (h *StorefrontHandlers) render(c *gin.Context, status int, v *templates.View) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, v); err != nil {
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *StorefrontHandlers) page(c *gin.Context, page template.PageType, kind templates.Kind) {
	marker := h.perfTracker.StartOperation("page_"+string(kind), c.Param("vendorId"))
	defer h.perfTracker.CompleteOperation(marker)

	data, ok := h.load(c, page)
	if !ok {
		return
	}
	v := h.view(c, data, kind)

	if c.Query("preview") == "1" {
		if editor, ok := middleware.GetEditor(c); ok && editor.CanEdit(data.VendorID) {
			v.Preview = &templates.PreviewInfo{ID: security.GenerateULID(), Token: c.Query("token"), Page: string(page)}
		}
	}

	h.render(c, http.StatusOK, v)
	marker.SetSuccess(true)
	h.perfTracker.CompleteOperation(marker)
	h.logger.Perf().Debug("Performance for storefront page", "duration", marker.Duration, "vendorId", data.VendorID, "kind", kind, "fromBackend", data.FromBackend)
}

// GetHome handles GET /template/:vendorId
func (h *StorefrontHandlers) GetHome(c *gin.Context) {
	h.page(c, template.PageHome, templates.KindHome)
}

// GetAbout handles GET /template/:vendorId/about
func (h *StorefrontHandlers) GetAbout(c *gin.Context) {
	h.page(c, template.PageAbout, templates.KindAbout)
}

// GetContact handles GET /template/:vendorId/contact
func (h *StorefrontHandlers) GetContact(c *gin.Context) {
	h.page(c, template.PageContact, templates.KindContact)
}

// GetCategory handles GET /template/:vendorId/category/:slug
func (h *StorefrontHandlers) GetCategory(c *gin.Context) {
	data, ok := h.load(c, template.PageHome)
	if !ok {
		return
	}
	res := catalog.ResolveCategory(c.Param("slug"), data.Catalog.Map, data.Catalog.Products)
	v := h.view(c, data, templates.KindCategory)
	v.Category = &res
	v.Title = res.Label
	h.logger.Catalog().Debug("Category resolved", "vendorId", data.VendorID, "input", c.Param("slug"), "found", res.Found, "products", len(res.Products))
	h.render(c, http.StatusOK, v)
}

// GetSubcategory handles GET /template/:vendorId/subcategory/:slug
func (h *StorefrontHandlers) GetSubcategory(c *gin.Context) {
	data, ok := h.load(c, template.PageHome)
	if !ok {
		return
	}
	res := catalog.ResolveSubcategory(c.Param("slug"), data.Catalog.Subcategories, data.Catalog.Products)
	v := h.view(c, data, templates.KindSubcategory)
	v.Subcategory = &res
	v.Title = res.Label
	h.render(c, http.StatusOK, v)
}

// GetProduct handles GET /template/:vendorId/product/:productId
func (h *StorefrontHandlers) GetProduct(c *gin.Context) {
	data, ok := h.load(c, template.PageHome)
	if !ok {
		return
	}
	product, found := catalog.FindProduct(data.Catalog.Products, c.Param("productId"))
	if !found {
		h.render(c, http.StatusNotFound, h.view(c, data, templates.KindNotFound))
		return
	}
	v := h.view(c, data, templates.KindProduct)
	v.Product = &product
	v.Title = product.Name
	h.render(c, http.StatusOK, v)
}

// GetCustomPage handles GET /template/:vendorId/page/:slug. Unpublished
// pages are not found.
func (h *StorefrontHandlers) GetCustomPage(c *gin.Context) {
	data, ok := h.load(c, template.PageHome)
	if !ok {
		return
	}
	slug := catalog.Slugify(c.Param("slug"))
	for _, p := range data.Resolution.Template.CustomPages() {
		pageSlug := p.Slug
		if pageSlug == "" {
			pageSlug = p.Title
		}
		if catalog.Slugify(pageSlug) == slug && p.Published() {
			page := p
			v := h.view(c, data, templates.KindCustom)
			v.CustomPage = &page
			v.Title = page.Title
			h.render(c, http.StatusOK, v)
			return
		}
	}
	h.render(c, http.StatusNotFound, h.view(c, data, templates.KindNotFound))
}

// GetLogo handles GET /template/:vendorId/logo
func (h *StorefrontHandlers) GetLogo(c *gin.Context) {
	vendor, ok := middleware.GetVendorContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "vendor context not found"})
		return
	}
	marker := h.perfTracker.StartOperation("get_logo_request", vendor.VendorID)
	defer h.perfTracker.CompleteOperation(marker)

	ctx := c.Request.Context()
	res, _ := h.templates.Load(ctx, vendor.VendorID, template.PageHome)
	logo := res.Template.Logo()

	img, err := h.logo.Logo(ctx, vendor.VendorID, logo)
	switch {
	case err == nil:
		marker.SetSuccess(true)
		c.Header("Cache-Control", "public, max-age=3600")
		c.Data(http.StatusOK, "image/webp", img)
	case errors.Is(err, services.ErrNoLogo):
		c.Status(http.StatusNotFound)
	case errors.Is(err, media.ErrUnsupportedLogo), errors.Is(err, backend.ErrForeignAsset):
		c.Redirect(http.StatusFound, h.logo.SourceURL(logo))
	default:
		marker.SetError(err)
		if ctx.Err() != nil {
			c.Abort()
			return
		}
		// serve the original when normalization is unavailable
		c.Redirect(http.StatusFound, h.logo.SourceURL(logo))
	}
}

// safeNext keeps post-login redirects inside the vendor storefront.
func safeNext(base, next string) string {
	if next == base || strings.HasPrefix(next, base+"/") {
		if !strings.HasPrefix(next, base+"/login") && !strings.HasPrefix(next, base+"/register") {
			return next
		}
	}
	return base
}
