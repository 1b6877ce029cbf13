package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/domain/navigation"
	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
)

// ContentHandlers exposes the resolved template and navigation as JSON.
type ContentHandlers struct {
	storefront  *services.StorefrontService
	templates   *services.TemplateService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewContentHandlers creates content handlers with injected dependencies
func NewContentHandlers(storefront *services.StorefrontService, templates *services.TemplateService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ContentHandlers {
	return &ContentHandlers{storefront: storefront, templates: templates, logger: logger, perfTracker: perfTracker}
}

func pageParam(c *gin.Context) template.PageType {
	switch p := template.PageType(c.DefaultQuery("page", string(template.PageHome))); p {
	case template.PageAbout, template.PageContact:
		return p
	default:
		return template.PageHome
	}
}

// GetTemplate handles GET /api/v1/vendors/:vendorId/template
func (h *ContentHandlers) GetTemplate(c *gin.Context) {
	vendorID := c.Param("vendorId")
	marker := h.perfTracker.StartOperation("get_template_request", vendorID)
	defer h.perfTracker.CompleteOperation(marker)

	page := pageParam(c)
	res, fromBackend := h.templates.Load(c.Request.Context(), vendorID, page)
	if c.Request.Context().Err() != nil {
		c.Abort()
		return
	}
	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{
		"vendorId":     vendorID,
		"page":         page,
		"template":     res.Template,
		"sectionOrder": res.OrderOrDefault(),
		"fromBackend":  fromBackend,
	})
}

// GetNavigation handles GET /api/v1/vendors/:vendorId/navigation
func (h *ContentHandlers) GetNavigation(c *gin.Context) {
	vendorID := c.Param("vendorId")
	marker := h.perfTracker.StartOperation("get_navigation_request", vendorID)
	defer h.perfTracker.CompleteOperation(marker)

	data, err := h.storefront.LoadPage(c.Request.Context(), vendorID, template.PageHome)
	if err != nil {
		c.Abort()
		return
	}
	tree := navigation.Compose(navigation.Input{
		VendorID:      vendorID,
		Template:      data.Resolution.Template,
		CategoryMap:   data.Catalog.Map,
		Categories:    data.Catalog.Categories,
		Subcategories: data.Catalog.Subcategories,
		ActivePage:    c.Query("active"),
	})
	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"vendorId": vendorID, "vendorName": data.VendorName, "navigation": tree})
}
