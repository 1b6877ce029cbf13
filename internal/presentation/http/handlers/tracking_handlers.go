package handlers

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/domain/navigation"
	"github.com/AtRiskMedia/storefront-go/internal/domain/tracking"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

// TrackViewRequest is posted by the page script on route entry.
type TrackViewRequest struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
	Viewport string `json:"viewport"`
	Screen   string `json:"screen"`
	Locale   string `json:"locale"`
	Timezone string `json:"timezone"`
}

// TrackExitRequest is posted when the page is left.
type TrackExitRequest struct {
	Path string `json:"path"`
}

// TrackingHandlers receives visit beacons.
type TrackingHandlers struct {
	tracking   *services.TrackingService
	sessions   services.SessionStore
	visitorTTL time.Duration
	logger     *logging.ChanneledLogger
}

// NewTrackingHandlers creates tracking handlers with injected dependencies
func NewTrackingHandlers(tracking *services.TrackingService, sessions services.SessionStore, visitorTTL time.Duration, logger *logging.ChanneledLogger) *TrackingHandlers {
	return &TrackingHandlers{tracking: tracking, sessions: sessions, visitorTTL: visitorTTL, logger: logger}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back off to the start of the rune that crosses the limit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// validPath keeps tracking inside the vendor storefront.
func validPath(vendorID, path string) bool {
	base := navigation.BasePath(vendorID)
	return path == base || strings.HasPrefix(path, base+"/")
}

// PostView handles POST /api/v1/vendors/:vendorId/track/view
func (h *TrackingHandlers) PostView(c *gin.Context) {
	vendorID := c.Param("vendorId")
	var req TrackViewRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validPath(vendorID, req.Path) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tracking payload"})
		return
	}

	identity, err := h.sessions.Identity(c.Request.Context(), vendorID, c.ClientIP(), h.visitorTTL)
	if err != nil {
		h.logger.Tracking().Debug("No visitor identity, view not tracked", "vendorId", vendorID, "error", err)
		c.Status(http.StatusNoContent)
		return
	}

	device := tracking.DetectDevice(c.Request.UserAgent())
	device.UserAgent = clip(c.Request.UserAgent(), 512)
	device.Viewport = clip(req.Viewport, 32)
	device.Screen = clip(req.Screen, 32)
	device.Locale = clip(req.Locale, 32)
	device.Timezone = clip(req.Timezone, 64)

	h.tracking.RecordView(c.Request.Context(), tracking.PageView{
		VendorID: vendorID,
		Path:     req.Path,
		Referrer: clip(req.Referrer, 1024),
		Device:   device,
		Identity: identity,
	})
	c.Status(http.StatusNoContent)
}

// PostExit handles POST /api/v1/vendors/:vendorId/track/exit
func (h *TrackingHandlers) PostExit(c *gin.Context) {
	vendorID := c.Param("vendorId")
	var req TrackExitRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validPath(vendorID, req.Path) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tracking payload"})
		return
	}
	identity, err := h.sessions.Identity(c.Request.Context(), vendorID, c.ClientIP(), h.visitorTTL)
	if err != nil {
		c.Status(http.StatusNoContent)
		return
	}
	h.tracking.RecordExit(vendorID, identity.SessionID, req.Path)
	c.Status(http.StatusNoContent)
}
