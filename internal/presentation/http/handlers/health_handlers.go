package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/persistence/kv"
)

// CacheStats reports the in-memory caches.
type CacheStats interface {
	Stats() []stores.Stats
}

// HealthHandlers reports liveness and runtime counters.
type HealthHandlers struct {
	storage     kv.Store
	previews    *services.PreviewService
	tracking    *services.TrackingService
	caches      CacheStats
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(storage kv.Store, previews *services.PreviewService, tracking *services.TrackingService, caches CacheStats, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *HealthHandlers {
	return &HealthHandlers{storage: storage, previews: previews, tracking: tracking, caches: caches, logger: logger, perfTracker: perfTracker}
}

// GetHealth handles GET /health
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	storage := "ok"
	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Database().Error("Storage health check failed", "error", err)
		status, code, storage = "degraded", http.StatusServiceUnavailable, err.Error()
	}

	c.JSON(code, gin.H{
		"status":         status,
		"uptime":         h.perfTracker.Uptime().Round(time.Second).String(),
		"storage":        storage,
		"previews":       h.previews.Count(),
		"trackingQueue":  h.tracking.QueueDepth(),
		"activeVisits":   h.tracking.ActiveSessions(),
		"caches":         h.caches.Stats(),
		"slowOperations": len(h.perfTracker.Alerts()),
	})
}
