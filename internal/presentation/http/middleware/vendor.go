// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

const vendorKey = "vendor"

var vendorIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// VendorContext is the storefront a request addresses.
type VendorContext struct {
	VendorID string
}

// VendorMiddleware reads the :vendorId path parameter.
func VendorMiddleware(logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendorID := c.Param("vendorId")
		if !vendorIDPattern.MatchString(vendorID) {
			logger.HTTP().Warn("Rejected request with invalid vendor id", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "vendor not found"})
			return
		}
		c.Set(vendorKey, &VendorContext{VendorID: vendorID})
		c.Next()
	}
}

// GetVendorContext retrieves the vendor context from gin context.
func GetVendorContext(c *gin.Context) (*VendorContext, bool) {
	v, exists := c.Get(vendorKey)
	if !exists {
		return nil, false
	}
	ctx, ok := v.(*VendorContext)
	return ctx, ok
}
