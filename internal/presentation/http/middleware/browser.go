package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/sessions"
)

// BrowserMiddleware names the browser through its cookies and attaches the
// scope to the request context. A request whose cookies cannot be written
// continues without a scope.
func BrowserMiddleware(jar *sessions.Jar, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := jar.Resolve(c.Writer, c.Request)
		if err != nil {
			logger.Session().Warn("Browser cookies unavailable", "error", err)
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(sessions.WithScope(c.Request.Context(), scope))
		c.Next()
	}
}
