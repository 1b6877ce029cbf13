package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/security"
)

const editorKey = "editor"

// EditorContext reads an editor JWT from the Authorization header or the
// token query parameter. Requests without a valid token pass through
// anonymously.
func EditorContext(secret string, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token != "" {
			editor, err := security.ParseEditorToken(token, secret)
			if err != nil {
				logger.Preview().Debug("Ignoring invalid editor token", "path", c.Request.URL.Path, "error", err)
			} else {
				c.Set(editorKey, editor)
			}
		}
		c.Next()
	}
}

// GetEditor returns the editor identity for the request.
func GetEditor(c *gin.Context) (security.EditorClaims, bool) {
	v, ok := c.Get(editorKey)
	if !ok {
		return security.EditorClaims{}, false
	}
	editor, ok := v.(security.EditorClaims)
	return editor, ok
}

// RequireEditor admits only editors allowed to edit the addressed vendor.
func RequireEditor() gin.HandlerFunc {
	return func(c *gin.Context) {
		editor, ok := GetEditor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "editor authentication required"})
			return
		}
		if vendor, ok := GetVendorContext(c); ok && !editor.CanEdit(vendor.VendorID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not allowed to edit this storefront"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
