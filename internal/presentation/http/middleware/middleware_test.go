package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/sessions"
)

const secret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func editorToken(t *testing.T, claims security.EditorClaims) string {
	t.Helper()
	token, err := security.GenerateEditorToken(claims, secret, time.Hour)
	require.NoError(t, err)
	return token
}

func previewEngine() *gin.Engine {
	logger := logging.NewDiscardLogger()
	r := gin.New()
	g := r.Group("/preview/:vendorId", VendorMiddleware(logger), EditorContext(secret, logger), RequireEditor())
	g.GET("", func(c *gin.Context) {
		editor, _ := GetEditor(c)
		c.String(http.StatusOK, editor.Subject)
	})
	return r
}

func TestRequireEditor(t *testing.T) {
	r := previewEngine()
	vendor := editorToken(t, security.EditorClaims{Subject: "owner", VendorID: "v1", Role: security.RoleVendor})
	admin := editorToken(t, security.EditorClaims{Subject: "root", Role: security.RoleAdmin})

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"anonymous", "/preview/v1", "", http.StatusUnauthorized, ""},
		{"garbage token", "/preview/v1", "Bearer nope", http.StatusUnauthorized, ""},
		{"vendor on own store", "/preview/v1", "Bearer " + vendor, http.StatusOK, "owner"},
		{"vendor token in query", "/preview/v1?token=" + vendor, "", http.StatusOK, "owner"},
		{"vendor on other store", "/preview/v2", "Bearer " + vendor, http.StatusForbidden, ""},
		{"admin anywhere", "/preview/v2", "bearer " + admin, http.StatusOK, "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestVendorMiddlewareRejectsMalformedIDs(t *testing.T) {
	r := previewEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/preview/"+strings.Repeat("x", 65), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSAllowsOnlyConfiguredOrigins(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://editor.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://editor.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://editor.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBrowserMiddlewareKeepsScopeAcrossRequests(t *testing.T) {
	logger := logging.NewDiscardLogger()
	jar, err := sessions.NewJar(sessions.JarConfig{Secret: "browser-secret-for-tests", DurableTTL: time.Hour}, logger)
	require.NoError(t, err)

	r := gin.New()
	r.Use(BrowserMiddleware(jar, logger))
	r.GET("/scope", func(c *gin.Context) {
		scope, ok := sessions.ScopeFrom(c.Request.Context())
		require.True(t, ok)
		c.JSON(http.StatusOK, scope)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/scope", nil))
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 2)

	second := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scope", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(second, req)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestRequestLoggerTagsRequests(t *testing.T) {
	var buf bytes.Buffer
	cfg := logging.DefaultLoggerConfig()
	cfg.Writer = &buf
	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "http", entry["channel"])
	assert.Equal(t, "req-123", entry["requestId"])
	assert.EqualValues(t, 404, entry["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 26)
}
