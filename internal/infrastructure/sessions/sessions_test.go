package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/persistence/kv"
)

func browserCtx(id string) context.Context {
	return WithScope(context.Background(), BrowserScope{BrowserID: id, SessionID: id + "-s"})
}

func TestAuthKeyIsInjective(t *testing.T) {
	assert.Equal(t, AuthKey("v1"), AuthKey("v1"))
	assert.NotEqual(t, AuthKey("v1"), AuthKey("v2"))
	assert.NotEqual(t, AuthKey("a_b"), AuthKey("a/b"))
	assert.Contains(t, AuthKey("v1"), "tpl_auth_")
}

func TestVendorSessionsAreIsolated(t *testing.T) {
	store := NewVendorStore(kv.NewMemoryStore(), logging.NewDiscardLogger())
	ctx := browserCtx("browser-1")

	a := shopper.VendorSession{Token: "token-a", User: &shopper.User{ID: "u1", Name: "Ann"}}
	b := shopper.VendorSession{Token: "token-b"}
	require.NoError(t, store.SetAuth(ctx, "A", a))
	require.NoError(t, store.SetAuth(ctx, "B", b))
	require.NoError(t, store.ClearAuth(ctx, "A"))

	assert.Nil(t, store.GetAuth(ctx, "A"))
	got := store.GetAuth(ctx, "B")
	require.NotNil(t, got)
	assert.Equal(t, b, *got)

	// another browser sees nothing
	assert.Nil(t, store.GetAuth(browserCtx("browser-2"), "B"))
}

func TestGetAuthNeverFails(t *testing.T) {
	mem := kv.NewMemoryStore()
	store := NewVendorStore(mem, logging.NewDiscardLogger())
	ctx := browserCtx("b")

	assert.Nil(t, store.GetAuth(context.Background(), "A"))
	require.NoError(t, mem.Set(ctx, browserKey(BrowserScope{BrowserID: "b"}, AuthKey("A")), "{not json", 0))
	assert.Nil(t, store.GetAuth(ctx, "A"))

	assert.ErrorIs(t, store.SetAuth(context.Background(), "A", shopper.VendorSession{Token: "t"}), ErrNoBrowser)
}

func TestExpiredTokenIsCleared(t *testing.T) {
	mem := kv.NewMemoryStore()
	store := NewVendorStore(mem, logging.NewDiscardLogger())
	ctx := browserCtx("b")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("backend"))
	require.NoError(t, err)

	require.NoError(t, store.SetAuth(ctx, "A", shopper.VendorSession{Token: expired}))
	assert.Nil(t, store.GetAuth(ctx, "A"))

	_, found, _ := mem.Get(ctx, browserKey(BrowserScope{BrowserID: "b"}, AuthKey("A")))
	assert.False(t, found)
}

func TestIdentityIsLazyAndStable(t *testing.T) {
	store := NewVendorStore(kv.NewMemoryStore(), logging.NewDiscardLogger())
	ctx := browserCtx("b")

	first, err := store.Identity(ctx, "v1", "10.0.0.1", time.Hour)
	require.NoError(t, err)
	second, err := store.Identity(ctx, "v1", "10.0.0.2", time.Hour)
	require.NoError(t, err)

	assert.NotEmpty(t, first.VisitorID)
	assert.Equal(t, first.VisitorID, second.VisitorID)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, "10.0.0.2", second.ClientIP)

	other, err := store.Identity(ctx, "v2", "", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first.VisitorID, other.VisitorID)

	// a new browser session keeps the visitor but not the session
	nextSession := WithScope(context.Background(), BrowserScope{BrowserID: "b", SessionID: "fresh"})
	third, err := store.Identity(nextSession, "v1", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, first.VisitorID, third.VisitorID)
	assert.NotEqual(t, first.SessionID, third.SessionID)
}

func TestJarIssuesAndReusesCookies(t *testing.T) {
	jar, err := NewJar(JarConfig{Secret: "0123456789abcdef0123", DurableTTL: time.Hour}, logging.NewDiscardLogger())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/template/v1", nil)
	scope, err := jar.Resolve(w, r)
	require.NoError(t, err)
	assert.NotEmpty(t, scope.BrowserID)
	assert.NotEmpty(t, scope.SessionID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)

	r2 := httptest.NewRequest(http.MethodGet, "/template/v1/about", nil)
	for _, c := range cookies {
		r2.AddCookie(c)
	}
	w2 := httptest.NewRecorder()
	again, err := jar.Resolve(w2, r2)
	require.NoError(t, err)
	assert.Equal(t, scope, again)
	assert.Empty(t, w2.Result().Cookies())
}
