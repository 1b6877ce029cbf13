package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditorTokenRoundTrip(t *testing.T) {
	token, err := GenerateEditorToken(EditorClaims{Subject: "u1", VendorID: "v1", Role: RoleVendor}, "secret", time.Hour)
	require.NoError(t, err)

	editor, err := ParseEditorToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "v1", editor.VendorID)
	assert.True(t, editor.CanEdit("v1"))
	assert.False(t, editor.CanEdit("v2"))

	_, err = ParseEditorToken(token, "other")
	assert.Error(t, err)
	_, err = ParseEditorToken(token, "")
	assert.Error(t, err)

	admin := EditorClaims{Role: RoleAdmin}
	assert.True(t, admin.CanEdit("anything"))
	assert.False(t, EditorClaims{Role: "shopper", VendorID: "v1"}.CanEdit("v1"))
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend"))
		require.NoError(t, err)
		return s
	}

	assert.True(t, TokenExpired(sign(jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}), now))
	assert.False(t, TokenExpired(sign(jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), now))
	assert.False(t, TokenExpired(sign(jwt.MapClaims{"sub": "x"}), now))
	assert.False(t, TokenExpired("opaque-session-token", now))
}

func TestDeriveCookieKeys(t *testing.T) {
	a, err := DeriveCookieKeys("0123456789abcdef-secret")
	require.NoError(t, err)
	b, err := DeriveCookieKeys("0123456789abcdef-secret")
	require.NoError(t, err)

	assert.Len(t, a.Hash, 64)
	assert.Len(t, a.Block, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Hash[:32], a.Block)

	_, err = DeriveCookieKeys("short")
	assert.Error(t, err)
}

func TestGenerators(t *testing.T) {
	assert.Len(t, GenerateULID(), 26)
	assert.Len(t, GenerateUUID(), 36)
	tok, err := GenerateSecureToken(16)
	require.NoError(t, err)
	assert.NotEqual(t, tok, "")
}
