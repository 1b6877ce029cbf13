// Package security provides token, key and identifier utilities
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Editor roles allowed to attach a live preview.
const (
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// EditorClaims identifies the admin or vendor driving a preview.
type EditorClaims struct {
	Subject  string
	VendorID string
	Role     string
}

// CanEdit reports whether the editor may preview the given vendor.
func (c EditorClaims) CanEdit(vendorID string) bool {
	switch c.Role {
	case RoleAdmin:
		return true
	case RoleVendor:
		return c.VendorID != "" && c.VendorID == vendorID
	}
	return false
}

// ValidateJWT validates an HS256 token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// ParseEditorToken validates an editor token and extracts its identity
func ParseEditorToken(tokenString, jwtSecret string) (EditorClaims, error) {
	if jwtSecret == "" {
		return EditorClaims{}, errors.New("editor tokens are not configured")
	}
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return EditorClaims{}, err
	}
	editor := EditorClaims{}
	editor.Subject, _ = claims["sub"].(string)
	editor.VendorID, _ = claims["vendorId"].(string)
	editor.Role, _ = claims["role"].(string)
	if editor.Role != RoleAdmin && editor.Role != RoleVendor {
		return EditorClaims{}, ErrInvalidToken
	}
	return editor, nil
}

// GenerateEditorToken signs an editor token; used by the admin console and tests
func GenerateEditorToken(editor EditorClaims, jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":      editor.Subject,
		"vendorId": editor.VendorID,
		"role":     editor.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
}

// TokenExpired reports whether a shopper token carries an exp claim in the
// past. The signature belongs to the vendor backend and is not checked here;
// opaque or exp-less tokens never count as expired.
func TokenExpired(tokenString string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}
	return now.Unix() >= int64(exp)
}
