package security

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// CookieKeys holds the HMAC and AES keys for signed, encrypted cookies.
type CookieKeys struct {
	Hash  []byte
	Block []byte
}

// DeriveCookieKeys expands one configured secret into independent hash
// (64 bytes) and block (32 bytes) keys.
func DeriveCookieKeys(secret string) (CookieKeys, error) {
	if len(secret) < 16 {
		return CookieKeys{}, fmt.Errorf("session secret must be at least 16 bytes")
	}
	hashKey, err := expand(secret, "storefront cookie hash", 64)
	if err != nil {
		return CookieKeys{}, err
	}
	blockKey, err := expand(secret, "storefront cookie block", 32)
	if err != nil {
		return CookieKeys{}, err
	}
	return CookieKeys{Hash: hashKey, Block: blockKey}, nil
}

func expand(secret, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}
