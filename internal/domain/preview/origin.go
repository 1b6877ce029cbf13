package preview

import (
	"net/url"
	"strings"
)

// SameOrigin reports whether two origins share scheme, host and port.
// Empty or unparsable origins never match.
func SameOrigin(a, b string) bool {
	oa, ok := canonicalOrigin(a)
	if !ok {
		return false
	}
	ob, ok := canonicalOrigin(b)
	if !ok {
		return false
	}
	return oa == ob
}

func canonicalOrigin(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host, true
}
