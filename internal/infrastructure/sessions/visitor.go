package sessions

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/AtRiskMedia/storefront-go/internal/domain/tracking"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/security"
)

// session ids outlive the cookie only long enough to be reclaimed
const sessionIDTTL = 24 * time.Hour

// Identity returns the visitor triple for a vendor, creating the visitor
// and session ids on first use.
func (s *VendorStore) Identity(ctx context.Context, vendorID, clientIP string, visitorTTL time.Duration) (tracking.Identity, error) {
	scope, ok := ScopeFrom(ctx)
	if !ok {
		return tracking.Identity{}, ErrNoBrowser
	}
	vendorKey := base64.RawURLEncoding.EncodeToString([]byte(vendorID))

	visitorID, err := s.lazyID(ctx, browserKey(scope, "tpl_visitor_"+vendorKey), visitorTTL)
	if err != nil {
		return tracking.Identity{}, err
	}
	sessionID, err := s.lazyID(ctx, "s:"+scope.SessionID+":tpl_session_"+vendorKey, sessionIDTTL)
	if err != nil {
		return tracking.Identity{}, err
	}
	return tracking.Identity{VisitorID: visitorID, SessionID: sessionID, ClientIP: clientIP}, nil
}

func (s *VendorStore) lazyID(ctx context.Context, key string, ttl time.Duration) (string, error) {
	id, found, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if found && id != "" {
		return id, nil
	}
	id = security.GenerateUUID()
	if err := s.store.Set(ctx, key, id, ttl); err != nil {
		return "", err
	}
	return id, nil
}
