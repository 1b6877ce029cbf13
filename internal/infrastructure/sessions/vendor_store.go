package sessions

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/persistence/kv"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/security"
)

const authPrefix = "tpl_auth_"

// AuthKey is the storage slot name for one vendor's shopper session.
// Distinct vendor ids always map to distinct keys.
func AuthKey(vendorID string) string {
	return authPrefix + base64.RawURLEncoding.EncodeToString([]byte(vendorID))
}

func browserKey(scope BrowserScope, name string) string {
	return "b:" + scope.BrowserID + ":" + name
}

// VendorStore keeps shopper sessions isolated per vendor within a browser.
type VendorStore struct {
	store  kv.Store
	logger *logging.ChanneledLogger
	now    func() time.Time
}

func NewVendorStore(store kv.Store, logger *logging.ChanneledLogger) *VendorStore {
	return &VendorStore{store: store, logger: logger, now: time.Now}
}

// GetAuth returns the vendor's session, or nil when absent, unreadable or
// expired. Expired sessions are cleared as a side effect.
func (s *VendorStore) GetAuth(ctx context.Context, vendorID string) *shopper.VendorSession {
	scope, ok := ScopeFrom(ctx)
	if !ok || vendorID == "" {
		return nil
	}
	raw, found, err := s.store.Get(ctx, browserKey(scope, AuthKey(vendorID)))
	if err != nil {
		s.logger.Session().Warn("Failed to read shopper session", "vendorId", vendorID, "error", err)
		return nil
	}
	if !found {
		return nil
	}

	var session shopper.VendorSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil || session.Token == "" {
		s.logger.Session().Warn("Discarding corrupt shopper session", "vendorId", vendorID)
		return nil
	}
	if security.TokenExpired(session.Token, s.now()) {
		s.logger.Session().Info("Shopper token expired", "vendorId", vendorID, "browserId", logging.MaskID(scope.BrowserID))
		if err := s.ClearAuth(ctx, vendorID); err != nil {
			s.logger.Session().Warn("Failed to clear expired session", "vendorId", vendorID, "error", err)
		}
		return nil
	}
	return &session
}

// SetAuth stores the vendor's session, replacing any previous one.
func (s *VendorStore) SetAuth(ctx context.Context, vendorID string, session shopper.VendorSession) error {
	scope, ok := ScopeFrom(ctx)
	if !ok {
		return ErrNoBrowser
	}
	body, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, browserKey(scope, AuthKey(vendorID)), string(body), 0)
}

// ClearAuth removes only the given vendor's session.
func (s *VendorStore) ClearAuth(ctx context.Context, vendorID string) error {
	scope, ok := ScopeFrom(ctx)
	if !ok {
		return ErrNoBrowser
	}
	return s.store.Delete(ctx, browserKey(scope, AuthKey(vendorID)))
}
