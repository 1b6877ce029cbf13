package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

// shopperAPI runs template API calls on behalf of the signed-in shopper.
type shopperAPI struct {
	backend  ShopperBackend
	sessions SessionStore
	logger   *logging.ChanneledLogger
}

// call requires a session; a 401 from the backend clears it.
func (a *shopperAPI) call(ctx context.Context, vendorID string, req backend.Request) (*backend.Response, error) {
	session := a.sessions.GetAuth(ctx, vendorID)
	if session == nil {
		return nil, ErrLoginRequired
	}
	resp, err := a.backend.TemplateAPIFetch(ctx, vendorID, session.Token, req)
	if err != nil {
		if apiErr, ok := backend.AsAPIError(err); ok && apiErr.Unauthorized() {
			a.logger.Session().Info("Shopper session rejected by backend", "vendorId", vendorID)
			if clearErr := a.sessions.ClearAuth(ctx, vendorID); clearErr != nil {
				a.logger.Session().Warn("Failed to clear rejected session", "vendorId", vendorID, "error", clearErr)
			}
			return nil, ErrLoginRequired
		}
		return nil, err
	}
	return resp, nil
}

// AuthService signs shoppers in and out of a vendor storefront.
type AuthService struct {
	api shopperAPI
}

func NewAuthService(backend ShopperBackend, sessions SessionStore, logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{api: shopperAPI{backend: backend, sessions: sessions, logger: logger}}
}

type authPayload struct {
	Token       string        `json:"token"`
	AccessToken string        `json:"accessToken"`
	User        *shopper.User `json:"user"`
}

func (p authPayload) session() (shopper.VendorSession, bool) {
	token := p.Token
	if token == "" {
		token = p.AccessToken
	}
	return shopper.VendorSession{Token: token, User: p.User}, token != ""
}

// Login authenticates against the vendor backend and stores the session.
func (s *AuthService) Login(ctx context.Context, vendorID string, creds shopper.Credentials) (*shopper.VendorSession, error) {
	if err := Validate(creds); err != nil {
		return nil, err
	}
	resp, err := s.api.backend.TemplateAPIFetch(ctx, vendorID, "", backend.Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   creds,
	})
	if err != nil {
		return nil, err
	}
	return s.store(ctx, vendorID, resp)
}

// Register creates a shopper account. When the backend signs the shopper in
// directly the session is stored; otherwise the returned session is nil.
func (s *AuthService) Register(ctx context.Context, vendorID string, reg shopper.Registration) (*shopper.VendorSession, error) {
	if err := Validate(reg); err != nil {
		return nil, err
	}
	resp, err := s.api.backend.TemplateAPIFetch(ctx, vendorID, "", backend.Request{
		Method: http.MethodPost,
		Path:   "/register",
		Body:   reg,
	})
	if err != nil {
		return nil, err
	}
	session, err := s.store(ctx, vendorID, resp)
	if errors.Is(err, errNoToken) {
		return nil, nil
	}
	return session, err
}

var errNoToken = errors.New("authentication response carried no token")

func (s *AuthService) store(ctx context.Context, vendorID string, resp *backend.Response) (*shopper.VendorSession, error) {
	var payload authPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	session, ok := payload.session()
	if !ok {
		return nil, errNoToken
	}
	if err := s.api.sessions.SetAuth(ctx, vendorID, session); err != nil {
		return nil, err
	}
	s.api.logger.Session().Info("Shopper signed in", "vendorId", vendorID)
	return &session, nil
}

// Logout clears only this vendor's session.
func (s *AuthService) Logout(ctx context.Context, vendorID string) error {
	return s.api.sessions.ClearAuth(ctx, vendorID)
}

// Current returns the stored session without contacting the backend.
func (s *AuthService) Current(ctx context.Context, vendorID string) *shopper.VendorSession {
	return s.api.sessions.GetAuth(ctx, vendorID)
}

// Me refreshes the shopper profile and keeps the stored copy current.
func (s *AuthService) Me(ctx context.Context, vendorID string) (*shopper.User, error) {
	resp, err := s.api.call(ctx, vendorID, backend.Request{Path: "/me"})
	if err != nil {
		return nil, err
	}
	var wrapped struct {
		User *shopper.User `json:"user"`
	}
	if err := resp.Decode(&wrapped); err != nil {
		return nil, err
	}
	user := wrapped.User
	if user == nil {
		user = &shopper.User{}
		if err := resp.Decode(user); err != nil {
			return nil, err
		}
	}
	if session := s.api.sessions.GetAuth(ctx, vendorID); session != nil {
		session.User = user
		if err := s.api.sessions.SetAuth(ctx, vendorID, *session); err != nil {
			s.api.logger.Session().Warn("Failed to refresh stored profile", "vendorId", vendorID, "error", err)
		}
	}
	return user, nil
}
