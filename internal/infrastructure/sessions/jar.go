// Package sessions keeps per-browser state: the cookie jar that names a
// browser, the per-vendor shopper sessions, and visitor identity.
package sessions

import (
	"context"
	"errors"
	"net/http"
	"time"

	gsessions "github.com/gorilla/sessions"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/security"
)

const (
	durableCookie = "sf_browser"
	sessionCookie = "sf_session"
	idValue       = "id"
)

// ErrNoBrowser is returned when a request carries no browser scope.
var ErrNoBrowser = errors.New("no browser scope")

// BrowserScope names one browser: BrowserID survives restarts, SessionID
// lasts for the browser session.
type BrowserScope struct {
	BrowserID string
	SessionID string
}

type scopeKey struct{}

// WithScope attaches a browser scope to ctx.
func WithScope(ctx context.Context, scope BrowserScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the browser scope attached to ctx.
func ScopeFrom(ctx context.Context) (BrowserScope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(BrowserScope)
	return scope, ok && scope.BrowserID != ""
}

// JarConfig configures the browser cookies.
type JarConfig struct {
	Secret     string
	Secure     bool
	DurableTTL time.Duration
}

// Jar issues and reads the two browser cookies.
type Jar struct {
	durable *gsessions.CookieStore
	session *gsessions.CookieStore
	logger  *logging.ChanneledLogger
}

func NewJar(cfg JarConfig, logger *logging.ChanneledLogger) (*Jar, error) {
	keys, err := security.DeriveCookieKeys(cfg.Secret)
	if err != nil {
		return nil, err
	}

	durable := gsessions.NewCookieStore(keys.Hash, keys.Block)
	durable.MaxAge(int(cfg.DurableTTL.Seconds()))
	configure(durable.Options, cfg.Secure)

	session := gsessions.NewCookieStore(keys.Hash, keys.Block)
	session.MaxAge(0)
	configure(session.Options, cfg.Secure)

	return &Jar{durable: durable, session: session, logger: logger}, nil
}

func configure(opts *gsessions.Options, secure bool) {
	opts.Path = "/"
	opts.HttpOnly = true
	opts.Secure = secure
	opts.SameSite = http.SameSiteLaxMode
}

// Resolve reads the browser cookies, issuing fresh ids for any that are
// missing or unreadable.
func (j *Jar) Resolve(w http.ResponseWriter, r *http.Request) (BrowserScope, error) {
	browserID, err := j.ensure(j.durable, durableCookie, w, r)
	if err != nil {
		return BrowserScope{}, err
	}
	sessionID, err := j.ensure(j.session, sessionCookie, w, r)
	if err != nil {
		return BrowserScope{}, err
	}
	return BrowserScope{BrowserID: browserID, SessionID: sessionID}, nil
}

func (j *Jar) ensure(store *gsessions.CookieStore, name string, w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := store.Get(r, name)
	if err != nil {
		// a cookie signed with an older secret decodes as a new session
		j.logger.Session().Debug("Discarding unreadable cookie", "cookie", name, "error", err)
	}
	if id, ok := sess.Values[idValue].(string); ok && id != "" {
		return id, nil
	}
	id := security.GenerateUUID()
	sess.Values[idValue] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}
