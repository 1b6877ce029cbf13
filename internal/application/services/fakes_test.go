package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/domain/tracking"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
)

var errBackendDown = errors.New("backend down")

type fakeBackend struct {
	template      map[string]any
	templateErr   error
	products      []catalog.Product
	productsErr   error
	categories    []catalog.Category
	subcategories []catalog.Subcategory
	profile       *backend.VendorProfile
	block         chan struct{}
}

func (f *fakeBackend) wait(ctx context.Context) error {
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) FetchTemplate(ctx context.Context, vendorID string, page template.PageType) (*template.Resolution, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.templateErr != nil {
		return nil, f.templateErr
	}
	res, ok := template.Resolve(f.template)
	if !ok {
		return nil, template.ErrNoPayload
	}
	return res, nil
}

func (f *fakeBackend) FetchProducts(ctx context.Context, vendorID string) ([]catalog.Product, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.products, f.productsErr
}

func (f *fakeBackend) FetchCategories(ctx context.Context) ([]catalog.Category, error) {
	return f.categories, nil
}

func (f *fakeBackend) FetchSubcategories(ctx context.Context) ([]catalog.Subcategory, error) {
	return f.subcategories, nil
}

func (f *fakeBackend) FetchVendorProfile(ctx context.Context, vendorID string) (*backend.VendorProfile, error) {
	if f.profile == nil {
		return nil, errBackendDown
	}
	return f.profile, nil
}

func newStorefront(b *fakeBackend) *StorefrontService {
	logger := logging.NewDiscardLogger()
	cache := manager.NewManager(time.Minute, time.Minute, logger)
	return NewStorefrontService(
		NewTemplateService(b, logger),
		NewCatalogService(b, cache, logger),
		logger,
		performance.NewTracker(nil),
	)
}

type apiCall struct {
	Token string
	Req   backend.Request
}

// fakeShopperAPI answers template API calls from a route table keyed by
// "METHOD path".
type fakeShopperAPI struct {
	mu     sync.Mutex
	routes map[string]func(token string) (*backend.Response, error)
	calls  []apiCall
}

func newFakeShopperAPI() *fakeShopperAPI {
	return &fakeShopperAPI{routes: map[string]func(string) (*backend.Response, error){}}
}

func (f *fakeShopperAPI) on(method, path string, status int, body string) {
	f.routes[method+" "+path] = func(string) (*backend.Response, error) {
		if status >= 400 {
			return nil, &backend.APIError{Status: status, Message: body}
		}
		return &backend.Response{Status: status, Body: []byte(body), ContentType: "application/json"}, nil
	}
}

func (f *fakeShopperAPI) TemplateAPIFetch(ctx context.Context, vendorID, token string, r backend.Request) (*backend.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Method == "" {
		r.Method = "GET"
	}
	f.calls = append(f.calls, apiCall{Token: token, Req: r})
	handler, ok := f.routes[r.Method+" "+r.Path]
	if !ok {
		return nil, &backend.APIError{Status: 404, Message: "not found"}
	}
	return handler(token)
}

func (f *fakeShopperAPI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Req.Method + " " + c.Req.Path
	}
	return out
}

type memorySessions struct {
	mu    sync.Mutex
	auth  map[string]shopper.VendorSession
	clear []string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{auth: map[string]shopper.VendorSession{}}
}

func (m *memorySessions) GetAuth(ctx context.Context, vendorID string) *shopper.VendorSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.auth[vendorID]
	if !ok {
		return nil
	}
	return &s
}

func (m *memorySessions) SetAuth(ctx context.Context, vendorID string, session shopper.VendorSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth[vendorID] = session
	return nil
}

func (m *memorySessions) ClearAuth(ctx context.Context, vendorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.auth, vendorID)
	m.clear = append(m.clear, vendorID)
	return nil
}

func (m *memorySessions) Identity(ctx context.Context, vendorID, clientIP string, visitorTTL time.Duration) (tracking.Identity, error) {
	return tracking.Identity{VisitorID: "visitor-" + vendorID, SessionID: "session", ClientIP: clientIP}, nil
}

type recordingAnalytics struct {
	mu     sync.Mutex
	events []tracking.Event
	posted chan struct{}
	geo    *tracking.Geo
}

func newRecordingAnalytics() *recordingAnalytics {
	return &recordingAnalytics{posted: make(chan struct{}, 64)}
}

func (r *recordingAnalytics) PostEvent(ctx context.Context, event tracking.Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.posted <- struct{}{}
	return nil
}

func (r *recordingAnalytics) LookupGeo(ctx context.Context, ip string) (*tracking.Geo, error) {
	return r.geo, nil
}

func (r *recordingAnalytics) snapshot() []tracking.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tracking.Event(nil), r.events...)
}
