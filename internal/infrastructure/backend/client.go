// Package backend is the REST client for the vendor commerce backend: template
// documents, catalog data, the shopper template API, analytics ingestion and
// IP geolocation.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

// Config configures the backend client.
type Config struct {
	BaseURL      string
	AssetBaseURL string
	VendorToken  string
	Timeout      time.Duration
	RetryCount   int
	AnalyticsURL string
	GeoURL       string
	GeoTimeout   time.Duration
}

// ErrForeignAsset is returned for asset URLs outside the asset host.
var ErrForeignAsset = errors.New("asset is not on the asset host")

// Client talks to the vendor backend over HTTP.
type Client struct {
	http      *resty.Client
	assets    *resty.Client
	assetHost string
	cfg       Config
	logger    *logging.ChanneledLogger
}

func NewClient(cfg Config, logger *logging.ChanneledLogger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.GeoTimeout <= 0 {
		cfg.GeoTimeout = 2 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "storefront-go")

	var assetHost string
	if u, err := url.Parse(cfg.AssetBaseURL); err == nil {
		assetHost = strings.ToLower(u.Host)
	}
	// redirects may not leave the asset host either
	assetClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "storefront-go").
		SetRedirectPolicy(
			resty.FlexibleRedirectPolicy(5),
			resty.RedirectPolicyFunc(func(req *http.Request, _ []*http.Request) error {
				if strings.ToLower(req.URL.Host) != assetHost {
					return ErrForeignAsset
				}
				return nil
			}),
		)

	return &Client{http: httpClient, assets: assetClient, assetHost: assetHost, cfg: cfg, logger: logger}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.assets.Close()
	return c.http.Close()
}

// OnAssetHost reports whether rawURL points at the configured asset host.
func (c *Client) OnAssetHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return c.assetHost != "" && strings.ToLower(u.Host) == c.assetHost
}

// AssetURL resolves a backend-relative asset path.
func (c *Client) AssetURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "data:") {
		return path
	}
	return strings.TrimRight(c.cfg.AssetBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// get fetches a backend path and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, path string, query map[string]string, token string) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	for k, v := range query {
		req.SetQueryParam(k, v)
	}

	start := time.Now()
	resp, err := req.Get(c.cfg.BaseURL + path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	c.logger.Backend().Debug("Backend request", "method", "GET", "path", path, "status", resp.StatusCode(), "duration", time.Since(start))
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}
	return resp.Bytes(), nil
}

// extractList finds the item array in a list response: a bare array,
// {data: [...]}, {<key>: [...]} or {data: {<key>: [...]}}.
func extractList(body []byte, keys ...string) ([]any, bool) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, false
	}
	return listFrom(decoded, keys, 0)
}

func listFrom(v any, keys []string, depth int) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		if depth > 1 {
			return nil, false
		}
		for _, key := range append([]string{"data"}, keys...) {
			if inner, ok := t[key]; ok {
				if list, ok := listFrom(inner, keys, depth+1); ok {
					return list, true
				}
			}
		}
	}
	return nil, false
}

// unwrapData returns body.data when present, else the body itself.
func unwrapData(body []byte) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		return envelope.Data
	}
	return body
}

// FetchAsset downloads an asset from the asset host. Any other URL yields
// ErrForeignAsset without a request being made.
func (c *Client) FetchAsset(ctx context.Context, assetURL string) ([]byte, error) {
	if !c.OnAssetHost(assetURL) {
		return nil, ErrForeignAsset
	}
	resp, err := c.assets.R().SetContext(ctx).SetHeader("Accept", "image/*").Get(assetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}
	return resp.Bytes(), nil
}
