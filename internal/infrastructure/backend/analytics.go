package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/AtRiskMedia/storefront-go/internal/domain/tracking"
)

// AnalyticsEnabled reports whether an ingestion URL is configured.
func (c *Client) AnalyticsEnabled() bool {
	return c.cfg.AnalyticsURL != ""
}

// PostEvent sends one analytics event.
func (c *Client) PostEvent(ctx context.Context, event tracking.Event) error {
	if c.cfg.AnalyticsURL == "" {
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(c.cfg.AnalyticsURL)
	if err != nil {
		return fmt.Errorf("failed to post event: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}
	return nil
}

// LookupGeo resolves a public client IP to a coarse location. Private and
// loopback addresses are never sent out.
func (c *Client) LookupGeo(ctx context.Context, ip string) (*tracking.Geo, error) {
	if c.cfg.GeoURL == "" {
		return nil, nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.GeoTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		Get(strings.TrimRight(c.cfg.GeoURL, "/") + "/" + url.PathEscape(ip))
	if err != nil {
		return nil, fmt.Errorf("geo lookup failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	var payload struct {
		Country     string `json:"country"`
		CountryName string `json:"country_name"`
		Region      string `json:"region"`
		RegionName  string `json:"regionName"`
		City        string `json:"city"`
	}
	if err := json.Unmarshal(resp.Bytes(), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode geo response: %w", err)
	}
	geo := &tracking.Geo{
		Country: first(payload.CountryName, payload.Country),
		Region:  first(payload.RegionName, payload.Region),
		City:    payload.City,
	}
	return geo, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
