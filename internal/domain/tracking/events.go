// Package tracking models storefront visit events and the state machine that
// pairs each page_view with exactly one page_duration.
package tracking

import "time"

type EventType string

const (
	EventPageView     EventType = "page_view"
	EventPageDuration EventType = "page_duration"
)

type Identity struct {
	VisitorID string `json:"visitorId"`
	SessionID string `json:"sessionId"`
	ClientIP  string `json:"clientIp,omitempty"`
}

type Device struct {
	DeviceType string `json:"deviceType"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	UserAgent  string `json:"userAgent,omitempty"`
	Viewport   string `json:"viewport,omitempty"`
	Screen     string `json:"screen,omitempty"`
	Locale     string `json:"locale,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

// Geo is the best-effort location attached to page views.
type Geo struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

type Event struct {
	ID         string     `json:"eventId"`
	Type       EventType  `json:"type"`
	VendorID   string     `json:"vendorId"`
	Path       string     `json:"path"`
	Referrer   string     `json:"referrer,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	DurationMs int64      `json:"durationMs"`
	Device     *Device    `json:"device,omitempty"`
	Geo        *Geo       `json:"geo,omitempty"`
	Identity
}

// PageView is the data a route entry reports.
type PageView struct {
	VendorID string
	Path     string
	Referrer string
	Device   Device
	Geo      *Geo
	Identity Identity
}
