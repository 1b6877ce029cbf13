package tracking

import (
	"strings"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// IDFunc generates event ids.
type IDFunc func() string

type visit struct {
	view     PageView
	viewedAt time.Time
}

// Tracker holds the open visit of one browsing session. It is not safe for
// concurrent use; callers serialize access per session.
type Tracker struct {
	now     Clock
	newID   IDFunc
	current *visit
	last    time.Time
}

func NewTracker(now Clock, newID IDFunc) *Tracker {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = func() string { return "" }
	}
	return &Tracker{now: now, newID: newID}
}

// Enter records a route entry. When a visit is open its page_duration comes
// first in the returned slice, followed by the new page_view.
func (t *Tracker) Enter(view PageView) []Event {
	now := t.now()
	t.last = now
	events := make([]Event, 0, 2)
	if d, ok := t.close(now); ok {
		events = append(events, d)
	}
	t.current = &visit{view: view, viewedAt: now}
	device := view.Device
	events = append(events, Event{
		ID:        t.newID(),
		Type:      EventPageView,
		VendorID:  view.VendorID,
		Path:      view.Path,
		Referrer:  view.Referrer,
		Timestamp: now,
		Device:    &device,
		Geo:       view.Geo,
		Identity:  view.Identity,
	})
	return events
}

// Exit closes the open visit. A non-empty path that does not match the open
// visit is stale (already closed by a later entry) and yields nothing.
func (t *Tracker) Exit(path string) []Event {
	if t.current == nil {
		return nil
	}
	if path != "" && !samePath(path, t.current.view.Path) {
		return nil
	}
	now := t.now()
	t.last = now
	if d, ok := t.close(now); ok {
		return []Event{d}
	}
	return nil
}

// Open reports the path of the open visit.
func (t *Tracker) Open() (string, bool) {
	if t.current == nil {
		return "", false
	}
	return t.current.view.Path, true
}

// LastActivity is the time of the latest Enter or Exit.
func (t *Tracker) LastActivity() time.Time {
	return t.last
}

func (t *Tracker) close(now time.Time) (Event, bool) {
	if t.current == nil {
		return Event{}, false
	}
	v := t.current
	t.current = nil
	started := v.viewedAt
	elapsed := now.Sub(started).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return Event{
		ID:         t.newID(),
		Type:       EventPageDuration,
		VendorID:   v.view.VendorID,
		Path:       v.view.Path,
		Timestamp:  now,
		StartedAt:  &started,
		DurationMs: elapsed,
		Identity:   v.view.Identity,
	}, true
}

func samePath(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
