package performance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers []*Marker
	alerts  []Alert
	mu      sync.RWMutex
	started time.Time
	config  *TrackerConfig
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers    int           `json:"maxMarkers"`
	MaxAlerts     int           `json:"maxAlerts"`
	SlowThreshold time.Duration `json:"slowThreshold"`
	Retention     time.Duration `json:"retention"`
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:    5000,
		MaxAlerts:     200,
		SlowThreshold: 2 * time.Second,
		Retention:     30 * time.Minute,
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		markers: make([]*Marker, 0, 256),
		started: time.Now(),
		config:  config,
	}
}

// StartOperation creates and tracks a new performance marker for an operation
func (t *Tracker) StartOperation(operation, vendorID string) *Marker {
	marker := &Marker{
		Operation: operation,
		VendorID:  vendorID,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true,
	}

	t.mu.Lock()
	t.markers = append(t.markers, marker)
	if over := len(t.markers) - t.config.MaxMarkers; over > 0 {
		t.markers = append(t.markers[:0:0], t.markers[over:]...)
	}
	t.mu.Unlock()

	return marker
}

// StartOperationWithContext fails the marker if ctx ends before completion
func (t *Tracker) StartOperationWithContext(ctx context.Context, operation, vendorID string) *Marker {
	marker := t.StartOperation(operation, vendorID)
	go func() {
		<-ctx.Done()
		t.mu.Lock()
		defer t.mu.Unlock()
		if !marker.Completed {
			marker.SetError(ctx.Err())
			marker.Complete()
		}
	}()
	return marker
}

// CompleteOperation completes a marker and records a slow alert when needed.
// Completing twice is a no-op.
func (t *Tracker) CompleteOperation(marker *Marker) {
	if marker == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if marker.Completed {
		return
	}
	marker.Complete()

	if t.config.SlowThreshold > 0 && marker.Duration > t.config.SlowThreshold {
		t.alerts = append(t.alerts, Alert{
			Timestamp: marker.EndTime,
			VendorID:  marker.VendorID,
			Operation: marker.Operation,
			Actual:    marker.Duration,
			Threshold: t.config.SlowThreshold,
		})
		if over := len(t.alerts) - t.config.MaxAlerts; over > 0 {
			t.alerts = append(t.alerts[:0:0], t.alerts[over:]...)
		}
	}
}

// Summary aggregates completed markers per operation, optionally for one vendor
func (t *Tracker) Summary(vendorID string) []OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byOp := make(map[string]*OperationStats)
	totals := make(map[string]time.Duration)
	for _, m := range t.markers {
		if !m.Completed || (vendorID != "" && m.VendorID != vendorID) {
			continue
		}
		stats, ok := byOp[m.Operation]
		if !ok {
			stats = &OperationStats{Operation: m.Operation}
			byOp[m.Operation] = stats
		}
		stats.Count++
		if !m.Success {
			stats.Failures++
		}
		if m.Duration > stats.Max {
			stats.Max = m.Duration
		}
		totals[m.Operation] += m.Duration
	}

	out := make([]OperationStats, 0, len(byOp))
	for op, stats := range byOp {
		stats.Average = totals[op] / time.Duration(stats.Count)
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Alerts returns a copy of the recorded slow-operation alerts
func (t *Tracker) Alerts() []Alert {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Alert(nil), t.alerts...)
}

// Cleanup drops completed markers older than the retention window
func (t *Tracker) Cleanup() int {
	cutoff := time.Now().Add(-t.config.Retention)

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.markers[:0]
	removed := 0
	for _, m := range t.markers {
		if m.Completed && m.EndTime.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	t.markers = kept
	return removed
}

// Uptime reports how long the tracker has been running
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
