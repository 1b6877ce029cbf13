package performance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryAndAlerts(t *testing.T) {
	tracker := NewTracker(&TrackerConfig{MaxMarkers: 10, MaxAlerts: 10, SlowThreshold: time.Nanosecond, Retention: time.Hour})

	ok := tracker.StartOperation("page:home", "v1")
	ok.StartTime = ok.StartTime.Add(-time.Millisecond)
	tracker.CompleteOperation(ok)
	tracker.CompleteOperation(ok)

	failed := tracker.StartOperation("page:home", "v1")
	failed.StartTime = failed.StartTime.Add(-time.Millisecond)
	failed.SetError(errors.New("boom"))
	tracker.CompleteOperation(failed)

	other := tracker.StartOperation("page:cart", "v2")
	other.StartTime = other.StartTime.Add(-time.Millisecond)
	tracker.CompleteOperation(other)

	tracker.StartOperation("page:open", "v1")

	summary := tracker.Summary("v1")
	require.Len(t, summary, 1)
	assert.Equal(t, "page:home", summary[0].Operation)
	assert.Equal(t, 2, summary[0].Count)
	assert.Equal(t, 1, summary[0].Failures)

	assert.Len(t, tracker.Summary(""), 2)
	assert.Len(t, tracker.Alerts(), 3)
}

func TestMarkerCap(t *testing.T) {
	tracker := NewTracker(&TrackerConfig{MaxMarkers: 3, MaxAlerts: 1, Retention: time.Hour})
	for i := 0; i < 5; i++ {
		tracker.CompleteOperation(tracker.StartOperation("op", "v"))
	}
	assert.Equal(t, 3, tracker.Summary("v")[0].Count)
}

func TestCleanupRemovesOldMarkers(t *testing.T) {
	tracker := NewTracker(&TrackerConfig{MaxMarkers: 10, Retention: -time.Second})
	tracker.CompleteOperation(tracker.StartOperation("op", "v"))
	tracker.StartOperation("running", "v")
	assert.Equal(t, 1, tracker.Cleanup())
	assert.Empty(t, tracker.Summary("v"))
}
