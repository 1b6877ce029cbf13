package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/ratelimit"

	"github.com/AtRiskMedia/storefront-go/internal/domain/tracking"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/security"
)

const emitTimeout = 5 * time.Second

// Emitter posts analytics events one at a time, in enqueue order, at a
// bounded rate. Failures are logged and dropped.
type Emitter struct {
	queue  chan tracking.Event
	rl     ratelimit.Limiter
	sink   AnalyticsBackend
	logger *logging.ChanneledLogger
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewEmitter(sink AnalyticsBackend, queueSize, ratePerSecond int, logger *logging.ChanneledLogger) *Emitter {
	if queueSize <= 0 {
		queueSize = 1024
	}
	rl := ratelimit.NewUnlimited()
	if ratePerSecond > 0 {
		rl = ratelimit.New(ratePerSecond)
	}
	return &Emitter{
		queue:  make(chan tracking.Event, queueSize),
		rl:     rl,
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Enqueue queues an event without blocking; a full queue drops it.
func (e *Emitter) Enqueue(event tracking.Event) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false
	}
	select {
	case e.queue <- event:
		return true
	default:
		e.logger.Tracking().Warn("Analytics queue full, event dropped", "type", event.Type, "vendorId", event.VendorID)
		return false
	}
}

// Run posts queued events until the emitter is closed and drained.
func (e *Emitter) Run() {
	defer close(e.done)
	for event := range e.queue {
		e.rl.Take()
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		if err := e.sink.PostEvent(ctx, event); err != nil {
			e.logger.Tracking().Debug("Analytics event not delivered", "type", event.Type, "vendorId", event.VendorID, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to end.
func (e *Emitter) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth is the number of queued events.
func (e *Emitter) Depth() int {
	return len(e.queue)
}

type sessionTracker struct {
	mu      sync.Mutex
	tracker *tracking.Tracker
}

// TrackingService pairs page views with durations per browsing session and
// hands the events to the emitter.
type TrackingService struct {
	mu          sync.Mutex
	trackers    map[string]*sessionTracker
	emitter     *Emitter
	geo         AnalyticsBackend
	clock       tracking.Clock
	idleTimeout time.Duration
	logger      *logging.ChanneledLogger
}

func NewTrackingService(emitter *Emitter, geo AnalyticsBackend, idleTimeout time.Duration, logger *logging.ChanneledLogger) *TrackingService {
	return &TrackingService{
		trackers:    make(map[string]*sessionTracker),
		emitter:     emitter,
		geo:         geo,
		clock:       time.Now,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

func trackerKey(vendorID, sessionID string) string {
	return vendorID + "\x00" + sessionID
}

func (s *TrackingService) session(vendorID, sessionID string) *sessionTracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := trackerKey(vendorID, sessionID)
	st, ok := s.trackers[key]
	if !ok {
		st = &sessionTracker{tracker: tracking.NewTracker(s.clock, security.GenerateULID)}
		s.trackers[key] = st
	}
	return st
}

// RecordView handles a route entry: the previous page's duration is emitted
// before this page's view.
func (s *TrackingService) RecordView(ctx context.Context, view tracking.PageView) {
	if view.Geo == nil && view.Identity.ClientIP != "" && s.geo != nil {
		geo, err := s.geo.LookupGeo(ctx, view.Identity.ClientIP)
		if err != nil {
			s.logger.Tracking().Debug("Geo lookup failed", "error", err)
		}
		view.Geo = geo
	}

	st := s.session(view.VendorID, view.Identity.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, event := range st.tracker.Enter(view) {
		s.emitter.Enqueue(event)
	}
}

// RecordExit closes the open visit when path still matches it.
func (s *TrackingService) RecordExit(vendorID, sessionID, path string) {
	s.mu.Lock()
	st, ok := s.trackers[trackerKey(vendorID, sessionID)]
	s.mu.Unlock()
	if !ok {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, event := range st.tracker.Exit(path) {
		s.emitter.Enqueue(event)
	}
}

// EvictIdle closes and forgets sessions idle for longer than the idle
// timeout, or every session when all is set.
func (s *TrackingService) EvictIdle(all bool) int {
	cutoff := s.clock().Add(-s.idleTimeout)

	s.mu.Lock()
	var stale []*sessionTracker
	for key, st := range s.trackers {
		st.mu.Lock()
		idle := st.tracker.LastActivity().Before(cutoff)
		st.mu.Unlock()
		if all || idle {
			stale = append(stale, st)
			delete(s.trackers, key)
		}
	}
	s.mu.Unlock()

	for _, st := range stale {
		st.mu.Lock()
		for _, event := range st.tracker.Exit("") {
			s.emitter.Enqueue(event)
		}
		st.mu.Unlock()
	}
	return len(stale)
}

// Start runs the emitter and the idle sweeper until ctx is cancelled.
func (s *TrackingService) Start(ctx context.Context) {
	go s.emitter.Run()

	interval := s.idleTimeout / 2
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(false); n > 0 {
				s.logger.Tracking().Debug("Closed idle visits", "count", n)
			}
		}
	}
}

// Shutdown closes every open visit and drains the emitter.
func (s *TrackingService) Shutdown(ctx context.Context) error {
	s.EvictIdle(true)
	return s.emitter.Close(ctx)
}

// QueueDepth reports the emitter backlog.
func (s *TrackingService) QueueDepth() int {
	return s.emitter.Depth()
}

// ActiveSessions is the number of tracked browsing sessions.
func (s *TrackingService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trackers)
}
