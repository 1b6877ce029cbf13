// Package messaging provides the SSE broadcaster, the preview socket hub and
// the cross-instance relay.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

var _ Broadcaster = (*SSEBroadcaster)(nil)

// SSEBroadcaster manages vendor-scoped, preview-specific SSE connections.
type SSEBroadcaster struct {
	vendorSessions map[string]map[string][]chan string // vendorId -> previewId -> []channels
	mu             sync.Mutex
	logger         *logging.ChanneledLogger
}

func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	return &SSEBroadcaster{
		vendorSessions: make(map[string]map[string][]chan string),
		logger:         logger,
	}
}

// AddClient registers a new SSE client for one preview session.
func (b *SSEBroadcaster) AddClient(vendorID, previewID string) chan string {
	ch := make(chan string, 32)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.vendorSessions[vendorID] == nil {
		b.vendorSessions[vendorID] = make(map[string][]chan string)
	}
	b.vendorSessions[vendorID][previewID] = append(b.vendorSessions[vendorID][previewID], ch)

	b.logger.Preview().Debug("SSE client registered", "vendorId", vendorID, "previewId", previewID)
	return ch
}

// RemoveClient removes an SSE client and closes its channel.
func (b *SSEBroadcaster) RemoveClient(ch chan string, vendorID, previewID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vendorSessions, exists := b.vendorSessions[vendorID]
	if !exists {
		return
	}
	clients := vendorSessions[previewID]
	kept := make([]chan string, 0, len(clients))
	for _, client := range clients {
		if client == ch {
			close(ch)
			continue
		}
		kept = append(kept, client)
	}
	if len(kept) == 0 {
		delete(vendorSessions, previewID)
	} else {
		vendorSessions[previewID] = kept
	}
	if len(vendorSessions) == 0 {
		delete(b.vendorSessions, vendorID)
	}
	b.logger.Preview().Debug("SSE client unregistered", "vendorId", vendorID, "previewId", previewID)
}

// ConnectionCount returns the number of SSE clients on a preview session.
func (b *SSEBroadcaster) ConnectionCount(vendorID, previewID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.vendorSessions[vendorID][previewID])
}

// Publish sends one named event to every client of a preview session.
// Full client channels drop the event.
func (b *SSEBroadcaster) Publish(vendorID, previewID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Preview().Error("Failed to encode SSE payload", "event", event, "error", err)
		return
	}
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.vendorSessions[vendorID][previewID] {
		select {
		case ch <- message:
		default:
			b.logger.Preview().Warn("SSE channel full, message dropped", "vendorId", vendorID, "previewId", previewID, "event", event)
		}
	}
}
