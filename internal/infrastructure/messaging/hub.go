package messaging

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

var _ Sink = (*PreviewHub)(nil)

// PreviewClient is one connected preview page.
type PreviewClient struct {
	Conn      *websocket.Conn
	VendorID  string
	PreviewID string
	Send      chan []byte
}

func NewPreviewClient(conn *websocket.Conn, vendorID, previewID string, buffer int) *PreviewClient {
	return &PreviewClient{Conn: conn, VendorID: vendorID, PreviewID: previewID, Send: make(chan []byte, buffer)}
}

// PreviewHub tracks connected preview sockets by preview id.
type PreviewHub struct {
	clients    map[string]*PreviewClient
	register   chan *PreviewClient
	unregister chan *PreviewClient
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logging.ChanneledLogger
}

func NewPreviewHub(logger *logging.ChanneledLogger) *PreviewHub {
	return &PreviewHub{
		clients:    make(map[string]*PreviewClient),
		register:   make(chan *PreviewClient),
		unregister: make(chan *PreviewClient),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop. This should be run as a goroutine.
func (h *PreviewHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if previous, ok := h.clients[client.PreviewID]; ok {
				close(previous.Send)
			}
			h.clients[client.PreviewID] = client
			h.mu.Unlock()
			h.logger.Preview().Debug("Preview socket registered", "vendorId", client.VendorID, "previewId", client.PreviewID)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.PreviewID]; ok && current == client {
				delete(h.clients, client.PreviewID)
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Preview().Debug("Preview socket unregistered", "vendorId", client.VendorID, "previewId", client.PreviewID)
		}
	}
}

// Register queues a client for registration. It reports false once the hub
// has stopped.
func (h *PreviewHub) Register(client *PreviewClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister queues a client for unregistration.
func (h *PreviewHub) Unregister(client *PreviewClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Send queues a frame for the preview's socket without blocking.
func (h *PreviewHub) Send(previewID string, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[previewID]
	if !ok {
		return false
	}
	select {
	case client.Send <- frame:
		return true
	default:
		h.logger.Preview().Warn("Preview socket buffer full, frame dropped", "previewId", previewID)
		return false
	}
}

// Count returns the number of connected preview sockets.
func (h *PreviewHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
