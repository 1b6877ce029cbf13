package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/domain/preview"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	clientBuffer   = 16
)

// PreviewTransport configures the preview socket and event stream.
type PreviewTransport struct {
	WriteTimeout time.Duration
	Heartbeat    time.Duration
}

// PreviewHandlers serves the live preview socket, the remote editor message
// endpoint and the editor event stream.
type PreviewHandlers struct {
	previews    *services.PreviewService
	hub         *messaging.PreviewHub
	events      *messaging.SSEBroadcaster
	transport   PreviewTransport
	upgrader    websocket.Upgrader
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewPreviewHandlers creates preview handlers with injected dependencies
func NewPreviewHandlers(previews *services.PreviewService, hub *messaging.PreviewHub, events *messaging.SSEBroadcaster, transport PreviewTransport, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PreviewHandlers {
	if transport.WriteTimeout <= 0 {
		transport.WriteTimeout = 10 * time.Second
	}
	if transport.Heartbeat <= 0 {
		transport.Heartbeat = 30 * time.Second
	}
	return &PreviewHandlers{
		previews:  previews,
		hub:       hub,
		events:    events,
		transport: transport,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return preview.SameOrigin(r.Header.Get("Origin"), requestOrigin(r))
			},
		},
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// requestOrigin is the scheme://host the page was served from.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}

// GetSocket handles GET /api/v1/preview/:vendorId/ws
func (h *PreviewHandlers) GetSocket(c *gin.Context) {
	vendorID := c.Param("vendorId")
	marker := h.perfTracker.StartOperation("preview_attach", vendorID)

	session, err := h.previews.Attach(c.Request.Context(), services.AttachRequest{
		PreviewID: c.Query("previewId"),
		VendorID:  vendorID,
		Page:      pageParam(c),
		Origin:    requestOrigin(c.Request),
	})
	if err != nil {
		marker.SetError(err)
		h.perfTracker.CompleteOperation(marker)
		if errors.Is(err, services.ErrTooManyPreviews) {
			h.logger.Preview().Warn("Preview session limit reached", "vendorId", vendorID, "sessions", h.previews.Count())
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many preview sessions, try again later"})
			return
		}
		c.Abort()
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		marker.SetError(err)
		h.perfTracker.CompleteOperation(marker)
		h.logger.Preview().Warn("Preview socket upgrade failed", "vendorId", vendorID, "origin", c.GetHeader("Origin"), "error", err)
		h.previews.Release(session)
		return
	}
	marker.SetSuccess(true)
	h.perfTracker.CompleteOperation(marker)

	client := messaging.NewPreviewClient(conn, vendorID, session.ID, clientBuffer)
	client.Send <- []byte(fmt.Sprintf(`{"type":"attached","previewId":%q,"seq":%d}`, session.ID, session.State().Version))
	if !h.hub.Register(client) {
		conn.Close()
		h.previews.Release(session)
		return
	}

	go h.writePump(client)
	h.readPump(client, session)

	h.hub.Unregister(client)
	h.previews.Release(session)
}

// readPump feeds socket messages into the session mailbox until the socket
// closes.
func (h *PreviewHandlers) readPump(client *messaging.PreviewClient, session *services.PreviewSession) {
	conn := client.Conn
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Preview().Warn("Preview socket closed unexpectedly", "previewId", session.ID, "error", err)
			}
			return
		}
		in, err := preview.Decode(raw)
		if err != nil {
			h.logger.Preview().Debug("Dropping undecodable preview message", "previewId", session.ID, "error", err)
			h.events.Publish(session.VendorID, session.ID, "rejected", gin.H{"error": err.Error()})
			continue
		}
		if !h.previews.Deliver(session.ID, in) {
			return
		}
	}
}

func (h *PreviewHandlers) writePump(client *messaging.PreviewClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(h.transport.WriteTimeout))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Preview().Debug("Preview socket write failed", "previewId", client.PreviewID, "error", err)
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(h.transport.WriteTimeout))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PostMessage handles POST /api/v1/preview/:vendorId/sessions/:previewId/messages
func (h *PreviewHandlers) PostMessage(c *gin.Context) {
	vendorID := c.Param("vendorId")
	previewID := c.Param("previewId")
	marker := h.perfTracker.StartOperation("preview_message_request", vendorID)
	defer h.perfTracker.CompleteOperation(marker)

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxMessageSize))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "message too large"})
		return
	}
	in, err := preview.Decode(raw)
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// only the browser-set header counts on this path
	in.Origin = c.GetHeader("Origin")

	if err := h.previews.Submit(c.Request.Context(), vendorID, previewID, in, raw); err != nil {
		marker.SetError(err)
		if errors.Is(err, services.ErrUnknownPreview) {
			c.JSON(http.StatusNotFound, gin.H{"error": "preview session not found"})
			return
		}
		h.logger.Preview().Error("Failed to relay preview message", "vendorId", vendorID, "previewId", previewID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "preview relay unavailable"})
		return
	}
	marker.SetSuccess(true)
	c.JSON(http.StatusAccepted, gin.H{"accepted": true, "type": in.Message.Kind()})
}

// GetEvents handles GET /api/v1/preview/:vendorId/sessions/:previewId/events
func (h *PreviewHandlers) GetEvents(c *gin.Context) {
	vendorID := c.Param("vendorId")
	previewID := c.Param("previewId")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Preview().Debug("Event stream keeps the server write timeout", "previewId", previewID, "error", err)
	}

	ch := h.events.AddClient(vendorID, previewID)
	defer h.events.RemoveClient(ch, vendorID, previewID)

	c.Writer.WriteString(fmt.Sprintf("event: connected\ndata: {\"previewId\":%q,\"timestamp\":%q}\n\n", previewID, time.Now().UTC().Format(time.RFC3339)))
	c.Writer.Flush()

	h.logger.Preview().Info("Preview event stream opened", "vendorId", vendorID, "previewId", previewID)

	ticker := time.NewTicker(h.transport.Heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	opened := time.Now()
	for {
		select {
		case <-ctx.Done():
			h.logger.Preview().Info("Preview event stream closed", "vendorId", vendorID, "previewId", previewID, "connectionDuration", time.Since(opened))
			return

		case message, ok := <-ch:
			if !ok {
				return
			}
			if _, err := c.Writer.WriteString(message); err != nil {
				h.logger.Preview().Debug("SSE write failed", "previewId", previewID, "error", err)
				return
			}
			c.Writer.Flush()

		case <-ticker.C:
			if _, err := c.Writer.WriteString(": heartbeat\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
