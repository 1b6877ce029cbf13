package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/AtRiskMedia/storefront-go/internal/domain/preview"
	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/security"
)

var (
	ErrTooManyPreviews = errors.New("too many open preview sessions")
	ErrUnknownPreview  = errors.New("unknown preview session")
)

// PreviewRenderer renders a page body for a preview state.
type PreviewRenderer interface {
	RenderPreview(data *PageData, state preview.State) (string, error)
}

// PreviewFrame is pushed to the preview page after every applied patch.
type PreviewFrame struct {
	Type         string   `json:"type"`
	HTML         string   `json:"html"`
	SectionOrder []string `json:"sectionOrder"`
	Seq          int      `json:"seq"`
}

// PreviewSession owns the in-memory template of one open preview. All
// messages pass through its mailbox and are applied in arrival order.
type PreviewSession struct {
	ID       string
	VendorID string
	Page     template.PageType
	Origin   string

	data    *PageData
	mailbox chan preview.Inbound
	mu      sync.RWMutex
	closed  bool
	state   preview.State
	stateMu sync.RWMutex
	done    chan struct{}
}

// State returns the session's current state.
func (s *PreviewSession) State() preview.State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// deliver queues a message; false once the session is detached.
func (s *PreviewSession) deliver(in preview.Inbound) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	s.mailbox <- in
	return true
}

func (s *PreviewSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.mailbox)
	}
}

// PreviewConfig bounds preview resources.
type PreviewConfig struct {
	MaxSessions int
	MailboxSize int
}

// PreviewService keeps the registry of open preview sessions.
type PreviewService struct {
	mu          sync.RWMutex
	sessions    map[string]*PreviewSession
	storefront  *StorefrontService
	renderer    PreviewRenderer
	sink        messaging.Sink
	events      messaging.Broadcaster
	relay       messaging.Relay
	config      PreviewConfig
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

func NewPreviewService(
	storefront *StorefrontService,
	renderer PreviewRenderer,
	sink messaging.Sink,
	events messaging.Broadcaster,
	relay messaging.Relay,
	config PreviewConfig,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *PreviewService {
	if config.MailboxSize <= 0 {
		config.MailboxSize = 256
	}
	return &PreviewService{
		sessions:    make(map[string]*PreviewSession),
		storefront:  storefront,
		renderer:    renderer,
		sink:        sink,
		events:      events,
		relay:       relay,
		config:      config,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// AttachRequest opens a preview for one page as seen from origin.
type AttachRequest struct {
	PreviewID string
	VendorID  string
	Page      template.PageType
	Origin    string
}

// Attach snapshots the page data and starts the session's mailbox.
func (p *PreviewService) Attach(ctx context.Context, req AttachRequest) (*PreviewSession, error) {
	p.mu.RLock()
	full := p.config.MaxSessions > 0 && len(p.sessions) >= p.config.MaxSessions
	p.mu.RUnlock()
	if full {
		return nil, ErrTooManyPreviews
	}

	// editors preview against current stock and prices
	p.storefront.Refresh(req.VendorID)
	data, err := p.storefront.LoadPage(ctx, req.VendorID, req.Page)
	if err != nil {
		return nil, err
	}
	return p.open(req, data)
}

func (p *PreviewService) open(req AttachRequest, data *PageData) (*PreviewSession, error) {
	id := req.PreviewID
	if id == "" {
		id = security.GenerateULID()
	}
	state := preview.NewState(data.Resolution)
	state.SectionOrder = append([]string{}, data.SectionOrder...)

	session := &PreviewSession{
		ID:       id,
		VendorID: req.VendorID,
		Page:     req.Page,
		Origin:   req.Origin,
		data:     data,
		mailbox:  make(chan preview.Inbound, p.config.MailboxSize),
		state:    state,
		done:     make(chan struct{}),
	}

	p.mu.Lock()
	previous, replacing := p.sessions[id]
	if !replacing && p.config.MaxSessions > 0 && len(p.sessions) >= p.config.MaxSessions {
		p.mu.Unlock()
		return nil, ErrTooManyPreviews
	}
	if replacing {
		previous.close()
	}
	p.sessions[id] = session
	p.mu.Unlock()

	go p.run(session)
	p.logger.Preview().Info("Preview attached", "vendorId", req.VendorID, "previewId", id, "page", req.Page)
	return session, nil
}

// Detach stops a session; later messages for it are dropped.
func (p *PreviewService) Detach(previewID string) {
	p.mu.Lock()
	session, ok := p.sessions[previewID]
	if ok {
		delete(p.sessions, previewID)
	}
	p.mu.Unlock()
	if ok {
		session.close()
		<-session.done
		p.logger.Preview().Info("Preview detached", "vendorId", session.VendorID, "previewId", previewID)
	}
}

// Release detaches s unless its id has since been taken by a newer attach.
func (p *PreviewService) Release(s *PreviewSession) {
	p.mu.Lock()
	current, ok := p.sessions[s.ID]
	owned := ok && current == s
	if owned {
		delete(p.sessions, s.ID)
	}
	p.mu.Unlock()
	if owned {
		s.close()
		<-s.done
		p.logger.Preview().Info("Preview released", "vendorId", s.VendorID, "previewId", s.ID)
	}
}

// Session returns a registered session.
func (p *PreviewService) Session(previewID string) (*PreviewSession, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[previewID]
	return s, ok
}

// Deliver hands an inbound message to the local session. It reports false
// when the session is not open here.
func (p *PreviewService) Deliver(previewID string, in preview.Inbound) bool {
	session, ok := p.Session(previewID)
	if !ok {
		return false
	}
	return session.deliver(in)
}

// Submit delivers an editor message locally or relays it to the instance
// holding the session.
func (p *PreviewService) Submit(ctx context.Context, vendorID, previewID string, in preview.Inbound, raw []byte) error {
	if session, ok := p.Session(previewID); ok {
		if session.VendorID != vendorID {
			return ErrUnknownPreview
		}
		if session.deliver(in) {
			return nil
		}
	}
	if p.relay == nil {
		return ErrUnknownPreview
	}
	return p.relay.Publish(ctx, messaging.RelayMessage{
		VendorID:  vendorID,
		PreviewID: previewID,
		Origin:    in.Origin,
		Body:      raw,
	})
}

// StartRelay consumes relayed messages until ctx ends.
func (p *PreviewService) StartRelay(ctx context.Context) error {
	if p.relay == nil {
		return nil
	}
	return p.relay.Subscribe(ctx, func(msg messaging.RelayMessage) {
		session, ok := p.Session(msg.PreviewID)
		if !ok || session.VendorID != msg.VendorID {
			return
		}
		in, err := preview.Decode(msg.Body)
		if err != nil {
			p.logger.Preview().Debug("Dropping undecodable relay message", "previewId", msg.PreviewID, "error", err)
			return
		}
		in.Origin = msg.Origin
		session.deliver(in)
	})
}

// Count is the number of open sessions.
func (p *PreviewService) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

// Shutdown detaches every session.
func (p *PreviewService) Shutdown() {
	p.mu.RLock()
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.RUnlock()
	for _, id := range ids {
		p.Detach(id)
	}
}

func (p *PreviewService) run(s *PreviewSession) {
	defer close(s.done)
	for in := range s.mailbox {
		p.handle(s, in)
	}
}

func (p *PreviewService) handle(s *PreviewSession, in preview.Inbound) {
	log := p.logger.Preview()
	if !preview.SameOrigin(in.Origin, s.Origin) {
		log.Debug("Dropping message from foreign origin", "previewId", s.ID, "origin", in.Origin)
		return
	}

	if sel, ok := in.Message.(preview.Select); ok {
		if sel.VendorID == "" {
			sel.VendorID = s.VendorID
		}
		body, err := preview.Encode(sel)
		if err != nil {
			log.Error("Failed to encode select message", "previewId", s.ID, "error", err)
			return
		}
		p.events.Publish(s.VendorID, s.ID, string(preview.KindSelect), json.RawMessage(body))
		return
	}

	marker := p.perfTracker.StartOperation("preview_apply", s.VendorID)
	defer p.perfTracker.CompleteOperation(marker)
	marker.AddMetadata("type", string(in.Message.Kind()))

	next, err := preview.Apply(s.State(), in.Message)
	if err != nil {
		marker.SetError(err)
		log.Debug("Preview patch rejected", "previewId", s.ID, "type", in.Message.Kind(), "error", err)
		p.events.Publish(s.VendorID, s.ID, "rejected", map[string]any{"type": in.Message.Kind(), "error": err.Error()})
		return
	}
	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()

	html, err := p.renderer.RenderPreview(s.data, next)
	if err != nil {
		marker.SetError(err)
		log.Error("Preview render failed", "previewId", s.ID, "error", err)
		return
	}
	frame, err := json.Marshal(PreviewFrame{Type: "preview-state", HTML: html, SectionOrder: next.SectionOrder, Seq: next.Version})
	if err != nil {
		log.Error("Failed to encode preview frame", "previewId", s.ID, "error", err)
		return
	}
	p.sink.Send(s.ID, frame)
	p.events.Publish(s.VendorID, s.ID, "ack", map[string]any{"type": in.Message.Kind(), "seq": next.Version})
}
