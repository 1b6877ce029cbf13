package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/domain/preview"
	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
)

const editorOrigin = "https://editor.example"

type bannerRenderer struct{}

func (bannerRenderer) RenderPreview(data *PageData, state preview.State) (string, error) {
	return state.Template.Theme().BannerColor, nil
}

type frameSink struct {
	frames chan PreviewFrame
}

func (s *frameSink) Send(previewID string, frame []byte) bool {
	var f PreviewFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		return false
	}
	s.frames <- f
	return true
}

type published struct {
	Event   string
	Payload any
}

type eventLog struct {
	mu     sync.Mutex
	events []published
	signal chan struct{}
}

func (e *eventLog) AddClient(vendorID, previewID string) chan string        { return nil }
func (e *eventLog) RemoveClient(ch chan string, vendorID, previewID string) {}
func (e *eventLog) ConnectionCount(vendorID, previewID string) int          { return 0 }

func (e *eventLog) Publish(vendorID, previewID, event string, payload any) {
	e.mu.Lock()
	e.events = append(e.events, published{Event: event, Payload: payload})
	e.mu.Unlock()
	e.signal <- struct{}{}
}

func (e *eventLog) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	for i, p := range e.events {
		out[i] = p.Event
	}
	return out
}

func newTestPreview(t *testing.T, max int) (*PreviewService, *frameSink, *eventLog) {
	t.Helper()
	sink := &frameSink{frames: make(chan PreviewFrame, 64)}
	events := &eventLog{signal: make(chan struct{}, 64)}
	svc := NewPreviewService(
		newStorefront(&fakeBackend{templateErr: errBackendDown}),
		bannerRenderer{},
		sink,
		events,
		nil,
		PreviewConfig{MaxSessions: max, MailboxSize: 8},
		logging.NewDiscardLogger(),
		performance.NewTracker(nil),
	)
	t.Cleanup(svc.Shutdown)
	return svc, sink, events
}

func waitFrame(t *testing.T, sink *frameSink) PreviewFrame {
	t.Helper()
	select {
	case f := <-sink.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no preview frame")
		return PreviewFrame{}
	}
}

func waitEvent(t *testing.T, events *eventLog) {
	t.Helper()
	select {
	case <-events.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("no preview event")
	}
}

func theme(color string) preview.Inbound {
	return preview.Inbound{Origin: editorOrigin, Message: preview.ThemePatch{Token: "bannerColor", Value: color}}
}

func TestPreviewAppliesPatchesInArrivalOrder(t *testing.T) {
	svc, sink, events := newTestPreview(t, 0)
	session, err := svc.Attach(context.Background(), AttachRequest{VendorID: "v1", Page: template.PageHome, Origin: editorOrigin})
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)

	colors := []string{"#000001", "#000002", "#000003", "#000004"}
	for _, c := range colors {
		require.True(t, svc.Deliver(session.ID, theme(c)))
	}
	for i, c := range colors {
		f := waitFrame(t, sink)
		assert.Equal(t, "preview-state", f.Type)
		assert.Equal(t, c, f.HTML)
		assert.Equal(t, i+1, f.Seq)
		waitEvent(t, events)
	}
	assert.Equal(t, "#000004", session.State().Template.Theme().BannerColor)
	assert.Equal(t, []string{"ack", "ack", "ack", "ack"}, events.names())
}

func TestPreviewDropsForeignOrigin(t *testing.T) {
	svc, sink, events := newTestPreview(t, 0)
	session, err := svc.Attach(context.Background(), AttachRequest{VendorID: "v1", Page: template.PageHome, Origin: editorOrigin})
	require.NoError(t, err)

	foreign := theme("#badbad")
	foreign.Origin = "https://evil.example"
	require.True(t, svc.Deliver(session.ID, foreign))
	require.True(t, svc.Deliver(session.ID, theme("#00ff00")))

	f := waitFrame(t, sink)
	assert.Equal(t, "#00ff00", f.HTML)
	assert.Equal(t, 1, f.Seq)
	waitEvent(t, events)
}

func TestPreviewSelectAndRejectedPatch(t *testing.T) {
	svc, sink, events := newTestPreview(t, 0)
	session, err := svc.Attach(context.Background(), AttachRequest{VendorID: "v1", Page: template.PageHome, Origin: editorOrigin})
	require.NoError(t, err)

	svc.Deliver(session.ID, preview.Inbound{Origin: editorOrigin, Message: preview.Select{Page: "home", SectionID: "hero"}})
	svc.Deliver(session.ID, preview.Inbound{Origin: editorOrigin, Message: preview.ThemePatch{Token: ""}})
	waitEvent(t, events)
	waitEvent(t, events)

	assert.Equal(t, []string{string(preview.KindSelect), "rejected"}, events.names())
	sel, ok := events.events[0].Payload.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"template-editor-select","vendorId":"v1","page":"home","sectionId":"hero"}`, string(sel))
	assert.Empty(t, sink.frames)
	assert.Equal(t, 0, session.State().Version)
}

func TestPreviewDetachAndLimit(t *testing.T) {
	svc, _, _ := newTestPreview(t, 1)
	session, err := svc.Attach(context.Background(), AttachRequest{PreviewID: "p1", VendorID: "v1", Page: template.PageHome, Origin: editorOrigin})
	require.NoError(t, err)
	assert.Equal(t, "p1", session.ID)

	_, err = svc.Attach(context.Background(), AttachRequest{VendorID: "v1", Page: template.PageHome, Origin: editorOrigin})
	assert.ErrorIs(t, err, ErrTooManyPreviews)

	svc.Detach("p1")
	assert.Equal(t, 0, svc.Count())
	assert.False(t, svc.Deliver("p1", theme("#fff")))
	assert.False(t, session.deliver(theme("#fff")))

	err = svc.Submit(context.Background(), "v1", "p1", theme("#fff"), nil)
	assert.ErrorIs(t, err, ErrUnknownPreview)
}

// loopRelay connects instances in one process the way Redis pub/sub does.
type loopRelay struct {
	ch chan messaging.RelayMessage
}

func (r *loopRelay) Publish(ctx context.Context, msg messaging.RelayMessage) error {
	select {
	case r.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *loopRelay) Subscribe(ctx context.Context, deliver func(messaging.RelayMessage)) error {
	for {
		select {
		case msg := <-r.ch:
			deliver(msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func TestSubmitReachesSessionOnAnotherInstance(t *testing.T) {
	relay := &loopRelay{ch: make(chan messaging.RelayMessage, 4)}
	build := func() (*PreviewService, *frameSink) {
		sink := &frameSink{frames: make(chan PreviewFrame, 8)}
		svc := NewPreviewService(
			newStorefront(&fakeBackend{templateErr: errBackendDown}),
			bannerRenderer{},
			sink,
			&eventLog{signal: make(chan struct{}, 8)},
			relay,
			PreviewConfig{MailboxSize: 8},
			logging.NewDiscardLogger(),
			performance.NewTracker(nil),
		)
		t.Cleanup(svc.Shutdown)
		return svc, sink
	}
	front, _ := build()
	holder, sink := build()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go holder.StartRelay(ctx)

	_, err := holder.Attach(ctx, AttachRequest{PreviewID: "p9", VendorID: "v1", Page: template.PageHome, Origin: editorOrigin})
	require.NoError(t, err)

	raw := []byte(`{"type":"theme-patch","token":"bannerColor","value":"#123456"}`)
	in, err := preview.Decode(raw)
	require.NoError(t, err)
	in.Origin = editorOrigin
	require.NoError(t, front.Submit(ctx, "v1", "p9", in, raw))

	f := waitFrame(t, sink)
	assert.Equal(t, "#123456", f.HTML)
	assert.Equal(t, 1, f.Seq)
}

func TestPreviewLimitHoldsUnderConcurrentAttach(t *testing.T) {
	release := make(chan struct{})
	b := &fakeBackend{templateErr: errBackendDown, block: release}
	svc := NewPreviewService(newStorefront(b), bannerRenderer{}, &frameSink{frames: make(chan PreviewFrame, 8)},
		&eventLog{signal: make(chan struct{}, 8)}, nil, PreviewConfig{MaxSessions: 2, MailboxSize: 8},
		logging.NewDiscardLogger(), performance.NewTracker(nil))
	t.Cleanup(svc.Shutdown)

	const attempts = 6
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Attach(context.Background(), AttachRequest{VendorID: "v1", Page: template.PageHome, Origin: editorOrigin})
			errs <- err
		}()
	}
	// every attach is past the early check and waiting on page data
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	var opened, refused int
	for err := range errs {
		switch {
		case err == nil:
			opened++
		case errors.Is(err, ErrTooManyPreviews):
			refused++
		}
	}
	assert.Equal(t, 2, opened)
	assert.Equal(t, attempts-2, refused)
	assert.Equal(t, 2, svc.Count())
}

func TestAttachRefetchesCatalog(t *testing.T) {
	b := &fakeBackend{templateErr: errBackendDown, products: []catalog.Product{{ID: "old"}}}
	storefront := newStorefront(b)
	_, err := storefront.LoadPage(context.Background(), "v1", template.PageHome)
	require.NoError(t, err)

	b.products = []catalog.Product{{ID: "new"}}
	svc := NewPreviewService(storefront, bannerRenderer{}, &frameSink{frames: make(chan PreviewFrame, 8)},
		&eventLog{signal: make(chan struct{}, 8)}, nil, PreviewConfig{MailboxSize: 8},
		logging.NewDiscardLogger(), performance.NewTracker(nil))
	t.Cleanup(svc.Shutdown)

	session, err := svc.Attach(context.Background(), AttachRequest{VendorID: "v1", Page: template.PageHome, Origin: editorOrigin})
	require.NoError(t, err)
	require.Len(t, session.data.Catalog.Products, 1)
	assert.Equal(t, "new", session.data.Catalog.Products[0].ID)
}
