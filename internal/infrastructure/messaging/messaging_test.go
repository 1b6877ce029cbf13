package messaging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

func TestBroadcasterScopesByPreview(t *testing.T) {
	b := NewSSEBroadcaster(logging.NewDiscardLogger())
	a := b.AddClient("v1", "p1")
	other := b.AddClient("v1", "p2")
	assert.Equal(t, 1, b.ConnectionCount("v1", "p1"))

	b.Publish("v1", "p1", "select", map[string]string{"sectionId": "hero"})

	select {
	case msg := <-a:
		assert.True(t, strings.HasPrefix(msg, "event: select\ndata: "))
		assert.Contains(t, msg, `"sectionId":"hero"`)
	default:
		t.Fatal("expected message")
	}
	select {
	case <-other:
		t.Fatal("message leaked to another preview")
	default:
	}

	b.RemoveClient(a, "v1", "p1")
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 0, b.ConnectionCount("v1", "p1"))
}

func TestHubRoutesFrames(t *testing.T) {
	hub := NewPreviewHub(logging.NewDiscardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := NewPreviewClient(nil, "v1", "p1", 4)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, time.Millisecond)

	assert.True(t, hub.Send("p1", []byte("hello")))
	assert.False(t, hub.Send("missing", []byte("x")))
	assert.Equal(t, []byte("hello"), <-client.Send)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, time.Millisecond)
	_, open := <-client.Send
	assert.False(t, open)
}
