// Package messaging defines interfaces for real-time communication.
package messaging

import "context"

// Broadcaster manages SSE client connections for remote preview editors.
type Broadcaster interface {
	AddClient(vendorID, previewID string) chan string
	RemoveClient(ch chan string, vendorID, previewID string)
	ConnectionCount(vendorID, previewID string) int
	Publish(vendorID, previewID, event string, payload any)
}

// Sink delivers outbound frames to the preview socket for a session.
type Sink interface {
	Send(previewID string, frame []byte) bool
}

// Relay fans editor messages out to whichever instance holds the session.
type Relay interface {
	Publish(ctx context.Context, msg RelayMessage) error
	Subscribe(ctx context.Context, deliver func(RelayMessage)) error
}
