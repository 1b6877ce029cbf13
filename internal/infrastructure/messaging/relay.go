package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

var _ Relay = (*RedisRelay)(nil)

// RelayMessage is an editor message addressed to a preview session that may
// live on another instance.
type RelayMessage struct {
	VendorID  string          `json:"vendorId"`
	PreviewID string          `json:"previewId"`
	Origin    string          `json:"origin"`
	Body      json.RawMessage `json:"body"`
}

// RedisRelay carries relay messages over Redis pub/sub.
type RedisRelay struct {
	client        *redis.Client
	channelPrefix string
	logger        *logging.ChanneledLogger
}

func NewRedisRelay(client *redis.Client, prefix string, logger *logging.ChanneledLogger) *RedisRelay {
	return &RedisRelay{client: client, channelPrefix: prefix + ":preview:", logger: logger}
}

func (r *RedisRelay) Publish(ctx context.Context, msg RelayMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channelPrefix+msg.PreviewID, body).Err(); err != nil {
		return fmt.Errorf("failed to publish preview message: %w", err)
	}
	return nil
}

// Subscribe delivers every relayed message until ctx is cancelled.
func (r *RedisRelay) Subscribe(ctx context.Context, deliver func(RelayMessage)) error {
	pubsub := r.client.PSubscribe(ctx, r.channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to preview relay: %w", err)
	}
	r.logger.Preview().Info("Preview relay subscribed", "pattern", r.channelPrefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg RelayMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				r.logger.Preview().Warn("Discarding malformed relay message", "channel", m.Channel, "error", err)
				continue
			}
			if msg.PreviewID == "" {
				msg.PreviewID = strings.TrimPrefix(m.Channel, r.channelPrefix)
			}
			deliver(msg)
		}
	}
}
