package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"snowwatch/internal/models"
)

// streamMaxLen keeps the alert stream from growing without bound
const streamMaxLen = 500

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisNotifier publishes notifications to a Redis stream. A desktop agent or
// cmd/alerts consumes the stream and shows them.
type RedisNotifier struct {
	client streamAdder
	stream string
}

func NewRedisNotifier(client streamAdder, stream string) *RedisNotifier {
	return &RedisNotifier{client: client, stream: stream}
}

// StreamMessage is the payload stored under the "data" field of each entry
type StreamMessage struct {
	Notification models.Notification `json:"notification"`
	SentAt       time.Time           `json:"sent_at"`
}

func (n *RedisNotifier) Deliver(ctx context.Context, notification models.Notification) error {
	data, err := json.Marshal(StreamMessage{
		Notification: notification,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize notification: %w", err)
	}

	err = n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish notification to %s: %w", n.stream, err)
	}
	return nil
}
