package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a Bus backed by Redis pub/sub, the cross-instance signal path.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

type redisEnvelope struct {
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

// NewRedis wraps an existing Redis client.
func NewRedis(client *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, logger: logger}
}

// Publish sends the message on the topic's channel.
func (b *Redis) Publish(ctx context.Context, topic, origin string, payload []byte) error {
	raw, err := json.Marshal(redisEnvelope{Origin: origin, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal bus message for %s: %w", topic, err)
	}
	if err := b.client.Publish(ctx, topic, raw).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a pattern subscription. Redis glob patterns are used
// directly, so "sync.student.*" subscribes to every student topic.
func (b *Redis) Subscribe(pattern string, fn Handler) func() {
	ctx, cancel := context.WithCancel(context.Background())
	ps := b.client.PSubscribe(ctx, pattern)

	go func() {
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env redisEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.logger.Warn("dropping malformed bus message",
						zap.String("pattern", pattern), zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				fn(Message{Topic: msg.Channel, Origin: env.Origin, Payload: env.Payload})
			}
		}
	}()

	return func() {
		cancel()
		if err := ps.Close(); err != nil {
			b.logger.Warn("failed to close subscription", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

// Close is a no-op; the underlying client is owned by the caller.
func (b *Redis) Close() error {
	return nil
}
