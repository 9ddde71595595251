package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type relayEnvelope struct {
	ChatID int64           `json:"chat_id"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// RedisRelay publishes room events to a Redis channel. Every instance,
// including the publisher, delivers them to its local hub from Run.
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   *Hub
	logger  *zap.Logger
}

// NewRedisRelay creates a relay over the given client.
func NewRedisRelay(client *redis.Client, channel string, local *Hub, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, local: local, logger: logger}
}

// Emit publishes the event for all instances.
func (r *RedisRelay) Emit(ctx context.Context, chatID int64, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(relayEnvelope{ChatID: chatID, Event: event, Data: data})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, msg).Err()
}

// Run subscribes to the channel and delivers events locally until ctx ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("room relay subscribed", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("malformed relay message", zap.Error(err))
				continue
			}
			if err := r.local.Emit(ctx, env.ChatID, env.Event, env.Data); err != nil {
				r.logger.Warn("relay delivery failed", zap.Error(err))
			}
		}
	}
}
