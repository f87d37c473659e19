package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"campuslink/pkg/logger"
)

const publishTimeout = 2 * time.Second

// Sink receives payloads published by other instances.
type Sink interface {
	Broadcast(roomID string, payload []byte)
}

type envelope struct {
	Origin  string          `json:"origin"`
	RoomID  string          `json:"room_id"`
	Payload json.RawMessage `json:"payload"`
}

// RedisRelay mirrors locally dispatched room payloads to other processes over
// Redis pub/sub. Each room maps to the channel prefix+roomID. Delivery is
// best-effort and carries no ordering guarantee across instances.
type RedisRelay struct {
	client *redis.Client
	prefix string
	origin string
}

func NewRedisRelay(client *redis.Client, prefix string) *RedisRelay {
	return &RedisRelay{
		client: client,
		prefix: prefix,
		origin: uuid.New().String(),
	}
}

func (r *RedisRelay) channel(roomID string) string {
	return r.prefix + roomID
}

// Publish matches the websocket hub's publisher hook.
func (r *RedisRelay) Publish(roomID string, payload []byte) {
	data, err := json.Marshal(envelope{Origin: r.origin, RoomID: roomID, Payload: payload})
	if err != nil {
		logger.Error("Relay: failed to encode payload for room %s: %v", roomID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel(roomID), data).Err(); err != nil {
		logger.Warn("Relay: publish to room %s failed: %v", roomID, err)
	}
}

// Start subscribes to every room channel and forwards foreign payloads to
// sink until ctx is cancelled. It returns once the subscription is live.
func (r *RedisRelay) Start(ctx context.Context, sink Sink) error {
	pubsub := r.client.PSubscribe(ctx, r.prefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe to %s*: %w", r.prefix, err)
	}

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.forward(msg, sink)
			}
		}
	}()

	logger.Info("Relay subscribed to %s*", r.prefix)
	return nil
}

func (r *RedisRelay) forward(msg *redis.Message, sink Sink) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		logger.Warn("Relay: dropping malformed message on %s: %v", msg.Channel, err)
		return
	}
	if env.Origin == r.origin {
		return
	}

	roomID := env.RoomID
	if roomID == "" {
		roomID = strings.TrimPrefix(msg.Channel, r.prefix)
	}
	sink.Broadcast(roomID, env.Payload)
}
