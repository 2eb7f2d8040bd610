/*
Package bus is the named-group pub/sub fabric behind all realtime fan-out.

Topics are "rooms" for the global lobby list, "room_<id>" for one room's
lobby, and "battle_<id>" for the in-battle channel. The broker is Redis
pub/sub, so multiple server processes share a single logical bus. Within one
topic, messages reach each subscriber in publish order.

Publishing is best-effort: failures are logged and swallowed, the
surrounding database write stands, and clients re-sync with a request_*
intent.
*/
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/metrics"
)

// TopicRooms carries room-list snapshots for the global lobby.
const TopicRooms = "rooms"

// RoomTopic names the lobby channel of one room.
func RoomTopic(roomID uuid.UUID) string {
	return fmt.Sprintf("room_%s", roomID)
}

// BattleTopic names the in-battle channel of one room.
func BattleTopic(roomID uuid.UUID) string {
	return fmt.Sprintf("battle_%s", roomID)
}

// Bus publishes and subscribes JSON events on named topics.
type Bus struct {
	client *redis.Client
}

// New connects to the Redis broker and verifies the connection.
func New(ctx context.Context, redisURL string) (*Bus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Bus{client: client}, nil
}

// NewWithClient wraps an existing Redis client, used by tests.
func NewWithClient(client *redis.Client) *Bus {
	return &Bus{client: client}
}

// Close releases the broker connection.
func (b *Bus) Close() error {
	return b.client.Close()
}

// Publish marshals event as JSON and publishes it on topic. Failures are
// logged and swallowed; the bus has no back-channel and callers never treat
// a lost broadcast as a request failure.
func (b *Bus) Publish(ctx context.Context, topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logx.Error(err, "Failed to marshal event for publish", "topic", topic)
		return
	}

	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		logx.Error(err, "Failed to publish event", "topic", topic)
		return
	}

	metrics.EventsPublished.WithLabelValues(topicKind(topic)).Inc()
}

// Subscription is one live topic subscription. Messages preserves the
// broker's publish order.
type Subscription struct {
	pubsub *redis.PubSub
	out    chan []byte
	cancel context.CancelFunc
}

// Subscribe opens a subscription on topic. The returned Subscription delivers
// raw JSON payloads on Messages until Close is called or ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, topic string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)

	pubsub := b.client.Subscribe(ctx, topic)

	sub := &Subscription{
		pubsub: pubsub,
		out:    make(chan []byte, 256),
		cancel: cancel,
	}

	go sub.pump(ctx, topic)

	return sub
}

// pump forwards broker messages to the out channel in arrival order.
// A single goroutine per subscription keeps per-topic FIFO intact.
func (s *Subscription) pump(ctx context.Context, topic string) {
	defer close(s.out)

	ch := s.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case s.out <- []byte(msg.Payload):
			default:
				logx.Warn("Subscription buffer full, dropping event", "topic", topic)
			}
		}
	}
}

// Messages returns the ordered payload channel. It is closed when the
// subscription ends.
func (s *Subscription) Messages() <-chan []byte {
	return s.out
}

// Close terminates the subscription and its pump goroutine.
func (s *Subscription) Close() {
	s.cancel()
	if err := s.pubsub.Close(); err != nil {
		logx.Warn("Failed to close pubsub subscription", "error", err)
	}
}

func topicKind(topic string) string {
	switch {
	case topic == TopicRooms:
		return "rooms"
	case strings.HasPrefix(topic, "battle_"):
		return "battle"
	default:
		return "room"
	}
}
