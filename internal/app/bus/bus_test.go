package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewWithClient(client)
}

func receive(t *testing.T, sub *Subscription) []byte {
	t.Helper()

	select {
	case payload := <-sub.Messages():
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	topic := RoomTopic(uuid.New())
	sub := b.Subscribe(ctx, topic)
	defer sub.Close()

	// miniredis delivers only to already-registered subscribers.
	time.Sleep(50 * time.Millisecond)

	b.Publish(ctx, topic, map[string]any{"type": "chat_message", "message": "hello"})

	var event map[string]any
	require.NoError(t, json.Unmarshal(receive(t, sub), &event))
	assert.Equal(t, "chat_message", event["type"])
	assert.Equal(t, "hello", event["message"])
}

func TestSubscriberReceivesInPublishOrder(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	topic := BattleTopic(uuid.New())
	sub := b.Subscribe(ctx, topic)
	defer sub.Close()

	time.Sleep(50 * time.Millisecond)

	for i := range 20 {
		b.Publish(ctx, topic, map[string]any{"type": "countdown", "countdown": i})
	}

	for i := range 20 {
		var event map[string]any
		require.NoError(t, json.Unmarshal(receive(t, sub), &event))
		assert.Equal(t, float64(i), event["countdown"])
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	roomA := RoomTopic(uuid.New())
	roomB := RoomTopic(uuid.New())

	subA := b.Subscribe(ctx, roomA)
	defer subA.Close()
	subB := b.Subscribe(ctx, roomB)
	defer subB.Close()

	time.Sleep(50 * time.Millisecond)

	b.Publish(ctx, roomA, map[string]any{"type": "participant_left", "username": "bob"})

	var event map[string]any
	require.NoError(t, json.Unmarshal(receive(t, subA), &event))
	assert.Equal(t, "participant_left", event["type"])

	select {
	case payload := <-subB.Messages():
		t.Fatalf("unexpected event on isolated topic: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseEndsMessageStream(t *testing.T) {
	b := newTestBus(t)

	sub := b.Subscribe(context.Background(), TopicRooms)
	sub.Close()

	select {
	case _, ok := <-sub.Messages():
		assert.False(t, ok, "messages channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("messages channel did not close")
	}
}
