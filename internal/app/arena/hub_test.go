package arena

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

	"bitarena/internal/app/bus"
	"bitarena/internal/app/room"
)

func newTestHub(t *testing.T) (*Hub, *bus.Bus) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	b := bus.NewWithClient(client)
	h := NewHub(b)
	t.Cleanup(h.Shutdown)

	return h, b
}

// testClient builds a Client without a live connection; only the send queue
// is exercised.
func testClient(username string) *Client {
	return NewClient(nil, room.Identity{UserID: uuid.New(), Username: username}, "lobby")
}

func receivePayload(t *testing.T, c *Client) map[string]any {
	t.Helper()

	select {
	case payload := <-c.send:
		var out map[string]any
		require.NoError(t, json.Unmarshal(payload, &out))
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func TestHubDeliversBusEventsToJoinedClients(t *testing.T) {
	h, b := newTestHub(t)

	topic := bus.RoomTopic(uuid.New())
	alice := testClient("alice")
	bob := testClient("bob")

	h.Join(topic, alice)
	h.Join(topic, bob)

	time.Sleep(50 * time.Millisecond)

	b.Publish(context.Background(), topic, map[string]any{"type": "ready_status", "username": "bob", "ready": true})

	for _, c := range []*Client{alice, bob} {
		out := receivePayload(t, c)
		assert.Equal(t, "ready_status", out["type"])
		assert.Equal(t, "bob", out["username"])
	}
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	h, b := newTestHub(t)

	topic := bus.RoomTopic(uuid.New())
	alice := testClient("alice")
	bob := testClient("bob")

	h.Join(topic, alice)
	h.Join(topic, bob)
	time.Sleep(50 * time.Millisecond)

	h.Leave(topic, bob)

	b.Publish(context.Background(), topic, map[string]any{"type": "countdown", "countdown": 3})

	out := receivePayload(t, alice)
	assert.Equal(t, "countdown", out["type"])

	select {
	case payload := <-bob.send:
		t.Fatalf("left client received event: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubPreservesPublishOrderPerClient(t *testing.T) {
	h, b := newTestHub(t)

	topic := bus.BattleTopic(uuid.New())
	alice := testClient("alice")
	h.Join(topic, alice)
	time.Sleep(50 * time.Millisecond)

	for i := 5; i >= 0; i-- {
		b.Publish(context.Background(), topic, map[string]any{"type": "countdown", "countdown": i})
	}

	for i := 5; i >= 0; i-- {
		out := receivePayload(t, alice)
		assert.Equal(t, float64(i), out["countdown"])
	}
}

func TestEnqueueAfterCloseIsSafe(t *testing.T) {
	alice := testClient("alice")
	alice.closeSend()

	// Must not panic.
	alice.enqueue([]byte(`{"type":"pong"}`))
}
