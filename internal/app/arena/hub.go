/*
Package arena bridges the event bus to websocket clients.

The Hub owns one local subscriber group per bus topic: the first client
joining a topic opens the Redis subscription, the last one leaving closes
it. A single delivery goroutine per group preserves the bus's per-topic
publish order for every local client.
*/
package arena

import (
	"context"
	"sync"

	"bitarena/internal/app/bus"
	"bitarena/internal/pkg/logx"
)

// Hub fans bus events out to the websocket clients subscribed locally.
type Hub struct {
	bus *bus.Bus

	mu     sync.Mutex
	groups map[string]*group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// group is the local subscriber set of one topic.
type group struct {
	topic   string
	mu      sync.RWMutex
	clients map[*Client]struct{}
	sub     *bus.Subscription
}

// NewHub constructs a Hub over the given bus.
func NewHub(b *bus.Bus) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		bus:    b,
		groups: make(map[string]*group),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Join subscribes a client to a topic, opening the broker subscription when
// the client is the topic's first local subscriber.
func (h *Hub) Join(topic string, c *Client) {
	h.mu.Lock()
	g, ok := h.groups[topic]
	if !ok {
		g = &group{
			topic:   topic,
			clients: make(map[*Client]struct{}),
			sub:     h.bus.Subscribe(h.ctx, topic),
		}
		h.groups[topic] = g

		h.wg.Add(1)
		go h.deliver(g)
	}
	h.mu.Unlock()

	g.mu.Lock()
	g.clients[c] = struct{}{}
	g.mu.Unlock()
}

// Leave unsubscribes a client from a topic, closing the broker subscription
// when no local subscriber remains.
func (h *Hub) Leave(topic string, c *Client) {
	h.mu.Lock()
	g, ok := h.groups[topic]
	if !ok {
		h.mu.Unlock()
		return
	}

	g.mu.Lock()
	delete(g.clients, c)
	empty := len(g.clients) == 0
	g.mu.Unlock()

	if empty {
		delete(h.groups, topic)
		g.sub.Close()
	}
	h.mu.Unlock()
}

// deliver forwards bus payloads to every client of a group in arrival order.
func (h *Hub) deliver(g *group) {
	defer h.wg.Done()

	for payload := range g.sub.Messages() {
		g.mu.RLock()
		for c := range g.clients {
			c.enqueue(payload)
		}
		g.mu.RUnlock()
	}

	logx.Logger().Debug().Str("topic", g.topic).Msg("Delivery loop finished.")
}

// Shutdown closes every subscription and waits for the delivery loops.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	for topic, g := range h.groups {
		g.sub.Close()
		delete(h.groups, topic)
	}
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()
	logx.Info("Arena hub shutdown complete.")
}
