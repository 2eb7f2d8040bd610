package arena

import (
	"context"

	"github.com/google/uuid"

	"bitarena/internal/app/bus"
	"bitarena/internal/app/events"
	"bitarena/internal/app/store"
)

// BattleSession is one connection into a running battle's channel. The
// submission pipeline and the timekeeper publish here; the socket itself
// only accepts liveness pings.
type BattleSession struct {
	client *Client
	hub    *Hub
	topic  string
}

// RunBattle joins the client to the battle topic, greets it, makes sure the
// room's battle clock is running, and blocks until the connection ends.
func RunBattle(ctx context.Context, hub *Hub, keeper *Timekeeper, s *store.Store, client *Client, roomID uuid.UUID) {
	session := &BattleSession{
		client: client,
		hub:    hub,
		topic:  bus.BattleTopic(roomID),
	}

	hub.Join(session.topic, client)
	client.SendJSON(events.NewConnected("Connected to battle room: " + roomID.String()))

	// Whichever of the start call and the battle sockets asks first owns
	// the room's clock; later callers find it already running.
	if r, err := s.GetRoom(ctx, roomID); err == nil {
		if r.Status == store.RoomStatusPlaying && r.TimeLimit > 0 {
			keeper.EnsureBattleTimer(roomID)
		}
	}

	client.Run(
		func(intentType string, payload map[string]any) { session.handle(intentType) },
		func() { hub.Leave(session.topic, client) },
	)
}

func (s *BattleSession) handle(intentType string) {
	switch intentType {
	case "ping":
		s.client.SendJSON(events.NewPong())
	default:
		s.client.SendErrorMessage("Unknown message type: " + intentType)
	}
}
