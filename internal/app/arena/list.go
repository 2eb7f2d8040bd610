package arena

import (
	"context"

	"bitarena/internal/app/bus"
	"bitarena/internal/app/events"
	"bitarena/internal/app/room"
)

// GlobalLobbySession streams the room list to one connection: a snapshot on
// connect, room_update fan-outs from the bus afterwards.
type GlobalLobbySession struct {
	client *Client
	hub    *Hub
	rooms  *room.Service
}

// RunGlobalLobby subscribes the client to the rooms topic, sends the initial
// snapshot, and blocks until the connection ends.
func RunGlobalLobby(ctx context.Context, hub *Hub, rooms *room.Service, client *Client) {
	s := &GlobalLobbySession{client: client, hub: hub, rooms: rooms}

	hub.Join(bus.TopicRooms, client)
	s.sendRoomList(ctx)

	client.Run(
		func(intentType string, payload map[string]any) { s.handle(ctx, intentType) },
		func() { hub.Leave(bus.TopicRooms, client) },
	)
}

func (s *GlobalLobbySession) handle(ctx context.Context, intentType string) {
	switch intentType {
	case "request_room_list":
		s.sendRoomList(ctx)
	case "ping":
		s.client.SendJSON(events.NewPong())
	default:
		s.client.SendErrorMessage("Unknown message type: " + intentType)
	}
}

func (s *GlobalLobbySession) sendRoomList(ctx context.Context) {
	views, customErr := s.rooms.ListActive(ctx)
	if customErr != nil {
		s.client.SendErrorMessage("Error sending room list: " + customErr.Message)
		s.client.CloseWithCode(CloseSendError, "room list unavailable")
		return
	}
	s.client.SendJSON(events.NewRoomList(views))
}
