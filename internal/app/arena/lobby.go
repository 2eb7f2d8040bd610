package arena

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bitarena/internal/app/bus"
	"bitarena/internal/app/events"
	"bitarena/internal/app/room"
	"bitarena/internal/app/store"
	"bitarena/internal/pkg/errs"
)

// LobbySession is one connection into a room's lobby. It translates client
// intents into room-service calls; all fan-out to the room happens through
// the bus so every node's clients observe the same ordered stream.
type LobbySession struct {
	client *Client
	hub    *Hub
	rooms  *room.Service
	keeper *Timekeeper
	store  *store.Store
	roomID uuid.UUID
	topic  string

	leaveOnce sync.Once
}

// RunRoomLobby joins the client to the room topic, announces the arrival,
// replays history, and blocks until the connection ends. The caller has
// already authenticated the user and ensured a joined participant row.
func RunRoomLobby(ctx context.Context, hub *Hub, rooms *room.Service, keeper *Timekeeper, s *store.Store, client *Client, roomID uuid.UUID) {
	session := &LobbySession{
		client: client,
		hub:    hub,
		rooms:  rooms,
		keeper: keeper,
		store:  s,
		roomID: roomID,
		topic:  bus.RoomTopic(roomID),
	}

	hub.Join(session.topic, client)

	username := client.Identity().Username
	rooms.PostSystemMessage(ctx, roomID, username+" joined the lobby")
	rooms.BroadcastParticipants(ctx, roomID)
	rooms.PublishRoomUpdate(ctx)
	session.sendChatHistory(ctx)

	client.Run(
		func(intentType string, payload map[string]any) { session.handle(ctx, intentType, payload) },
		func() { session.disconnect(ctx) },
	)
}

func (s *LobbySession) handle(ctx context.Context, intentType string, payload map[string]any) {
	switch intentType {
	case "request_participants":
		s.rooms.BroadcastParticipants(ctx, s.roomID)

	case "chat_message":
		s.handleChatMessage(ctx, payload)

	case "kick_participant":
		s.handleKick(ctx, payload)

	case "ready_toggle":
		ready, _ := payload["ready"].(bool)
		if customErr := s.rooms.SetReady(ctx, s.client.Identity(), s.roomID, ready); customErr != nil {
			s.client.SendErrorMessage(customErr.Message)
		}

	case "start_countdown":
		s.handleStartCountdown(ctx, payload)

	case "close_room":
		if customErr := s.rooms.Close(ctx, s.client.Identity(), s.roomID); customErr != nil {
			if customErr.Code == errs.ErrNotHost {
				s.client.SendErrorMessage("Only the host can close the room")
				return
			}
			s.client.SendErrorMessage("Failed to close room")
		}

	case "leave_room":
		s.leave(ctx)

	case "ping":
		s.client.SendJSON(events.NewPong())

	case "request_chat_history":
		s.sendChatHistory(ctx)

	default:
		s.client.SendErrorMessage("Unknown message type: " + intentType)
	}
}

func (s *LobbySession) handleChatMessage(ctx context.Context, payload map[string]any) {
	message, _ := payload["message"].(string)
	if message == "" {
		s.client.SendErrorMessage("Message cannot be empty")
		return
	}

	sender := s.client.Identity().Username
	if customErr := s.rooms.PostChat(ctx, s.roomID, sender, message, false); customErr != nil {
		s.client.SendErrorMessage(customErr.Message)
	}
}

func (s *LobbySession) handleKick(ctx context.Context, payload map[string]any) {
	target, _ := payload["username"].(string)
	if target == "" {
		s.client.SendErrorMessage("Username is required")
		return
	}

	if customErr := s.rooms.Kick(ctx, s.client.Identity(), s.roomID, target); customErr != nil {
		switch customErr.Code {
		case errs.ErrNotHost:
			s.client.SendErrorMessage("Only the host can kick participants")
		case errs.ErrParticipantNotFound:
			s.client.SendErrorMessage("Failed to kick " + target)
		default:
			s.client.SendErrorMessage(customErr.Message)
		}
	}
}

// handleStartCountdown validates the host's countdown request and hands the
// synchronized countdown to the timekeeper. The room must already carry a
// selected question (set by the start operation), and a ranked room requires
// every non-host participant to be ready.
func (s *LobbySession) handleStartCountdown(ctx context.Context, payload map[string]any) {
	isHost, customErr := s.rooms.IsHost(ctx, s.roomID, s.client.Identity().UserID)
	if customErr != nil {
		s.client.SendErrorMessage(customErr.Message)
		return
	}
	if !isHost {
		s.client.SendErrorMessage("Only the host can start the countdown")
		s.client.CloseWithCode(CloseHostOnly, "host only")
		return
	}

	r, err := s.store.GetRoom(ctx, s.roomID)
	if err != nil {
		s.client.SendErrorMessage("Room not found")
		s.client.CloseWithCode(CloseRoomUnauthorized, "room not found")
		return
	}

	if r.ActiveQuestion == nil {
		s.client.SendErrorMessage("No question selected")
		return
	}

	if r.IsRanked {
		participants, err := s.store.ListParticipants(ctx, s.roomID)
		if err != nil {
			s.client.SendErrorMessage("Failed to load participants")
			return
		}
		for _, p := range participants {
			if p.Role != store.RoleHost && p.Status == store.ParticipantJoined && !p.Ready {
				s.client.SendErrorMessage("All participants must be ready for ranked mode")
				s.client.CloseWithCode(CloseRankedNotReady, "ranked not ready")
				return
			}
		}
	}

	countdown := DefaultCountdown
	if n, ok := payload["countdown"].(float64); ok && n > 0 {
		countdown = int(n)
	}

	question := events.QuestionRef{ID: r.ActiveQuestion.String()}
	if q, err := s.store.GetQuestion(ctx, *r.ActiveQuestion); err == nil {
		question.Title = q.Title
		question.Difficulty = q.Difficulty
	}

	s.keeper.StartCountdown(s.roomID, question, *r.ActiveQuestion, countdown, r.IsRanked)
}

// leave marks the participant as gone exactly once, whether triggered by the
// leave_room intent or by the connection dropping.
func (s *LobbySession) leave(ctx context.Context) {
	s.leaveOnce.Do(func() {
		username := s.client.Identity().Username

		if customErr := s.rooms.Leave(ctx, s.client.Identity(), s.roomID); customErr != nil {
			return
		}

		r, err := s.store.GetRoom(ctx, s.roomID)
		if err == nil && !r.IsTerminal() {
			s.rooms.PostSystemMessage(ctx, s.roomID, username+" left the lobby")
		}
	})
}

func (s *LobbySession) disconnect(ctx context.Context) {
	s.leave(ctx)
	s.hub.Leave(s.topic, s.client)
}

func (s *LobbySession) sendChatHistory(ctx context.Context) {
	messages, customErr := s.rooms.ChatHistory(ctx, s.roomID)
	if customErr != nil {
		s.client.SendErrorMessage(customErr.Message)
		return
	}
	s.client.SendJSON(events.NewChatHistory(messages))
}
