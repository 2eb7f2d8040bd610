/*
Package events defines the realtime payloads carried over the bus and down
websocket connections.

Every payload is a JSON object with a string "type" field; clients dispatch
on it. Constructors keep the wire shapes in one place so the HTTP, socket,
and background paths emit identical events.
*/
package events

import (
	"time"

	"github.com/google/uuid"

	"bitarena/internal/app/store"
)

// Event type names, as dispatched on by clients.
const (
	TypeRoomList          = "room_list"
	TypeRoomUpdate        = "room_update"
	TypeChatMessage       = "chat_message"
	TypeChatHistory       = "chat_history"
	TypeParticipantList   = "participant_list"
	TypeParticipantUpdate = "participant_update"
	TypeParticipantLeft   = "participant_left"
	TypeReadyStatus       = "ready_status"
	TypeBattleReady       = "battle_ready"
	TypeCountdown         = "countdown"
	TypeBattleStarted     = "battle_started"
	TypeKicked            = "kicked"
	TypeRoomClosed        = "room_closed"
	TypeTimeUpdate        = "time_update"
	TypeCodeVerified      = "code_verified"
	TypeBattleCompleted   = "battle_completed"
	TypeConnected         = "connected"
	TypePong              = "pong"
	TypeError             = "error"
)

// chatTimeLayout renders timestamps the way lobby clients display them.
const chatTimeLayout = "03:04 PM"

// RoomView is the lobby-list projection of one room with its participants.
type RoomView struct {
	RoomID           string               `json:"room_id"`
	JoinCode         string               `json:"join_code"`
	Name             string               `json:"name"`
	Owner            string               `json:"owner"`
	Topic            string               `json:"topic"`
	Difficulty       string               `json:"difficulty"`
	TimeLimit        int                  `json:"time_limit"`
	Capacity         int                  `json:"capacity"`
	ParticipantCount int                  `json:"participant_count"`
	Visibility       string               `json:"visibility"`
	Status           string               `json:"status"`
	IsRanked         bool                 `json:"is_ranked"`
	Participants     []*store.Participant `json:"participants"`
}

// NewRoomView projects a room and its participants into the lobby-list shape.
func NewRoomView(room *store.Room, participants []*store.Participant) RoomView {
	if participants == nil {
		participants = []*store.Participant{}
	}
	return RoomView{
		RoomID:           room.ID.String(),
		JoinCode:         room.JoinCode,
		Name:             room.Name,
		Owner:            room.OwnerUsername,
		Topic:            room.Topic,
		Difficulty:       room.Difficulty,
		TimeLimit:        room.TimeLimit,
		Capacity:         room.Capacity,
		ParticipantCount: room.ParticipantCount,
		Visibility:       room.Visibility,
		Status:           room.Status,
		IsRanked:         room.IsRanked,
		Participants:     participants,
	}
}

// RoomList is the snapshot sent to global-lobby clients on connect and request.
type RoomList struct {
	Type  string     `json:"type"`
	Rooms []RoomView `json:"rooms"`
}

// NewRoomList builds a room_list snapshot.
func NewRoomList(rooms []RoomView) RoomList {
	if rooms == nil {
		rooms = []RoomView{}
	}
	return RoomList{Type: TypeRoomList, Rooms: rooms}
}

// NewRoomUpdate builds the room_update fan-out published on every visible
// room-state change.
func NewRoomUpdate(rooms []RoomView) RoomList {
	if rooms == nil {
		rooms = []RoomView{}
	}
	return RoomList{Type: TypeRoomUpdate, Rooms: rooms}
}

// ChatMessage is one chat line delivered to lobby clients.
type ChatMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	IsSystem  bool   `json:"is_system"`
}

// NewChatMessage projects a persisted chat line into its wire shape.
func NewChatMessage(m *store.ChatMessage) ChatMessage {
	return ChatMessage{
		Type:      TypeChatMessage,
		Message:   m.Body,
		Sender:    m.Sender,
		Timestamp: m.CreatedAt.Format(chatTimeLayout),
		IsSystem:  m.IsSystem,
	}
}

// ChatHistory carries the recent chat backlog to one client.
type ChatHistory struct {
	Type     string        `json:"type"`
	Messages []ChatMessage `json:"messages"`
}

// NewChatHistory builds a chat_history reply from persisted messages.
func NewChatHistory(messages []*store.ChatMessage) ChatHistory {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewChatMessage(m))
	}
	return ChatHistory{Type: TypeChatHistory, Messages: out}
}

// ParticipantList carries the full membership of one room.
type ParticipantList struct {
	Type         string               `json:"type"`
	Participants []*store.Participant `json:"participants"`
	IsRanked     bool                 `json:"is_ranked"`
}

// NewParticipantList builds a participant_list broadcast.
func NewParticipantList(participants []*store.Participant, isRanked bool) ParticipantList {
	if participants == nil {
		participants = []*store.Participant{}
	}
	return ParticipantList{Type: TypeParticipantList, Participants: participants, IsRanked: isRanked}
}

// ParticipantUpdate carries the full membership of one room under the
// participant_update type; unlike ParticipantList it has no is_ranked flag.
type ParticipantUpdate struct {
	Type         string               `json:"type"`
	Participants []*store.Participant `json:"participants"`
}

// NewParticipantUpdate builds a participant_update broadcast.
func NewParticipantUpdate(participants []*store.Participant) ParticipantUpdate {
	if participants == nil {
		participants = []*store.Participant{}
	}
	return ParticipantUpdate{Type: TypeParticipantUpdate, Participants: participants}
}

// ParticipantLeft announces one user leaving a room.
type ParticipantLeft struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// NewParticipantLeft builds a participant_left broadcast.
func NewParticipantLeft(username string) ParticipantLeft {
	return ParticipantLeft{Type: TypeParticipantLeft, Username: username}
}

// ReadyStatus announces one participant's ready flag change.
type ReadyStatus struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Ready    bool   `json:"ready"`
}

// NewReadyStatus builds a ready_status broadcast.
func NewReadyStatus(username string, ready bool) ReadyStatus {
	return ReadyStatus{Type: TypeReadyStatus, Username: username, Ready: ready}
}

// QuestionRef identifies the question a battle runs on.
type QuestionRef struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// BattleReady is the marker emitted before the countdown begins.
type BattleReady struct {
	Type     string      `json:"type"`
	RoomID   string      `json:"room_id"`
	Question QuestionRef `json:"question"`
}

// NewBattleReady builds a battle_ready broadcast.
func NewBattleReady(roomID uuid.UUID, question QuestionRef) BattleReady {
	return BattleReady{Type: TypeBattleReady, RoomID: roomID.String(), Question: question}
}

// Countdown is one tick of the synchronized pre-battle countdown.
type Countdown struct {
	Type      string `json:"type"`
	Countdown int    `json:"countdown"`
	IsRanked  bool   `json:"is_ranked"`
}

// NewCountdown builds a countdown tick.
func NewCountdown(n int, isRanked bool) Countdown {
	return Countdown{Type: TypeCountdown, Countdown: n, IsRanked: isRanked}
}

// BattleStarted announces the battle beginning, carrying the question id.
type BattleStarted struct {
	Type     string      `json:"type"`
	RoomID   string      `json:"room_id"`
	Question QuestionRef `json:"question"`
}

// NewBattleStarted builds a battle_started broadcast.
func NewBattleStarted(roomID uuid.UUID, questionID uuid.UUID) BattleStarted {
	return BattleStarted{
		Type:     TypeBattleStarted,
		RoomID:   roomID.String(),
		Question: QuestionRef{ID: questionID.String()},
	}
}

// Kicked announces a participant removal to the room.
type Kicked struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// NewKicked builds a kicked broadcast.
func NewKicked(username string) Kicked {
	return Kicked{Type: TypeKicked, Username: username}
}

// RoomClosed announces the room closing; clients disconnect on receipt.
type RoomClosed struct {
	Type string `json:"type"`
}

// NewRoomClosed builds a room_closed broadcast.
func NewRoomClosed() RoomClosed {
	return RoomClosed{Type: TypeRoomClosed}
}

// TimeUpdate is the periodic battle clock broadcast.
type TimeUpdate struct {
	Type             string `json:"type"`
	ElapsedSeconds   int    `json:"elapsed_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// NewTimeUpdate builds a time_update broadcast.
func NewTimeUpdate(elapsed, remaining time.Duration) TimeUpdate {
	return TimeUpdate{
		Type:             TypeTimeUpdate,
		ElapsedSeconds:   int(elapsed.Seconds()),
		RemainingSeconds: int(remaining.Seconds()),
	}
}

// CodeVerified announces one accepted submission that did not end the battle.
type CodeVerified struct {
	Type           string `json:"type"`
	Username       string `json:"username"`
	Position       int    `json:"position"`
	CompletionTime string `json:"completion_time"`
}

// NewCodeVerified builds a code_verified broadcast.
func NewCodeVerified(username string, position int, completionTime time.Time) CodeVerified {
	return CodeVerified{
		Type:           TypeCodeVerified,
		Username:       username,
		Position:       position,
		CompletionTime: completionTime.Format(time.RFC3339),
	}
}

// BattleCompleted is the terminal battle event, emitted at most once per room.
type BattleCompleted struct {
	Type         string              `json:"type"`
	Winners      []store.ResultEntry `json:"winners"`
	RoomCapacity int                 `json:"room_capacity"`
	Message      string              `json:"message"`
}

// NewBattleCompleted builds a battle_completed broadcast with the winner list
// already truncated to the room's max winners.
func NewBattleCompleted(winners []store.ResultEntry, capacity int, message string) BattleCompleted {
	if winners == nil {
		winners = []store.ResultEntry{}
	}
	return BattleCompleted{
		Type:         TypeBattleCompleted,
		Winners:      winners,
		RoomCapacity: capacity,
		Message:      message,
	}
}

// Connected greets a battle-socket client after a successful join.
type Connected struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewConnected builds the battle-socket greeting.
func NewConnected(message string) Connected {
	return Connected{Type: TypeConnected, Message: message}
}

// Pong answers a client ping.
type Pong struct {
	Type string `json:"type"`
}

// NewPong builds a pong reply.
func NewPong() Pong {
	return Pong{Type: TypePong}
}

// Error is the realtime error payload sent before an optional close.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError builds a realtime error payload.
func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}
