package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitarena/internal/app/store"
)

func decode(t *testing.T, v any) map[string]any {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestEveryEventCarriesAType(t *testing.T) {
	roomID := uuid.New()

	payloads := []any{
		NewRoomList(nil),
		NewRoomUpdate(nil),
		NewChatMessage(&store.ChatMessage{Sender: "alice", Body: "hi", CreatedAt: time.Now()}),
		NewChatHistory(nil),
		NewParticipantList(nil, true),
		NewParticipantUpdate(nil),
		NewParticipantLeft("bob"),
		NewReadyStatus("bob", true),
		NewBattleReady(roomID, QuestionRef{ID: uuid.NewString()}),
		NewCountdown(3, true),
		NewBattleStarted(roomID, uuid.New()),
		NewKicked("bob"),
		NewRoomClosed(),
		NewTimeUpdate(30*time.Second, 90*time.Second),
		NewCodeVerified("bob", 1, time.Now()),
		NewBattleCompleted(nil, 2, "Battle Ended!"),
		NewConnected("hello"),
		NewPong(),
		NewError("boom"),
	}

	for _, payload := range payloads {
		out := decode(t, payload)
		typ, ok := out["type"].(string)
		assert.True(t, ok, "payload %T has no string type field", payload)
		assert.NotEmpty(t, typ, "payload %T has empty type", payload)
	}
}

func TestChatMessageWireShape(t *testing.T) {
	at := time.Date(2025, 3, 1, 15, 4, 0, 0, time.UTC)
	out := decode(t, NewChatMessage(&store.ChatMessage{
		Sender:    "System",
		Body:      "bob joined the lobby",
		IsSystem:  true,
		CreatedAt: at,
	}))

	assert.Equal(t, "chat_message", out["type"])
	assert.Equal(t, "bob joined the lobby", out["message"])
	assert.Equal(t, "System", out["sender"])
	assert.Equal(t, "03:04 PM", out["timestamp"])
	assert.Equal(t, true, out["is_system"])
}

func TestBattleCompletedWireShape(t *testing.T) {
	winners := []store.ResultEntry{
		{Username: "p1", Position: 1, CompletionTime: time.Now()},
		{Username: "p2", Position: 2, CompletionTime: time.Now()},
	}

	out := decode(t, NewBattleCompleted(winners, 5, "Battle Ended!"))

	assert.Equal(t, "battle_completed", out["type"])
	assert.Equal(t, float64(5), out["room_capacity"])
	assert.Equal(t, "Battle Ended!", out["message"])

	decodedWinners, ok := out["winners"].([]any)
	require.True(t, ok)
	require.Len(t, decodedWinners, 2)

	first := decodedWinners[0].(map[string]any)
	assert.Equal(t, "p1", first["username"])
	assert.Equal(t, float64(1), first["position"])
}

func TestBattleCompletedEmptyWinners(t *testing.T) {
	out := decode(t, NewBattleCompleted(nil, 5, "Battle ended due to time limit"))

	winners, ok := out["winners"].([]any)
	require.True(t, ok, "winners must serialize as an array, not null")
	assert.Empty(t, winners)
}

func TestRoomViewProjection(t *testing.T) {
	questionID := uuid.New()
	started := time.Now()

	r := &store.Room{
		ID:               uuid.New(),
		JoinCode:         "A1B2C3D4",
		Name:             "alice",
		OwnerUsername:    "alice",
		Topic:            "ARRAY",
		Difficulty:       "easy",
		TimeLimit:        10,
		Capacity:         2,
		ParticipantCount: 2,
		Visibility:       store.VisibilityPublic,
		IsRanked:         true,
		Status:           store.RoomStatusPlaying,
		ActiveQuestion:   &questionID,
		StartTime:        &started,
	}

	view := NewRoomView(r, []*store.Participant{
		{Username: "alice", Role: store.RoleHost, Status: store.ParticipantJoined},
		{Username: "bob", Role: store.RoleParticipant, Status: store.ParticipantJoined},
	})

	out := decode(t, view)
	assert.Equal(t, "A1B2C3D4", out["join_code"])
	assert.Equal(t, "alice", out["owner"])
	assert.Equal(t, "playing", out["status"])
	assert.Equal(t, float64(2), out["participant_count"])

	participants := out["participants"].([]any)
	require.Len(t, participants, 2)
}

func TestTimeUpdateRounding(t *testing.T) {
	out := decode(t, NewTimeUpdate(65*time.Second, 535*time.Second))
	assert.Equal(t, float64(65), out["elapsed_seconds"])
	assert.Equal(t, float64(535), out["remaining_seconds"])
}
