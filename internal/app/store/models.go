/*
Package store is the durable room store: rooms, participants, chat, battle
results, questions, and rankings over PostgreSQL.

All mutations flow through here so a single write path owns the data
invariants. Queries run either on the shared pool or inside a transaction via
Store.WithTx.
*/
package store

import (
	"time"

	"github.com/google/uuid"
)

// Room lifecycle states. Transitions are monotonic along
// active -> playing -> completed, with closed reachable from any live state.
const (
	RoomStatusActive    = "active"
	RoomStatusPlaying   = "playing"
	RoomStatusCompleted = "completed"
	RoomStatusClosed    = "closed"
)

// Room visibility.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Participant roles and states.
const (
	RoleHost        = "host"
	RoleParticipant = "participant"

	ParticipantWaiting = "waiting"
	ParticipantJoined  = "joined"
	ParticipantLeft    = "left"
	ParticipantKicked  = "kicked"
)

// ContributionAccepted marks a contributed question cleared for battles.
const ContributionAccepted = "Accepted"

// User is the arena-side record of a verified identity, tracking battle stats.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	TotalBattles int       `json:"total_battles"`
	BattlesWon   int       `json:"battles_won"`
	CreatedAt    time.Time `json:"created_at"`
}

// Room is a container for a single battle with its participants, settings, and chat.
type Room struct {
	ID               uuid.UUID  `json:"room_id"`
	JoinCode         string     `json:"join_code"`
	Name             string     `json:"name"`
	OwnerID          uuid.UUID  `json:"-"`
	OwnerUsername    string     `json:"owner"`
	Topic            string     `json:"topic"`
	Difficulty       string     `json:"difficulty"`
	TimeLimit        int        `json:"time_limit"`
	Capacity         int        `json:"capacity"`
	ParticipantCount int        `json:"participant_count"`
	Visibility       string     `json:"visibility"`
	PasswordHash     *string    `json:"-"`
	IsRanked         bool       `json:"is_ranked"`
	IsActive         bool       `json:"is_active"`
	Status           string     `json:"status"`
	ActiveQuestion   *uuid.UUID `json:"active_question,omitempty"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the room reached a state scheduled for deletion.
func (r *Room) IsTerminal() bool {
	return r.Status == RoomStatusCompleted || r.Status == RoomStatusClosed
}

// Participant is a user's membership row in a room.
type Participant struct {
	ID       int64      `json:"-"`
	RoomID   uuid.UUID  `json:"-"`
	UserID   uuid.UUID  `json:"-"`
	Username string     `json:"username"`
	Role     string     `json:"role"`
	Status   string     `json:"status"`
	Ready    bool       `json:"ready"`
	ReadyAt  *time.Time `json:"ready_at,omitempty"`
	Blocked  bool       `json:"-"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
}

// ChatMessage is one lobby chat line; system lines carry IsSystem=true.
type ChatMessage struct {
	ID        int64     `json:"-"`
	RoomID    uuid.UUID `json:"-"`
	Sender    string    `json:"sender"`
	Body      string    `json:"message"`
	IsSystem  bool      `json:"is_system"`
	CreatedAt time.Time `json:"timestamp"`
}

// ResultEntry is one finisher's slot in a battle result, appended in finishing order.
type ResultEntry struct {
	Username       string    `json:"username"`
	Position       int       `json:"position"`
	CompletionTime time.Time `json:"completion_time"`
}

// BattleResult holds the ordered finishing list for one (room, question) battle.
type BattleResult struct {
	ID         uuid.UUID     `json:"battle_id"`
	RoomID     uuid.UUID     `json:"room_id"`
	QuestionID uuid.UUID     `json:"question_id"`
	Results    []ResultEntry `json:"results"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Question is a catalog problem eligible for battles once validated.
type Question struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Slug               string    `json:"slug"`
	Description        string    `json:"description"`
	Difficulty         string    `json:"difficulty"`
	Tags               string    `json:"tags"`
	IsValidated        bool      `json:"is_validated"`
	IsContributed      bool      `json:"is_contributed"`
	ContributionStatus *string   `json:"contribution_status,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// TestCase is one judge input/output pair for a question, ordered by Ord.
type TestCase struct {
	ID             int64     `json:"id"`
	QuestionID     uuid.UUID `json:"-"`
	InputData      string    `json:"input_data"`
	ExpectedOutput string    `json:"expected_output"`
	IsSample       bool      `json:"is_sample"`
	Ord            int       `json:"order"`
}

// Example is a human-readable illustration attached to a question.
type Example struct {
	ID            int64     `json:"id"`
	QuestionID    uuid.UUID `json:"-"`
	InputExample  string    `json:"input_example"`
	OutputExample string    `json:"output_example"`
	Explanation   *string   `json:"explanation,omitempty"`
}

// Season is a time-bounded rating context; at most one is active.
type Season struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// Ranking is a user's rating row within a season.
type Ranking struct {
	ID           int64     `json:"-"`
	UserID       uuid.UUID `json:"-"`
	Username     string    `json:"username"`
	SeasonID     int64     `json:"-"`
	Rating       float64   `json:"rating"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	TotalMatches int       `json:"total_matches"`
}
