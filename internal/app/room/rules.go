package room

import (
	"strings"

	"bitarena/internal/app/store"
	"bitarena/internal/pkg/errs"
)

// Capacity-derived battle rules. Rooms come in three supported sizes; any
// other capacity falls back to the duel rules.

// MinParticipants returns the joined-participant count required to start a
// battle for the given room capacity.
func MinParticipants(capacity int) int {
	switch capacity {
	case 2:
		return 2
	case 5:
		return 3
	case 10:
		return 6
	default:
		return 2
	}
}

// MaxWinners returns how many finishing positions end the battle for the
// given room capacity.
func MaxWinners(capacity int) int {
	switch capacity {
	case 2:
		return 1
	case 5:
		return 2
	case 10:
		return 3
	default:
		return 1
	}
}

// QuestionDifficulty maps a room difficulty onto the catalog's difficulty key.
func QuestionDifficulty(roomDifficulty string) string {
	return strings.ToUpper(roomDifficulty)
}

var validDifficulties = map[string]struct{}{
	"easy":   {},
	"medium": {},
	"hard":   {},
}

// CreateInput is the validated configuration for a new room.
type CreateInput struct {
	Name       string `json:"name"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	TimeLimit  int    `json:"time_limit"`
	Capacity   int    `json:"capacity"`
	Visibility string `json:"visibility"`
	Password   string `json:"password"`
	IsRanked   bool   `json:"is_ranked"`
}

// ValidateCreateInput normalizes defaults and checks the room configuration.
// Ranked rooms may run unlimited (time_limit 0); unranked rooms must be
// time-bounded.
func ValidateCreateInput(input *CreateInput) *errs.CustomError {
	if input.Topic == "" || input.Difficulty == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if _, ok := validDifficulties[input.Difficulty]; !ok {
		return errs.NewError(errs.ErrInvalidRoomConfig, "unknown difficulty")
	}

	if input.Capacity == 0 {
		input.Capacity = 2
	}
	if input.Capacity < 2 {
		return errs.NewError(errs.ErrInvalidRoomConfig, "capacity must be at least 2")
	}

	if input.Visibility == "" {
		input.Visibility = store.VisibilityPublic
	}
	if input.Visibility != store.VisibilityPublic && input.Visibility != store.VisibilityPrivate {
		return errs.NewError(errs.ErrInvalidRoomConfig, "unknown visibility")
	}

	if input.Visibility == store.VisibilityPrivate && input.Password == "" {
		return errs.NewError(errs.ErrInvalidRoomConfig, "private rooms require a password")
	}

	if input.TimeLimit < 0 {
		return errs.NewError(errs.ErrInvalidRoomConfig, "time limit cannot be negative")
	}
	if !input.IsRanked && input.TimeLimit == 0 {
		return errs.NewError(errs.ErrInvalidRoomConfig, "unranked rooms require a time limit")
	}

	return nil
}

// allReady reports whether every joined non-host participant is ready.
// The host is implicitly ready and never gates the start.
func allReady(participants []*store.Participant) bool {
	for _, p := range participants {
		if p.Role == store.RoleHost || p.Status != store.ParticipantJoined {
			continue
		}
		if !p.Ready {
			return false
		}
	}
	return true
}
