/*
Package room is the source of truth for the room lifecycle state machine.

Every mutation — create, join, leave, kick, ready, start, close — runs as a
single database transaction through the Service here, and every observable
change fans out through the event bus afterwards. The realtime and HTTP
entrypoints both call into this package so one write path owns the
invariants.
*/
package room

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bitarena/internal/app/bus"
	"bitarena/internal/app/db"
	"bitarena/internal/app/events"
	"bitarena/internal/app/store"
	"bitarena/internal/pkg/errs"
	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/randx"
)

// joinCodeAttempts bounds retries when a generated join code collides.
const joinCodeAttempts = 5

// Identity is the verified caller of a room operation.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

// Service owns all room state transitions.
type Service struct {
	store *store.Store
	bus   *bus.Bus
}

// NewService constructs the room service over the given store and bus.
func NewService(s *store.Store, b *bus.Bus) *Service {
	return &Service{store: s, bus: b}
}

// Create validates the configuration, inserts the room with its owner as the
// joined host, and announces the new room on the global lobby topic.
func (s *Service) Create(ctx context.Context, caller Identity, input CreateInput) (*store.Room, *errs.CustomError) {
	if customErr := ValidateCreateInput(&input); customErr != nil {
		return nil, customErr
	}

	if input.Name == "" {
		input.Name = caller.Username
	}

	var passwordHash *string
	if input.Visibility == store.VisibilityPrivate {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			logx.Error(err, "Failed to hash room password")
			return nil, errs.NewError(errs.ErrUnknown)
		}
		hash := string(hashed)
		passwordHash = &hash
	}

	var created *store.Room

	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		joinCode, err := randx.JoinCode()
		if err != nil {
			logx.Error(err, "Failed to generate join code")
			return nil, errs.NewError(errs.ErrUnknown)
		}

		r := &store.Room{
			ID:               uuid.New(),
			JoinCode:         joinCode,
			Name:             input.Name,
			OwnerID:          caller.UserID,
			OwnerUsername:    caller.Username,
			Topic:            input.Topic,
			Difficulty:       input.Difficulty,
			TimeLimit:        input.TimeLimit,
			Capacity:         input.Capacity,
			ParticipantCount: 1,
			Visibility:       input.Visibility,
			PasswordHash:     passwordHash,
			IsRanked:         input.IsRanked,
			IsActive:         true,
			Status:           store.RoomStatusActive,
		}

		err = s.store.WithTx(ctx, func(q *store.Queries) error {
			if err := q.EnsureUser(ctx, caller.UserID, caller.Username); err != nil {
				return err
			}
			if err := q.CreateRoom(ctx, r); err != nil {
				return err
			}
			return q.CreateParticipant(ctx, r.ID, caller.UserID, store.RoleHost, store.ParticipantJoined)
		})
		if err == nil {
			created = r
			break
		}
		if !isJoinCodeCollision(err) {
			logx.Error(err, "Failed to create room")
			return nil, errs.NewError(errs.ErrStorage)
		}
	}

	if created == nil {
		logx.Error(nil, "Exhausted join code attempts")
		return nil, errs.NewError(errs.ErrStorage)
	}

	s.PublishRoomUpdate(ctx)
	return created, nil
}

func isJoinCodeCollision(err error) bool {
	// Any unique violation during create can only be the join code: the room
	// id is a fresh UUID and the owner participant row is first for the room.
	return db.IsUniqueViolation(err)
}

// Get returns a room with its participant list.
func (s *Service) Get(ctx context.Context, roomID uuid.UUID) (*store.Room, []*store.Participant, *errs.CustomError) {
	r, err := s.store.GetRoom(ctx, roomID)
	if err == store.ErrNotFound {
		return nil, nil, errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		logx.Error(err, "Failed to load room", "room_id", roomID)
		return nil, nil, errs.NewError(errs.ErrStorage)
	}

	participants, err := s.store.ListParticipants(ctx, roomID)
	if err != nil {
		logx.Error(err, "Failed to load participants", "room_id", roomID)
		return nil, nil, errs.NewError(errs.ErrStorage)
	}

	return r, participants, nil
}

// ListActive returns the lobby-list projection of every active room.
func (s *Service) ListActive(ctx context.Context) ([]events.RoomView, *errs.CustomError) {
	rooms, err := s.store.ListActiveRooms(ctx)
	if err != nil {
		logx.Error(err, "Failed to list active rooms")
		return nil, errs.NewError(errs.ErrStorage)
	}

	views := make([]events.RoomView, 0, len(rooms))
	for _, r := range rooms {
		participants, err := s.store.ListParticipants(ctx, r.ID)
		if err != nil {
			logx.Error(err, "Failed to load participants", "room_id", r.ID)
			return nil, errs.NewError(errs.ErrStorage)
		}
		views = append(views, events.NewRoomView(r, participants))
	}
	return views, nil
}

// Join admits a user into a room. Blocked users are rejected; a user with an
// existing non-blocked row is re-activated; an already-joined user is a
// no-op. Fresh joins are rejected when the lobby phase is over, the room is
// full, or a private room's password does not match. The last-seat race is
// resolved by the row lock taken on the room: capacity is re-checked after
// the lock is held.
func (s *Service) Join(ctx context.Context, caller Identity, roomID uuid.UUID, password string) (*store.Room, *errs.CustomError) {
	var (
		joined  *store.Room
		joinErr *errs.CustomError
	)

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		if err := q.EnsureUser(ctx, caller.UserID, caller.Username); err != nil {
			return err
		}

		r, err := q.GetRoomForUpdate(ctx, roomID)
		if err == store.ErrNotFound {
			joinErr = errs.NewError(errs.ErrRoomNotFound)
			return nil
		}
		if err != nil {
			return err
		}

		existing, err := q.GetParticipant(ctx, roomID, caller.UserID)
		if err != nil && err != store.ErrNotFound {
			return err
		}

		switch {
		case existing != nil && existing.Blocked:
			joinErr = errs.NewError(errs.ErrParticipantBlocked)
			return nil

		case existing != nil && existing.Status == store.ParticipantJoined:
			// Idempotent: already in the room.
			joined = r
			return nil

		case existing != nil:
			if err := q.SetParticipantStatus(ctx, roomID, caller.UserID, store.ParticipantJoined); err != nil {
				return err
			}

		default:
			if r.Status != store.RoomStatusActive {
				joinErr = errs.NewError(errs.ErrRoomNotJoinable)
				return nil
			}

			count, err := q.CountJoined(ctx, roomID)
			if err != nil {
				return err
			}
			if count >= r.Capacity {
				joinErr = errs.NewError(errs.ErrRoomFull)
				return nil
			}

			if r.Visibility == store.VisibilityPrivate {
				if r.PasswordHash == nil ||
					bcrypt.CompareHashAndPassword([]byte(*r.PasswordHash), []byte(password)) != nil {
					joinErr = errs.NewError(errs.ErrWrongPassword)
					return nil
				}
			}

			if err := q.CreateParticipant(ctx, roomID, caller.UserID, store.RoleParticipant, store.ParticipantJoined); err != nil {
				return err
			}
		}

		count, err := q.CountJoined(ctx, roomID)
		if err != nil {
			return err
		}
		if err := q.SetRoomParticipantCount(ctx, roomID, count); err != nil {
			return err
		}

		r.ParticipantCount = count
		joined = r
		return nil
	})
	if err != nil {
		logx.Error(err, "Join failed", "room_id", roomID, "user", caller.Username)
		return nil, errs.NewError(errs.ErrStorage)
	}
	if joinErr != nil {
		return nil, joinErr
	}

	s.broadcastParticipants(ctx, roomID)
	s.PublishRoomUpdate(ctx)
	return joined, nil
}

// EnsureJoined guarantees a joined participant row for a realtime connection,
// creating one (host role for the owner) or re-activating a previous row.
// Blocked users are rejected.
func (s *Service) EnsureJoined(ctx context.Context, caller Identity, roomID uuid.UUID) (*store.Room, *errs.CustomError) {
	var (
		r       *store.Room
		callErr *errs.CustomError
	)

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		if err := q.EnsureUser(ctx, caller.UserID, caller.Username); err != nil {
			return err
		}

		var err error
		r, err = q.GetRoomForUpdate(ctx, roomID)
		if err == store.ErrNotFound {
			callErr = errs.NewError(errs.ErrRoomNotFound)
			return nil
		}
		if err != nil {
			return err
		}

		existing, err := q.GetParticipant(ctx, roomID, caller.UserID)
		if err != nil && err != store.ErrNotFound {
			return err
		}

		switch {
		case existing != nil && existing.Blocked:
			callErr = errs.NewError(errs.ErrParticipantBlocked)
			return nil
		case existing != nil && existing.Status == store.ParticipantJoined:
		case existing != nil:
			if err := q.SetParticipantStatus(ctx, roomID, caller.UserID, store.ParticipantJoined); err != nil {
				return err
			}
		default:
			role := store.RoleParticipant
			if r.OwnerID == caller.UserID {
				role = store.RoleHost
			}
			if err := q.CreateParticipant(ctx, roomID, caller.UserID, role, store.ParticipantJoined); err != nil {
				return err
			}
		}

		count, err := q.CountJoined(ctx, roomID)
		if err != nil {
			return err
		}
		r.ParticipantCount = count
		return q.SetRoomParticipantCount(ctx, roomID, count)
	})
	if err != nil {
		logx.Error(err, "EnsureJoined failed", "room_id", roomID, "user", caller.Username)
		return nil, errs.NewError(errs.ErrStorage)
	}
	if callErr != nil {
		return nil, callErr
	}

	return r, nil
}

// Leave marks the caller's participant row left. A host leaving a room still
// in its lobby phase closes the room; that is the only host-departure rule.
func (s *Service) Leave(ctx context.Context, caller Identity, roomID uuid.UUID) *errs.CustomError {
	var (
		closed  bool
		callErr *errs.CustomError
	)

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		r, err := q.GetRoomForUpdate(ctx, roomID)
		if err == store.ErrNotFound {
			callErr = errs.NewError(errs.ErrRoomNotFound)
			return nil
		}
		if err != nil {
			return err
		}

		participant, err := q.GetParticipant(ctx, roomID, caller.UserID)
		if err == store.ErrNotFound {
			callErr = errs.NewError(errs.ErrParticipantNotFound, caller.Username)
			return nil
		}
		if err != nil {
			return err
		}

		if err := q.SetParticipantStatus(ctx, roomID, caller.UserID, store.ParticipantLeft); err != nil {
			return err
		}

		count, err := q.CountJoined(ctx, roomID)
		if err != nil {
			return err
		}
		if err := q.SetRoomParticipantCount(ctx, roomID, count); err != nil {
			return err
		}

		if participant.Role == store.RoleHost && r.Status == store.RoomStatusActive {
			changed, err := q.CloseRoom(ctx, roomID)
			if err != nil {
				return err
			}
			if changed {
				if err := q.ClearChat(ctx, roomID); err != nil {
					return err
				}
				closed = true
			}
		}
		return nil
	})
	if err != nil {
		logx.Error(err, "Leave failed", "room_id", roomID, "user", caller.Username)
		return errs.NewError(errs.ErrStorage)
	}
	if callErr != nil {
		return callErr
	}

	topic := bus.RoomTopic(roomID)
	s.bus.Publish(ctx, topic, events.NewParticipantLeft(caller.Username))
	s.broadcastParticipants(ctx, roomID)
	if closed {
		s.bus.Publish(ctx, topic, events.NewRoomClosed())
	}
	s.PublishRoomUpdate(ctx)
	return nil
}

// Kick removes a participant (host only). The target is blocked and can
// never rejoin this room.
func (s *Service) Kick(ctx context.Context, caller Identity, roomID uuid.UUID, targetUsername string) *errs.CustomError {
	var callErr *errs.CustomError

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		if _, err := q.GetRoomForUpdate(ctx, roomID); err != nil {
			if err == store.ErrNotFound {
				callErr = errs.NewError(errs.ErrRoomNotFound)
				return nil
			}
			return err
		}

		host, err := q.GetParticipant(ctx, roomID, caller.UserID)
		if err == store.ErrNotFound || (err == nil && host.Role != store.RoleHost) {
			callErr = errs.NewError(errs.ErrNotHost)
			return nil
		}
		if err != nil {
			return err
		}

		target, err := q.GetParticipantByUsername(ctx, roomID, targetUsername)
		if err == store.ErrNotFound {
			callErr = errs.NewError(errs.ErrParticipantNotFound, targetUsername)
			return nil
		}
		if err != nil {
			return err
		}

		if err := q.BlockParticipant(ctx, roomID, target.UserID); err != nil {
			return err
		}

		count, err := q.CountJoined(ctx, roomID)
		if err != nil {
			return err
		}
		return q.SetRoomParticipantCount(ctx, roomID, count)
	})
	if err != nil {
		logx.Error(err, "Kick failed", "room_id", roomID, "target", targetUsername)
		return errs.NewError(errs.ErrStorage)
	}
	if callErr != nil {
		return callErr
	}

	s.PostSystemMessage(ctx, roomID, targetUsername+" has been kicked")
	s.bus.Publish(ctx, bus.RoomTopic(roomID), events.NewKicked(targetUsername))
	s.broadcastParticipants(ctx, roomID)
	s.PublishRoomUpdate(ctx)
	return nil
}

// SetReady toggles the caller's ready flag and announces it to the room.
func (s *Service) SetReady(ctx context.Context, caller Identity, roomID uuid.UUID, ready bool) *errs.CustomError {
	err := s.store.SetParticipantReady(ctx, roomID, caller.UserID, ready, time.Now())
	if err != nil {
		logx.Error(err, "Ready toggle failed", "room_id", roomID, "user", caller.Username)
		return errs.NewError(errs.ErrStorage)
	}

	s.bus.Publish(ctx, bus.RoomTopic(roomID), events.NewReadyStatus(caller.Username, ready))
	return nil
}

// Start transitions a room into its battle phase: it validates the caller and
// the lobby state, picks a question uniformly at random from the eligible
// set, stamps the start time, and counts the battle for every joined
// participant. Returns the selected question id.
func (s *Service) Start(ctx context.Context, caller Identity, roomID uuid.UUID) (uuid.UUID, *errs.CustomError) {
	var (
		questionID uuid.UUID
		callErr    *errs.CustomError
	)

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		r, err := q.GetRoomForUpdate(ctx, roomID)
		if err == store.ErrNotFound {
			callErr = errs.NewError(errs.ErrRoomNotFound)
			return nil
		}
		if err != nil {
			return err
		}

		if r.OwnerID != caller.UserID {
			callErr = errs.NewError(errs.ErrNotHost)
			return nil
		}
		if r.Status != store.RoomStatusActive {
			callErr = errs.NewError(errs.ErrInvalidRoomState, r.Status)
			return nil
		}

		count, err := q.CountJoined(ctx, roomID)
		if err != nil {
			return err
		}
		if minimum := MinParticipants(r.Capacity); count < minimum {
			callErr = errs.NewError(errs.ErrNotEnoughPlayers, minimum)
			return nil
		}

		if r.IsRanked {
			participants, err := q.ListParticipants(ctx, roomID)
			if err != nil {
				return err
			}
			if !allReady(participants) {
				callErr = errs.NewError(errs.ErrRankedNotReady)
				return nil
			}
		}

		eligible, err := q.ListEligibleQuestions(ctx, r.Topic, QuestionDifficulty(r.Difficulty))
		if err != nil {
			return err
		}
		if len(eligible) == 0 {
			callErr = errs.NewError(errs.ErrNoEligibleQuestion)
			return nil
		}

		questionID = eligible[rand.IntN(len(eligible))].ID

		started, err := q.StartRoom(ctx, roomID, questionID, time.Now())
		if err != nil {
			return err
		}
		if !started {
			callErr = errs.NewError(errs.ErrInvalidRoomState, r.Status)
			return nil
		}

		joinedIDs, err := q.ListJoinedUserIDs(ctx, roomID)
		if err != nil {
			return err
		}
		return q.IncrementTotalBattles(ctx, joinedIDs)
	})
	if err != nil {
		logx.Error(err, "Start failed", "room_id", roomID)
		return uuid.Nil, errs.NewError(errs.ErrStorage)
	}
	if callErr != nil {
		return uuid.Nil, callErr
	}

	started := events.NewBattleStarted(roomID, questionID)
	s.bus.Publish(ctx, bus.RoomTopic(roomID), started)
	s.bus.Publish(ctx, bus.BattleTopic(roomID), started)
	s.PublishRoomUpdate(ctx)

	logx.Info("Battle started", "room_id", roomID, "question_id", questionID)
	return questionID, nil
}

// Close shuts a room down (host only), clears its chat, and announces the
// closure. The reaper deletes the room after the cleanup grace period.
func (s *Service) Close(ctx context.Context, caller Identity, roomID uuid.UUID) *errs.CustomError {
	var callErr *errs.CustomError

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		r, err := q.GetRoomForUpdate(ctx, roomID)
		if err == store.ErrNotFound {
			callErr = errs.NewError(errs.ErrRoomNotFound)
			return nil
		}
		if err != nil {
			return err
		}

		if r.OwnerID != caller.UserID {
			callErr = errs.NewError(errs.ErrNotHost)
			return nil
		}

		changed, err := q.CloseRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if !changed {
			callErr = errs.NewError(errs.ErrInvalidRoomState, r.Status)
			return nil
		}

		return q.ClearChat(ctx, roomID)
	})
	if err != nil {
		logx.Error(err, "Close failed", "room_id", roomID)
		return errs.NewError(errs.ErrStorage)
	}
	if callErr != nil {
		return callErr
	}

	topic := bus.RoomTopic(roomID)
	s.bus.Publish(ctx, topic, events.ChatMessage{
		Type:      events.TypeChatMessage,
		Message:   "Room closed. Chat cleared.",
		Sender:    "System",
		Timestamp: time.Now().Format("03:04 PM"),
		IsSystem:  true,
	})
	s.bus.Publish(ctx, topic, events.NewRoomClosed())
	s.PublishRoomUpdate(ctx)

	logx.Info("Room closed", "room_id", roomID)
	return nil
}

// UpdateStatus applies a host-requested status change. Only the transition
// to closed is accepted here; playing and completed are owned by Start and
// the submission pipeline.
func (s *Service) UpdateStatus(ctx context.Context, caller Identity, roomID uuid.UUID, status string) *errs.CustomError {
	if status != store.RoomStatusClosed {
		return errs.NewError(errs.ErrInvalidRoomState, status)
	}
	return s.Close(ctx, caller, roomID)
}

// IsHost reports whether the user holds the host role in the room.
func (s *Service) IsHost(ctx context.Context, roomID, userID uuid.UUID) (bool, *errs.CustomError) {
	participant, err := s.store.GetParticipant(ctx, roomID, userID)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		logx.Error(err, "Host check failed", "room_id", roomID)
		return false, errs.NewError(errs.ErrStorage)
	}
	return participant.Role == store.RoleHost, nil
}

// PostChat persists a chat line and broadcasts it to the room.
func (s *Service) PostChat(ctx context.Context, roomID uuid.UUID, sender, body string, isSystem bool) *errs.CustomError {
	message, err := s.store.SaveChatMessage(ctx, roomID, sender, body, isSystem)
	if err != nil {
		logx.Error(err, "Failed to save chat message", "room_id", roomID)
		return errs.NewError(errs.ErrStorage)
	}

	s.bus.Publish(ctx, bus.RoomTopic(roomID), events.NewChatMessage(message))
	return nil
}

// PostSystemMessage persists and broadcasts a server-generated chat line.
func (s *Service) PostSystemMessage(ctx context.Context, roomID uuid.UUID, body string) {
	if customErr := s.PostChat(ctx, roomID, "System", body, true); customErr != nil {
		logx.Warn("Failed to post system message", "room_id", roomID, "body", body)
	}
}

// ChatHistory returns the recent chat backlog of a room.
func (s *Service) ChatHistory(ctx context.Context, roomID uuid.UUID) ([]*store.ChatMessage, *errs.CustomError) {
	messages, err := s.store.GetChatHistory(ctx, roomID)
	if err != nil {
		logx.Error(err, "Failed to load chat history", "room_id", roomID)
		return nil, errs.NewError(errs.ErrStorage)
	}
	return messages, nil
}

// BroadcastParticipants publishes the current participant list on the room topic.
func (s *Service) BroadcastParticipants(ctx context.Context, roomID uuid.UUID) {
	s.broadcastParticipants(ctx, roomID)
}

func (s *Service) broadcastParticipants(ctx context.Context, roomID uuid.UUID) {
	r, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		logx.Warn("Skipping participant broadcast, room unavailable", "room_id", roomID)
		return
	}

	participants, err := s.store.ListParticipants(ctx, roomID)
	if err != nil {
		logx.Warn("Skipping participant broadcast, participants unavailable", "room_id", roomID)
		return
	}

	topic := bus.RoomTopic(roomID)
	s.bus.Publish(ctx, topic, events.NewParticipantList(participants, r.IsRanked))
	s.bus.Publish(ctx, topic, events.NewParticipantUpdate(participants))
}

// PublishRoomUpdate fans the full lobby list out on the global rooms topic.
func (s *Service) PublishRoomUpdate(ctx context.Context) {
	views, customErr := s.ListActive(ctx)
	if customErr != nil {
		logx.Warn("Skipping room update broadcast")
		return
	}
	s.bus.Publish(ctx, bus.TopicRooms, events.NewRoomUpdate(views))
}
