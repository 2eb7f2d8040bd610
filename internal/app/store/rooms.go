package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const roomColumns = `
	r.id, r.join_code, r.name, r.owner_id, u.username, r.topic, r.difficulty,
	r.time_limit, r.capacity, r.participant_count, r.visibility, r.password_hash,
	r.is_ranked, r.is_active, r.status, r.active_question, r.start_time,
	r.created_at, r.updated_at`

func scanRoom(row interface{ Scan(dest ...any) error }) (*Room, error) {
	var r Room
	err := row.Scan(
		&r.ID, &r.JoinCode, &r.Name, &r.OwnerID, &r.OwnerUsername, &r.Topic,
		&r.Difficulty, &r.TimeLimit, &r.Capacity, &r.ParticipantCount,
		&r.Visibility, &r.PasswordHash, &r.IsRanked, &r.IsActive, &r.Status,
		&r.ActiveQuestion, &r.StartTime, &r.CreatedAt, &r.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRoom inserts a new room row.
func (q *Queries) CreateRoom(ctx context.Context, r *Room) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO rooms (
			id, join_code, name, owner_id, topic, difficulty, time_limit,
			capacity, participant_count, visibility, password_hash, is_ranked
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.JoinCode, r.Name, r.OwnerID, r.Topic, r.Difficulty, r.TimeLimit,
		r.Capacity, r.ParticipantCount, r.Visibility, r.PasswordHash, r.IsRanked)
	return err
}

// GetRoom fetches a room by id.
func (q *Queries) GetRoom(ctx context.Context, roomID uuid.UUID) (*Room, error) {
	return scanRoom(q.db.QueryRow(ctx, `
		SELECT `+roomColumns+`
		FROM rooms r JOIN users u ON u.id = r.owner_id
		WHERE r.id = $1`, roomID))
}

// GetRoomForUpdate fetches a room by id with a row-level lock, serializing
// concurrent membership and lifecycle mutations on the room.
func (q *Queries) GetRoomForUpdate(ctx context.Context, roomID uuid.UUID) (*Room, error) {
	return scanRoom(q.db.QueryRow(ctx, `
		SELECT `+roomColumns+`
		FROM rooms r JOIN users u ON u.id = r.owner_id
		WHERE r.id = $1
		FOR UPDATE OF r`, roomID))
}

// ListActiveRooms returns every room still visible in the global lobby.
func (q *Queries) ListActiveRooms(ctx context.Context) ([]*Room, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+roomColumns+`
		FROM rooms r JOIN users u ON u.id = r.owner_id
		WHERE r.is_active
		ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// SetRoomParticipantCount stores the recomputed joined-row count.
func (q *Queries) SetRoomParticipantCount(ctx context.Context, roomID uuid.UUID, count int) error {
	_, err := q.db.Exec(ctx, `
		UPDATE rooms SET participant_count = $2, updated_at = now()
		WHERE id = $1`, roomID, count)
	return err
}

// StartRoom transitions a room from active to playing, stamping the start time
// and the selected question. Returns false if the room was not active.
func (q *Queries) StartRoom(ctx context.Context, roomID, questionID uuid.UUID, startTime time.Time) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE rooms
		SET status = $2, active_question = $3, start_time = $4, updated_at = now()
		WHERE id = $1 AND status = $5`,
		roomID, RoomStatusPlaying, questionID, startTime, RoomStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteRoom transitions a room from playing to completed. The guard on the
// current status makes the submission-driven and timer-driven paths idempotent
// relative to each other: only one caller observes true.
func (q *Queries) CompleteRoom(ctx context.Context, roomID uuid.UUID) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE rooms
		SET status = $2, is_active = FALSE, updated_at = now()
		WHERE id = $1 AND status = $3`,
		roomID, RoomStatusCompleted, RoomStatusPlaying)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CloseRoom transitions a room to closed from any non-terminal status.
// Returns false if the room was already terminal.
func (q *Queries) CloseRoom(ctx context.Context, roomID uuid.UUID) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE rooms
		SET status = $2, is_active = FALSE, updated_at = now()
		WHERE id = $1 AND status IN ($3, $4)`,
		roomID, RoomStatusClosed, RoomStatusActive, RoomStatusPlaying)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListReapableRooms returns rooms the reaper should delete: lobbies idle past
// staleActive, battles running past stalePlaying, and terminal rooms whose
// cleanup grace period elapsed.
func (q *Queries) ListReapableRooms(ctx context.Context, now time.Time, staleActive, stalePlaying, terminalGrace time.Duration) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id FROM rooms
		WHERE (status = $2 AND start_time IS NULL AND created_at <= $1::timestamptz - make_interval(secs => $5))
		   OR (status = $3 AND start_time <= $1::timestamptz - make_interval(secs => $6))
		   OR (status IN ($4, $7) AND updated_at <= $1::timestamptz - make_interval(secs => $8))`,
		now, RoomStatusActive, RoomStatusPlaying, RoomStatusCompleted,
		staleActive.Seconds(), stalePlaying.Seconds(), RoomStatusClosed, terminalGrace.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRoom removes the room row; participants, chat, and battle results
// cascade with it.
func (q *Queries) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	return err
}
