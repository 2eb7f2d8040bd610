package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const participantColumns = `
	p.id, p.room_id, p.user_id, u.username, p.role, p.status, p.ready,
	p.ready_at, p.blocked, p.joined_at, p.left_at`

func scanParticipant(row interface{ Scan(dest ...any) error }) (*Participant, error) {
	var p Participant
	err := row.Scan(
		&p.ID, &p.RoomID, &p.UserID, &p.Username, &p.Role, &p.Status, &p.Ready,
		&p.ReadyAt, &p.Blocked, &p.JoinedAt, &p.LeftAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateParticipant inserts a membership row for a user joining a room.
func (q *Queries) CreateParticipant(ctx context.Context, roomID, userID uuid.UUID, role, status string) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO room_participants (room_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)`,
		roomID, userID, role, status)
	return err
}

// GetParticipant fetches the membership row of a user in a room.
func (q *Queries) GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (*Participant, error) {
	return scanParticipant(q.db.QueryRow(ctx, `
		SELECT `+participantColumns+`
		FROM room_participants p JOIN users u ON u.id = p.user_id
		WHERE p.room_id = $1 AND p.user_id = $2`, roomID, userID))
}

// GetParticipantByUsername fetches a membership row by the target's username.
func (q *Queries) GetParticipantByUsername(ctx context.Context, roomID uuid.UUID, username string) (*Participant, error) {
	return scanParticipant(q.db.QueryRow(ctx, `
		SELECT `+participantColumns+`
		FROM room_participants p JOIN users u ON u.id = p.user_id
		WHERE p.room_id = $1 AND u.username = $2`, roomID, username))
}

// ListParticipants returns every membership row of a room, hosts first.
func (q *Queries) ListParticipants(ctx context.Context, roomID uuid.UUID) ([]*Participant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+participantColumns+`
		FROM room_participants p JOIN users u ON u.id = p.user_id
		WHERE p.room_id = $1
		ORDER BY p.role = 'host' DESC, p.joined_at`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []*Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// SetParticipantStatus updates the lifecycle status of a membership row.
// Joining clears left_at; leaving and kicking stamp it.
func (q *Queries) SetParticipantStatus(ctx context.Context, roomID, userID uuid.UUID, status string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE room_participants
		SET status = $3,
		    left_at = CASE WHEN $3 = 'joined' THEN NULL ELSE now() END
		WHERE room_id = $1 AND user_id = $2`,
		roomID, userID, status)
	return err
}

// BlockParticipant marks a membership row kicked and blocked so the user
// cannot rejoin.
func (q *Queries) BlockParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE room_participants
		SET status = $3, blocked = TRUE, left_at = now()
		WHERE room_id = $1 AND user_id = $2`,
		roomID, userID, ParticipantKicked)
	return err
}

// SetParticipantReady toggles the ready flag, stamping ready_at when set.
func (q *Queries) SetParticipantReady(ctx context.Context, roomID, userID uuid.UUID, ready bool, at time.Time) error {
	_, err := q.db.Exec(ctx, `
		UPDATE room_participants
		SET ready = $3,
		    ready_at = CASE WHEN $3 THEN $4::timestamptz ELSE NULL END
		WHERE room_id = $1 AND user_id = $2`,
		roomID, userID, ready, at)
	return err
}

// CountJoined returns the number of participants whose status is joined.
func (q *Queries) CountJoined(ctx context.Context, roomID uuid.UUID) (int, error) {
	var count int
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM room_participants
		WHERE room_id = $1 AND status = $2`,
		roomID, ParticipantJoined).Scan(&count)
	return count, err
}

// ListJoinedUserIDs returns the user ids of every joined participant.
func (q *Queries) ListJoinedUserIDs(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, `
		SELECT user_id FROM room_participants
		WHERE room_id = $1 AND status = $2`,
		roomID, ParticipantJoined)
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
