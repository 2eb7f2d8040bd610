package store

import (
	"context"

	"github.com/google/uuid"
)

// ChatHistoryLimit caps the number of messages returned on a history fetch.
const ChatHistoryLimit = 100

// SaveChatMessage persists one chat line for a room.
func (q *Queries) SaveChatMessage(ctx context.Context, roomID uuid.UUID, sender, body string, isSystem bool) (*ChatMessage, error) {
	var m ChatMessage
	m.RoomID = roomID
	m.Sender = sender
	m.Body = body
	m.IsSystem = isSystem

	err := q.db.QueryRow(ctx, `
		INSERT INTO chat_messages (room_id, sender, body, is_system)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		roomID, sender, body, isSystem).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetChatHistory returns the most recent ChatHistoryLimit messages of a room
// in chronological order.
func (q *Queries) GetChatHistory(ctx context.Context, roomID uuid.UUID) ([]*ChatMessage, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, room_id, sender, body, is_system, created_at FROM (
			SELECT id, room_id, sender, body, is_system, created_at
			FROM chat_messages
			WHERE room_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at, id`,
		roomID, ChatHistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Sender, &m.Body, &m.IsSystem, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// ClearChat deletes every message of a room, used when the room closes.
func (q *Queries) ClearChat(ctx context.Context, roomID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM chat_messages WHERE room_id = $1`, roomID)
	return err
}
