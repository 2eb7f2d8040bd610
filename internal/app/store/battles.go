package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

func scanBattleResult(row interface{ Scan(dest ...any) error }) (*BattleResult, error) {
	var (
		b   BattleResult
		raw []byte
	)
	err := row.Scan(&b.ID, &b.RoomID, &b.QuestionID, &raw, &b.CreatedAt, &b.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &b.Results); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBattleResult fetches the result row of a room, if any battle produced one.
func (q *Queries) GetBattleResult(ctx context.Context, roomID uuid.UUID) (*BattleResult, error) {
	return scanBattleResult(q.db.QueryRow(ctx, `
		SELECT id, room_id, question_id, results, created_at, updated_at
		FROM battle_results
		WHERE room_id = $1`, roomID))
}

// LockBattleResult fetches the result row for a (room, question) pair with a
// row-level lock, creating it empty first if absent. Position appends are
// serialized on this lock so positions stay unique and contiguous.
func (q *Queries) LockBattleResult(ctx context.Context, roomID, questionID uuid.UUID) (*BattleResult, error) {
	_, err := q.db.Exec(ctx, `
		INSERT INTO battle_results (id, room_id, question_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id, question_id) DO NOTHING`,
		uuid.New(), roomID, questionID)
	if err != nil {
		return nil, err
	}

	return scanBattleResult(q.db.QueryRow(ctx, `
		SELECT id, room_id, question_id, results, created_at, updated_at
		FROM battle_results
		WHERE room_id = $1 AND question_id = $2
		FOR UPDATE`, roomID, questionID))
}

// AppendBattleResult stores the full ordered entry list back on the locked row.
func (q *Queries) AppendBattleResult(ctx context.Context, id uuid.UUID, entries []ResultEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	_, err = q.db.Exec(ctx, `
		UPDATE battle_results SET results = $2, updated_at = now()
		WHERE id = $1`, id, raw)
	return err
}
