package store

import (
	"context"

	"github.com/google/uuid"
)

// EnsureUser upserts the arena-side record for a verified identity. The
// identity system owns usernames; this keeps the local copy current.
func (q *Queries) EnsureUser(ctx context.Context, id uuid.UUID, username string) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username`,
		id, username)
	return err
}

// GetUserByUsername returns the user record for the given username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := q.db.QueryRow(ctx, `
		SELECT id, username, total_battles, battles_won, created_at
		FROM users WHERE username = $1`,
		username).Scan(&u.ID, &u.Username, &u.TotalBattles, &u.BattlesWon, &u.CreatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// IncrementBattlesWon bumps the lifetime win counter for a user.
func (q *Queries) IncrementBattlesWon(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx,
		`UPDATE users SET battles_won = battles_won + 1 WHERE id = $1`, userID)
	return err
}

// IncrementTotalBattles bumps the lifetime battle counter for every listed user.
func (q *Queries) IncrementTotalBattles(ctx context.Context, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := q.db.Exec(ctx,
		`UPDATE users SET total_battles = total_battles + 1 WHERE id = ANY($1)`, userIDs)
	return err
}
