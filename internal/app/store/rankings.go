package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GetActiveSeason returns the single active season, or ErrNotFound.
func (q *Queries) GetActiveSeason(ctx context.Context) (*Season, error) {
	var s Season
	err := q.db.QueryRow(ctx, `
		SELECT id, name, start_date, end_date, is_active
		FROM seasons WHERE is_active`).Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.IsActive)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CloseSeason ends the given season at the provided instant.
func (q *Queries) CloseSeason(ctx context.Context, seasonID int64, endDate time.Time) error {
	_, err := q.db.Exec(ctx, `
		UPDATE seasons SET is_active = FALSE, end_date = $2 WHERE id = $1`,
		seasonID, endDate)
	return err
}

// CreateSeason opens a new active season.
func (q *Queries) CreateSeason(ctx context.Context, name string, startDate time.Time) (*Season, error) {
	var s Season
	s.Name = name
	s.StartDate = startDate
	s.IsActive = true

	err := q.db.QueryRow(ctx, `
		INSERT INTO seasons (name, start_date, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING id`, name, startDate).Scan(&s.ID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSeasons returns the number of seasons ever created.
func (q *Queries) CountSeasons(ctx context.Context) (int, error) {
	var count int
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM seasons`).Scan(&count)
	return count, err
}

// GetOrCreateRanking returns the ranking row of a user within a season,
// creating it at the base rating on first sight.
func (q *Queries) GetOrCreateRanking(ctx context.Context, userID uuid.UUID, seasonID int64) (*Ranking, error) {
	_, err := q.db.Exec(ctx, `
		INSERT INTO rankings (user_id, season_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, season_id) DO NOTHING`,
		userID, seasonID)
	if err != nil {
		return nil, err
	}

	var r Ranking
	err = q.db.QueryRow(ctx, `
		SELECT rk.id, rk.user_id, u.username, rk.season_id, rk.rating, rk.wins, rk.losses, rk.total_matches
		FROM rankings rk JOIN users u ON u.id = rk.user_id
		WHERE rk.user_id = $1 AND rk.season_id = $2`,
		userID, seasonID).Scan(&r.ID, &r.UserID, &r.Username, &r.SeasonID, &r.Rating, &r.Wins, &r.Losses, &r.TotalMatches)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveRanking stores an updated rating row.
func (q *Queries) SaveRanking(ctx context.Context, r *Ranking) error {
	_, err := q.db.Exec(ctx, `
		UPDATE rankings
		SET rating = $2, wins = $3, losses = $4, total_matches = $5
		WHERE id = $1`,
		r.ID, r.Rating, r.Wins, r.Losses, r.TotalMatches)
	return err
}

// ListTopRankings returns the season leaderboard, highest rating first.
func (q *Queries) ListTopRankings(ctx context.Context, seasonID int64, limit int) ([]*Ranking, error) {
	rows, err := q.db.Query(ctx, `
		SELECT rk.id, rk.user_id, u.username, rk.season_id, rk.rating, rk.wins, rk.losses, rk.total_matches
		FROM rankings rk JOIN users u ON u.id = rk.user_id
		WHERE rk.season_id = $1
		ORDER BY rk.rating DESC
		LIMIT $2`, seasonID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rankings []*Ranking
	for rows.Next() {
		var r Ranking
		if err := rows.Scan(&r.ID, &r.UserID, &r.Username, &r.SeasonID, &r.Rating, &r.Wins, &r.Losses, &r.TotalMatches); err != nil {
			return nil, err
		}
		rankings = append(rankings, &r)
	}
	return rankings, rows.Err()
}
