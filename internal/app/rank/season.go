package rank

import (
	"context"
	"fmt"
	"time"

	"bitarena/internal/app/store"
	"bitarena/internal/pkg/logx"
)

const (
	// SeasonDuration is how long a season stays open before rollover.
	SeasonDuration = 30 * 24 * time.Hour

	// seasonCheckInterval is how often the keeper looks for an expired season.
	seasonCheckInterval = 1 * time.Hour
)

// SeasonKeeper rolls rating seasons over in the background: it closes the
// active season once it exceeds SeasonDuration and opens the next, and
// creates "Season 1" when no season exists at all.
type SeasonKeeper struct {
	store *store.Store
}

// NewSeasonKeeper constructs a SeasonKeeper over the given store.
func NewSeasonKeeper(s *store.Store) *SeasonKeeper {
	return &SeasonKeeper{store: s}
}

// Run blocks, checking the season state once immediately and then on every
// tick, until ctx is cancelled.
func (k *SeasonKeeper) Run(ctx context.Context) {
	logx.Info("Season keeper started")

	ticker := time.NewTicker(seasonCheckInterval)
	defer ticker.Stop()

	k.check(ctx)

	for {
		select {
		case <-ctx.Done():
			logx.Info("Season keeper stopped")
			return
		case <-ticker.C:
			k.check(ctx)
		}
	}
}

// check performs one rollover pass.
func (k *SeasonKeeper) check(ctx context.Context) {
	now := time.Now()

	err := k.store.WithTx(ctx, func(q *store.Queries) error {
		active, err := q.GetActiveSeason(ctx)
		if err == store.ErrNotFound {
			_, err := q.CreateSeason(ctx, "Season 1", now)
			if err == nil {
				logx.Info("Opened first rating season")
			}
			return err
		}
		if err != nil {
			return err
		}

		if now.Sub(active.StartDate) < SeasonDuration {
			return nil
		}

		if err := q.CloseSeason(ctx, active.ID, now); err != nil {
			return err
		}

		count, err := q.CountSeasons(ctx)
		if err != nil {
			return err
		}

		next := fmt.Sprintf("Season %d", count+1)
		if _, err := q.CreateSeason(ctx, next, now); err != nil {
			return err
		}

		logx.Info("Rolled rating season over", "closed", active.Name, "opened", next)
		return nil
	})
	if err != nil {
		logx.Error(err, "Season rollover check failed")
	}
}
