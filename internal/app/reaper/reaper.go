/*
Package reaper deletes rooms whose lifecycle ended or stalled.

Three populations are reclaimed: lobbies that never started within an hour,
battles running past the hard ceiling, and terminal rooms past their cleanup
grace period. Each room's participants, chat, and battle results go in one
transaction with the room itself; a room already gone is a trivial success.
*/
package reaper

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bitarena/internal/app/store"
	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/metrics"
)

const (
	// tick is how often the reaper scans for reclaimable rooms.
	tick = 1 * time.Minute

	// staleActiveAfter reclaims lobbies that never started a battle.
	staleActiveAfter = 1 * time.Hour

	// stalePlayingAfter reclaims battles that outlived any legal time limit.
	stalePlayingAfter = 65 * time.Minute

	// terminalGrace is how long completed and closed rooms stay visible
	// before deletion, giving clients time to read the outcome.
	terminalGrace = 5 * time.Minute
)

// Reaper is the periodic background reclamation job.
type Reaper struct {
	store *store.Store
}

// New constructs a Reaper over the given store.
func New(s *store.Store) *Reaper {
	return &Reaper{store: s}
}

// Run blocks, sweeping once per tick until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	logx.Info("Reaper started")

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("Reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// sweep finds and deletes every reclaimable room.
func (r *Reaper) sweep(ctx context.Context) {
	ids, err := r.store.ListReapableRooms(ctx, time.Now(), staleActiveAfter, stalePlayingAfter, terminalGrace)
	if err != nil {
		logx.Error(err, "Reaper scan failed")
		return
	}

	for _, id := range ids {
		if err := r.cleanup(ctx, id); err != nil {
			logx.Error(err, "Room cleanup failed", "room_id", id)
			continue
		}
		metrics.RoomsReaped.Inc()
		logx.Info("Room reaped", "room_id", id)
	}
}

// cleanup deletes one room and everything attached to it in a single
// transaction. Participants, chat, and battle results cascade from the room
// row; the explicit deletes keep the intent visible and the order fixed.
func (r *Reaper) cleanup(ctx context.Context, roomID uuid.UUID) error {
	return r.store.WithTx(ctx, func(q *store.Queries) error {
		_, err := q.GetRoomForUpdate(ctx, roomID)
		if err == store.ErrNotFound {
			// Already reclaimed elsewhere.
			return nil
		}
		if err != nil {
			return err
		}

		if err := q.ClearChat(ctx, roomID); err != nil {
			return err
		}
		return q.DeleteRoom(ctx, roomID)
	})
}
