package arena

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bitarena/internal/app/battle"
	"bitarena/internal/app/bus"
	"bitarena/internal/app/events"
	"bitarena/internal/app/store"
	"bitarena/internal/pkg/logx"
)

const (
	// timeUpdateTick is the battle clock broadcast period. Time-limit expiry
	// fires on the next tick after the deadline.
	timeUpdateTick = 5 * time.Second

	// DefaultCountdown is the pre-battle countdown length in seconds.
	DefaultCountdown = 5
)

// Timekeeper owns the per-room background tasks: the pre-battle countdown
// and the battle clock that enforces the time limit. Each room gets at most
// one of each, no matter how many sockets are attached; ownership goes to
// whichever connection or start call asks first.
type Timekeeper struct {
	store   *store.Store
	bus     *bus.Bus
	battles *battle.Service

	mu         sync.Mutex
	timers     map[uuid.UUID]struct{}
	countdowns map[uuid.UUID]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTimekeeper constructs the Timekeeper.
func NewTimekeeper(s *store.Store, b *bus.Bus, battles *battle.Service) *Timekeeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Timekeeper{
		store:      s,
		bus:        b,
		battles:    battles,
		timers:     make(map[uuid.UUID]struct{}),
		countdowns: make(map[uuid.UUID]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// EnsureBattleTimer starts the battle clock for a room unless one is already
// running.
func (k *Timekeeper) EnsureBattleTimer(roomID uuid.UUID) {
	k.mu.Lock()
	if _, running := k.timers[roomID]; running {
		k.mu.Unlock()
		return
	}
	k.timers[roomID] = struct{}{}
	k.mu.Unlock()

	k.wg.Add(1)
	go k.runBattleTimer(roomID)
}

// runBattleTimer broadcasts time_update on every tick and force-completes the
// battle once the time limit elapses. It exits as soon as it observes a
// terminal room status.
func (k *Timekeeper) runBattleTimer(roomID uuid.UUID) {
	defer k.wg.Done()
	defer func() {
		k.mu.Lock()
		delete(k.timers, roomID)
		k.mu.Unlock()
	}()

	ticker := time.NewTicker(timeUpdateTick)
	defer ticker.Stop()

	logx.Info("Battle timer started", "room_id", roomID)

	for {
		select {
		case <-k.ctx.Done():
			return
		case <-ticker.C:
			r, err := k.store.GetRoom(k.ctx, roomID)
			if err != nil || r.Status != store.RoomStatusPlaying || r.StartTime == nil {
				logx.Info("Battle timer exiting", "room_id", roomID)
				return
			}

			elapsed := time.Since(*r.StartTime)
			limit := time.Duration(r.TimeLimit) * time.Minute

			if r.TimeLimit > 0 && elapsed >= limit {
				k.battles.ForceComplete(k.ctx, roomID, "Battle ended due to time limit")
				return
			}

			remaining := limit - elapsed
			if r.TimeLimit == 0 {
				remaining = 0
			}

			update := events.NewTimeUpdate(elapsed, remaining)
			k.bus.Publish(k.ctx, bus.RoomTopic(roomID), update)
			k.bus.Publish(k.ctx, bus.BattleTopic(roomID), update)
		}
	}
}

// StartCountdown runs the synchronized pre-battle countdown for a room:
// battle_ready, then one countdown tick per second from seconds down to
// zero, then battle_started carrying the question id. Only one countdown
// runs per room.
func (k *Timekeeper) StartCountdown(roomID uuid.UUID, question events.QuestionRef, questionID uuid.UUID, seconds int, isRanked bool) {
	if seconds <= 0 {
		seconds = DefaultCountdown
	}

	k.mu.Lock()
	if _, running := k.countdowns[roomID]; running {
		k.mu.Unlock()
		return
	}
	k.countdowns[roomID] = struct{}{}
	k.mu.Unlock()

	k.wg.Add(1)
	go k.runCountdown(roomID, question, questionID, seconds, isRanked)
}

func (k *Timekeeper) runCountdown(roomID uuid.UUID, question events.QuestionRef, questionID uuid.UUID, seconds int, isRanked bool) {
	defer k.wg.Done()
	defer func() {
		k.mu.Lock()
		delete(k.countdowns, roomID)
		k.mu.Unlock()
	}()

	topic := bus.RoomTopic(roomID)

	k.bus.Publish(k.ctx, topic, events.NewBattleReady(roomID, question))

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for i := seconds; i >= 0; i-- {
		k.bus.Publish(k.ctx, topic, events.NewCountdown(i, isRanked))

		select {
		case <-k.ctx.Done():
			return
		case <-ticker.C:
		}
	}

	started := events.NewBattleStarted(roomID, questionID)
	k.bus.Publish(k.ctx, topic, started)
	k.bus.Publish(k.ctx, bus.BattleTopic(roomID), started)

	logx.Info("Countdown finished", "room_id", roomID, "question_id", questionID)
}

// Shutdown cancels every running task and waits for them to exit.
func (k *Timekeeper) Shutdown() {
	k.cancel()
	k.wg.Wait()
	logx.Info("Timekeeper shutdown complete.")
}
