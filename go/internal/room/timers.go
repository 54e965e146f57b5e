package room

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// timerSlot identifies one independently cancellable deadline of a room.
type timerSlot int

const (
	// slotWord holds either the current word's deadline or the grace-delayed
	// draw that replaces it after a first correct answer.
	slotWord timerSlot = iota
	// slotGame holds the overall game deadline.
	slotGame
	// slotTick holds the next one-second game timer update.
	slotTick
	// slotCleanup holds the delayed room deletion after a game ends.
	slotCleanup

	slotCount
)

func (s timerSlot) String() string {
	switch s {
	case slotWord:
		return "word"
	case slotGame:
		return "game"
	case slotTick:
		return "tick"
	case slotCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// timerSet holds a room's armed timers. Each slot carries an epoch that is
// bumped on every cancellation; a firing timer compares the epoch it captured
// when armed with the current one and does nothing when they differ.
type timerSet struct {
	epochs [slotCount]uint64
	armed  [slotCount]clockwork.Timer
}

// arm cancels whatever is pending in slot and schedules fire after d.
// fire runs with the room lock held, and only if the slot was not superseded
// and the room is still open. Callers must hold r.mu.
func (r *Room) arm(slot timerSlot, d time.Duration, fire func()) {
	r.cancel(slot)
	epoch := r.timers.epochs[slot]

	r.timers.armed[slot] = r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.closed || r.timers.epochs[slot] != epoch {
			log.Debug().
				Str("room_code", r.code).
				Stringer("slot", slot).
				Msg("stale timer fired, ignoring")
			return
		}
		r.timers.armed[slot] = nil
		fire()
	})
}

// cancel invalidates slot and stops its timer if one is pending. Callers must hold r.mu.
func (r *Room) cancel(slot timerSlot) {
	r.timers.epochs[slot]++
	if t := r.timers.armed[slot]; t != nil {
		t.Stop()
		r.timers.armed[slot] = nil
	}
}

// cancelGameTimers stops everything that drives a running game.
func (r *Room) cancelGameTimers() {
	r.cancel(slotWord)
	r.cancel(slotGame)
	r.cancel(slotTick)
}

func (r *Room) cancelAll() {
	for slot := timerSlot(0); slot < slotCount; slot++ {
		r.cancel(slot)
	}
}

// startGameTimer arms the overall deadline and the per-second countdown.
func (r *Room) startGameTimer() {
	r.gameEndsAt = r.clock.Now().Add(r.settings.GameDuration)
	r.notifier.Broadcast(r.code, newNotification(NotifyGameTimerUpdate, GameTimerUpdatePayload{
		SecondsLeft: r.secondsLeft(),
	}))

	r.arm(slotGame, r.settings.GameDuration, func() {
		r.finish(ReasonTimeUp)
	})
	r.arm(slotTick, time.Second, r.onTick)
}

func (r *Room) onTick() {
	left := r.secondsLeft()
	r.notifier.Broadcast(r.code, newNotification(NotifyGameTimerUpdate, GameTimerUpdatePayload{
		SecondsLeft: left,
	}))
	if left <= 0 {
		return
	}
	// Next tick lands on a whole second before the deadline.
	next := r.gameEndsAt.Sub(r.clock.Now()) - time.Duration(left-1)*time.Second
	r.arm(slotTick, next, r.onTick)
}

// secondsLeft rounds the remaining game time up to whole seconds.
func (r *Room) secondsLeft() int {
	if r.gameEndsAt.IsZero() {
		return 0
	}
	remaining := r.gameEndsAt.Sub(r.clock.Now())
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}
