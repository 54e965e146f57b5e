package room

import (
	"math/rand/v2"

	"github.com/rs/zerolog/log"
)

type drawnEntry struct {
	index      int
	answeredBy string
}

// wordScheduler tracks which vocabulary indices a room has drawn. The pool and
// the drawn list always partition [0, size).
type wordScheduler struct {
	rng      *rand.Rand
	pool     []int
	drawn    []drawnEntry
	current  int
	answered bool
}

func newWordScheduler(rng *rand.Rand, size int) *wordScheduler {
	pool := make([]int, size)
	for i := range pool {
		pool[i] = i
	}
	return &wordScheduler{
		rng:     rng,
		pool:    pool,
		drawn:   make([]drawnEntry, 0, size),
		current: -1,
	}
}

// drawNext moves one random index from the pool to the drawn list and makes it
// current. It reports false once the pool is empty.
func (s *wordScheduler) drawNext() (int, bool) {
	if len(s.pool) == 0 {
		return -1, false
	}

	i := s.rng.IntN(len(s.pool))
	index := s.pool[i]
	last := len(s.pool) - 1
	s.pool[i] = s.pool[last]
	s.pool = s.pool[:last]

	s.drawn = append(s.drawn, drawnEntry{index: index})
	s.current = index
	s.answered = false
	return index, true
}

func (s *wordScheduler) currentWord() (int, bool) {
	return s.current, s.current >= 0
}

// claim records name as the first correct answer for the current word. It
// reports false when the word was already claimed.
func (s *wordScheduler) claim(name string) bool {
	if s.answered || len(s.drawn) == 0 {
		return false
	}
	s.answered = true
	s.drawn[len(s.drawn)-1].answeredBy = name
	return true
}

func (s *wordScheduler) remaining() int { return len(s.pool) }

// advanceWord draws the next word and arms its deadline; an exhausted pool ends
// the game. Callers must hold r.mu.
func (r *Room) advanceWord() {
	index, ok := r.words.drawNext()
	if !ok {
		r.finish(ReasonWordsExhausted)
		return
	}

	entry, _ := r.vocab.Entry(index)
	log.Debug().
		Str("room_code", r.code).
		Int("word_index", index).
		Int("remaining", r.words.remaining()).
		Msg("word drawn")

	r.notifier.Broadcast(r.code, newNotification(NotifyNewWord, NewWordPayload{
		Word:            entry.Translation,
		DurationSeconds: int(r.settings.WordDuration.Seconds()),
	}))
	r.arm(slotWord, r.settings.WordDuration, r.advanceWord)
}

// advanceAfterGrace replaces the pending word deadline with a short delay so
// players can see the answer before the board moves on.
func (r *Room) advanceAfterGrace() {
	r.arm(slotWord, r.settings.GraceDelay, r.advanceWord)
}
