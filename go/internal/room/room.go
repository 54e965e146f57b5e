package room

import (
	"context"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordbingo/go/internal/events"
	"github.com/mcdev12/wordbingo/go/internal/scorereport"
	"github.com/mcdev12/wordbingo/go/internal/vocabulary"
)

// State is a room's lifecycle phase. Transitions only move forward.
type State int

const (
	StateLobby State = iota
	StatePlaying
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// EndReason says why a game finished.
type EndReason string

const (
	ReasonWordsExhausted EndReason = "wordsExhausted"
	ReasonTimeUp         EndReason = "timeUp"
	ReasonPlayersLeft    EndReason = "playersLeft"
)

// Message is the human readable text sent with gameOver.
func (r EndReason) Message() string {
	switch r {
	case ReasonWordsExhausted:
		return "All words have been drawn!"
	case ReasonTimeUp:
		return "Time's up!"
	case ReasonPlayersLeft:
		return "All players left."
	default:
		return "Game over."
	}
}

// Settings are the tunables shared by every room of a registry.
type Settings struct {
	MaxPlayers        int
	CardSize          int
	WordDuration      time.Duration
	GameDuration      time.Duration
	GraceDelay        time.Duration
	CleanupDelay      time.Duration
	FiftyFiftyCharges int
	ReportTimeout     time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:        8,
		CardSize:          12,
		WordDuration:      15 * time.Second,
		GameDuration:      180 * time.Second,
		GraceDelay:        1500 * time.Millisecond,
		CleanupDelay:      30 * time.Second,
		FiftyFiftyCharges: 1,
		ReportTimeout:     5 * time.Second,
	}
}

// Reporter receives every positive final score once per game.
type Reporter interface {
	Report(ctx context.Context, s scorereport.Score) error
}

// EventSink accepts lifecycle events. Enqueue is called with the room lock held
// and must not block.
type EventSink interface {
	Enqueue(e events.Event)
}

type player struct {
	id       PlayerID
	name     string
	score    int
	card     []int
	marked   map[int]bool
	powerUps map[PowerUpKind]int
}

func (p *player) view() PlayerView {
	return PlayerView{ID: p.id, Name: p.name, Score: p.score}
}

// Room is one game session. Every exported entry point and every timer
// callback runs with mu held, so handlers observe and mutate state atomically.
type Room struct {
	mu sync.Mutex

	code      string
	settings  Settings
	vocab     *vocabulary.Table
	clock     clockwork.Clock
	rng       *rand.Rand
	notifier  Notifier
	reporter  Reporter
	sink      EventSink
	registry  *Registry
	createdAt time.Time

	state   State
	players map[PlayerID]*player
	order   []PlayerID
	words   *wordScheduler
	timers  timerSet
	closed  bool

	gameEndsAt time.Time
	startedAt  time.Time
	finishedAt time.Time
	endReason  EndReason
}

func (r *Room) Code() string { return r.code }

func (r *Room) member(id PlayerID) (*player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *Room) playerViews() []PlayerView {
	views := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		views = append(views, r.players[id].view())
	}
	return views
}

func (r *Room) broadcastPlayers() {
	r.notifier.Broadcast(r.code, newNotification(NotifyPlayerUpdate, PlayerUpdatePayload{
		Players: r.playerViews(),
	}))
}

// canJoin returns the reason a new player may not join, or nil.
func (r *Room) canJoin() error {
	switch {
	case r.closed:
		return ErrRoomNotFound
	case len(r.players) >= r.settings.MaxPlayers:
		return ErrRoomFull
	case r.state != StateLobby:
		return ErrGameAlreadyStarted
	}
	return nil
}

// join seats a new player and tells everyone. reply is the notification type
// sent to the joining player (roomCreated or joinedRoom).
func (r *Room) join(id PlayerID, name string, reply NotificationType) {
	if name == "" {
		name = defaultPlayerName(len(r.players) + 1)
	}

	r.players[id] = &player{id: id, name: name}
	r.order = append(r.order, id)
	r.registry.setSeat(id, r.code)
	r.notifier.Subscribe(r.code, id)

	log.Info().
		Str("room_code", r.code).
		Str("player_id", string(id)).
		Str("player_name", name).
		Int("players", len(r.players)).
		Msg("player joined room")

	r.notifier.SendTo(id, newNotification(reply, RoomJoinedPayload{
		RoomCode: r.code,
		Players:  r.playerViews(),
	}))
	r.broadcastPlayers()
}

// start deals cards and begins the game. Only a Lobby room starts; anything
// else is ignored.
func (r *Room) start() {
	if r.state != StateLobby {
		log.Debug().Str("room_code", r.code).Stringer("state", r.state).Msg("ignoring start, room not in lobby")
		return
	}

	size := r.vocab.Len()
	cardSize := min(r.settings.CardSize, size)

	r.state = StatePlaying
	r.startedAt = r.clock.Now()
	r.words = newWordScheduler(r.rng, size)

	names := make([]string, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		p.score = 0
		p.card = GenerateCard(r.rng, size, cardSize)
		p.marked = make(map[int]bool, len(p.card))
		p.powerUps = map[PowerUpKind]int{PowerUpFiftyFifty: r.settings.FiftyFiftyCharges}
		names = append(names, p.name)

		r.notifier.SendTo(id, newNotification(NotifyGameStart, GameStartPayload{
			Card: r.cardWords(p.card),
		}))
	}

	log.Info().
		Str("room_code", r.code).
		Int("players", len(r.players)).
		Int("card_size", cardSize).
		Msg("game started")

	r.emit(events.GameStarted, events.GameStartedPayload{
		RoomCode:        r.code,
		Players:         names,
		CardSize:        cardSize,
		VocabularySize:  size,
		WordDurationSec: int(r.settings.WordDuration.Seconds()),
		GameDurationSec: int(r.settings.GameDuration.Seconds()),
		StartedAt:       r.startedAt,
	})

	r.startGameTimer()
	r.advanceWord()
}

func (r *Room) cardWords(card []int) []string {
	words := make([]string, len(card))
	for i, index := range card {
		entry, _ := r.vocab.Entry(index)
		words[i] = entry.Romanized
	}
	return words
}

// clickCell scores a guess. Clicks outside Playing, on cells that do not exist,
// or on cells already solved change nothing.
func (r *Room) clickCell(p *player, cell int) {
	if r.state != StatePlaying || cell < 0 || cell >= len(p.card) {
		return
	}
	current, ok := r.words.currentWord()
	if !ok {
		return
	}

	outcome := Evaluate(Guess{
		CardEntry:     p.card[cell],
		CurrentWord:   current,
		AlreadyMarked: p.marked[cell],
		FirstAnswer:   !r.words.answered,
	}, p.score)

	switch outcome.Kind {
	case OutcomeIgnored:
		return
	case OutcomeCorrect:
		p.score = outcome.Score
		p.marked[cell] = true
		r.notifier.SendTo(p.id, newNotification(NotifyCorrectGuess, GuessPayload{CellIndex: cell, NewScore: p.score}))
		r.broadcastPlayers()

		if outcome.Bonus && r.words.claim(p.name) {
			r.notifier.Broadcast(r.code, newNotification(NotifyFirstAnswerBonus, FirstAnswerBonusPayload{
				PlayerName: p.name,
			}))
			r.advanceAfterGrace()
		}
	case OutcomeIncorrect:
		p.score = outcome.Score
		r.notifier.SendTo(p.id, newNotification(NotifyIncorrectGuess, GuessPayload{CellIndex: cell, NewScore: p.score}))
		r.broadcastPlayers()
	}

	log.Debug().
		Str("room_code", r.code).
		Str("player_id", string(p.id)).
		Int("cell", cell).
		Int("delta", outcome.Delta).
		Int("score", p.score).
		Msg("cell clicked")
}

func (r *Room) usePowerUp(p *player, kind PowerUpKind) error {
	if kind != PowerUpFiftyFifty {
		return ErrUnknownPowerUp
	}
	if r.state != StatePlaying {
		return ErrPowerUpUnavailable
	}
	current, ok := r.words.currentWord()
	if !ok {
		return ErrPowerUpUnavailable
	}

	cells, err := FiftyFifty(r.rng, p.card, p.marked, current, p.powerUps[kind])
	if err != nil {
		return err
	}
	p.powerUps[kind]--

	r.notifier.SendTo(p.id, newNotification(NotifyPowerUpResult, PowerUpResultPayload{
		Type:             kind,
		CellsToRemove:    cells,
		RemainingCharges: p.powerUps[kind],
	}))
	return nil
}

// removePlayer drops id from the room. An emptied Lobby or Playing room is torn
// down at once; an emptied Finished room waits for its cleanup timer.
func (r *Room) removePlayer(id PlayerID) {
	if _, ok := r.players[id]; !ok {
		return
	}

	r.notifier.Unsubscribe(r.code, id)
	r.registry.clearSeat(id, r.code)

	// The last player still counts towards the final standings.
	abandoned := len(r.players) == 1 && r.state == StatePlaying
	if abandoned {
		r.finish(ReasonPlayersLeft)
	}

	delete(r.players, id)
	r.order = slices.DeleteFunc(r.order, func(other PlayerID) bool { return other == id })

	log.Info().
		Str("room_code", r.code).
		Str("player_id", string(id)).
		Int("players", len(r.players)).
		Msg("player left room")

	if len(r.players) > 0 {
		r.broadcastPlayers()
		return
	}

	if r.state == StateLobby || abandoned {
		r.teardown("empty")
	}
}

// finish ends a running game once: it stops the game timers, publishes the
// final leaderboard, reports scores and schedules the room's deletion.
func (r *Room) finish(reason EndReason) {
	if r.state != StatePlaying {
		return
	}
	r.state = StateFinished
	r.endReason = reason
	r.finishedAt = r.clock.Now()
	r.cancelGameTimers()

	leaderboard := r.leaderboard()
	drawn := r.drawnWords()

	log.Info().
		Str("room_code", r.code).
		Str("reason", string(reason)).
		Int("words_drawn", len(drawn)).
		Msg("game finished")

	r.notifier.Broadcast(r.code, newNotification(NotifyGameOver, GameOverPayload{
		Reason:      reason,
		Message:     reason.Message(),
		Leaderboard: leaderboard,
		DrawnWords:  drawn,
	}))

	r.reportScores()
	r.emit(events.GameFinished, events.GameFinishedPayload{
		RoomCode:    r.code,
		Reason:      string(reason),
		StartedAt:   r.startedAt,
		FinishedAt:  r.finishedAt,
		Leaderboard: leaderboard,
		DrawnWords:  drawn,
	})

	r.arm(slotCleanup, r.settings.CleanupDelay, func() {
		r.teardown("cleanup")
	})
}

// teardown closes the room for good. Later timer firings and actions see
// closed and do nothing.
func (r *Room) teardown(reason string) {
	if r.closed {
		return
	}
	r.closed = true
	r.cancelAll()

	for _, id := range r.order {
		r.notifier.Unsubscribe(r.code, id)
		r.registry.clearSeat(id, r.code)
	}
	r.registry.release(r)

	log.Info().Str("room_code", r.code).Str("reason", reason).Msg("room closed")
	r.emit(events.RoomClosed, events.RoomClosedPayload{
		RoomCode: r.code,
		Reason:   reason,
		ClosedAt: r.clock.Now(),
	})
}

// leaderboard orders players by score, highest first; ties keep join order.
func (r *Room) leaderboard() []Standing {
	ranked := make([]*player, 0, len(r.order))
	for _, id := range r.order {
		ranked = append(ranked, r.players[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	standings := make([]Standing, len(ranked))
	for i, p := range ranked {
		standings[i] = Standing{Rank: i + 1, Name: p.name, Score: p.score}
	}
	return standings
}

func (r *Room) drawnWords() []DrawnWord {
	if r.words == nil {
		return nil
	}
	drawn := make([]DrawnWord, len(r.words.drawn))
	for i, d := range r.words.drawn {
		entry, _ := r.vocab.Entry(d.index)
		drawn[i] = DrawnWord{Index: d.index, Word: entry.Translation, AnsweredBy: d.answeredBy}
	}
	return drawn
}

// reportScores hands each positive score to the reporter off the room lock.
// Failures are logged and never retried.
func (r *Room) reportScores() {
	if r.reporter == nil {
		return
	}
	for _, id := range r.order {
		p := r.players[id]
		if p.score <= 0 {
			continue
		}
		score := scorereport.Score{Name: p.name, Score: p.score}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.settings.ReportTimeout)
			defer cancel()
			if err := r.reporter.Report(ctx, score); err != nil {
				log.Warn().
					Err(err).
					Str("room_code", r.code).
					Str("player_name", score.Name).
					Int("score", score.Score).
					Msg("failed to report score")
			}
		}()
	}
}

func (r *Room) emit(t events.Type, payload any) {
	if r.sink == nil {
		return
	}
	e, err := events.New(t, r.code, r.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("room_code", r.code).Msg("failed to build event")
		return
	}
	r.sink.Enqueue(e)
}

// Snapshot is a read-only view of a room.
type Snapshot struct {
	Code           string       `json:"code"`
	State          string       `json:"state"`
	Players        []PlayerView `json:"players"`
	WordsDrawn     int          `json:"wordsDrawn"`
	WordsRemaining int          `json:"wordsRemaining"`
	SecondsLeft    int          `json:"secondsLeft"`
	EndReason      EndReason    `json:"endReason,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Code:      r.code,
		State:     r.state.String(),
		Players:   r.playerViews(),
		EndReason: r.endReason,
		CreatedAt: r.createdAt,
	}
	if r.words != nil {
		s.WordsDrawn = len(r.words.drawn)
		s.WordsRemaining = r.words.remaining()
	} else {
		s.WordsRemaining = r.vocab.Len()
	}
	if r.state == StatePlaying {
		s.SecondsLeft = r.secondsLeft()
	}
	return s
}
