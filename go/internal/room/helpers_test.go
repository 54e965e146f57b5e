package room

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/wordbingo/go/internal/events"
	"github.com/mcdev12/wordbingo/go/internal/scorereport"
	"github.com/mcdev12/wordbingo/go/internal/vocabulary"
)

// recordingNotifier delivers broadcasts to subscribers' inboxes so tests can
// read everything a given connection would have seen.
type recordingNotifier struct {
	mu    sync.Mutex
	subs  map[string]map[PlayerID]bool
	inbox map[PlayerID][]Notification
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		subs:  make(map[string]map[PlayerID]bool),
		inbox: make(map[PlayerID][]Notification),
	}
}

func (n *recordingNotifier) Subscribe(roomCode string, id PlayerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs[roomCode] == nil {
		n.subs[roomCode] = make(map[PlayerID]bool)
	}
	n.subs[roomCode][id] = true
}

func (n *recordingNotifier) Unsubscribe(roomCode string, id PlayerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs[roomCode], id)
}

func (n *recordingNotifier) SendTo(id PlayerID, msg Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inbox[id] = append(n.inbox[id], msg)
}

func (n *recordingNotifier) Broadcast(roomCode string, msg Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id := range n.subs[roomCode] {
		n.inbox[id] = append(n.inbox[id], msg)
	}
}

func (n *recordingNotifier) subscribers(roomCode string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[roomCode])
}

func (n *recordingNotifier) received(id PlayerID, t NotificationType) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, msg := range n.inbox[id] {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

func (n *recordingNotifier) last(t *testing.T, id PlayerID, typ NotificationType) Notification {
	t.Helper()
	got := n.received(id, typ)
	require.NotEmpty(t, got, "no %s notification for %s", typ, id)
	return got[len(got)-1]
}

type recordingReporter struct {
	mu     sync.Mutex
	scores []scorereport.Score
}

func (r *recordingReporter) Report(_ context.Context, s scorereport.Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, s)
	return nil
}

func (r *recordingReporter) reported() []scorereport.Score {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scorereport.Score(nil), r.scores...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Enqueue(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) types() []events.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Type, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

// testVocab builds an n-word vocabulary whose translations are "word-<i>".
func testVocab(t *testing.T, n int) *vocabulary.Table {
	t.Helper()
	var b strings.Builder
	b.WriteString("words:\n")
	for i := range n {
		fmt.Fprintf(&b, "  - native: n%d\n    romanized: r%d\n    translation: word-%d\n", i, i, i)
	}
	table, err := vocabulary.Parse([]byte(b.String()))
	require.NoError(t, err)
	return table
}

type harness struct {
	reg      *Registry
	clock    *clockwork.FakeClock
	notifier *recordingNotifier
	reporter *recordingReporter
	sink     *recordingSink
	settings Settings
}

func newHarness(t *testing.T, vocabSize int, tune func(*Settings)) *harness {
	t.Helper()
	settings := DefaultSettings()
	settings.CardSize = vocabSize
	if tune != nil {
		tune(&settings)
	}

	h := &harness{
		clock:    clockwork.NewFakeClock(),
		notifier: newRecordingNotifier(),
		reporter: &recordingReporter{},
		sink:     &recordingSink{},
		settings: settings,
	}
	h.reg = NewRegistry(testVocab(t, vocabSize), h.notifier,
		WithClock(h.clock),
		WithReporter(h.reporter),
		WithEventSink(h.sink),
		WithSettings(settings),
		WithSeed(42),
	)
	return h
}

// room returns the live room for code, failing the test if it is gone.
func (h *harness) room(t *testing.T, code string) *Room {
	t.Helper()
	r, ok := h.reg.lookup(code)
	require.True(t, ok, "room %s not found", code)
	return r
}

// inspect runs fn with the room lock held.
func (h *harness) inspect(t *testing.T, code string, fn func(r *Room)) {
	t.Helper()
	r := h.room(t, code)
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r)
}

// cells returns the card position holding the current word and one that does
// not, or -1 when there is none.
func (h *harness) cells(t *testing.T, code string, id PlayerID) (correct, wrong int) {
	t.Helper()
	correct, wrong = -1, -1
	h.inspect(t, code, func(r *Room) {
		p := r.players[id]
		for pos, entry := range p.card {
			if entry == r.words.current {
				correct = pos
			} else if wrong < 0 {
				wrong = pos
			}
		}
	})
	return correct, wrong
}

func (h *harness) currentWord(t *testing.T, code string) int {
	t.Helper()
	var current int
	h.inspect(t, code, func(r *Room) { current = r.words.current })
	return current
}

func (h *harness) score(t *testing.T, code string, id PlayerID) int {
	t.Helper()
	var score int
	h.inspect(t, code, func(r *Room) { score = r.players[id].score })
	return score
}

// waitTimers blocks until the fake clock has n pending timers.
func (h *harness) waitTimers(t *testing.T, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, n))
}

// tick advances the clock by one second and waits for the countdown to re-arm.
func (h *harness) tick(t *testing.T, pending int) {
	t.Helper()
	h.clock.Advance(time.Second)
	h.waitTimers(t, pending)
}

// startGame creates a room for the given players and starts it.
func (h *harness) startGame(t *testing.T, ids ...PlayerID) string {
	t.Helper()
	code, err := h.reg.CreateRoom(ids[0], string(ids[0]))
	require.NoError(t, err)
	for _, id := range ids[1:] {
		require.NoError(t, h.reg.JoinRoom(id, code, string(id)))
	}
	require.NoError(t, h.reg.RouteAction(ids[0], NewStartGame(code)))
	h.waitTimers(t, 3)
	return code
}

func payload[T any](t *testing.T, n Notification) T {
	t.Helper()
	v, ok := n.Data.(T)
	require.True(t, ok, "unexpected payload %T for %s", n.Data, n.Type)
	return v
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}
