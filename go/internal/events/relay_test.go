package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	events   []Event
	failures int
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) received() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func testConfig() Config {
	return Config{BufferSize: 8, MaxRetries: 2, RetryDelay: time.Millisecond}
}

func mustEvent(t *testing.T, typ Type, code string) Event {
	t.Helper()
	e, err := New(typ, code, time.Now(), RoomClosedPayload{RoomCode: code, Reason: "test"})
	require.NoError(t, err)
	return e
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	e, err := New(RoomCreated, "ABCDE", at, RoomCreatedPayload{RoomCode: "ABCDE", HostName: "ann"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, time.UTC, e.OccurredAt.Location())

	var payload RoomCreatedPayload
	require.NoError(t, e.Decode(&payload))
	assert.Equal(t, "ann", payload.HostName)
}

func TestRelayDeliversInOrderToEveryPublisher(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	relay := NewRelay(testConfig(), a, b)
	require.NoError(t, relay.Start(context.Background()))

	first := mustEvent(t, RoomCreated, "AAAAA")
	second := mustEvent(t, RoomClosed, "AAAAA")
	relay.Enqueue(first)
	relay.Enqueue(second)
	require.NoError(t, relay.Stop())

	for _, p := range []*recordingPublisher{a, b} {
		got := p.received()
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, second.ID, got[1].ID)
	}
}

func TestRelayRetriesFailedPublish(t *testing.T) {
	p := &recordingPublisher{failures: 2}
	relay := NewRelay(testConfig(), p)
	require.NoError(t, relay.Start(context.Background()))

	relay.Enqueue(mustEvent(t, GameStarted, "BBBBB"))
	require.NoError(t, relay.Stop())

	assert.Len(t, p.received(), 1)
}

func TestRelayGivesUpAfterMaxRetries(t *testing.T) {
	p := &recordingPublisher{failures: 10}
	relay := NewRelay(testConfig(), p)
	require.NoError(t, relay.Start(context.Background()))

	relay.Enqueue(mustEvent(t, GameStarted, "CCCCC"))
	require.NoError(t, relay.Stop())

	assert.Empty(t, p.received())
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, 7, p.failures)
	assert.Equal(t, uint64(1), relay.Stats().Failed)
}

func TestRelayDropsWhenFullOrStopped(t *testing.T) {
	p := &recordingPublisher{}
	relay := NewRelay(Config{BufferSize: 1}, p)

	relay.Enqueue(mustEvent(t, RoomCreated, "DDDDD"))
	relay.Enqueue(mustEvent(t, RoomCreated, "EEEEE"))

	require.NoError(t, relay.Start(context.Background()))
	require.ErrorIs(t, relay.Start(context.Background()), ErrRelayRunning)
	require.NoError(t, relay.Stop())
	relay.Enqueue(mustEvent(t, RoomCreated, "FFFFF"))

	got := p.received()
	require.Len(t, got, 1)
	assert.Equal(t, "DDDDD", got[0].RoomCode)
	assert.Error(t, relay.Stop())

	stats := relay.Stats()
	assert.False(t, stats.Running)
	assert.Equal(t, uint64(1), stats.Enqueued)
	assert.Equal(t, uint64(1), stats.Published)
	assert.Equal(t, uint64(2), stats.Dropped)
}

func TestJetStreamSubject(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	assert.Equal(t, "bingo.events.game_finished", cfg.Subject(GameFinished))
}

func TestJetStreamStreamConfig(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	sc := cfg.stream()

	assert.Equal(t, "BINGO_EVENTS", sc.Name)
	assert.Equal(t, []string{"bingo.events.>"}, sc.Subjects)
	assert.True(t, sameLimits(sc, sc))

	changed := sc
	changed.Subjects = []string{"other.>"}
	assert.False(t, sameLimits(sc, changed))

	changed = sc
	changed.MaxAge = time.Hour
	assert.False(t, sameLimits(sc, changed))
}
