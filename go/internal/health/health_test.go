package health

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/wordbingo/go/internal/events"
	"github.com/mcdev12/wordbingo/go/internal/room"
	"github.com/mcdev12/wordbingo/go/internal/room/gateway"
)

type fakeRooms []room.Snapshot

func (f fakeRooms) Snapshots() []room.Snapshot { return f }

type fakeConnections int

func (f fakeConnections) Stats() gateway.ConnectionStats {
	return gateway.ConnectionStats{TotalConnections: int(f)}
}

type fakeRelay events.RelayStats

func (f fakeRelay) Stats() events.RelayStats { return events.RelayStats(f) }

type fakeProbe bool

func (f fakeProbe) Connected() bool { return bool(f) }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func rooms() fakeRooms {
	return fakeRooms{
		{Code: "AAAAA", State: "lobby"},
		{Code: "BBBBB", State: "playing"},
		{Code: "CCCCC", State: "playing"},
	}
}

func TestCheck_MinimalServer(t *testing.T) {
	c := &Checker{Rooms: rooms(), Connections: fakeConnections(4)}

	status := c.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, map[string]int{"lobby": 1, "playing": 2, "finished": 0}, status.Rooms)
	assert.Equal(t, 4, status.Connections)
	assert.Nil(t, status.Relay)
	assert.Nil(t, status.NATSConnected)
	assert.Nil(t, status.DatabaseConnected)
	assert.Empty(t, status.Errors)
}

func TestCheck_UnhealthyDependencies(t *testing.T) {
	c := &Checker{
		Rooms:     rooms(),
		Relay:     fakeRelay{Running: true, Queued: 50},
		NATS:      fakeProbe(false),
		Database:  fakePinger{err: errors.New("connection refused")},
		MaxQueued: 10,
	}

	status := c.Check(context.Background())

	assert.False(t, status.Healthy)
	require.NotNil(t, status.NATSConnected)
	assert.False(t, *status.NATSConnected)
	require.NotNil(t, status.DatabaseConnected)
	assert.False(t, *status.DatabaseConnected)
	assert.Len(t, status.Errors, 3)
	assert.Contains(t, status.Errors[0], "high queued event count")
}

func TestCheck_StoppedRelay(t *testing.T) {
	c := &Checker{Rooms: rooms(), Relay: fakeRelay{Running: false}}

	status := c.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, []string{"event relay not running"}, status.Errors)
}

func TestServeHTTP(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		(&Checker{Rooms: rooms()}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var status Status
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.True(t, status.Healthy)
	})

	t.Run("unhealthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		(&Checker{Rooms: rooms(), NATS: fakeProbe(false)}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestExporter(t *testing.T) {
	c := &Checker{
		Rooms:       rooms(),
		Connections: fakeConnections(2),
		Relay:       fakeRelay{Running: true, Enqueued: 7, Published: 6, Dropped: 1},
		NATS:        fakeProbe(true),
	}
	e := NewExporter(c)

	var buf bytes.Buffer
	require.NoError(t, e.Export(&buf, c.Check(context.Background())))
	out := buf.String()

	assert.Contains(t, out, "# TYPE wordbingo_healthy gauge\nwordbingo_healthy 1\n")
	assert.Contains(t, out, "wordbingo_rooms{state=\"finished\"} 0\n")
	assert.Contains(t, out, "wordbingo_rooms{state=\"playing\"} 2\n")
	assert.Contains(t, out, "wordbingo_connections 2\n")
	assert.Contains(t, out, "wordbingo_events_published_total 6\n")
	assert.Contains(t, out, "wordbingo_events_dropped_total 1\n")
	assert.Contains(t, out, "wordbingo_nats_connected 1\n")
	assert.NotContains(t, out, "wordbingo_database_connected")
}
