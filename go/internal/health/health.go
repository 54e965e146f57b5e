package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordbingo/go/internal/events"
	"github.com/mcdev12/wordbingo/go/internal/room"
	"github.com/mcdev12/wordbingo/go/internal/room/gateway"
)

// Status is a point-in-time view of the server and its dependencies.
type Status struct {
	Healthy           bool               `json:"healthy"`
	Rooms             map[string]int     `json:"rooms"`
	Connections       int                `json:"connections"`
	Relay             *events.RelayStats `json:"relay,omitempty"`
	NATSConnected     *bool              `json:"nats_connected,omitempty"`
	DatabaseConnected *bool              `json:"database_connected,omitempty"`
	Errors            []string           `json:"errors"`
}

type RoomLister interface {
	Snapshots() []room.Snapshot
}

type ConnectionCounter interface {
	Stats() gateway.ConnectionStats
}

type RelayReporter interface {
	Stats() events.RelayStats
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type ConnectionProbe interface {
	Connected() bool
}

// Checker aggregates the health of every wired component. Optional
// components are left nil when not configured.
type Checker struct {
	Rooms       RoomLister
	Connections ConnectionCounter
	Relay       RelayReporter
	NATS        ConnectionProbe
	Database    Pinger

	// MaxQueued marks the relay unhealthy when more events than this wait.
	MaxQueued int
	Timeout   time.Duration
}

func (c *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy: true,
		Rooms: map[string]int{
			room.StateLobby.String():    0,
			room.StatePlaying.String():  0,
			room.StateFinished.String(): 0,
		},
		Errors: []string{},
	}

	for _, snap := range c.Rooms.Snapshots() {
		status.Rooms[snap.State]++
	}
	if c.Connections != nil {
		status.Connections = c.Connections.Stats().TotalConnections
	}

	if c.Relay != nil {
		stats := c.Relay.Stats()
		status.Relay = &stats
		if !stats.Running {
			status.Healthy = false
			status.Errors = append(status.Errors, "event relay not running")
		}
		if c.MaxQueued > 0 && stats.Queued > c.MaxQueued {
			status.Errors = append(status.Errors, fmt.Sprintf("high queued event count: %d", stats.Queued))
		}
	}

	if c.NATS != nil {
		connected := c.NATS.Connected()
		status.NATSConnected = &connected
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if c.Database != nil {
		connected := true
		if err := c.Database.Ping(ctx); err != nil {
			connected = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		}
		status.DatabaseConnected = &connected
	}

	return status
}

// ServeHTTP writes the status as JSON, with 503 when unhealthy.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	status := c.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health status")
	}
}
