package health

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/rs/zerolog/log"
)

// Exporter renders a Status in the Prometheus text exposition format.
type Exporter struct {
	checker *Checker
}

func NewExporter(checker *Checker) *Exporter {
	return &Exporter{checker: checker}
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (e *Exporter) Export(w io.Writer, status Status) error {
	ew := &errWriter{w: w}

	ew.metric("wordbingo_healthy", "gauge", "Whether the server and its dependencies are healthy")
	ew.printf("wordbingo_healthy %d\n", boolGauge(status.Healthy))

	ew.metric("wordbingo_rooms", "gauge", "Live rooms by state")
	states := make([]string, 0, len(status.Rooms))
	for state := range status.Rooms {
		states = append(states, state)
	}
	sort.Strings(states)
	for _, state := range states {
		ew.printf("wordbingo_rooms{state=%q} %d\n", state, status.Rooms[state])
	}

	ew.metric("wordbingo_connections", "gauge", "Open player connections")
	ew.printf("wordbingo_connections %d\n", status.Connections)

	if r := status.Relay; r != nil {
		ew.metric("wordbingo_events_queued", "gauge", "Events waiting in the relay buffer")
		ew.printf("wordbingo_events_queued %d\n", r.Queued)
		ew.metric("wordbingo_events_enqueued_total", "counter", "Events accepted by the relay")
		ew.printf("wordbingo_events_enqueued_total %d\n", r.Enqueued)
		ew.metric("wordbingo_events_published_total", "counter", "Event deliveries that succeeded")
		ew.printf("wordbingo_events_published_total %d\n", r.Published)
		ew.metric("wordbingo_events_failed_total", "counter", "Event deliveries that failed after retries")
		ew.printf("wordbingo_events_failed_total %d\n", r.Failed)
		ew.metric("wordbingo_events_dropped_total", "counter", "Events dropped on a full or stopped relay")
		ew.printf("wordbingo_events_dropped_total %d\n", r.Dropped)
	}

	if status.NATSConnected != nil {
		ew.metric("wordbingo_nats_connected", "gauge", "Whether NATS is connected")
		ew.printf("wordbingo_nats_connected %d\n", boolGauge(*status.NATSConnected))
	}
	if status.DatabaseConnected != nil {
		ew.metric("wordbingo_database_connected", "gauge", "Whether the results database is reachable")
		ew.printf("wordbingo_database_connected %d\n", boolGauge(*status.DatabaseConnected))
	}

	return ew.err
}

func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := e.checker.Check(r.Context())
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if err := e.Export(w, status); err != nil {
		log.Error().Err(err).Msg("failed to write metrics")
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) metric(name, kind, help string) {
	ew.printf("# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}
