package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrRelayRunning is returned by Start on a relay that is already started.
var ErrRelayRunning = errors.New("event relay already running")

// Publisher delivers one event to a downstream system.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, event Event) error { return f(ctx, event) }

type Config struct {
	BufferSize     int
	MaxRetries     int
	RetryDelay     time.Duration
	PublishTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BufferSize:     256,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		PublishTimeout: 5 * time.Second,
	}
}

// Relay moves events off the room lock. Enqueue never blocks; a background
// worker hands every event to each publisher in order, retrying failures.
type Relay struct {
	publishers []Publisher
	config     Config
	queue      chan Event

	enqueued  atomic.Uint64
	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRelay(cfg Config, publishers ...Publisher) *Relay {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &Relay{
		publishers: publishers,
		config:     cfg,
		queue:      make(chan Event, cfg.BufferSize),
	}
}

// Enqueue schedules an event for delivery. When the buffer is full or the relay
// has been stopped the event is dropped with a warning.
func (r *Relay) Enqueue(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		r.dropped.Add(1)
		log.Warn().Str("event_type", string(event.Type)).Msg("event relay stopped, dropping event")
		return
	}

	select {
	case r.queue <- event:
		r.enqueued.Add(1)
	default:
		r.dropped.Add(1)
		log.Warn().
			Str("event_id", event.ID.String()).
			Str("event_type", string(event.Type)).
			Str("room_code", event.RoomCode).
			Msg("event relay buffer full, dropping event")
	}
}

func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrRelayRunning
	}
	r.running = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx)

	log.Info().
		Int("publishers", len(r.publishers)).
		Int("buffer_size", cap(r.queue)).
		Msg("event relay started")
	return nil
}

// Stop stops accepting events, delivers what is already queued and waits for
// the worker to exit.
func (r *Relay) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("event relay not running")
	}
	r.running = false
	r.stopped = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	r.cancel()

	log.Info().Msg("event relay stopped")
	return nil
}

func (r *Relay) run(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.queue:
			if !ok {
				return
			}
			r.deliver(ctx, event)
		}
	}
}

func (r *Relay) deliver(ctx context.Context, event Event) {
	for _, p := range r.publishers {
		if err := r.publishWithRetry(ctx, p, event); err != nil {
			r.failed.Add(1)
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", string(event.Type)).
				Str("room_code", event.RoomCode).
				Msg("failed to publish event")
			continue
		}
		r.published.Add(1)
	}
}

func (r *Relay) publishWithRetry(ctx context.Context, p Publisher, event Event) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.RetryDelay * time.Duration(attempt)):
			}
		}

		err := r.publishOnce(ctx, p, event)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn().
			Err(err).
			Str("event_id", event.ID.String()).
			Int("attempt", attempt+1).
			Msg("failed to publish event, retrying")
	}

	return fmt.Errorf("failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

func (r *Relay) publishOnce(ctx context.Context, p Publisher, event Event) error {
	if r.config.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.PublishTimeout)
		defer cancel()
	}
	return p.Publish(ctx, event)
}

// RelayStats counts events since the relay was created. Published and Failed
// count deliveries, one per publisher.
type RelayStats struct {
	Running   bool   `json:"running"`
	Queued    int    `json:"queued"`
	Enqueued  uint64 `json:"enqueued"`
	Published uint64 `json:"published"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

func (r *Relay) Stats() RelayStats {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()

	return RelayStats{
		Running:   running,
		Queued:    len(r.queue),
		Enqueued:  r.enqueued.Load(),
		Published: r.published.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
	}
}
