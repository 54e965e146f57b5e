package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordbingo/go/internal/admin"
	"github.com/mcdev12/wordbingo/go/internal/events"
	"github.com/mcdev12/wordbingo/go/internal/health"
	"github.com/mcdev12/wordbingo/go/internal/results"
	"github.com/mcdev12/wordbingo/go/internal/room"
	"github.com/mcdev12/wordbingo/go/internal/room/gateway"
	"github.com/mcdev12/wordbingo/go/internal/scorereport"
	"github.com/mcdev12/wordbingo/go/internal/vocabulary"
)

type Services struct {
	Vocabulary *vocabulary.Table
	Gateway    *gateway.Service
	Registry   *room.Registry
	Admin      *admin.Service
	Relay      *events.Relay // nil when no event publisher is configured
	Health     *health.Checker

	publisher *events.JetStreamPublisher
	store     *results.PostgresStore
}

func loadVocabulary(path string) (*vocabulary.Table, error) {
	if path == "" {
		return vocabulary.Default()
	}
	return vocabulary.Load(path)
}

func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	// Wire up dependency chain
	// Vocabulary → Gateway (notifier) → Registry → Gateway (dispatcher) → Admin
	vocab, err := loadVocabulary(cfg.Game.VocabularyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}
	log.Info().Int("entries", vocab.Len()).Msg("vocabulary loaded")

	s := &Services{Vocabulary: vocab}

	var publishers []events.Publisher
	if cfg.Events.Enabled {
		s.publisher, err = events.NewJetStreamPublisher(ctx, cfg.JetStreamConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to set up event stream: %w", err)
		}
		publishers = append(publishers, s.publisher)
	}
	if cfg.Results.Enabled {
		s.store, err = setupResultsStore(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
		publishers = append(publishers, results.NewRecorder(s.store))
	}

	s.Gateway = gateway.NewService(cfg.GatewayConfig())

	opts := []room.Option{room.WithSettings(cfg.RoomSettings())}
	if cfg.Scores.WebhookURL != "" {
		opts = append(opts, room.WithReporter(scorereport.NewClient(cfg.Scores.WebhookURL, cfg.Scores.Timeout)))
	}
	if len(publishers) > 0 {
		relayConfig := events.DefaultConfig()
		relayConfig.BufferSize = cfg.Events.BufferSize
		s.Relay = events.NewRelay(relayConfig, publishers...)
		opts = append(opts, room.WithEventSink(s.Relay))
	}

	s.Registry = room.NewRegistry(vocab, s.Gateway.Notifier(), opts...)
	s.Gateway.Bind(s.Registry)
	s.Admin = admin.NewService(s.Registry)
	s.Health = s.healthChecker(cfg)

	return s, nil
}

func (s *Services) healthChecker(cfg *Config) *health.Checker {
	checker := &health.Checker{
		Rooms:       s.Registry,
		Connections: s.Gateway,
		MaxQueued:   cfg.Events.BufferSize / 2,
		Timeout:     cfg.Server.AdminTimeout,
	}
	if s.Relay != nil {
		checker.Relay = s.Relay
	}
	if s.publisher != nil {
		checker.NATS = s.publisher
	}
	if s.store != nil {
		checker.Database = s.store
	}
	return checker
}

// Start launches the background workers. They stop when ctx is cancelled or
// Close is called.
func (s *Services) Start(ctx context.Context) error {
	go s.Gateway.Start(ctx)
	if s.Relay != nil {
		// The relay gets its own context so Close can drain it after ctx ends.
		if err := s.Relay.Start(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("failed to start event relay: %w", err)
		}
	}
	return nil
}

// Close ends every live room, then flushes and closes the event sinks.
func (s *Services) Close() {
	if s.Registry != nil {
		s.Registry.Close()
	}
	if s.Relay != nil {
		if err := s.Relay.Stop(); err != nil {
			log.Warn().Err(err).Msg("failed to stop event relay")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close event publisher")
		}
	}
	if s.store != nil {
		s.store.Close()
	}
}
