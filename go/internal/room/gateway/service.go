package gateway

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Service is the game gateway: it accepts WebSocket players and delivers room
// notifications to them.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates the gateway. The connection manager is created first so
// it can be handed to the room registry as its notifier; call Bind with the
// registry before serving.
func NewService(config Config) *Service {
	return &Service{
		connectionManager: NewConnectionManager(config.ConnectionConfig),
	}
}

// Notifier returns the connection manager rooms deliver notifications through.
func (s *Service) Notifier() *ConnectionManager {
	return s.connectionManager
}

// Bind sets the dispatcher that receives decoded player actions.
func (s *Service) Bind(dispatcher Dispatcher) {
	s.wsHandler = NewWebSocketHandler(s.connectionManager, dispatcher)
}

// Start runs until ctx is cancelled and then closes all connections.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting game gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("game gateway service stopped")
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(r chi.Router) {
	if s.wsHandler == nil {
		log.Fatal().Msg("gateway routes registered before Bind")
	}
	s.wsHandler.RegisterRoutes(r)
	log.Info().Msg("game gateway routes registered")
}

// Stats returns statistics about the gateway service
func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
