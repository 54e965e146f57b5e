package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/wordbingo/go/internal/events"
	"github.com/mcdev12/wordbingo/go/internal/room"
	"github.com/mcdev12/wordbingo/go/internal/room/gateway"
)

// Config is the process configuration. Values come from defaults, then the
// optional YAML file, then environment variables.
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		AdminTimeout    time.Duration `yaml:"admin_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Game struct {
		MaxPlayers        int           `yaml:"max_players"`
		CardSize          int           `yaml:"card_size"`
		WordDuration      time.Duration `yaml:"word_duration"`
		GameDuration      time.Duration `yaml:"game_duration"`
		GraceDelay        time.Duration `yaml:"grace_delay"`
		CleanupDelay      time.Duration `yaml:"cleanup_delay"`
		FiftyFiftyCharges int           `yaml:"fifty_fifty_charges"`
		VocabularyPath    string        `yaml:"vocabulary_path"`
	} `yaml:"game"`

	Gateway struct {
		SendBufferSize int     `yaml:"send_buffer_size"`
		RateLimit      float64 `yaml:"rate_limit"`
		RateBurst      int     `yaml:"rate_burst"`
	} `yaml:"gateway"`

	Scores struct {
		WebhookURL string        `yaml:"webhook_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"scores"`

	Events struct {
		Enabled       bool   `yaml:"enabled"`
		NatsURL       string `yaml:"nats_url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
		BufferSize    int    `yaml:"buffer_size"`
	} `yaml:"events"`

	Results struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"results"`
}

func defaultConfig() *Config {
	var cfg Config
	settings := room.DefaultSettings()
	conn := gateway.DefaultConnectionConfig()
	js := events.DefaultJetStreamConfig()

	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.AdminTimeout = 10 * time.Second
	cfg.Server.ShutdownTimeout = 15 * time.Second

	cfg.Game.MaxPlayers = settings.MaxPlayers
	cfg.Game.CardSize = settings.CardSize
	cfg.Game.WordDuration = settings.WordDuration
	cfg.Game.GameDuration = settings.GameDuration
	cfg.Game.GraceDelay = settings.GraceDelay
	cfg.Game.CleanupDelay = settings.CleanupDelay
	cfg.Game.FiftyFiftyCharges = settings.FiftyFiftyCharges

	cfg.Gateway.SendBufferSize = conn.SendBufferSize
	cfg.Gateway.RateLimit = float64(conn.RateLimit)
	cfg.Gateway.RateBurst = conn.RateBurst

	cfg.Scores.Timeout = settings.ReportTimeout

	cfg.Events.NatsURL = js.URL
	cfg.Events.StreamName = js.StreamName
	cfg.Events.SubjectPrefix = js.SubjectPrefix
	cfg.Events.BufferSize = events.DefaultConfig().BufferSize
	return &cfg
}

// loadConfig builds the configuration. path may be empty.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	c.Game.MaxPlayers = getEnvAsInt("GAME_MAX_PLAYERS", c.Game.MaxPlayers)
	c.Game.CardSize = getEnvAsInt("GAME_CARD_SIZE", c.Game.CardSize)
	c.Game.WordDuration = getEnvAsDuration("GAME_WORD_DURATION", c.Game.WordDuration)
	c.Game.GameDuration = getEnvAsDuration("GAME_DURATION", c.Game.GameDuration)
	c.Game.GraceDelay = getEnvAsDuration("GAME_GRACE_DELAY", c.Game.GraceDelay)
	c.Game.CleanupDelay = getEnvAsDuration("GAME_CLEANUP_DELAY", c.Game.CleanupDelay)
	c.Game.VocabularyPath = getEnv("VOCABULARY_PATH", c.Game.VocabularyPath)

	c.Scores.WebhookURL = getEnv("SCORE_WEBHOOK_URL", c.Scores.WebhookURL)
	c.Scores.Timeout = getEnvAsDuration("SCORE_WEBHOOK_TIMEOUT", c.Scores.Timeout)

	c.Events.Enabled = getEnvAsBool("EVENTS_ENABLED", c.Events.Enabled)
	c.Events.NatsURL = getEnv("NATS_URL", c.Events.NatsURL)

	c.Results.Enabled = getEnvAsBool("RESULTS_ENABLED", c.Results.Enabled)
}

func (c *Config) validate() error {
	switch {
	case c.Game.MaxPlayers < 1:
		return fmt.Errorf("game.max_players must be positive, got %d", c.Game.MaxPlayers)
	case c.Game.CardSize < 1:
		return fmt.Errorf("game.card_size must be positive, got %d", c.Game.CardSize)
	case c.Game.WordDuration <= 0 || c.Game.GameDuration <= 0:
		return fmt.Errorf("game durations must be positive")
	case c.Game.GraceDelay < 0 || c.Game.CleanupDelay < 0:
		return fmt.Errorf("game delays must not be negative")
	}
	return nil
}

// RoomSettings converts the game section into registry settings.
func (c *Config) RoomSettings() room.Settings {
	s := room.DefaultSettings()
	s.MaxPlayers = c.Game.MaxPlayers
	s.CardSize = c.Game.CardSize
	s.WordDuration = c.Game.WordDuration
	s.GameDuration = c.Game.GameDuration
	s.GraceDelay = c.Game.GraceDelay
	s.CleanupDelay = c.Game.CleanupDelay
	s.FiftyFiftyCharges = c.Game.FiftyFiftyCharges
	s.ReportTimeout = c.Scores.Timeout
	return s
}

func (c *Config) GatewayConfig() gateway.Config {
	gw := gateway.DefaultConfig()
	gw.ConnectionConfig.SendBufferSize = c.Gateway.SendBufferSize
	gw.ConnectionConfig.RateLimit = rate.Limit(c.Gateway.RateLimit)
	gw.ConnectionConfig.RateBurst = c.Gateway.RateBurst
	return gw
}

func (c *Config) JetStreamConfig() events.JetStreamConfig {
	js := events.DefaultJetStreamConfig()
	js.URL = c.Events.NatsURL
	js.StreamName = c.Events.StreamName
	js.SubjectPrefix = c.Events.SubjectPrefix
	return js
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
