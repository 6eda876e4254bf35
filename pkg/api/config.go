package api

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/yourusername/bgturn/pkg/engine"
)

// ServerConfig holds the server configuration. Every field can be set from
// the environment.
type ServerConfig struct {
	Host         string        `env:"BGTURN_HOST"          envDefault:"localhost"`
	Port         int           `env:"BGTURN_PORT"          envDefault:"8080"`
	ReadTimeout  time.Duration `env:"BGTURN_READ_TIMEOUT"  envDefault:"30s"`
	WriteTimeout time.Duration `env:"BGTURN_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"BGTURN_IDLE_TIMEOUT"  envDefault:"60s"`

	MaxSessions int           `env:"BGTURN_MAX_SESSIONS" envDefault:"100"` // Concurrent sessions
	MaxRequests int           `env:"BGTURN_MAX_REQUESTS" envDefault:"64"`  // Concurrent session requests
	SessionTTL  time.Duration `env:"BGTURN_SESSION_TTL"  envDefault:"30m"` // Idle time before a session is reaped

	StartupDelay       time.Duration `env:"BGTURN_STARTUP_DELAY"          envDefault:"0s"`
	AnimateDice        bool          `env:"BGTURN_ANIMATE_DICE"           envDefault:"false"`
	AutoRoll           bool          `env:"BGTURN_AUTO_ROLL"              envDefault:"true"`
	EndTurnWhenBlocked bool          `env:"BGTURN_END_TURN_WHEN_BLOCKED"  envDefault:"false"`

	TCPAddr string `env:"BGTURN_TCP_ADDR"` // Text protocol listener, empty to disable
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxSessions:  100,
		MaxRequests:  64,
		SessionTTL:   30 * time.Minute,
		AutoRoll:     true,
	}
}

// LoadConfig reads the configuration from BGTURN_* environment variables.
func LoadConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// engineConfig returns the engine configuration for a new session.
func (c ServerConfig) engineConfig(req CreateSessionRequest) engine.Config {
	cfg := engine.DefaultConfig()
	cfg.StartupDelay = c.StartupDelay
	cfg.AutoRoll = c.AutoRoll
	cfg.EndTurnWhenBlocked = c.EndTurnWhenBlocked
	if c.AnimateDice {
		cfg.Roll = engine.AnimatedDice()
	}

	if req.AutoRoll != nil {
		cfg.AutoRoll = *req.AutoRoll
	}
	if req.EndTurnWhenBlocked != nil {
		cfg.EndTurnWhenBlocked = *req.EndTurnWhenBlocked
	}
	return cfg
}
