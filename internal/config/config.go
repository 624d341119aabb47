package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"triviastake"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Gateway  Gateway
	Quiz     Quiz
	Reveal   Reveal
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds cache configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Gateway configures the escrow payment service.
type Gateway struct {
	BaseURL     string        `env:"PAYMENT_GATEWAY_URL,notEmpty"`
	APIKey      string        `env:"PAYMENT_GATEWAY_API_KEY"`
	HTTPTimeout time.Duration `env:"PAYMENT_GATEWAY_TIMEOUT" envDefault:"30s"`
}

// Quiz groups gameplay defaults.
type Quiz struct {
	MaxParticipants     int           `env:"MAX_PARTICIPANTS" envDefault:"5"`
	DefaultPoints       int           `env:"DEFAULT_QUESTION_POINTS" envDefault:"100"`
	QuestionCacheTTL    time.Duration `env:"QUESTION_CACHE_TTL" envDefault:"5m"`
	PasscodeMaxAttempts int           `env:"PASSCODE_MAX_ATTEMPTS" envDefault:"25"`
}

// Reveal governs leaderboard reveal pacing.
type Reveal struct {
	Interval    time.Duration `env:"REVEAL_INTERVAL" envDefault:"4s"`
	PayoutDelay time.Duration `env:"REVEAL_PAYOUT_DELAY" envDefault:"2s"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
