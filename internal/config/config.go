package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Process configuration. Backend selection is by presence: a non-empty
// DATABASE_URL selects Postgres, otherwise the embedded SQLite file at
// DBPath is used.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBPath      string `envconfig:"DB_PATH" default:"data/app.db"`
	SeedPath    string `envconfig:"SEED_PATH" default:"data/seeds/bookings.json"`

	PolicyPath string `envconfig:"POLICY_PATH" default:"data/policy.json"`

	ORSAPIKey string `envconfig:"ORS_API_KEY"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	EventsChannel string `envconfig:"EVENTS_CHANNEL" default:"dispatch.policy"`

	MailAPIURL      string `envconfig:"MAIL_API_URL"`
	MailAPIKey      string `envconfig:"MAIL_API_KEY"`
	MailSender      string `envconfig:"MAIL_SENDER" default:"dispatch@example.com"`
	DispatchEnabled bool   `envconfig:"DISPATCH_ENABLED" default:"true"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: process environment: %w", err)
	}

	return &cfg, nil
}

// UsePostgres reports whether the Postgres backend was selected.
func (c *Config) UsePostgres() bool { return c.DatabaseURL != "" }
