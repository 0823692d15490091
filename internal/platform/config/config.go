package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"playpass/internal/pricing"
)

// Config captures everything main needs to wire the service. Parsing happens
// once at startup so the rest of the code never touches the environment.
type Config struct {
	Addr string `env:"PLAYPASS_ADDR" envDefault:":8080"`

	// RedisURL selects the Redis-backed stores; empty falls back to the
	// in-memory stores (single-process deployments, tests).
	RedisURL string `env:"PLAYPASS_REDIS_URL"`

	// PostgresDSN enables the durable lifecycle-event archive.
	PostgresDSN string `env:"PLAYPASS_POSTGRES_DSN"`

	// KafkaBrokers enables publishing lifecycle events; empty disables it.
	KafkaBrokers []string `env:"PLAYPASS_KAFKA_BROKERS"`
	KafkaTopic   string   `env:"PLAYPASS_KAFKA_TOPIC" envDefault:"playpass.lifecycle"`

	// EventBuffer bounds the in-flight lifecycle event queue.
	EventBuffer int `env:"PLAYPASS_EVENT_BUFFER" envDefault:"256"`

	Pricing pricing.Config `envPrefix:"PLAYPASS_PRICING_"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
