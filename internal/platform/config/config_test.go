package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playpass/internal/pricing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "playpass.lifecycle", cfg.KafkaTopic)
	assert.Equal(t, 256, cfg.EventBuffer)
	assert.Equal(t, pricing.PolicyGraceTier, cfg.Pricing.Policy)
	assert.Equal(t, int64(30000), cfg.Pricing.HalfHourRate)
	assert.Equal(t, int64(50000), cfg.Pricing.HourRate)
	assert.Equal(t, 10, cfg.Pricing.GraceMinutes)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PLAYPASS_ADDR", ":9090")
	t.Setenv("PLAYPASS_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PLAYPASS_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("PLAYPASS_PRICING_POLICY", "prorated")
	t.Setenv("PLAYPASS_PRICING_HOUR_RATE", "60000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, pricing.PolicyProrated, cfg.Pricing.Policy)
	assert.Equal(t, int64(60000), cfg.Pricing.HourRate)
}
