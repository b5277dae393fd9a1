package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "ip_user_route", cfg.KeyStrategy)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
}

func TestLoad(t *testing.T) {
	t.Setenv("DB_USER", "cards")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "carddash")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DASHBOARD_SESSION_TTL", "5m")
	t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")
	t.Setenv("ENGAGEMENT_CONSUMER", "off")

	cfg := Load()
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.AMQPURL)
	assert.False(t, cfg.Consumer)
	assert.Equal(t, "http://localhost:8080", cfg.ShareBaseURL)
}
