package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 7*24*time.Hour, cfg.InviteExpiration)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_EXPIRATION", "2h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ADMIN_EMAIL", "  Boss@Example.COM ")
	t.Setenv("SITE_URL", "https://b0ase.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "boss@example.com", cfg.AdminEmail)
	assert.Equal(t, "https://b0ase.com", cfg.SiteURL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			JWTSecret:          "s",
			JWTExpiration:      time.Hour,
			InviteExpiration:   time.Hour,
			ServerPort:         "8080",
			LoginRateLimit:     1,
			LoginRateBurst:     1,
			StaleInvitationAge: 24 * time.Hour,
			Redis:              RedisConfig{GigTTL: time.Minute},
		}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.JWTSecret = ""
	assert.Error(t, c.Validate())

	c = base()
	c.ServerPort = "http"
	assert.Error(t, c.Validate())

	c = base()
	c.ServerPort = "70000"
	assert.Error(t, c.Validate())

	c = base()
	c.JWTExpiration = 0
	assert.Error(t, c.Validate())

	c = base()
	c.LoginRateBurst = 0
	assert.Error(t, c.Validate())

	c = base()
	c.StaleInvitationAge = 0
	assert.EqualError(t, c.Validate(), "STALE_INVITATION_AGE must be positive")

	c = base()
	c.Redis.GigTTL = -time.Second
	assert.EqualError(t, c.Validate(), "GIG_CACHE_TTL must be positive")
}
