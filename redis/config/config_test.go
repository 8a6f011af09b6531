package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AliAlAbbassi/air1/redis/config"
)

func TestNewRedisConfigDefaults(t *testing.T) {
	cfg, err := config.NewRedisConfig()
	require.NoError(t, err)

	require.Equal(t, "localhost", cfg.Host)
	require.Equal(t, 6379, cfg.Port)
	require.Equal(t, 0, cfg.DB)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 3, cfg.MaxRetries)
	require.Equal(t, 7*24*time.Hour, cfg.RetentionPeriod)
	require.Equal(t, config.DefaultQueuePriorities, cfg.QueuePriorities)
}

func TestNewRedisConfigFromEnv(t *testing.T) {
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_WORKERS", "8")
	t.Setenv("REDIS_RETRY_INTERVAL", "10s")
	t.Setenv("REDIS_MAX_RETRIES", "5")

	cfg, err := config.NewRedisConfig()
	require.NoError(t, err)

	require.Equal(t, "redis.internal", cfg.Host)
	require.Equal(t, 6380, cfg.Port)
	require.Equal(t, 2, cfg.DB)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, 10*time.Second, cfg.RetryInterval)
	require.Equal(t, 5, cfg.MaxRetries)
}

func TestNewRedisConfigFromURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://:secret@redis.internal:6380/3")

	cfg, err := config.NewRedisConfig()
	require.NoError(t, err)

	require.Equal(t, "redis.internal", cfg.Host)
	require.Equal(t, 6380, cfg.Port)
	require.Equal(t, "secret", cfg.Password)
	require.Equal(t, 3, cfg.DB)
	require.Equal(t, "redis.internal:6380", cfg.GetRedisAddr())
}

func TestNewRedisConfigURLWithoutPort(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://redis.internal")

	cfg, err := config.NewRedisConfig()
	require.NoError(t, err)
	require.Equal(t, 6379, cfg.Port)
}

func TestNewRedisConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port not a number", key: "REDIS_PORT", value: "default"},
		{name: "port out of range", key: "REDIS_PORT", value: "70000"},
		{name: "db out of range", key: "REDIS_DB", value: "16"},
		{name: "workers zero", key: "REDIS_WORKERS", value: "0"},
		{name: "retry interval too small", key: "REDIS_RETRY_INTERVAL", value: "100ms"},
		{name: "retries out of range", key: "REDIS_MAX_RETRIES", value: "11"},
		{name: "retention out of range", key: "REDIS_RETENTION_DAYS", value: "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := config.NewRedisConfig()
			require.Error(t, err)
		})
	}
}

func TestGetRedisAddrIPv6(t *testing.T) {
	cfg := &config.RedisConfig{Host: "::1", Port: 6379}
	require.Equal(t, "[::1]:6379", cfg.GetRedisAddr())
}
