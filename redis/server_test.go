package redis_test

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/redis"
	"github.com/AliAlAbbassi/air1/redis/config"
)

func TestServerStartShutdown(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis server test: REDIS_TEST_ADDR not set")
	}

	host, portStr, ok := strings.Cut(addr, ":")
	require.True(t, ok, "REDIS_TEST_ADDR must be host:port")

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg, err := config.NewRedisConfig()
	require.NoError(t, err)

	cfg.Host = host
	cfg.Port = port
	cfg.Workers = 1

	srv, err := redis.NewServer(cfg, zap.NewNop())
	require.NoError(t, err)

	mux := asynq.NewServeMux()

	require.NoError(t, srv.Start(mux))

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, srv.Shutdown(context.Background()))
}
