package budget

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AliAlAbbassi/air1/models"
)

func redisTracker(t *testing.T, caps map[models.ActionType]int) (*Redis, string) {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis budget test: REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())

	// Unique account per test run keeps counters isolated.
	return NewRedis(client, caps), "acct-" + uuid.New().String()
}

func TestRedisReserveRelease(t *testing.T) {
	ctx := context.Background()
	tracker, accountID := redisTracker(t, map[models.ActionType]int{models.ActionConnections: 2})

	ok, err := tracker.Reserve(ctx, accountID, models.ActionConnections)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tracker.Reserve(ctx, accountID, models.ActionConnections)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tracker.Reserve(ctx, accountID, models.ActionConnections)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tracker.Release(ctx, accountID, models.ActionConnections))

	used, err := tracker.Used(ctx, accountID, models.ActionConnections)
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestRedisConcurrentReservations(t *testing.T) {
	const (
		workers = 30
		limit   = 5
	)

	ctx := context.Background()
	tracker, accountID := redisTracker(t, map[models.ActionType]int{models.ActionConnections: limit})

	var (
		wg      sync.WaitGroup
		granted atomic.Int64
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ok, err := tracker.Reserve(ctx, accountID, models.ActionConnections)
			assert.NoError(t, err)

			if ok {
				granted.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(limit), granted.Load())
}
