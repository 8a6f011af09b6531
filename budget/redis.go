package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AliAlAbbassi/air1/models"
)

// counterTTL keeps stale daily counters around long enough to survive clock
// skew between workers before Redis reclaims them.
const counterTTL = 48 * time.Hour

var _ Tracker = (*Redis)(nil)

// reserveScript increments the daily counter and rolls back when the cap is
// exceeded, so two workers racing on the last unit cannot both win.
var reserveScript = redis.NewScript(`
local used = redis.call('INCR', KEYS[1])
local cap = tonumber(ARGV[1])
if used > cap then
	redis.call('DECR', KEYS[1])
	return 0
end
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`)

// releaseScript decrements without going below zero.
var releaseScript = redis.NewScript(`
local used = tonumber(redis.call('GET', KEYS[1]) or '0')
if used > 0 then
	redis.call('DECR', KEYS[1])
end
return used
`)

// Redis is the shared tracker for multi-process deployments: several workers
// acting for the same account see one counter per (account, action, date).
type Redis struct {
	client *redis.Client
	caps   map[models.ActionType]int
	now    func() time.Time
}

func NewRedis(client *redis.Client, caps map[models.ActionType]int) *Redis {
	copied := make(map[models.ActionType]int, len(caps))
	for k, v := range caps {
		copied[k] = v
	}

	return &Redis{
		client: client,
		caps:   copied,
		now:    time.Now,
	}
}

func (r *Redis) key(accountID string, action models.ActionType) string {
	return fmt.Sprintf("outreach:budget:%s:%s:%s", accountID, action, r.now().UTC().Format("2006-01-02"))
}

func (r *Redis) Reserve(ctx context.Context, accountID string, action models.ActionType) (bool, error) {
	limit := r.caps[action]
	if limit <= 0 {
		return false, nil
	}

	res, err := reserveScript.Run(ctx, r.client,
		[]string{r.key(accountID, action)},
		limit, int(counterTTL.Seconds()),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to reserve budget: %w", err)
	}

	return res == 1, nil
}

func (r *Redis) Release(ctx context.Context, accountID string, action models.ActionType) error {
	err := releaseScript.Run(ctx, r.client, []string{r.key(accountID, action)}).Err()
	if err != nil {
		return fmt.Errorf("failed to release budget: %w", err)
	}

	return nil
}

func (r *Redis) Used(ctx context.Context, accountID string, action models.ActionType) (int, error) {
	used, err := r.client.Get(ctx, r.key(accountID, action)).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to read budget counter: %w", err)
	}

	return used, nil
}
