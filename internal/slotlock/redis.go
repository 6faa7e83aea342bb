package slotlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gymslot/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the key only while it still holds our token.
const unlockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// Redis is a lease based lock shared by every node using the same Redis.
// The lease expires after ttl so a crashed holder cannot block a slot.
type Redis struct {
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
	token func() string
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		rdb:   rdb,
		ttl:   ttl,
		retry: 25 * time.Millisecond,
		token: uuid.NewString,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := "lock:" + key
	token := r.token()

	for {
		ok, err := r.rdb.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
		case <-time.After(r.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			if err := r.rdb.Eval(releaseCtx, unlockScript, []string{lockKey}, token).Err(); err != nil {
				logger.Warn("failed to release slot lock", "key", key, "error", err)
			}
		})
	}, nil
}
