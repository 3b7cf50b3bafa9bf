package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

const (
	lockKeyPrefix  = "lock:"
	lockMinBackoff = 20 * time.Millisecond
	lockMaxBackoff = 250 * time.Millisecond
)

type DistributedLock struct {
	Key        string        `json:"key"`
	Value      string        `json:"value"`
	Expiration time.Duration `json:"expiration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// unlockScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another holder is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock blocks until the key is acquired or ctx is done. The lock expires after
// expiration even if the holder never releases it.
func (r *RedisCache) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	lockKey := lockKeyPrefix + key
	lockValue := uuid.NewString()
	backoff := lockMinBackoff

	for {
		acquired, err := r.SetNX(ctx, lockKey, lockValue, expiration)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if acquired {
			return &DistributedLock{
				Key:        lockKey,
				Value:      lockValue,
				Expiration: expiration,
				CreatedAt:  time.Now(),
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > lockMaxBackoff {
			backoff = lockMaxBackoff
		}
	}
}

func (r *RedisCache) Unlock(ctx context.Context, lock *DistributedLock) error {
	if lock == nil {
		return nil
	}

	released, err := unlockScript.Run(ctx, r.client, []string{lock.Key}, lock.Value).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", lock.Key, err)
	}
	if released == 0 {
		return ErrLockNotHeld
	}
	return nil
}
