package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL   = 10 * time.Second
	retryBackoff = 25 * time.Millisecond
	keyPrefix    = "lock:"
)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a lease lock shared by every instance using the same Redis.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLocker constructs the locker. ttl bounds how long a crashed holder blocks others.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// Acquire polls SET NX until the key is taken or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Unlock, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(retryBackoff)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrNotAcquired, ctx.Err())
			}
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	return func(ctx context.Context) error {
		// The caller's ctx may already be cancelled; release on a short fresh deadline.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		return releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
	}, nil
}
