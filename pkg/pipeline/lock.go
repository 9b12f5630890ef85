package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DistributedLock lets multiple controller processes cooperate on the
// real-time drain's single-flight guard instead of each only guarding its
// own process (spec §2.1's additive Redis enhancement). TryAcquire returns
// false, not an error, when another holder already owns the key.
type DistributedLock interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (acquired bool, release func(), err error)
}

// RedisLock implements DistributedLock with a SETNX-based lock: the value is
// a random token so release only clears the key if this holder still owns
// it, avoiding releasing a lock some other process since re-acquired after
// this one's TTL expired.
type RedisLock struct {
	client *redis.Client
}

// NewRedisLock wraps an existing go-redis client. Construction doesn't
// dial; the first TryAcquire surfaces any connectivity error.
func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if v, err := l.client.Get(releaseCtx, key).Result(); err == nil && v == token {
			l.client.Del(releaseCtx, key)
		}
	}
	return true, release, nil
}
