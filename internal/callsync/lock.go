package callsync

import (
	"context"
	"time"

	"callsync/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Locker serializes sync runs across processes (API replicas, scheduler, CLI).
// Acquire never blocks; false means another holder owns the lock.
type Locker interface {
	Acquire(ctx context.Context, token string) (bool, error)
	Release(ctx context.Context, token string) error
}

const DefaultLockKey = "callsync:sync:lock"

// RedisLocker is a token lock with a TTL, so a crashed holder cannot wedge syncs.
type RedisLocker struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = DefaultLockKey
	}
	return &RedisLocker{rdb: rdb, key: key, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, token string) (bool, error) {
	return utils.AcquireLock(ctx, l.rdb, l.key, token, l.ttl)
}

func (l *RedisLocker) Release(ctx context.Context, token string) error {
	return utils.ReleaseLock(ctx, l.rdb, l.key, token)
}

// NopLocker always grants the lock. Single-process deployments and tests
// rely on the engine's in-process mutex alone.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string) (bool, error) { return true, nil }
func (NopLocker) Release(context.Context, string) error         { return nil }
