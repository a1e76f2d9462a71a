package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const defaultLockPrefix = "library:scheduler:"

// ErrNilRedisClient is returned when a RedisLocker is created without a client.
var ErrNilRedisClient = errors.New("redis client must not be nil")

// ReleaseFunc gives a held lock back.
type ReleaseFunc func(ctx context.Context) error

// Locker grants at most one holder per key until ttl passes or the holder releases it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, bool, error)
}

// compare-and-delete, so a holder whose lock expired cannot release the lock of the next holder
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a random token per acquisition.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker creates a RedisLocker. Keys are prefixed with "library:scheduler:".
func NewRedisLocker(client redis.UniversalClient) (*RedisLocker, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}

	return &RedisLocker{client: client, prefix: defaultLockPrefix}, nil
}

// TryLock takes the lock without waiting. acquired is false when another holder has it.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, bool, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}

	if !acquired {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
	}

	return release, true, nil
}

var _ Locker = (*RedisLocker)(nil)
