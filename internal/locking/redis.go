package locking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stwalsh4118/deedchain/internal/logger"
)

const (
	defaultLockTTL      = time.Minute
	defaultPollInterval = 50 * time.Millisecond
	keyPrefix           = "deedchain:lock:"
)

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisStore defines the operations used by RedisLocker.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	// CompareAndDelete removes key if its value equals owner, in one round trip.
	CompareAndDelete(ctx context.Context, key, owner string) (bool, error)
}

// RedisLocker implements Locker using Redis SETNX with an owner token and TTL,
// so that several API replicas share one writer per property.
type RedisLocker struct {
	store redisStore
	ttl   time.Duration
	poll  time.Duration
	log   *logger.Logger
}

// NewRedisLocker constructs a Redis-backed locker.
func NewRedisLocker(client redis.Cmdable, ttl time.Duration, log *logger.Logger) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for locker")
	}
	return newRedisLocker(cmdableStore{client: client}, ttl, log), nil
}

func newRedisLocker(store redisStore, ttl time.Duration, log *logger.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{store: store, ttl: ttl, poll: defaultPollInterval, log: log}
}

// Lock polls SETNX until it owns key or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	owner := uuid.NewString()

	for {
		ok, err := l.store.SetNX(ctx, redisKey, owner, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("setnx: %w", err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must not be skipped because the request context ended.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.release(releaseCtx, redisKey, owner); err != nil {
				l.log.Warn("failed to release property lock", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		})
	}, nil
}

// release frees the lock only if the owner value still matches. A lock that
// expired and was taken by another replica is left alone.
func (l *RedisLocker) release(ctx context.Context, key, owner string) error {
	deleted, err := l.store.CompareAndDelete(ctx, key, owner)
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if !deleted {
		l.log.Debug("property lock already expired or reassigned", map[string]interface{}{"key": key})
	}
	return nil
}

// cmdableStore adapts a go-redis client to redisStore.
type cmdableStore struct {
	client redis.Cmdable
}

func (s cmdableStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s cmdableStore) CompareAndDelete(ctx context.Context, key, owner string) (bool, error) {
	n, err := releaseScript.Run(ctx, s.client, []string{key}, owner).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
