package database

import (
	"CareDesk/apperrors"
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrLockHeld is returned when a lock is still held after all retries. It is
// classified as a conflict so callers retry later.
var ErrLockHeld = apperrors.Conflict("lock is held by another request")

const (
	lockTTL        = 10 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// Locker hands out short-lived mutual exclusion keyed by string.
type Locker interface {
	// TryLock returns a token when the lock was taken, "" when it is held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

// WithLock runs fn while holding key, retrying acquisition a few times.
func WithLock(ctx context.Context, l Locker, key string, fn func() error) error {
	var token string
	for i := 0; i < lockMaxRetries; i++ {
		t, err := l.TryLock(ctx, key, lockTTL)
		if err != nil {
			return errors.Wrapf(err, "acquire lock %s", key)
		}
		if t != "" {
			token = t
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	if token == "" {
		return ErrLockHeld
	}
	defer func() {
		if err := l.Unlock(ctx, key, token); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}()
	return fn()
}

const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

var releaseScript = redis.NewScript(releaseLockScript)

// RedisLocker is a SETNX lock released by a compare-and-delete script.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return "", err
	}
	return token, nil
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	result, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
	if err != nil {
		return errors.Wrap(err, "failed to release lock")
	}
	if result == 0 {
		return errors.New("lock release failed: not the lock owner")
	}
	return nil
}

// LocalLocker serves single-process deployments without redis.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localLock
	clock func() time.Time
}

type localLock struct {
	token   string
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localLock), clock: time.Now}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
		return "", nil
	}
	token := uuid.NewString()
	l.held[key] = localLock{token: token, expires: now.Add(ttl)}
	return token, nil
}

func (l *LocalLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.held[key]
	if !ok || cur.token != token {
		return errors.New("lock release failed: not the lock owner")
	}
	delete(l.held, key)
	return nil
}
