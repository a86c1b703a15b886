// Package accountlock serializes per-account read-modify-write sequences.
//
// The attempt counter lives in the external directory and is updated
// read-modify-write per request, so two concurrent login attempts for the
// same account can both observe count=N and both write N+1, under-counting
// lockout triggers. The upstream system accepts that race; this package makes
// serialization available as an opt-in: a Redis mutex keyed by objectId, with
// a no-op locker as the default.
package accountlock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "idguard/pkg/domain-errors"
)

// Locker acquires a short-lived exclusive lock for a key. The returned
// release function is safe to call exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Noop is the default locker; it never blocks. Using it preserves the source
// system's race-accepting behavior.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

const keyPrefix = "idguard:lock:"

// releaseScript deletes the lock only if it still holds our token, so an
// expired-and-reacquired lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedisLocker creates a Redis-backed locker. The TTL bounds how long a
// crashed holder can stall other requests for the same account.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: 25 * time.Millisecond,
	}
}

// Acquire blocks until the lock is held or the context is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "account lock backend unavailable")
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for account lock")
		case <-time.After(l.retryInterval):
		}
	}

	release := func() {
		// Release runs on a fresh context; the request context may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
	}
	return release, nil
}

// Ping reports whether the lock backend is reachable, for readiness checks.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
