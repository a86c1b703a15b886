package accountlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLocker(client, 2*time.Second), mr
}

func TestRedisLocker(t *testing.T) {
	t.Run("acquire and release", func(t *testing.T) {
		locker, mr := newTestLocker(t)

		release, err := locker.Acquire(context.Background(), "obj-1")
		require.NoError(t, err)
		assert.True(t, mr.Exists(keyPrefix+"obj-1"))

		release()
		assert.False(t, mr.Exists(keyPrefix+"obj-1"))
	})

	t.Run("second acquire blocks until release", func(t *testing.T) {
		locker, _ := newTestLocker(t)

		release, err := locker.Acquire(context.Background(), "obj-2")
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			release2, err := locker.Acquire(context.Background(), "obj-2")
			assert.NoError(t, err)
			release2()
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("lock acquired while still held")
		case <-time.After(100 * time.Millisecond):
		}

		release()

		select {
		case <-acquired:
		case <-time.After(2 * time.Second):
			t.Fatal("lock not acquired after release")
		}
	})

	t.Run("context cancellation aborts acquire", func(t *testing.T) {
		locker, _ := newTestLocker(t)

		release, err := locker.Acquire(context.Background(), "obj-3")
		require.NoError(t, err)
		defer release()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err = locker.Acquire(ctx, "obj-3")
		assert.Error(t, err)
	})

	t.Run("release is token checked", func(t *testing.T) {
		locker, mr := newTestLocker(t)

		release, err := locker.Acquire(context.Background(), "obj-4")
		require.NoError(t, err)

		// Simulate TTL expiry and re-acquisition by another holder.
		mr.FastForward(3 * time.Second)
		release2, err := locker.Acquire(context.Background(), "obj-4")
		require.NoError(t, err)
		defer release2()

		// Stale release must not free the new holder's lock.
		release()
		assert.True(t, mr.Exists(keyPrefix+"obj-4"))
	})
}

func TestNoopLocker(t *testing.T) {
	release, err := Noop{}.Acquire(context.Background(), "anything")
	require.NoError(t, err)
	release()
}
