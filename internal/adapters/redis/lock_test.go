package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refitlabs/refit/internal/adapters/redis"
)

func newTestLocker(t *testing.T) (*redis.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewLocker(client, "refit:run:"), mr
}

func TestLocker_LockUnlock(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "run-1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	assert.True(t, mr.Exists("refit:run:lock:run-1"), "lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("refit:run:lock:run-1"), "lock key should be removed after unlock")
}

func TestLocker_Contention(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "run-1", 5*time.Second)
	require.NoError(t, err)

	// A second invocation targeting the same run blocks until its context
	// expires while the first holds the lock.
	ctxTimeout, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctxTimeout, "run-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	// After release the lock is acquirable again.
	unlock2, err := locker.Lock(ctx, "run-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_IndependentRuns(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	// Distinct runs are fully independent: both locks are held at once.
	unlockA, err := locker.Lock(ctx, "run-a", 5*time.Second)
	require.NoError(t, err)
	unlockB, err := locker.Lock(ctx, "run-b", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, unlockA(ctx))
	require.NoError(t, unlockB(ctx))
}

func TestLocker_UncontendedAcquiresImmediately(t *testing.T) {
	locker, _ := newTestLocker(t)

	// A deadline shorter than the retry interval: only an immediate first
	// attempt can succeed within it.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	unlock, err := locker.Lock(ctx, "run-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(context.Background()))
}
