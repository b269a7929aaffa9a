package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhender/BayesicFitting/internal/adapters/redis"
	"github.com/rwhender/BayesicFitting/pkg/domain"
)

func TestLocker_LockUnlock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "run1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:run1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:run1"))
}

func TestLocker_Contention(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := locker1.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = locker2.Lock(ctxTimeout, "shared", 5*time.Second)
	assert.ErrorIs(t, err, domain.ErrRunLocked)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.WithinDuration(t, start.Add(300*time.Millisecond), time.Now(), 150*time.Millisecond)

	// A stale unlock from another holder leaves the lease alone.
	require.NoError(t, unlock1(ctx))
	unlock2, err := locker2.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock1(ctx))
	assert.True(t, mr.Exists("test:lock:shared"))
	require.NoError(t, unlock2(ctx))
}

func TestLocker_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	store := redis.NewFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}))
	locker := store.Locker()
	ctx := context.Background()

	_, err := locker.Lock(ctx, "dead-holder", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("bayesic:checkpoint:lock:dead-holder"))

	mr.FastForward(2 * time.Second)
	unlock, err := locker.Lock(ctx, "dead-holder", time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}
