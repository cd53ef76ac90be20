package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/club_ledger/internal/adapters/lock"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func lockers(t *testing.T) map[string]portsrepo.Locker {
	return map[string]portsrepo.Locker{
		"local": lock.NewLocalLocker(),
		"redis": lock.NewRedisLocker(setupTestRedis(t), portsrepo.LockOptions{
			Expiry:     5 * time.Second,
			Tries:      200,
			RetryDelay: 5 * time.Millisecond,
		}),
	}
}

func TestLocker_SerializesOverlappingKeys(t *testing.T) {
	for name, locker := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var (
				mu      sync.Mutex
				inside  int
				maxSeen int
				wg      sync.WaitGroup
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					keys := []string{"account:cash", "account:revenue"}
					if i%2 == 0 {
						keys = []string{"account:revenue", "account:cash"}
					}
					unlock, err := locker.Acquire(ctx, keys...)
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					inside++
					if inside > maxSeen {
						maxSeen = inside
					}
					mu.Unlock()

					time.Sleep(2 * time.Millisecond)

					mu.Lock()
					inside--
					mu.Unlock()
					assert.NoError(t, unlock(ctx))
				}(i)
			}
			wg.Wait()
			assert.Equal(t, 1, maxSeen)
		})
	}
}

func TestLocker_DisjointKeysDoNotBlock(t *testing.T) {
	for name, locker := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			unlockA, err := locker.Acquire(ctx, "account:a")
			require.NoError(t, err)
			defer func() { _ = unlockA(ctx) }()

			timeoutCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			unlockB, err := locker.Acquire(timeoutCtx, "account:b")
			require.NoError(t, err)
			assert.NoError(t, unlockB(ctx))
		})
	}
}

func TestLocalLocker_HonoursContext(t *testing.T) {
	locker := lock.NewLocalLocker()
	ctx := context.Background()
	unlock, err := locker.Acquire(ctx, "fiscal-year:2025", "account:cash")
	require.NoError(t, err)

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(timeoutCtx, "account:cash")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	again, err := locker.Acquire(ctx, "account:cash")
	require.NoError(t, err)
	assert.NoError(t, again(ctx))
}

func TestRedisLocker_FailsWhenHeldElsewhere(t *testing.T) {
	client := setupTestRedis(t)
	holder := lock.NewRedisLocker(client, portsrepo.LockOptions{Expiry: 5 * time.Second, Tries: 1})
	contender := lock.NewRedisLocker(client, portsrepo.LockOptions{Expiry: 5 * time.Second, Tries: 2, RetryDelay: time.Millisecond})
	ctx := context.Background()

	unlock, err := holder.Acquire(ctx, "fiscal-year:fy1")
	require.NoError(t, err)

	_, err = contender.Acquire(ctx, "account:x", "fiscal-year:fy1")
	assert.Error(t, err)

	require.NoError(t, unlock(ctx))

	// account:x must have been released by the failed attempt.
	unlockX, err := holder.Acquire(ctx, "account:x")
	require.NoError(t, err)
	assert.NoError(t, unlockX(ctx))
}
