package lock

import (
	"context"
	"errors"
	"fmt"

	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "club-ledger:lock:"

// RedisLocker serializes keys across processes with redsync mutexes.
type RedisLocker struct {
	rs   *redsync.Redsync
	opts portsrepo.LockOptions
}

// NewRedisLocker creates a locker backed by the given Redis client.
func NewRedisLocker(client redis.UniversalClient, opts portsrepo.LockOptions) *RedisLocker {
	defaults := portsrepo.DefaultLockOptions()
	if opts.Expiry <= 0 {
		opts.Expiry = defaults.Expiry
	}
	if opts.Tries <= 0 {
		opts.Tries = defaults.Tries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaults.RetryDelay
	}
	return &RedisLocker{
		rs:   redsync.New(goredis.NewPool(client)),
		opts: opts,
	}
}

var _ portsrepo.Locker = (*RedisLocker)(nil)

// Acquire takes a redsync mutex per key in sorted order. On failure every
// mutex already taken is released before returning.
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (portsrepo.Unlock, error) {
	ordered := normalizeKeys(keys)
	held := make([]*redsync.Mutex, 0, len(ordered))

	for _, key := range ordered {
		m := l.rs.NewMutex(redisKeyPrefix+key,
			redsync.WithExpiry(l.opts.Expiry),
			redsync.WithTries(l.opts.Tries),
			redsync.WithRetryDelay(l.opts.RetryDelay),
		)
		if err := m.LockContext(ctx); err != nil {
			_ = unlockAll(ctx, held)
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		held = append(held, m)
	}

	return func(ctx context.Context) error {
		return unlockAll(ctx, held)
	}, nil
}

func unlockAll(ctx context.Context, held []*redsync.Mutex) error {
	var errs []error
	for i := len(held) - 1; i >= 0; i-- {
		if ok, err := held[i].UnlockContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to release lock %s: %w", held[i].Name(), err))
		} else if !ok {
			errs = append(errs, fmt.Errorf("lock %s expired before release", held[i].Name()))
		}
	}
	return errors.Join(errs...)
}
