package repositories

import (
	"context"
	"time"
)

// Locker serializes work on named keys across ledger instances.
type Locker interface {
	// Acquire takes every key, in sorted order, and returns a function that releases them.
	Acquire(ctx context.Context, keys ...string) (Unlock, error)
}

// Unlock releases keys taken by Locker.Acquire.
type Unlock func(ctx context.Context) error

// LockOptions tunes lock acquisition.
type LockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultLockOptions returns the options used when none are configured.
func DefaultLockOptions() LockOptions {
	return LockOptions{Expiry: 30 * time.Second, Tries: 64, RetryDelay: 50 * time.Millisecond}
}
