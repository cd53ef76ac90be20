// Package lock provides portsrepo.Locker implementations: an in-process
// keyed mutex for single-instance deployments and a Redis-backed one for
// several ledger instances sharing a database.
package lock

import (
	"context"
	"sort"
	"sync"

	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
)

type keyLock struct {
	sem  chan struct{}
	refs int
}

// LocalLocker serializes keys within one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

var _ portsrepo.Locker = (*LocalLocker)(nil)

// Acquire takes the keys in sorted order, waiting until each is free or ctx ends.
func (l *LocalLocker) Acquire(ctx context.Context, keys ...string) (portsrepo.Unlock, error) {
	ordered := normalizeKeys(keys)
	held := make([]*keyLock, 0, len(ordered))

	for _, key := range ordered {
		kl := l.ref(key)
		select {
		case kl.sem <- struct{}{}:
			held = append(held, kl)
		case <-ctx.Done():
			l.unref(key, kl)
			l.release(ordered[:len(held)], held)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { l.release(ordered, held) })
		return nil
	}, nil
}

func (l *LocalLocker) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *LocalLocker) unref(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *LocalLocker) release(keys []string, held []*keyLock) {
	for i := len(held) - 1; i >= 0; i-- {
		<-held[i].sem
		l.unref(keys[i], held[i])
	}
}

// normalizeKeys sorts and de-duplicates keys so every caller locks in the same order.
func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
