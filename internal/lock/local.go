package lock

import (
	"context"
	"sync"
	"time"

	"github.com/mrz1836/adopt/internal/constants"
)

// LocalLocker is an in-process keyed mutex. Entries are reference counted
// and dropped once nobody holds or waits for them.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	timeout time.Duration
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker. A non-positive timeout uses the default.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	if timeout <= 0 {
		timeout = constants.DefaultLockTimeout
	}
	return &LocalLocker{
		entries: make(map[string]*localEntry),
		timeout: timeout,
	}
}

// Lock acquires key.
func (l *LocalLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	entry := l.acquireEntry(key)

	waitCtx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	select {
	case entry.sem <- struct{}{}:
	case <-waitCtx.Done():
		l.releaseEntry(key, entry)
		return nil, timeoutError(ctx, waitCtx, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.releaseEntry(key, entry)
		})
	}, nil
}

// Close implements Locker.
func (l *LocalLocker) Close() error {
	return nil
}

// held reports how many keys currently have holders or waiters.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *LocalLocker) acquireEntry(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (l *LocalLocker) releaseEntry(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}

// Ensure LocalLocker implements Locker.
var _ Locker = (*LocalLocker)(nil)
