package flock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

const (
	lockDirPerm  = 0o750
	lockFilePerm = 0o600
)

// Lock is a held exclusive file lock.
type Lock struct {
	f *os.File
}

// Acquire opens (creating if needed) the lock file at path and polls for an
// exclusive lock every retry until timeout elapses or ctx is done.
// It returns errors.ErrLockTimeout when the lock stays held by someone else.
func Acquire(ctx context.Context, path string, timeout, retry time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), lockDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFilePerm) //#nosec G302,G304 -- lock file path is built from validated ids
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		default:
		}

		if err := Exclusive(f.Fd()); err == nil {
			return &Lock{f: f}, nil
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to acquire lock on %s: %w", filepath.Base(path), adopterrors.ErrLockTimeout)
		}

		time.Sleep(retry)
	}
}

// Release unlocks and closes the lock file. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil

	if err := Unlock(f.Fd()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return f.Close()
}
