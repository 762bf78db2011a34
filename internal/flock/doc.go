// Package flock provides cross-platform advisory file locks.
//
// Exclusive and Unlock wrap the platform calls; Acquire polls for an
// exclusive lock on a lock file until a timeout, which is how the file
// plan store guards each read-modify-write of a plan document.
//
// Usage:
//
//	lock, err := flock.Acquire(ctx, path+".lock", 5*time.Second, 50*time.Millisecond)
//	if err != nil {
//	    return err // errors.ErrLockTimeout if another process holds it
//	}
//	defer func() { _ = lock.Release() }()
package flock
