// Package lock serializes read-modify-write cycles on a single plan.
//
// Two implementations are provided: LocalLocker for a single process and
// RedisLocker for several adopt processes sharing one store. Both hand back
// an unlock function that must be called exactly once; calling it again is
// a no-op.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// UnlockFunc releases a held lock.
type UnlockFunc func()

// Locker acquires exclusive, keyed locks.
type Locker interface {
	// Lock blocks until key is held, ctx is done, or the locker's timeout
	// elapses, in which case it returns errors.ErrLockTimeout.
	Lock(ctx context.Context, key string) (UnlockFunc, error)

	// Close releases resources held by the locker.
	Close() error
}

// PlanKey is the lock key for an adoption plan.
func PlanKey(planID string) string {
	return "plan:" + planID
}

// SolutionKey is the lock key for a solution adoption plan.
func SolutionKey(solutionPlanID string) string {
	return "solution:" + solutionPlanID
}

// AssignmentKey guards the one-plan-per-assignment check while a plan is
// created.
func AssignmentKey(assignmentID string) string {
	return "assignment:" + assignmentID
}

// withTimeout bounds ctx by timeout when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// timeoutError converts a wait that ended on the locker's own deadline into
// ErrLockTimeout. Cancellation of the caller's context is returned as is.
func timeoutError(parent, waitCtx context.Context, key string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("failed to lock '%s': %w", key, adopterrors.ErrLockTimeout)
	}
	return waitCtx.Err()
}
