// Package ctxutil provides context helpers: cancellation checks at operation
// entry points and the acting principal carried through service calls.
package ctxutil

import "context"

// Canceled returns the context error if ctx is done, nil otherwise.
// Store and service methods call it before touching disk or taking locks.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
