package ctxutil

import (
	"context"

	"github.com/mrz1836/adopt/internal/constants"
)

// ActorKey is the context key for the acting principal.
type ActorKey struct{}

// WithActor returns a context carrying the acting principal's identity.
// The identity is recorded as statusUpdatedBy on manual changes.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey{}, actor)
}

// ActorFromContext returns the acting principal, or constants.SystemActor
// when none was set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ActorKey{}).(string); ok && v != "" {
		return v
	}
	return constants.SystemActor
}
