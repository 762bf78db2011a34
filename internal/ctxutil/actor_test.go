package ctxutil_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/ctxutil"
)

func TestActorFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns actor when set", func(t *testing.T) {
		t.Parallel()
		ctx := ctxutil.WithActor(context.Background(), "alice@example.com")
		assert.Equal(t, "alice@example.com", ctxutil.ActorFromContext(ctx))
	})

	t.Run("falls back to system", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, constants.SystemActor, ctxutil.ActorFromContext(context.Background()))
	})

	t.Run("empty actor falls back to system", func(t *testing.T) {
		t.Parallel()
		ctx := ctxutil.WithActor(context.Background(), "")
		assert.Equal(t, constants.SystemActor, ctxutil.ActorFromContext(ctx))
	})
}
