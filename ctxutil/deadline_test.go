package ctxutil_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/pxv/ctxutil"
)

type ctxKey struct{}

func TestWithDelayedCancel(t *testing.T) {
	t.Parallel()

	t.Run("initially_active", func(t *testing.T) {
		t.Parallel()

		parentCtx, parentCancel := context.WithCancel(t.Context())
		defer parentCancel()

		ctx, cancel := ctxutil.WithDelayedCancel(parentCtx, time.Second)
		defer cancel()

		assert.NoError(t, ctx.Err())
	})

	t.Run("keeps_values", func(t *testing.T) {
		t.Parallel()

		parentCtx := context.WithValue(t.Context(), ctxKey{}, "v")
		ctx, cancel := ctxutil.WithDelayedCancel(parentCtx, time.Second)
		defer cancel()

		assert.Equal(t, "v", ctx.Value(ctxKey{}))
	})

	t.Run("cancels_after_delay", func(t *testing.T) {
		t.Parallel()

		parentCtx, parentCancel := context.WithCancel(t.Context())
		defer parentCancel()

		const delay = 200 * time.Millisecond
		ctx, cancel := ctxutil.WithDelayedCancel(parentCtx, delay)
		defer cancel()

		start := time.Now()
		parentCancel()
		assert.NoError(t, ctx.Err(), "expected context to remain active right after parent cancellation")

		select {
		case <-ctx.Done():
			assert.GreaterOrEqual(t, time.Since(start), delay)
		case <-time.After(delay + 2*time.Second):
			assert.Fail(t, "expected context to be canceled after the delay")
		}
	})

	t.Run("cancel_func", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := ctxutil.WithDelayedCancel(t.Context(), time.Hour)
		cancel()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})
}
