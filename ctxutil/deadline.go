package ctxutil

import (
	"context"
	"time"
)

// WithDelayedCancel returns a context carrying the values of parent that is
// canceled delay after parent is done, or when the returned cancel function
// is called.
func WithDelayedCancel(parent context.Context, delay time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	stop := context.AfterFunc(parent, func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			cancel()
		case <-ctx.Done():
		}
	})
	return ctx, func() {
		stop()
		cancel()
	}
}
