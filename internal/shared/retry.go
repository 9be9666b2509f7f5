package shared

import (
	"context"
	"time"
)

// Wait blocks for the given cooldown or returns the context's error if it is
// cancelled first. It is the single cancellation hook shared by every
// fixed-delay retry loop in the application; none of those loops cap their
// attempt count, so cancellation here is what bounds them.
func Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
