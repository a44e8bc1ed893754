package util

import (
	"context"
	"time"
)

// SleepContext waits for d or until ctx is done, whichever comes first
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
