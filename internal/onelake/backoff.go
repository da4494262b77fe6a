package onelake

import (
	"context"
	"math/rand/v2"
	"time"
)

const maxBackoff = 10 * time.Second

// backoffDuration doubles the initial delay per attempt and adds up to 20% jitter.
func backoffDuration(initial time.Duration, attempt int) time.Duration {
	d := initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			d = maxBackoff
			break
		}
	}
	jitter := time.Duration(rand.Int64N(int64(d)/5 + 1))
	return d + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
