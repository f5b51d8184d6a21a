package util

import (
	"context"
	"log/slog"
	"time"
)

// Backoff describes an exponential retry schedule.
type Backoff struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration // zero means uncapped
}

// Retry calls fn until it succeeds or b.Attempts calls have failed, doubling
// the delay between calls from BaseDelay up to MaxDelay. It returns nil on
// the first success, the last error once attempts are exhausted, or
// ctx.Err() if the context ends while waiting. Failed attempts are logged at
// warn level with the given operation name.
func Retry(ctx context.Context, log *slog.Logger, op string, b Backoff, fn func(context.Context) error) error {
	if b.Attempts < 1 {
		b.Attempts = 1
	}
	delay := b.BaseDelay

	var err error
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == b.Attempts {
			break
		}

		log.Warn("retrying", "op", op, "attempt", attempt, "max_attempts", b.Attempts, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return err
}
