package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy bounds re-attempts of one external call type. Zero value
// means a single attempt, no retry.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Do runs fn up to MaxAttempts times with exponential backoff between
// attempts. Cancellation is honored both inside fn (via ctx) and while
// waiting out a backoff delay.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := p.backoff(attempt)
		logger.Warn("pipeline.retry",
			"op", op,
			"attempt", attempt,
			"max_attempts", attempts,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// backoff returns the wait after the given attempt: BaseDelay doubled per
// attempt, saturating instead of overflowing, capped at MaxDelay.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		next := delay * 2
		if next <= delay {
			// doubling wrapped (or BaseDelay is zero): stop growing
			break
		}
		delay = next
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			break
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
