package service

import (
	"context"
	"errors"
	"feedbackbot/internal/logger"
	"time"
)

// ErrRateLimited marks an upstream failure that is worth retrying
var ErrRateLimited = errors.New("rate limited")

// Retrier re-runs an operation that failed with ErrRateLimited, waiting
// InitialBackoff before the first retry and doubling the wait each time.
type Retrier struct {
	MaxRetries     int
	InitialBackoff time.Duration

	log   *logger.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a retrier that sleeps on the wall clock
func NewRetrier(maxRetries int, initialBackoff time.Duration, log *logger.Logger) *Retrier {
	return &Retrier{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		log:            log,
		sleep:          sleepContext,
	}
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// retries are used up. The last error is returned.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := r.InitialBackoff
	var err error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		if attempt > 0 {
			r.log.Warn("retrying after rate limit",
				"attempt", attempt,
				"max_retries", r.MaxRetries,
				"sleep", backoff.String(),
			)
			if sleepErr := r.sleep(ctx, backoff); sleepErr != nil {
				return sleepErr
			}
			backoff *= 2
		}

		err = fn(ctx)
		if err == nil || !errors.Is(err, ErrRateLimited) {
			return err
		}
	}
	r.log.Warn("max retries exceeded", "max_retries", r.MaxRetries, "error", err)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
