package indexer

import (
	"context"
	"time"
)

const defaultRetryDelay = 100 * time.Millisecond

// retrier runs an operation up to 1+maxRetries times with exponential backoff.
type retrier struct {
	maxRetries int
	baseDelay  time.Duration
	onFailure  func(attempt int, err error)
}

func newRetrier(maxRetries int, baseDelay time.Duration, onFailure func(int, error)) retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryDelay
	}
	return retrier{maxRetries: maxRetries, baseDelay: baseDelay, onFailure: onFailure}
}

func (r retrier) do(ctx context.Context, fn func(context.Context) error) error {
	delay := r.baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if r.onFailure != nil {
			r.onFailure(attempt, err)
		}
		if attempt >= r.maxRetries || ctx.Err() != nil {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
