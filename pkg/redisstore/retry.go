package redisstore

import (
	"context"
	"time"
)

const retryBaseDelay = 50 * time.Millisecond

// retry runs fn up to attempts times with a linear backoff, giving up early
// when ctx is done.
func retry(ctx context.Context, attempts int, fn func() error) error {
	var err error

	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * retryBaseDelay):
		}
	}

	return err
}
