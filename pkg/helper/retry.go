package helper

import (
	"context"
	"time"
)

// RetryWithCancel calls f until it succeeds, it fails with an error that
// retryable rejects, attempts calls were made or ctx is done. Calls are spaced
// by wait.
func RetryWithCancel(ctx context.Context, attempts int, wait time.Duration, f func() error, retryable func(error) bool) error {
	err := f()
	if err == nil || attempts <= 1 || !retryable(err) {
		return err
	}
	ticker := time.NewTicker(wait)
	defer ticker.Stop()
	for n := 1; n < attempts; n++ {
		select {
		case <-ticker.C:
			if err = f(); err == nil || !retryable(err) {
				return err
			}
		case <-ctx.Done():
			return err
		}
	}
	return err
}
