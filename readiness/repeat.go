package readiness

// For utilities that assist checking if other things are ready or repeating
// things until they are. Used only at startup: request paths never retry.

import (
	"context"
	"time"

	"github.com/datatrails/go-datatrails-kvstore/logger"
)

// Repeat repeatedly calls func until it returns without a recoverable error
// or attempts are exhausted. attempts = -1 to try forever. interval is the delay between
// attempts. Cancelling ctx stops the retries and returns the last error.
func Repeat(ctx context.Context, attempts int, interval time.Duration, f func(context.Context) error) error {
	var err error

	for i := 0; ; i++ {
		err = f(ctx)
		if err == nil {
			return nil
		}

		if IsUnrecoverable(err) {
			return err
		}

		if attempts > -1 && i >= (attempts-1) {
			break
		}
		logger.Sugar.Debugw(
			"retrying ...",
			"count", i, "interval", interval, "err", err)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(interval):
		}
	}

	return err
}
