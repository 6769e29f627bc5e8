package sqlapi

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Retry runs op, sleeping the server-specified backoff and retrying up to
// `times` additional attempts whenever op fails with a RateLimitError. Any
// other error, and the rate-limit error once retries are exhausted, is
// returned unchanged.
func Retry(ctx context.Context, times int, logger *slog.Logger, op func() error) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for {
		err := op()
		if err == nil {
			return nil
		}
		rle, ok := AsRateLimit(err)
		if !ok || times <= 0 {
			return err
		}
		times--
		logger.Warn("call rate limited, backing off",
			slog.Duration("retry_after", rle.RetryAfter),
			slog.Int("retries_left", times))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rle.RetryAfter):
		}
	}
}
