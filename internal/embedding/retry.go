package embedding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// WithRetry runs op with bounded exponential backoff: attempt, sleep
// baseDelay * 2^n, retry, up to attempts total. The last error is
// returned on exhaustion. The calling goroutine blocks during backoff,
// so this belongs on cold-start paths (backend init, bulk corpus
// embedding), not per-request ones.
func WithRetry(ctx context.Context, attempts uint, baseDelay time.Duration, logger *slog.Logger, op func() error) error {
	if logger == nil {
		logger = slog.Default()
	}
	return retry.Do(op,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(baseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		// Once the guard enters cooldown there is no point retrying.
		retry.RetryIf(func(err error) bool {
			var ue *UnavailableError
			return !errors.As(err, &ue)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("retrying after failure",
				"attempt", n+1,
				"max_attempts", attempts,
				"error", err)
		}),
	)
}
