package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/podscribe/internal/apierr"
)

// withRetry runs call under the client's retry policy.
// Each attempt gets its own deadline derived from ctx; an attempt that
// outlives it is reported as apierr.ErrTimeout and retried.
func (s settings) withRetry(ctx context.Context, provider string, call func(ctx context.Context) (string, error)) (string, error) {
	log := s.logger.With(zap.String("provider", provider), zap.String("model", s.model))

	cfg := apierr.RetryConfig{
		MaxRetries: s.maxRetries,
		BaseDelay:  s.baseDelay,
		MaxDelay:   s.maxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Warn("generation attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(err))
		},
	}

	return apierr.RetryWithBackoff(ctx, cfg, func(attempt int) (string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()

		start := time.Now()
		text, err := call(attemptCtx)
		if err != nil {
			// The parent context is still alive, so the deadline was ours.
			if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, apierr.ErrTimeout) {
				err = fmt.Errorf("attempt exceeded %s: %w", s.attemptTimeout, apierr.ErrTimeout)
			}
			return "", err
		}

		log.Debug("generation attempt succeeded",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.Attempts()),
			zap.Duration("elapsed", time.Since(start)))
		return text, nil
	}, apierr.IsRetryable)
}
