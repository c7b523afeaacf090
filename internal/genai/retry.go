package genai

import (
	"context"
	"errors"
	"time"

	"listify/internal/domain"
	"listify/internal/infra"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// SleepFunc waits for the given duration or until the context is done. Tests
// inject a fake so backoff behavior is assertable without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy bounds the retry loop. Delay doubles from BaseDelay after each
// failed attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       SleepFunc
	Logger      *infra.Logger
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.Sleep == nil {
		p.Sleep = sleepWithContext
	}
	return p
}

// withRetry runs op up to MaxAttempts times with exponential backoff. Errors
// that retrying cannot fix (missing credentials, policy blocks) abort the
// loop immediately. The final failure is returned wrapped with the attempt
// count so callers keep the original message.
func withRetry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.withDefaults()
	var zero T
	var lastErr error
	delay := policy.BaseDelay

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) || attempt == policy.MaxAttempts {
			break
		}
		if policy.Logger != nil {
			policy.Logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("genai: attempt failed, backing off")
		}
		if err := policy.Sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay *= 2
	}
	return zero, lastErr
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch domain.ClassifyError(err) {
	case domain.KindCredential, domain.KindPolicy:
		return false
	default:
		return true
	}
}
