package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// ErrMaxAttempts is wrapped by the error returned when every attempt failed.
var ErrMaxAttempts = errors.New("max retry attempts exceeded")

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig retries forever with no extra delay. Request spacing comes
// from the rate limiter, so the same request is reissued at the limiter's pace.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 0,
		Backoff:     &ConstantBackoff{},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries typed supplier failures that are retryable and
// unknown errors, but never a cancelled or expired context.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	return true
}

// withDefaults returns a copy of cfg with every unset field filled in.
func (cfg *Config) withDefaults() Config {
	if cfg == nil {
		return *DefaultConfig()
	}
	c := *cfg
	if c.Context == nil {
		c.Context = context.Background()
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
	if c.Backoff == nil {
		c.Backoff = &ConstantBackoff{}
	}
	if c.Logger == nil {
		c.Logger = logger.NewNopLogger()
	}
	return c
}

// exhausted reports whether attempt was the last one allowed.
func (cfg *Config) exhausted(attempt int) bool {
	return cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts
}

// Do calls op until it succeeds, returns a non-retryable error, runs out of
// attempts or the context ends. The same call is repeated unchanged on every
// attempt; callers that page must not advance their cursor inside op.
func Do(op Operation, cfg *Config) error {
	c := cfg.withDefaults()
	ctx, log := c.Context, c.Logger

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if attempt > 1 {
				return fmt.Errorf("retry cancelled: %w", err)
			}
			return err
		}

		err := op()
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("succeeded after retry", map[string]interface{}{"attempt": attempt})
			}
			c.Backoff.Reset()
			return nil
		}

		if !c.RetryIf(err) {
			log.WithError(err).Debug("error is not retryable")
			return err
		}

		if c.exhausted(attempt) {
			log.WithError(err).ErrorWithFields("giving up", map[string]interface{}{"attempts": attempt})
			return fmt.Errorf("%w (%d): %w", ErrMaxAttempts, c.MaxAttempts, err)
		}

		delay := c.Backoff.NextDelay(attempt)
		if c.OnRetry != nil {
			c.OnRetry(attempt, err, delay)
		}
		log.WithError(err).WarnWithFields("retrying", map[string]interface{}{
			"attempt":      attempt,
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": c.MaxAttempts,
		})

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}
