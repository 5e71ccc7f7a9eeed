package retry_test

import (
	"errors"
	"fmt"
	"time"

	errs "xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/retry"
)

func ExampleDo() {
	attempts := 0
	err := retry.Do(func() error {
		attempts++
		if attempts < 3 {
			return errs.HTTPFailure(503, "service unavailable")
		}
		return nil
	}, &retry.Config{
		MaxAttempts: 5,
		Backoff:     &retry.ConstantBackoff{},
		Logger:      logger.NewNopLogger(),
	})

	fmt.Println(attempts, err)
	// Output: 3 <nil>
}

func ExampleDo_maxAttempts() {
	err := retry.Do(func() error {
		return errs.Unreachable(errors.New("connection refused"))
	}, &retry.Config{
		MaxAttempts: 2,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			fmt.Printf("attempt %d failed, waiting %s\n", attempt, delay)
		},
		Logger: logger.NewNopLogger(),
	})

	fmt.Println(errors.Is(err, retry.ErrMaxAttempts))
	// Output:
	// attempt 1 failed, waiting 1ms
	// true
}

func ExampleDoWithResult() {
	calls := 0
	cursor, err := retry.DoWithResult(func() (string, error) {
		calls++
		if calls == 1 {
			return "", errs.Malformed("page has no next_cursor_str", nil)
		}
		return "1767263612853817250", nil
	}, &retry.Config{Logger: logger.NewNopLogger()})

	fmt.Println(cursor, err)
	// Output: 1767263612853817250 <nil>
}

func ExampleDo_notRetryable() {
	attempts := 0
	err := retry.Do(func() error {
		attempts++
		return errs.MissingField("rest_id")
	}, &retry.Config{Logger: logger.NewNopLogger()})

	fmt.Println(attempts, errs.IsType(err, errs.ErrorTypeMissingField))
	// Output: 1 true
}
