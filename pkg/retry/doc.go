// Package retry reissues a failing operation until it succeeds, the attempt
// budget runs out or the context is cancelled.
//
// MaxAttempts of 0 means unlimited. The default configuration retries forever
// with no backoff of its own, relying on the caller's rate limiter to space
// the attempts.
//
//	err := retry.Do(func() error {
//		page, err = client.FetchFollowPage(ctx, req)
//		return err
//	}, &retry.Config{
//		MaxAttempts: cfg.Retry.MaxAttempts,
//		Backoff:     retry.BackoffFromConfig(&cfg.Retry),
//		Context:     ctx,
//		Logger:      logger.GetLogger(),
//	})
//
// DefaultRetryIf retries transport failures (unreachable supplier, non-2xx
// status) and undecodable payloads, and stops immediately on context
// cancellation.
package retry
