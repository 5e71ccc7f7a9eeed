// Package ratelimit spaces requests to the data supplier.
//
// FixedDelay is the default: it sleeps a fixed interval before every request,
// which makes the spacing deterministic and a lower bound for tests.
// TokenBucket and SlidingWindow are available for suppliers that publish a
// per-minute quota.
//
//	limiter, err := ratelimit.New(&cfg.RateLimit)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // cancelled
//	}
//	// send request
package ratelimit
