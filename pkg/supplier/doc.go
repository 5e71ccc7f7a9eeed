// Package supplier talks to the third-party follower-data APIs.
//
// Two suppliers share one request shape and differ only in base URL and
// authentication headers:
//
//	rapidapi  https://twitter135.p.rapidapi.com/  X-RapidAPI-Key, X-RapidAPI-Host
//	jojapi    https://twitter.jojapi.net/         X-JoJAPI-Key
//
// Every request passes through a ratelimit.Limiter first. Failures are
// classified into the typed errors of pkg/errors: unreachable for network
// problems, http_failure for non-2xx statuses and malformed_record for bodies
// that cannot be decoded. The client never retries; that is the caller's job.
//
//	client, err := supplier.NewClient(&cfg.Supplier, cfg.APIKey(), limiter, log)
//	page, err := client.FetchFollowPage(ctx, supplier.RequestFollowers, "jack", 200, "")
//	for !page.Last() { ... }
package supplier
