// Package collector runs the follower collection pipeline.
//
// A run has four stages:
//
//   - Paginator walks the follower or following list with the supplier's
//     cursor until it reports the end cursor "0". A failed page is reissued
//     with the same cursor under the configured retry policy.
//   - DetailFetcher splits the collected ids into chunks of 300 and looks up
//     the verification flag (and optionally the legacy profile) of each id.
//     A chunk that keeps failing becomes a ChunkError; the others still run.
//   - Merge joins accounts and details by id, dropping protected accounts and
//     duplicates.
//   - Collector filters by verification type, removes accounts already listed
//     in the exclusion file, writes the new records and rewrites the
//     exclusion file with every account seen.
//
// Usage:
//
//	client, _ := supplier.NewClient(&cfg.Supplier, cfg.APIKey(), limiter, log)
//	c, err := collector.New(cfg, client, collector.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	summary, err := c.Run(ctx, collector.Options{
//	    Username: "jack",
//	    Request:  supplier.RequestFollowers,
//	    Type:     models.TypeAll,
//	})
package collector
