// Package cache remembers detail lookups by account id so that repeated runs
// against overlapping follower lists skip ids whose verification flag is
// already known. Entries expire after the configured TTL.
//
// RedisCache is the backend that makes this work across runs and machines,
// and the default when the cache is enabled. MemoryCache lives as long as
// the process, and a single run never asks for the same id twice, so from
// the command line it only saves lookups for embedders that keep one
// Collector alive across several runs.
package cache
