package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"xfollowers/internal/chunkpool"
	"xfollowers/pkg/cache"
	"xfollowers/pkg/config"
	errs "xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/retry"
	"xfollowers/pkg/supplier"
)

// DefaultChunkSize is the number of ids per detail lookup
const DefaultChunkSize = 300

// ChunkError reports a detail chunk that failed on every attempt. The ids
// in it have no detail in the result.
type ChunkError struct {
	Index int
	IDs   []string
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("detail chunk %d (%d ids): %v", e.Index, len(e.IDs), e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Details is what a detail lookup produced
type Details struct {
	// ByID holds the detail object of every resolved id
	ByID      map[string]*supplier.UserDetail
	Chunks    int
	Retries   int
	CacheHits int
	Failed    []*ChunkError
}

// DetailFetcher resolves account ids to detail objects in fixed-size chunks
type DetailFetcher struct {
	client      Supplier
	chunkSize   int
	concurrency int
	retryCfg    config.RetryConfig
	fullProfile bool
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      logger.Logger
	recorder    Recorder
	progress    Progress

	retries atomic.Int64
	chunks  int
}

// NewDetailFetcher creates a fetcher. Chunks are attempted up to
// retryCfg.ChunkMaxAttempts times each.
func NewDetailFetcher(client Supplier, fetchCfg config.FetchConfig, retryCfg config.RetryConfig, log logger.Logger) *DetailFetcher {
	if fetchCfg.ChunkSize <= 0 {
		fetchCfg.ChunkSize = DefaultChunkSize
	}
	if fetchCfg.Concurrency <= 0 {
		fetchCfg.Concurrency = 1
	}
	if retryCfg.ChunkMaxAttempts <= 0 {
		retryCfg.ChunkMaxAttempts = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &DetailFetcher{
		client:      client,
		chunkSize:   fetchCfg.ChunkSize,
		concurrency: fetchCfg.Concurrency,
		retryCfg:    retryCfg,
		fullProfile: fetchCfg.FullProfile,
		logger:      log,
		recorder:    nopRecorder{},
		progress:    nopProgress{},
	}
}

// SetCache enables lookups in c before asking the supplier
func (f *DetailFetcher) SetCache(c cache.Cache, ttl time.Duration) {
	f.cache = c
	f.cacheTTL = ttl
}

// SetRecorder sets the metrics recorder
func (f *DetailFetcher) SetRecorder(r Recorder) {
	if r != nil {
		f.recorder = r
	}
}

// SetProgress sets the progress display
func (f *DetailFetcher) SetProgress(pr Progress) {
	if pr != nil {
		f.progress = pr
	}
}

// Chunk splits ids into consecutive chunks of at most size ids. It returns
// exactly ceil(len(ids)/size) chunks and none for an empty list.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// Fetch resolves ids. A chunk that keeps failing is reported in Failed and
// the remaining chunks still run; the only error returned is ctx's.
func (f *DetailFetcher) Fetch(ctx context.Context, ids []string) (*Details, error) {
	result := &Details{ByID: make(map[string]*supplier.UserDetail, len(ids))}

	pending := f.fromCache(ctx, uniqueIDs(ids), result)
	chunks := Chunk(pending, f.chunkSize)
	result.Chunks = len(chunks)
	f.chunks = len(chunks)
	f.retries.Store(0)

	jobs := make([]chunkpool.Job, len(chunks))
	for i, c := range chunks {
		jobs[i] = chunkpool.Job{Index: i, IDs: c}
	}

	for _, r := range chunkpool.Run(ctx, f.concurrency, jobs, f, f.logger) {
		if r.Error != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.Failed = append(result.Failed, &ChunkError{Index: r.Job.Index, IDs: r.Job.IDs, Err: r.Error})
			continue
		}
		f.collect(ctx, r.Job, r.Details, result)
	}
	result.Retries = int(f.retries.Load())

	return result, nil
}

// FetchChunk looks up one chunk, retrying it up to the chunk attempt limit
func (f *DetailFetcher) FetchChunk(ctx context.Context, job chunkpool.Job) ([]*supplier.UserDetail, error) {
	cfg := &retry.Config{
		MaxAttempts: f.retryCfg.ChunkMaxAttempts,
		Backoff:     retry.BackoffFromConfig(&f.retryCfg),
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			f.retries.Add(1)
			f.recorder.Retry("chunk")
			logger.LogRetry("chunk", attempt, delay, err)
			f.progress.Retrying("chunk", attempt, delay, err)
		},
	}

	details, err := retry.DoWithResult(func() ([]*supplier.UserDetail, error) {
		return f.client.FetchUsersByIDs(ctx, job.IDs)
	}, cfg)

	if ctx.Err() == nil {
		f.recorder.ChunkDone(err != nil)
		logger.LogChunk(job.Index, f.chunks, len(job.IDs), err)
		f.progress.ChunkFinished(job.Index, f.chunks, err)
	}
	return details, err
}

// collect keys the details of one chunk by rest_id. A result without an id
// falls back to its position when the supplier returned one result per id.
func (f *DetailFetcher) collect(ctx context.Context, job chunkpool.Job, details []*supplier.UserDetail, result *Details) {
	positional := len(details) == len(job.IDs)
	for i, d := range details {
		if d == nil {
			continue
		}
		id := d.RestID
		if id == "" {
			if !positional {
				f.logger.WarnWithFields("Dropping detail without rest_id", map[string]interface{}{
					"chunk":    job.Index,
					"position": i,
				})
				continue
			}
			id = job.IDs[i]
		}
		if !f.fullProfile {
			d.Legacy = nil
		}
		result.ByID[id] = d
		f.store(ctx, id, d)
	}
}

func (f *DetailFetcher) fromCache(ctx context.Context, ids []string, result *Details) []string {
	if f.cache == nil {
		return ids
	}

	pending := make([]string, 0, len(ids))
	warned := false
	for _, id := range ids {
		entry, err := f.cache.Get(ctx, id)
		if err == nil && f.usable(entry) {
			result.ByID[id] = entry.Detail
			result.CacheHits++
			f.recorder.CacheLookup(true)
			continue
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) && !warned {
			f.logger.WithError(err).Warn("Detail cache lookup failed")
			warned = true
		}
		f.recorder.CacheLookup(false)
		pending = append(pending, id)
	}
	return pending
}

func (f *DetailFetcher) usable(entry *cache.Entry) bool {
	if entry == nil || entry.Detail == nil || entry.Detail.IsBlueVerified == nil {
		return false
	}
	return !f.fullProfile || entry.Detail.Legacy != nil
}

func (f *DetailFetcher) store(ctx context.Context, id string, d *supplier.UserDetail) {
	if f.cache == nil || d.IsBlueVerified == nil {
		return
	}
	if err := f.cache.Set(ctx, id, cache.NewEntry(d, f.cacheTTL)); err != nil {
		f.logger.WithError(err).WithField("id", id).Debug("Failed to cache detail")
	}
}

// VerificationFlag returns the blue-verified flag of detail. A missing flag
// reads as false and is reported as a missing_field error.
func VerificationFlag(detail *supplier.UserDetail) (bool, error) {
	if detail == nil || detail.IsBlueVerified == nil {
		return false, errs.MissingField("is_blue_verified")
	}
	return *detail.IsBlueVerified, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
