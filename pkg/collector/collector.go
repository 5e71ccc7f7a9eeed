package collector

import (
	"context"
	"errors"
	"fmt"
	"io"

	"xfollowers/pkg/cache"
	"xfollowers/pkg/checkpoint"
	"xfollowers/pkg/config"
	errs "xfollowers/pkg/errors"
	"xfollowers/pkg/exclusion"
	"xfollowers/pkg/export"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/metadata"
	"xfollowers/pkg/models"
	"xfollowers/pkg/storage"
	"xfollowers/pkg/supplier"
)

// ErrCheckpointExists is returned when an unfinished run exists and the
// caller asked neither to resume nor to restart it.
var ErrCheckpointExists = errors.New("checkpoint exists - use --resume to continue or --force-restart to start fresh")

// Options selects what one run collects
type Options struct {
	Username string
	Request  supplier.Request
	Type     models.VerificationType
	// StartCursor skips ahead to a known cursor; empty starts at the first page
	StartCursor  string
	Resume       bool
	ForceRestart bool
}

// Collector runs the whole pipeline for one account: paginate, look up
// details, merge, filter, drop already exported accounts, write the output
// and the updated exclusion file.
type Collector struct {
	cfg           *config.Config
	client        Supplier
	storage       *storage.Manager
	cache         cache.Cache
	recorder      Recorder
	progress      Progress
	logger        logger.Logger
	checkpointDir string
}

// Option configures a Collector
type Option func(*Collector)

// WithCache looks details up in c before asking the supplier
func WithCache(c cache.Cache) Option {
	return func(col *Collector) { col.cache = c }
}

func WithRecorder(r Recorder) Option {
	return func(col *Collector) {
		if r != nil {
			col.recorder = r
		}
	}
}

func WithProgress(p Progress) Option {
	return func(col *Collector) {
		if p != nil {
			col.progress = p
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(col *Collector) {
		if l != nil {
			col.logger = l
		}
	}
}

// WithCheckpointDir stores checkpoints in dir instead of the user data directory
func WithCheckpointDir(dir string) Option {
	return func(col *Collector) { col.checkpointDir = dir }
}

// New creates a collector writing into cfg.Output.Directory
func New(cfg *config.Config, client Supplier, opts ...Option) (*Collector, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	store, err := storage.NewManager(cfg.Output.Directory)
	if err != nil {
		return nil, err
	}

	c := &Collector{
		cfg:      cfg,
		client:   client,
		storage:  store,
		recorder: nopRecorder{},
		progress: nopProgress{},
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run collects opts.Username's list. The returned summary is filled in as
// far as the run got, also when it fails.
func (c *Collector) Run(ctx context.Context, opts Options) (summary *metadata.RunSummary, err error) {
	if opts.Request == "" {
		opts.Request = supplier.RequestFollowers
	}
	if opts.Type == "" {
		opts.Type = models.TypeAll
	}
	request := string(opts.Request)

	summary = metadata.NewRunSummary(opts.Username, request)
	summary.Supplier = c.cfg.Supplier.Name
	summary.Type = string(opts.Type)
	summary.StartCursor = opts.StartCursor

	outputName := c.cfg.OutputFileName(opts.Username, request)
	summary.OutputFile = c.storage.Path(outputName)
	summary.ExclusionsFile = c.cfg.ExclusionsPath()

	defer func() {
		summary.Finish(err)
		if c.cfg.Output.SaveSummary {
			if saveErr := summary.Save(metadata.SummaryPath(summary.OutputFile)); saveErr != nil {
				c.logger.WithError(saveErr).Warn("Failed to save run summary")
			}
		}
	}()

	logger.LogComponentStart("collector", map[string]interface{}{
		"username": opts.Username,
		"request":  request,
		"type":     string(opts.Type),
		"supplier": c.cfg.Supplier.Name,
	})

	seen, err := exclusion.Load(summary.ExclusionsFile)
	if err != nil {
		return summary, err
	}

	cpMgr, cp, err := c.prepareCheckpoint(opts)
	if err != nil {
		return summary, err
	}

	startCursor := opts.StartCursor
	var prior []supplier.RawAccount
	if cp != nil && opts.Resume && cp.Pages > 0 {
		startCursor = cp.EndCursor
		prior = cp.Accounts
		summary.Resumed = true
		summary.StartCursor = startCursor
		summary.Pages = cp.Pages
	}

	// Paginate
	c.progress.StageStarted(StagePaginate)
	paginator := NewPaginator(c.client, opts.Request, c.cfg.Fetch.PageSize, c.cfg.Retry, c.logger)
	paginator.SetRecorder(c.recorder)
	paginator.SetProgress(c.progress)
	if cpMgr != nil && cp != nil {
		paginator.OnPage(func(page *supplier.FollowPage) error {
			return cpMgr.RecordPage(cp, page.Accounts, page.NextCursor)
		})
	}

	pagination, err := paginator.Paginate(ctx, opts.Username, startCursor)
	if pagination != nil {
		summary.Pages += pagination.Pages
		summary.PageRetries = pagination.Retries
		summary.MalformedRecords = pagination.Malformed
	}
	if err != nil {
		return summary, fmt.Errorf("pagination stopped: %w", err)
	}

	accounts := make([]supplier.RawAccount, 0, len(prior)+len(pagination.Accounts))
	accounts = append(accounts, prior...)
	accounts = append(accounts, pagination.Accounts...)
	summary.RawAccounts = len(accounts)
	c.recorder.SetRecords("raw", len(accounts))

	// Details
	c.progress.StageStarted(StageDetails)
	fetcher := NewDetailFetcher(c.client, c.cfg.Fetch, c.cfg.Retry, c.logger)
	fetcher.SetRecorder(c.recorder)
	fetcher.SetProgress(c.progress)
	if c.cache != nil {
		fetcher.SetCache(c.cache, c.cfg.Cache.TTL)
	}

	details, err := fetcher.Fetch(ctx, DetailIDs(accounts))
	summary.Chunks = details.Chunks
	summary.ChunkRetries = details.Retries
	summary.CacheHits = details.CacheHits
	for _, failed := range details.Failed {
		summary.FailedChunks = append(summary.FailedChunks, metadata.ChunkFailure{
			Index: failed.Index,
			IDs:   len(failed.IDs),
			Class: errs.Class(failed.Err),
			Error: failed.Err.Error(),
		})
	}
	if err != nil {
		return summary, fmt.Errorf("detail lookup stopped: %w", err)
	}

	// Merge, filter, exclude
	c.progress.StageStarted(StageMerge)
	merged := Merge(accounts, details.ByID, c.cfg.Fetch.FullProfile, c.logger)
	summary.ProtectedDropped = merged.ProtectedDropped
	summary.Duplicates = merged.Duplicates
	summary.MissingVerification = merged.MissingVerification
	summary.Records = len(merged.Records)
	c.recorder.SetRecords("merged", len(merged.Records))

	filtered := models.FilterByType(merged.Records, opts.Type)
	summary.Filtered = len(merged.Records) - len(filtered)
	c.recorder.SetRecords("filtered", len(filtered))

	fresh, updated := exclusion.Partition(filtered, seen)
	fresh = exclusion.WithProfileLinks(fresh)
	summary.Excluded = len(filtered) - len(fresh)
	summary.New = len(fresh)
	c.recorder.SetRecords("new", len(fresh))

	// Export
	c.progress.StageStarted(StageExport)
	writer, err := export.NewWriter(c.cfg.Output.Delimiter, c.cfg.Fetch.FullProfile)
	if err != nil {
		return summary, err
	}
	if err := c.storage.WriteFile(outputName, func(w io.Writer) error {
		return writer.Write(w, fresh)
	}); err != nil {
		return summary, fmt.Errorf("failed to write output: %w", err)
	}
	if err := exclusion.Save(summary.ExclusionsFile, updated); err != nil {
		return summary, err
	}

	if cpMgr != nil {
		if err := cpMgr.Delete(); err != nil {
			c.logger.WithError(err).Warn("Failed to delete checkpoint")
		}
	}

	c.logger.InfoWithFields("Run complete", map[string]interface{}{
		"username":  opts.Username,
		"request":   request,
		"raw":       summary.RawAccounts,
		"protected": summary.ProtectedDropped,
		"excluded":  summary.Excluded,
		"new":       summary.New,
		"files":     c.storage.Written(),
	})
	logger.LogComponentStop("collector", "completed")

	return summary, nil
}

// prepareCheckpoint resolves the checkpoint for this run. It returns a nil
// manager when checkpoints are disabled; a failure to create a fresh one is
// logged and the run continues without it.
func (c *Collector) prepareCheckpoint(opts Options) (*checkpoint.Manager, *checkpoint.Checkpoint, error) {
	if !c.cfg.Output.Checkpoints {
		return nil, nil, nil
	}

	request := string(opts.Request)
	var (
		mgr *checkpoint.Manager
		err error
	)
	if c.checkpointDir != "" {
		mgr, err = checkpoint.NewManagerInDir(c.checkpointDir, opts.Username, request)
	} else {
		mgr, err = checkpoint.NewManager(opts.Username, request)
	}
	if err != nil {
		c.logger.WithError(err).Warn("Checkpoints unavailable")
		return nil, nil, nil
	}

	switch {
	case opts.ForceRestart && mgr.Exists():
		if err := mgr.Delete(); err != nil {
			c.logger.WithError(err).Warn("Failed to delete existing checkpoint")
		}
	case opts.Resume && mgr.Exists():
		cp, err := mgr.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			c.logger.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
				"pages":       cp.Pages,
				"accounts":    len(cp.Accounts),
				"last_cursor": cp.EndCursor,
			})
			return mgr, cp, nil
		}
	case mgr.Exists() && !opts.Resume:
		return nil, nil, ErrCheckpointExists
	}

	cp, err := mgr.Create(opts.Username, request)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to create checkpoint")
		return nil, nil, nil
	}
	return mgr, cp, nil
}
