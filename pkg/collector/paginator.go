package collector

import (
	"context"
	"fmt"
	"time"

	"xfollowers/pkg/config"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/retry"
	"xfollowers/pkg/supplier"
)

const pausePollInterval = 250 * time.Millisecond

// PageHook is called after every page is appended
type PageHook func(page *supplier.FollowPage) error

// Paginator walks a follower or following list page by page
type Paginator struct {
	client   Supplier
	request  supplier.Request
	pageSize int
	retryCfg config.RetryConfig
	logger   logger.Logger
	recorder Recorder
	progress Progress
	onPage   PageHook
}

// Pagination is what a walk collected
type Pagination struct {
	Accounts  []supplier.RawAccount
	Pages     int
	Retries   int
	Malformed int
	// EndCursor is the last cursor the supplier returned
	EndCursor string
}

// NewPaginator creates a paginator for request using the retry policy in retryCfg
func NewPaginator(client Supplier, request supplier.Request, pageSize int, retryCfg config.RetryConfig, log logger.Logger) *Paginator {
	if pageSize <= 0 {
		pageSize = supplier.DefaultPageSize
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Paginator{
		client:   client,
		request:  request,
		pageSize: pageSize,
		retryCfg: retryCfg,
		logger:   log,
		recorder: nopRecorder{},
		progress: nopProgress{},
	}
}

// SetRecorder sets the metrics recorder
func (p *Paginator) SetRecorder(r Recorder) {
	if r != nil {
		p.recorder = r
	}
}

// SetProgress sets the progress display
func (p *Paginator) SetProgress(pr Progress) {
	if pr != nil {
		p.progress = pr
	}
}

// OnPage registers a hook run after each page, e.g. to save a checkpoint.
// Hook errors are logged and do not stop the walk.
func (p *Paginator) OnPage(hook PageHook) {
	p.onPage = hook
}

// Paginate fetches every page of username's list starting at startCursor
// (empty for the first page) until the supplier returns the end cursor.
//
// A failed page is reissued with the same cursor. With retry.max_attempts 0
// this never gives up, so only ctx ends a walk against a dead supplier.
func (p *Paginator) Paginate(ctx context.Context, username, startCursor string) (*Pagination, error) {
	result := &Pagination{EndCursor: startCursor}
	if startCursor == supplier.EndCursor {
		return result, nil
	}

	cursor := startCursor
	for {
		if err := p.waitWhilePaused(ctx); err != nil {
			return result, err
		}

		page, err := retry.DoWithResult(func() (*supplier.FollowPage, error) {
			return p.client.FetchFollowPage(ctx, p.request, username, p.pageSize, cursor)
		}, p.retryConfig(ctx, &result.Retries))
		if err != nil {
			return result, fmt.Errorf("page %d (cursor %q): %w", result.Pages+1, cursor, err)
		}

		result.Pages++
		result.Accounts = append(result.Accounts, page.Accounts...)
		result.Malformed += len(page.Malformed)
		result.EndCursor = page.NextCursor

		p.recorder.PageFetched(len(page.Accounts))
		logger.LogPage(username, result.Pages, len(page.Accounts), len(result.Accounts), page.NextCursor)
		p.progress.PageFetched(result.Pages, len(page.Accounts), len(result.Accounts), page.NextCursor)

		if p.onPage != nil {
			if err := p.onPage(page); err != nil {
				p.logger.WithError(err).Warn("Page hook failed")
			}
		}

		if page.Last() {
			return result, nil
		}
		cursor = page.NextCursor
	}
}

func (p *Paginator) retryConfig(ctx context.Context, retries *int) *retry.Config {
	return &retry.Config{
		MaxAttempts: p.retryCfg.MaxAttempts,
		Backoff:     retry.BackoffFromConfig(&p.retryCfg),
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			*retries++
			p.recorder.Retry("page")
			logger.LogRetry("page", attempt, delay, err)
			p.progress.Retrying("page", attempt, delay, err)
		},
	}
}

func (p *Paginator) waitWhilePaused(ctx context.Context) error {
	pauser, ok := p.progress.(Pauser)
	if !ok {
		return ctx.Err()
	}
	for pauser.IsPaused() {
		if err := retry.Wait(ctx, pausePollInterval); err != nil {
			return err
		}
	}
	return ctx.Err()
}
