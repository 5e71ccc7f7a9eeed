package collector

import (
	"context"
	"time"

	"xfollowers/pkg/supplier"
)

// Supplier defines the supplier operations the pipeline needs
type Supplier interface {
	FetchFollowPage(ctx context.Context, request supplier.Request, username string, count int, cursor string) (*supplier.FollowPage, error)
	FetchUsersByIDs(ctx context.Context, ids []string) ([]*supplier.UserDetail, error)
}

// Recorder receives counters for metrics export
type Recorder interface {
	PageFetched(accounts int)
	ChunkDone(failed bool)
	Retry(operation string)
	CacheLookup(hit bool)
	SetRecords(stage string, n int)
}

// Progress receives pipeline events for display. Chunk events may arrive
// from several goroutines.
type Progress interface {
	StageStarted(stage string)
	PageFetched(page, accounts, total int, nextCursor string)
	Retrying(operation string, attempt int, delay time.Duration, err error)
	ChunkFinished(index, chunks int, err error)
}

// Pauser is implemented by progress displays that let the operator pause
// between requests
type Pauser interface {
	IsPaused() bool
}

const (
	StagePaginate = "paginate"
	StageDetails  = "details"
	StageMerge    = "merge"
	StageExport   = "export"
)

type nopRecorder struct{}

func (nopRecorder) PageFetched(int)        {}
func (nopRecorder) ChunkDone(bool)         {}
func (nopRecorder) Retry(string)           {}
func (nopRecorder) CacheLookup(bool)       {}
func (nopRecorder) SetRecords(string, int) {}

type nopProgress struct{}

func (nopProgress) StageStarted(string)                        {}
func (nopProgress) PageFetched(int, int, int, string)          {}
func (nopProgress) Retrying(string, int, time.Duration, error) {}
func (nopProgress) ChunkFinished(int, int, error)              {}
