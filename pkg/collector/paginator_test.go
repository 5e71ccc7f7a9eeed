package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xfollowers/pkg/config"
	errs "xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/retry"
	"xfollowers/pkg/supplier"
)

func testRetryConfig() config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts:      0,
		Strategy:         "constant",
		ChunkMaxAttempts: 3,
	}
}

func TestPaginateUntilEndCursor(t *testing.T) {
	fake := &fakeSupplier{pageFunc: pages(
		[]supplier.RawAccount{account("1", "alice"), account("2", "bob")},
		[]supplier.RawAccount{account("3", "carol")},
		[]supplier.RawAccount{},
	)}
	p := NewPaginator(fake, supplier.RequestFollowers, 0, testRetryConfig(), logger.NewNopLogger())

	result, err := p.Paginate(context.Background(), "jack", "")
	require.NoError(t, err)

	assert.Len(t, result.Accounts, 3)
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, supplier.EndCursor, result.EndCursor)
	assert.Equal(t, []string{"", "c1", "c2"}, fake.pageCalls())
}

func TestPaginateRetriesWithoutAdvancingCursor(t *testing.T) {
	next := pages(
		[]supplier.RawAccount{account("1", "alice")},
		[]supplier.RawAccount{account("2", "bob")},
	)
	failures := 0
	fake := &fakeSupplier{pageFunc: func(cursor string, call int) (*supplier.FollowPage, error) {
		if cursor == "c1" && failures < 3 {
			failures++
			return nil, errs.HTTPFailure(503, "unavailable")
		}
		return next(cursor, call)
	}}
	p := NewPaginator(fake, supplier.RequestFollowers, 0, testRetryConfig(), logger.NewNopLogger())

	result, err := p.Paginate(context.Background(), "jack", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "c1", "c1", "c1", "c1"}, fake.pageCalls())
	assert.Equal(t, 3, result.Retries)
	assert.Equal(t, 2, result.Pages)
	assert.Len(t, result.Accounts, 2)
}

func TestPaginateGivesUpAfterMaxAttempts(t *testing.T) {
	fake := &fakeSupplier{pageFunc: func(string, int) (*supplier.FollowPage, error) {
		return nil, errs.Unreachable(errors.New("connection refused"))
	}}
	cfg := testRetryConfig()
	cfg.MaxAttempts = 4
	p := NewPaginator(fake, supplier.RequestFollowers, 0, cfg, logger.NewNopLogger())

	_, err := p.Paginate(context.Background(), "jack", "abc")
	require.Error(t, err)

	assert.ErrorIs(t, err, retry.ErrMaxAttempts)
	assert.True(t, errs.IsType(err, errs.ErrorTypeUnreachable))
	assert.Equal(t, []string{"abc", "abc", "abc", "abc"}, fake.pageCalls())
}

func TestPaginateStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeSupplier{
		pageFunc: func(string, int) (*supplier.FollowPage, error) {
			return nil, errs.HTTPFailure(500, "boom")
		},
		onPage: func(call int) {
			if call == 5 {
				cancel()
			}
		},
	}
	p := NewPaginator(fake, supplier.RequestFollowers, 0, testRetryConfig(), logger.NewNopLogger())

	_, err := p.Paginate(ctx, "jack", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fake.pageCalls(), 5)
}

func TestPaginateFromEndCursorFetchesNothing(t *testing.T) {
	fake := &fakeSupplier{}
	p := NewPaginator(fake, supplier.RequestFollowing, 0, testRetryConfig(), logger.NewNopLogger())

	result, err := p.Paginate(context.Background(), "jack", supplier.EndCursor)
	require.NoError(t, err)
	assert.Empty(t, result.Accounts)
	assert.Empty(t, fake.pageCalls())
}

func TestPaginateRunsPageHook(t *testing.T) {
	fake := &fakeSupplier{pageFunc: pages(
		[]supplier.RawAccount{account("1", "alice")},
		[]supplier.RawAccount{account("2", "bob")},
	)}
	p := NewPaginator(fake, supplier.RequestFollowers, 0, testRetryConfig(), logger.NewNopLogger())

	var cursors []string
	p.OnPage(func(page *supplier.FollowPage) error {
		cursors = append(cursors, page.NextCursor)
		return errors.New("disk full")
	})

	result, err := p.Paginate(context.Background(), "jack", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "0"}, cursors)
	assert.Equal(t, 2, result.Pages)
}

type pausedProgress struct {
	nopProgress
	paused bool
}

func (p *pausedProgress) IsPaused() bool { return p.paused }

func TestPaginateWaitsWhilePaused(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeSupplier{pageFunc: pages([]supplier.RawAccount{account("1", "alice")})}
	p := NewPaginator(fake, supplier.RequestFollowers, 0, testRetryConfig(), logger.NewNopLogger())
	p.SetProgress(&pausedProgress{paused: true})

	_, err := p.Paginate(ctx, "jack", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.pageCalls())
}
