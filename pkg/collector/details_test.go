package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xfollowers/pkg/cache"
	"xfollowers/pkg/config"
	errs "xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/supplier"
)

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", 1000+i)
	}
	return ids
}

func testFetchConfig() config.FetchConfig {
	return config.FetchConfig{ChunkSize: 300, Concurrency: 1}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{0, 300, []int{}},
		{1, 300, []int{1}},
		{300, 300, []int{300}},
		{301, 300, []int{300, 1}},
		{701, 300, []int{300, 300, 101}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.n, tt.size), func(t *testing.T) {
			chunks := Chunk(makeIDs(tt.n), tt.size)
			sizes := make([]int, len(chunks))
			for i, c := range chunks {
				sizes[i] = len(c)
			}
			assert.Equal(t, tt.want, sizes)
		})
	}
}

func TestFetchIssuesOneRequestPerChunk(t *testing.T) {
	ids := makeIDs(650)
	fake := &fakeSupplier{}
	f := NewDetailFetcher(fake, testFetchConfig(), testRetryConfig(), logger.NewNopLogger())

	result, err := f.Fetch(context.Background(), ids)
	require.NoError(t, err)

	calls := fake.detailCalls()
	require.Len(t, calls, 3)
	var sent []string
	for _, c := range calls {
		assert.LessOrEqual(t, len(c), 300)
		sent = append(sent, c...)
	}
	assert.ElementsMatch(t, ids, sent)
	assert.Equal(t, 3, result.Chunks)
	assert.Len(t, result.ByID, 650)
	assert.Empty(t, result.Failed)
}

func TestFetchReportsFailedChunkAndContinues(t *testing.T) {
	ids := makeIDs(7)
	fake := &fakeSupplier{detailFunc: func(chunk []string, _ int) ([]*supplier.UserDetail, error) {
		if chunk[0] == "1003" {
			return nil, errs.HTTPFailure(500, "boom")
		}
		return verifiedDetails(chunk, nil), nil
	}}
	cfg := testFetchConfig()
	cfg.ChunkSize = 3
	f := NewDetailFetcher(fake, cfg, testRetryConfig(), logger.NewNopLogger())

	result, err := f.Fetch(context.Background(), ids)
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, []string{"1003", "1004", "1005"}, result.Failed[0].IDs)
	assert.True(t, errs.IsType(result.Failed[0], errs.ErrorTypeHTTPFailure))

	// 3 attempts at the bad chunk plus one each for the other two
	assert.Len(t, fake.detailCalls(), 5)
	assert.Equal(t, 2, result.Retries)
	assert.Len(t, result.ByID, 4)
	assert.Contains(t, result.ByID, "1006")
}

func TestFetchRetriesChunkUntilSuccess(t *testing.T) {
	fake := &fakeSupplier{detailFunc: func(chunk []string, call int) ([]*supplier.UserDetail, error) {
		if call == 1 {
			return nil, errs.Unreachable(nil)
		}
		return verifiedDetails(chunk, nil), nil
	}}
	f := NewDetailFetcher(fake, testFetchConfig(), testRetryConfig(), logger.NewNopLogger())

	result, err := f.Fetch(context.Background(), makeIDs(10))
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 1, result.Retries)
	assert.Len(t, result.ByID, 10)
}

func TestFetchKeysByRestID(t *testing.T) {
	yes, no := true, false
	fake := &fakeSupplier{detailFunc: func(chunk []string, _ int) ([]*supplier.UserDetail, error) {
		// out of order, one without rest_id in the position of "b"
		return []*supplier.UserDetail{
			{RestID: "c", IsBlueVerified: &no},
			{IsBlueVerified: &yes},
			{RestID: "a", IsBlueVerified: &yes},
		}, nil
	}}
	f := NewDetailFetcher(fake, testFetchConfig(), testRetryConfig(), logger.NewNopLogger())

	result, err := f.Fetch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.True(t, *result.ByID["a"].IsBlueVerified)
	assert.False(t, *result.ByID["c"].IsBlueVerified)
	assert.True(t, *result.ByID["b"].IsBlueVerified)
}

func TestFetchDropsUnkeyedDetailWhenLengthsDiffer(t *testing.T) {
	yes := true
	fake := &fakeSupplier{detailFunc: func(chunk []string, _ int) ([]*supplier.UserDetail, error) {
		return []*supplier.UserDetail{{IsBlueVerified: &yes}}, nil
	}}
	f := NewDetailFetcher(fake, testFetchConfig(), testRetryConfig(), logger.NewNopLogger())

	result, err := f.Fetch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, result.ByID)
}

func TestFetchDeduplicatesIDs(t *testing.T) {
	fake := &fakeSupplier{}
	f := NewDetailFetcher(fake, testFetchConfig(), testRetryConfig(), logger.NewNopLogger())

	_, err := f.Fetch(context.Background(), []string{"a", "b", "a", "", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}}, fake.detailCalls())
}

func TestFetchConcurrentChunks(t *testing.T) {
	ids := makeIDs(50)
	fake := &fakeSupplier{}
	cfg := testFetchConfig()
	cfg.ChunkSize = 7
	cfg.Concurrency = 4
	f := NewDetailFetcher(fake, cfg, testRetryConfig(), logger.NewNopLogger())

	result, err := f.Fetch(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Chunks)
	assert.Len(t, fake.detailCalls(), 8)
	assert.Len(t, result.ByID, 50)
}

func TestFetchUsesCache(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache()
	yes := true
	require.NoError(t, mem.Set(ctx, "a", cache.NewEntry(&supplier.UserDetail{RestID: "a", IsBlueVerified: &yes}, time.Hour)))

	fake := &fakeSupplier{}
	f := NewDetailFetcher(fake, testFetchConfig(), testRetryConfig(), logger.NewNopLogger())
	f.SetCache(mem, time.Hour)

	result, err := f.Fetch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CacheHits)
	assert.Equal(t, [][]string{{"b", "c"}}, fake.detailCalls())
	assert.True(t, *result.ByID["a"].IsBlueVerified)
	assert.Equal(t, 3, mem.Len())

	// everything is cached now
	result, err = f.Fetch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.CacheHits)
	assert.Equal(t, 0, result.Chunks)
	assert.Len(t, fake.detailCalls(), 1)
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewDetailFetcher(&fakeSupplier{}, testFetchConfig(), testRetryConfig(), logger.NewNopLogger())
	_, err := f.Fetch(ctx, makeIDs(5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerificationFlag(t *testing.T) {
	yes := true
	flag, err := VerificationFlag(&supplier.UserDetail{IsBlueVerified: &yes})
	require.NoError(t, err)
	assert.True(t, flag)

	flag, err = VerificationFlag(&supplier.UserDetail{})
	assert.False(t, flag)
	assert.True(t, errs.IsType(err, errs.ErrorTypeMissingField))

	flag, err = VerificationFlag(nil)
	assert.False(t, flag)
	assert.Error(t, err)
}
