package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xfollowers/pkg/config"
)

func TestFixedDelaySpacing(t *testing.T) {
	fd := NewFixedDelay(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, fd.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestFixedDelaySerializesConcurrentCallers(t *testing.T) {
	fd := NewFixedDelay(20 * time.Millisecond)
	ctx := context.Background()

	var mu sync.Mutex
	var stamps []time.Time
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, fd.Wait(ctx))
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 4)
	first, last := stamps[0], stamps[0]
	for _, s := range stamps {
		if s.Before(first) {
			first = s
		}
		if s.After(last) {
			last = s
		}
	}
	assert.GreaterOrEqual(t, last.Sub(first), 55*time.Millisecond)
}

func TestFixedDelayCancelled(t *testing.T) {
	fd := NewFixedDelay(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, fd.Wait(ctx), context.DeadlineExceeded)
}

func TestFixedDelayZero(t *testing.T) {
	fd := NewFixedDelay(0)
	assert.NoError(t, fd.Wait(context.Background()))
	assert.Equal(t, time.Duration(0), fd.interval)
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow())

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tb.Wait(ctx), context.Canceled)
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(2, 100*time.Millisecond)

	assert.True(t, sw.Allow())
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())

	require.NoError(t, sw.Wait(context.Background()))

	sw.Reset()
	assert.Empty(t, sw.requests)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().RateLimit

	l, err := New(&cfg)
	require.NoError(t, err)
	fd, ok := l.(*FixedDelay)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, fd.interval)

	cfg.Strategy = "token_bucket"
	cfg.RequestsPerMinute = 60
	cfg.BurstSize = 2
	l, err = New(&cfg)
	require.NoError(t, err)
	tb, ok := l.(*TokenBucket)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, tb.refillPeriod)

	cfg.Strategy = "sliding_window"
	l, err = New(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &SlidingWindow{}, l)

	cfg.Strategy = "leaky"
	_, err = New(&cfg)
	assert.Error(t, err)
}
