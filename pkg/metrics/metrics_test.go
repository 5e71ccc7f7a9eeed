package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("v1.1/Followers/", 200, 10*time.Millisecond)
	m.ObserveRequest("v1.1/Followers/", 204, 10*time.Millisecond)
	m.ObserveRequest("v1.1/Followers/", 503, time.Second)
	m.ObserveRequest("v2/UsersByRestIds/", 0, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("v1.1/Followers/", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("v1.1/Followers/", "5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("v2/UsersByRestIds/", "unreachable")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestPipelineCounters(t *testing.T) {
	m := New()
	m.PageFetched(200)
	m.PageFetched(13)
	m.ChunkDone(false)
	m.ChunkDone(true)
	m.Retry("page")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.SetRecords("new", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pages))
	assert.Equal(t, 213.0, testutil.ToFloat64(m.accounts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chunks.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues("page")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.records.WithLabelValues("new")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.PageFetched(3)

	path := filepath.Join(t.TempDir(), "xfollowers.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "xfollowers_accounts_total 3")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.PageFetched(1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.pages))
	assert.NotSame(t, a.Registry(), b.Registry())
}
