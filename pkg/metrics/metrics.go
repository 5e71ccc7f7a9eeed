// Package metrics collects Prometheus counters for one fetch run.
//
// The registry is private to the run rather than the process default, so
// the CLI can dump it in textfile format when the run ends and tests can
// assert on a fresh set of counters.
//
// Metrics:
//   - xfollowers_requests_total{endpoint, status} (Counter): supplier requests by endpoint and status class
//   - xfollowers_request_duration_seconds{endpoint} (Histogram): supplier request latency
//   - xfollowers_pages_total (Counter): follower pages fetched
//   - xfollowers_accounts_total (Counter): raw accounts collected
//   - xfollowers_chunks_total{outcome} (Counter): detail chunks by outcome (ok, failed)
//   - xfollowers_retries_total{operation} (Counter): retries by operation (page, chunk)
//   - xfollowers_cache_lookups_total{result} (Counter): detail cache hits and misses
//   - xfollowers_records{stage} (Gauge): record counts per pipeline stage
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters of one run
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	pages        prometheus.Counter
	accounts     prometheus.Counter
	chunks       *prometheus.CounterVec
	retries      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	records      *prometheus.GaugeVec
}

// New registers a fresh set of metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "xfollowers_requests_total",
			Help: "Supplier requests by endpoint and status class",
		}, []string{"endpoint", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xfollowers_request_duration_seconds",
			Help:    "Supplier request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		pages: factory.NewCounter(prometheus.CounterOpts{
			Name: "xfollowers_pages_total",
			Help: "Follower pages fetched",
		}),
		accounts: factory.NewCounter(prometheus.CounterOpts{
			Name: "xfollowers_accounts_total",
			Help: "Raw accounts collected from pages",
		}),
		chunks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "xfollowers_chunks_total",
			Help: "Detail lookup chunks by outcome",
		}, []string{"outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "xfollowers_retries_total",
			Help: "Retried supplier operations",
		}, []string{"operation"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "xfollowers_cache_lookups_total",
			Help: "Detail cache lookups by result",
		}, []string{"result"}),
		records: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xfollowers_records",
			Help: "Record counts per pipeline stage",
		}, []string{"stage"}),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one supplier request. Status 0 means unreachable.
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	m.requests.WithLabelValues(endpoint, statusClass(status)).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) PageFetched(accounts int) {
	m.pages.Inc()
	m.accounts.Add(float64(accounts))
}

func (m *Metrics) ChunkDone(failed bool) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	m.chunks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Retry(operation string) {
	m.retries.WithLabelValues(operation).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) SetRecords(stage string, n int) {
	m.records.WithLabelValues(stage).Set(float64(n))
}

// WriteTextfile writes every metric in the text exposition format, for the
// node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func statusClass(status int) string {
	if status == 0 {
		return "unreachable"
	}
	return strconv.Itoa(status/100) + "xx"
}
