// Package metrics provides observability for database-kit using Prometheus
// metrics. It exposes counters, gauges, and histograms for connection
// acquisition, request coalescing, and batch release, plus a small
// per-cache Collector that components use to record them.
//
// # Basic Usage
//
//	collector := metrics.NewCacheCollector("request_scope")
//
//	start := time.Now()
//	conn, err := pool.Acquire(ctx)
//	collector.ObserveAcquire("db1", err, time.Since(start))
//
//	// A caller that piggybacked on another caller's in-flight acquisition
//	collector.ObserveCoalesced("db1")
//
// All metrics are registered automatically against the default registry via
// promauto and are safe for concurrent use.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AcquisitionsTotal counts pool acquisitions performed by cache owners.
	// Labels: cache (cache name), pool (pool key), status (success/failure)
	AcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbkit_acquisitions_total",
			Help: "Total number of pool acquisitions performed",
		},
		[]string{"cache", "pool", "status"},
	)

	// CoalescedTotal counts callers that waited on another caller's
	// in-flight acquisition instead of triggering their own.
	// Labels: cache, pool
	CoalescedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbkit_coalesced_total",
			Help: "Total number of callers coalesced onto an in-flight acquisition",
		},
		[]string{"cache", "pool"},
	)

	// ReleasesTotal counts connections handed back to their pool by a
	// batch release. Labels: cache
	ReleasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbkit_releases_total",
			Help: "Total number of connections released back to their pools",
		},
		[]string{"cache"},
	)

	// MissingReleaseTotal counts drained cache entries that had no release
	// binding, usually because their acquisition failed. Labels: cache
	MissingReleaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbkit_missing_release_total",
			Help: "Total number of drained entries without a release binding",
		},
		[]string{"cache"},
	)

	// CachedConnections tracks the number of entries currently held by a
	// cache, including in-flight acquisitions. Labels: cache
	CachedConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbkit_cached_connections",
			Help: "Number of connections currently cached",
		},
		[]string{"cache"},
	)

	// AcquireLatency tracks the distribution of owner-side acquisition
	// latencies in seconds. Labels: cache, pool
	AcquireLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dbkit_acquire_latency_seconds",
			Help: "Pool acquisition latency in seconds",
			Buckets: []float64{
				.0001, // in-process pools
				.001,
				.005,
				.01, // warm local database
				.05,
				.1,
				.5,
				1, // cold remote database
				5,
			},
		},
		[]string{"cache", "pool"},
	)
)

// CacheCollector records metrics for one connection cache. Each cache
// creates its own collector; the cache name becomes the "cache" label on
// every metric it records.
type CacheCollector struct {
	cache string
}

// NewCacheCollector creates a collector labeled with the given cache name.
func NewCacheCollector(cache string) *CacheCollector {
	return &CacheCollector{cache: cache}
}

// ObserveAcquire records one owner-side acquisition attempt with its
// outcome and latency.
func (c *CacheCollector) ObserveAcquire(pool string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	AcquisitionsTotal.WithLabelValues(c.cache, pool, status).Inc()
	AcquireLatency.WithLabelValues(c.cache, pool).Observe(elapsed.Seconds())
}

// ObserveCoalesced records a caller that reused an in-flight or completed
// acquisition for its key.
func (c *CacheCollector) ObserveCoalesced(pool string) {
	CoalescedTotal.WithLabelValues(c.cache, pool).Inc()
}

// ObserveReleases records the size of one batch release.
func (c *CacheCollector) ObserveReleases(n int) {
	ReleasesTotal.WithLabelValues(c.cache).Add(float64(n))
}

// ObserveMissingRelease records a drained entry that carried no release
// binding.
func (c *CacheCollector) ObserveMissingRelease() {
	MissingReleaseTotal.WithLabelValues(c.cache).Inc()
}

// SetCached updates the cached-connections gauge.
func (c *CacheCollector) SetCached(n int) {
	CachedConnections.WithLabelValues(c.cache).Set(float64(n))
}
