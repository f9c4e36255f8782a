package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClassificationsTotal tracks programs classified per relevance tier
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relevance_classifications_total",
			Help: "Total number of program classifications",
		},
		[]string{"tier"},
	)

	// CacheHits tracks relevance cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relevance_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses tracks relevance cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relevance_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// CacheEvictions tracks LRU and memory-pressure evictions
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relevance_cache_evictions_total",
			Help: "Total number of cache evictions",
		},
	)

	// CacheSize tracks the current number of cached entries
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relevance_cache_size",
			Help: "Current number of cache entries",
		},
	)

	// CacheMemoryBytes tracks the estimated cache memory footprint
	CacheMemoryBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relevance_cache_memory_bytes",
			Help: "Estimated cache memory usage in bytes",
		},
	)

	// InvalidationsTotal tracks invalidation operations per strategy
	InvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relevance_invalidations_total",
			Help: "Total number of cache invalidation operations",
		},
		[]string{"strategy"},
	)

	// InvalidationDuration tracks invalidation latency per strategy
	InvalidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relevance_invalidation_duration_seconds",
			Help:    "Cache invalidation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// ChangeEventsTotal tracks persistence change events per kind
	ChangeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relevance_change_events_total",
			Help: "Total number of program change events received",
		},
		[]string{"kind"},
	)
)
