package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshTotal counts refresh runs by mode (full, incremental) and
	// outcome (success, error, skipped).
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_refresh_total",
		Help: "Number of channel refresh runs",
	}, []string{"mode", "status"})

	// RefreshDuration observes wall-clock refresh time by mode.
	RefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_refresh_duration_seconds",
		Help:    "Duration of channel refresh runs",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"mode"})

	// VideosProcessed counts videos written during refresh runs by mode.
	VideosProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_refresh_videos_processed_total",
		Help: "Number of videos written during refresh runs",
	}, []string{"mode"})

	// CacheHits and CacheMisses track read-through cache effectiveness.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cache_hits_total",
		Help: "Number of cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cache_misses_total",
		Help: "Number of cache misses",
	})

	// YouTubeAPICalls counts outbound Data API calls by endpoint and outcome.
	YouTubeAPICalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_youtube_api_calls_total",
		Help: "Number of YouTube Data API calls",
	}, []string{"endpoint", "status"})
)
