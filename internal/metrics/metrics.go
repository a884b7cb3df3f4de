package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_streamer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_streamer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Transcode metrics
var (
	TranscodeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_transcode_jobs_total",
			Help: "Total number of transcode jobs by outcome",
		},
		[]string{"status"}, // "success", "error", "canceled"
	)

	TranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_streamer_transcode_duration_seconds",
			Help:    "Time taken to transcode a video into the HLS ladder",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	TranscodeActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_transcode_active_jobs",
			Help: "Number of transcode jobs currently running",
		},
	)

	TranscodeQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_streamer_transcode_queue_depth",
			Help: "Number of transcode jobs waiting for a worker",
		},
	)
)

// Duration resolution metrics
var (
	DurationResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_duration_resolutions_total",
			Help: "Total number of duration resolutions by strategy and outcome",
		},
		[]string{"strategy", "status"}, // strategy: "probe", "playlist"; status: "success", "error"
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_streamer_probe_duration_seconds",
			Help:    "ffprobe invocation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by outcome",
		},
		[]string{"status"}, // "success", "error", "cached"
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_streamer_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Lifecycle metrics
var (
	DeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_streamer_deletions_total",
			Help: "Total number of video deletions by outcome",
		},
		[]string{"status"}, // "complete", "partial"
	)

	DeletionArtifactFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_streamer_deletion_artifact_failures_total",
			Help: "Total number of artifacts that failed to delete",
		},
	)
)

// InitializeMetrics pre-populates expected label combinations so that every
// metric is exported from the first Prometheus scrape. Call once at startup.
func InitializeMetrics() {
	for _, status := range []string{"success", "error", "canceled"} {
		TranscodeJobsTotal.WithLabelValues(status)
	}

	for _, strategy := range []string{"probe", "playlist"} {
		for _, status := range []string{"success", "error"} {
			DurationResolutionsTotal.WithLabelValues(strategy, status)
		}
	}

	for _, status := range []string{"success", "error", "cached"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"complete", "partial"} {
		DeletionsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "insert_video", "get_video",
		"list_videos", "list_videos_by_status", "update_duration", "update_thumbnail",
		"update_status", "delete_video"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
