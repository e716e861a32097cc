package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Effect Job Metrics
	EffectJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfx_effect_jobs_total",
			Help: "Total number of effect jobs by effect and final status",
		},
		[]string{"effect", "status"},
	)

	EffectJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vfx_effect_job_duration_seconds",
			Help:    "Effect job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 14), // 0.5s to ~68 minutes
		},
		[]string{"effect", "strategy"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vfx_jobs_in_progress",
			Help: "Number of effect jobs currently being processed",
		},
	)

	// Frame Stream Metrics
	FramesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfx_frames_processed_total",
			Help: "Total number of frames transformed by per-frame effects",
		},
		[]string{"effect"},
	)

	// Batch Metrics
	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfx_batch_items_total",
			Help: "Total number of batch items by outcome",
		},
		[]string{"effect", "outcome"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vfx_batch_duration_seconds",
			Help:    "Batch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)

	// Input Metrics
	InputSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vfx_input_size_bytes",
			Help:    "Size of accepted source videos in bytes",
			Buckets: prometheus.ExponentialBuckets(1024*1024, 2, 10), // 1MB to 512MB
		},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfx_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageBytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfx_storage_bytes_transferred_total",
			Help: "Total bytes transferred to/from storage",
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfx_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfx_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfx_errors_total",
			Help: "Total number of errors by component and kind",
		},
		[]string{"component", "kind"},
	)
)

// RecordJobStarted marks an effect job as running
func RecordJobStarted() {
	JobsInProgress.Inc()
}

// RecordJobFinished records the outcome of an effect job
func RecordJobFinished(effect, strategy, status string, duration float64) {
	JobsInProgress.Dec()
	EffectJobsTotal.WithLabelValues(effect, status).Inc()
	EffectJobDuration.WithLabelValues(effect, strategy).Observe(duration)
}

// RecordFrames adds transformed frames for an effect
func RecordFrames(effect string, frames int) {
	FramesProcessedTotal.WithLabelValues(effect).Add(float64(frames))
}

// RecordBatchItem records a single settled batch item
func RecordBatchItem(effect string, succeeded bool) {
	outcome := "failed"
	if succeeded {
		outcome = "succeeded"
	}
	BatchItemsTotal.WithLabelValues(effect, outcome).Inc()
}

// RecordBatch records the duration of a whole batch
func RecordBatch(duration float64) {
	BatchDuration.Observe(duration)
}

// RecordInputSize records the size of an accepted source
func RecordInputSize(size int64) {
	InputSizeBytes.Observe(float64(size))
}

// RecordStorageOperation records storage operation metrics
func RecordStorageOperation(operation, status string, bytesTransferred int64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	if bytesTransferred > 0 {
		StorageBytesTransferred.WithLabelValues(operation).Add(float64(bytesTransferred))
	}
}

// RecordCacheAccess records cache hit/miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordError records an error occurrence
func RecordError(component, kind string) {
	ErrorsTotal.WithLabelValues(component, kind).Inc()
}

