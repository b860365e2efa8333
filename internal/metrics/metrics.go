package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// System metrics
	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "extractor_system_memory_bytes",
		Help: "Current heap allocation",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "extractor_system_goroutines",
		Help: "Number of goroutines",
	})

	// Pipeline metrics
	FilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_files_total",
			Help: "Files seen by the batch pipeline, by outcome status",
		},
		[]string{"status"},
	)

	EntitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_entities_total",
			Help: "Entities written to reports, by label",
		},
		[]string{"label"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extractor_batch_duration_seconds",
			Help:    "Wall time spent processing one batch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"source"},
	)

	ExportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_export_errors_total",
			Help: "Failed report exports, by format",
		},
		[]string{"format"},
	)

	QueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "extractor_queue_length",
		Help: "Watched-folder batches waiting for a worker",
	})

	CleanupRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extractor_cleanup_removed_total",
		Help: "Expired output files removed by the sweeper",
	})
)

// UpdateSystemMetrics refreshes the system gauges.
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}
