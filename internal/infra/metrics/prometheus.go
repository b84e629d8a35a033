package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortcut_jobs_processed_total",
		Help: "Total number of cut detection jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shortcut_job_processing_duration_seconds",
		Help:    "Duration of cut detection pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortcut_frames_decoded_total",
		Help: "Total number of raw frames decoded across all jobs",
	})

	CutsDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortcut_cuts_detected_total",
		Help: "Total number of scene cuts detected across all jobs",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shortcut_active_workers",
		Help: "Number of currently active workers scanning videos",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortcut_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
