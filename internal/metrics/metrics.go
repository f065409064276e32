// Package metrics defines the Prometheus instruments shared by the api,
// worker and monitoring binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsSubmitted counts prediction jobs accepted by the API.
	JobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metabolic_ninja_jobs_submitted_total",
		Help: "Number of prediction jobs accepted by the API.",
	})

	// JobsCompleted counts jobs finished by the worker, by terminal status.
	JobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metabolic_ninja_jobs_completed_total",
		Help: "Number of prediction jobs finished by the worker, by status.",
	}, []string{"status"})

	// JobDuration observes wall clock design job runtimes. Jobs run from
	// minutes up to the two hour timeout.
	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metabolic_ninja_job_duration_seconds",
		Help:    "Wall clock duration of design jobs.",
		Buckets: prometheus.ExponentialBuckets(30, 2, 10),
	})

	// QueueConnected reports whether the broker connection is established.
	QueueConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metabolic_ninja_queue_connected",
		Help: "Whether the RabbitMQ connection is currently established.",
	})

	// DiskFreeRatio is exported by the disk monitor beside the cache volume.
	DiskFreeRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metabolic_ninja_disk_free_ratio",
		Help: "Fraction of the watched data volume that is free.",
	})
)
