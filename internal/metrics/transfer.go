package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersStarted tracks file transfers opened, by direction.
	TransfersStarted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfers",
			Name:      "started_total",
			Help:      "Total number of file transfers started",
		},
		[]string{"direction"}, // upload, download
	)

	// TransfersCompleted tracks file transfers that reached a final state.
	TransfersCompleted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfers",
			Name:      "completed_total",
			Help:      "Total number of file transfers completed",
		},
		[]string{"direction", "status"}, // upload/download, success/failure/aborted
	)

	// TransfersActive tracks file transfers currently in flight.
	TransfersActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transfers",
			Name:      "active",
			Help:      "Number of file transfers currently in flight",
		},
	)

	// BytesTransferred tracks payload bytes moved, by direction.
	BytesTransferred = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfers",
			Name:      "bytes_total",
			Help:      "Total number of file payload bytes transferred",
		},
		[]string{"direction"}, // upload, download
	)

	// ChunkRetries tracks chunk resends triggered by a NACK or timeout.
	ChunkRetries = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfers",
			Name:      "chunk_retries_total",
			Help:      "Total number of chunk resends triggered by NACK or timeout",
		},
	)

	// TransferDuration tracks the wall-clock duration of completed transfers.
	TransferDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transfers",
			Name:      "duration_seconds",
			Help:      "File transfer duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 18), // 10ms to ~22min
		},
		[]string{"direction"},
	)
)
