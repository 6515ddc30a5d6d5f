package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesProcessed tracks frames decoded off the wire, by message type.
	FramesProcessed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "processed_total",
			Help:      "Total number of frames processed",
		},
		[]string{"message_type", "status"}, // file_data/heartbeat/etc, success/failure
	)

	// FrameDecodeDuration tracks the time spent decoding a frame's
	// authenticated payload.
	FrameDecodeDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "decode_duration_seconds",
			Help:      "Frame decode and AEAD-open duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~205ms
		},
	)

	// FrameSize tracks on-wire frame sizes.
	FrameSize = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "size_bytes",
			Help:      "Frame size in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 12), // 64B to 256MB
		},
		[]string{"direction"}, // inbound, outbound
	)

	// FrameAuthFailures tracks AEAD authentication tag failures on decode.
	FrameAuthFailures = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "auth_failures_total",
			Help:      "Total number of frames that failed AEAD authentication",
		},
	)
)
