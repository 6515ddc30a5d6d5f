package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReplayDrops tracks sequence numbers rejected by the replay window,
	// split by why they were rejected.
	ReplayDrops = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "drops_total",
			Help:      "Total number of frames dropped by the replay guard",
		},
		[]string{"reason"}, // too_old, already_seen
	)

	// ReplayWindowHighWater tracks the highest sequence number accepted
	// per active session's replay window, as a gauge sampled on update.
	ReplayWindowHighWater = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "window_high_water",
			Help:      "Highest sequence number accepted by the most recently updated replay window",
		},
	)
)
