package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuditEventsEmitted tracks audit events handed to the logger, by
	// action and result.
	AuditEventsEmitted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "events_emitted_total",
			Help:      "Total number of audit events emitted",
		},
		[]string{"action", "result"},
	)

	// AuditSinkFailures tracks sink write failures, by sink name.
	AuditSinkFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "sink_failures_total",
			Help:      "Total number of audit sink write failures",
		},
		[]string{"sink"},
	)

	// AuditSIEMForwarded tracks events routed to the SIEM sink.
	AuditSIEMForwarded = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "siem_forwarded_total",
			Help:      "Total number of audit events forwarded to the SIEM sink",
		},
	)
)
