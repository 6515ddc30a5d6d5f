// Package metrics exposes the protocol's Prometheus collectors: session
// lifecycle, handshake stages, frame processing, file transfer throughput,
// replay detection, and audit pipeline health.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lsftp"

// Registry is the collector registry all of this package's metrics are
// registered against. A dedicated registry (rather than the global default)
// keeps a server and a client linked into the same process from colliding
// on metric names.
var Registry = prometheus.NewRegistry()

// Handler returns an HTTP handler serving Registry in the Prometheus
// exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// StartServer runs a standalone metrics HTTP server on addr until the
// process exits or the server errors.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
