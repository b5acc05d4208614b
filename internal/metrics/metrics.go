// Package metrics exposes Prometheus instrumentation for the
// processing pipeline and oracle clients.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service registers. All fields are
// safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	// DocumentsTotal counts finished documents by terminal status
	// and processing mode.
	DocumentsTotal *prometheus.CounterVec
	// ProcessingDuration observes end-to-end seconds per document.
	ProcessingDuration *prometheus.HistogramVec
	// OracleCallsTotal counts oracle invocations by provider,
	// operation and outcome.
	OracleCallsTotal *prometheus.CounterVec
	// InFlight gauges documents currently being processed.
	InFlight prometheus.Gauge
}

// New builds and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		DocumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docproc",
			Name:      "documents_total",
			Help:      "Documents processed, by terminal status and mode.",
		}, []string{"status", "mode"}),
		ProcessingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docproc",
			Name:      "processing_duration_seconds",
			Help:      "End-to-end processing time per document.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"mode"}),
		OracleCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docproc",
			Name:      "oracle_calls_total",
			Help:      "Oracle invocations, by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "docproc",
			Name:      "documents_in_flight",
			Help:      "Documents currently being processed.",
		}),
	}
	reg.MustRegister(m.DocumentsTotal, m.ProcessingDuration, m.OracleCallsTotal, m.InFlight)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
