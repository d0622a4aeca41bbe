// Package prometheus implements gias.Recorder with Prometheus metrics.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/gias"
	prometheuslib "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Compile-time interface verification.
var _ gias.Recorder = (*Metrics)(nil)

// Metrics records HTTP, patch and apply metrics on its own registry.
type Metrics struct {
	registry        *prometheuslib.Registry
	requestsTotal   *prometheuslib.CounterVec
	requestDuration *prometheuslib.HistogramVec
	patchesTotal    *prometheuslib.CounterVec
	appliesTotal    *prometheuslib.CounterVec
}

// NewMetrics creates Metrics with Go runtime and process collectors registered.
func NewMetrics() *Metrics {
	reg := prometheuslib.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheuslib.CounterOpts{
				Name: "gias_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheuslib.HistogramOpts{
				Name:    "gias_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"method", "route"},
		),
		patchesTotal: factory.NewCounterVec(
			prometheuslib.CounterOpts{
				Name: "gias_patch_outcomes_total",
				Help: "Total number of patch generation attempts by outcome status",
			},
			[]string{"status"},
		),
		appliesTotal: factory.NewCounterVec(
			prometheuslib.CounterOpts{
				Name: "gias_patch_applies_total",
				Help: "Total number of git apply runs by mode and result",
			},
			[]string{"mode", "result"},
		),
	}
}

// ObserveRequest records a completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObservePatchOutcome counts a patch generation result.
func (m *Metrics) ObservePatchOutcome(status gias.Status) {
	m.patchesTotal.WithLabelValues(string(status)).Inc()
}

// ObserveApply counts a patch application.
func (m *Metrics) ObserveApply(checkOnly, applied bool) {
	mode := "apply"
	if checkOnly {
		mode = "check"
	}
	result := "failed"
	if applied {
		result = "applied"
	}
	m.appliesTotal.WithLabelValues(mode, result).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheuslib.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
