package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scte_signal"

// Metrics holds Prometheus counters and gauges for the signal service.
type Metrics struct {
	registry             *prometheus.Registry
	requestsTotal        prometheus.Counter
	errorsTotal          prometheus.Counter
	manifestUpdatesTotal prometheus.Counter
	declarationsTotal    prometheus.Counter
	signalsFiredTotal    prometheus.Counter
	eventsPrunedTotal    prometheus.Counter
	manifestErrorsTotal  prometheus.Counter
	activeSessions       prometheus.Gauge
}

// New creates and registers Prometheus metrics for the service on a private registry.
func New() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}

	m := &Metrics{
		registry:             prometheus.NewRegistry(),
		requestsTotal:        counter("requests_total", "Total number of HTTP requests received"),
		errorsTotal:          counter("errors_total", "Total number of HTTP responses with error status (4xx or 5xx)"),
		manifestUpdatesTotal: counter("manifest_updates_total", "Manifest snapshots merged into a session"),
		declarationsTotal:    counter("declarations_observed_total", "Qualifying event declarations observed across manifest updates"),
		signalsFiredTotal:    counter("signals_fired_total", "Signal events that entered their window"),
		eventsPrunedTotal:    counter("events_pruned_total", "Events dropped after their retention threshold"),
		manifestErrorsTotal:  counter("manifest_errors_total", "Manifests carrying a fatal error marker"),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of open media sessions",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.manifestUpdatesTotal,
		m.declarationsTotal,
		m.signalsFiredTotal,
		m.eventsPrunedTotal,
		m.manifestErrorsTotal,
		m.activeSessions,
	)
	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncManifestUpdates increments the manifest updates counter.
func (m *Metrics) IncManifestUpdates() {
	m.manifestUpdatesTotal.Inc()
}

// IncDeclarations increments the observed declarations counter.
func (m *Metrics) IncDeclarations() {
	m.declarationsTotal.Inc()
}

// IncSignalsFired increments the fired signals counter.
func (m *Metrics) IncSignalsFired() {
	m.signalsFiredTotal.Inc()
}

// AddPruned adds n to the pruned events counter.
func (m *Metrics) AddPruned(n int) {
	if n > 0 {
		m.eventsPrunedTotal.Add(float64(n))
	}
}

// IncManifestErrors increments the manifest errors counter.
func (m *Metrics) IncManifestErrors() {
	m.manifestErrorsTotal.Inc()
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	scrape := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		scrape.ServeHTTP(w, r)
	})
}
