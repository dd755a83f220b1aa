// Package metrics provides Prometheus metrics for the proxy.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "econ_proxy"

// Latency buckets in seconds. Upstream calls to FRED and FMP routinely take
// several seconds, so the tail extends to the default upstream timeout.
var latencyBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2, 5, 10, 30}

// Metrics holds the collectors registered on a private registry.
// A nil *Metrics is valid; every recording method is then a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  *prometheus.HistogramVec
	UpstreamResponses *prometheus.CounterVec
	UpstreamFailures  *prometheus.CounterVec
	RejectedParams    *prometheus.CounterVec
}

// New builds the collectors and registers them together with the Go runtime
// and process collectors.
func New() *Metrics {
	httpLabels := []string{"method", "status_code", "path_prefix"}

	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Inbound HTTP requests.",
		}, httpLabels),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Inbound HTTP request latency.",
			Buckets: latencyBuckets,
		}, httpLabels),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_in_flight",
			Help: "Inbound HTTP requests currently being served.",
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "upstream", Name: "request_duration_seconds",
			Help:    "Latency of calls to FRED and FMP, including failed calls.",
			Buckets: latencyBuckets,
		}, []string{"provider"}),
		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "upstream", Name: "responses_total",
			Help: "Upstream responses by provider and status code.",
		}, []string{"provider", "status_code"}),
		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "upstream", Name: "failures_total",
			Help: "Upstream calls that produced no HTTP response.",
		}, []string{"provider"}),
		RejectedParams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rejected_params_total",
			Help: "Requests answered 400 by provider and offending parameter.",
		}, []string{"provider", "param"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.UpstreamFailures,
		m.RejectedParams,
	)
	return m
}

// ObserveRequest records one finished inbound request. Method and path are
// normalized so label cardinality stays bounded.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	labels := []string{NormalizeMethod(method), strconv.Itoa(status), NormalizePath(path)}
	m.RequestsTotal.WithLabelValues(labels...).Inc()
	m.RequestDuration.WithLabelValues(labels...).Observe(elapsed.Seconds())
}

// ObserveUpstream records one upstream call. A status of 0 means the call
// failed before any response arrived.
func (m *Metrics) ObserveUpstream(provider string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if status == 0 {
		m.UpstreamFailures.WithLabelValues(provider).Inc()
		return
	}
	m.UpstreamResponses.WithLabelValues(provider, strconv.Itoa(status)).Inc()
}

// RejectParam counts a request refused because of param.
func (m *Metrics) RejectParam(provider, param string) {
	if m == nil {
		return
	}
	m.RejectedParams.WithLabelValues(provider, param).Inc()
}

// NormalizeMethod maps anything the proxy could plausibly see to itself and
// the rest to "other".
func NormalizeMethod(method string) string {
	switch method {
	case "GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS":
		return method
	}
	return "other"
}

// routes are the only path labels emitted; everything else is "other".
var routes = map[string]bool{
	"/api/fred":     true,
	"/api/fmp":      true,
	"/healthz":      true,
	"/proxy/status": true,
	"/metrics":      true,
}

// NormalizePath returns path when it is a served route, ignoring a single
// trailing slash.
func NormalizePath(path string) string {
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if routes[path] {
		return path
	}
	return "other"
}
