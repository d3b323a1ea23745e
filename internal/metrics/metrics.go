// Package metrics exposes Prometheus collectors for providers, scorecard writes and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider call outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

// Metrics groups the collectors registered on one registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	providerCalls    *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	scorecardWrites  *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// New creates collectors on a fresh registry, along with Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sankalp",
			Name:      "provider_calls_total",
			Help:      "Score provider invocations by dimension and outcome.",
		}, []string{"dimension", "outcome"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sankalp",
			Name:      "provider_duration_seconds",
			Help:      "Score provider latency by dimension.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"dimension"}),
		scorecardWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sankalp",
			Name:      "scorecard_writes_total",
			Help:      "Successful scorecard writes by changed field.",
		}, []string{"dimension"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sankalp",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	m.registry.MustRegister(
		m.providerCalls,
		m.providerDuration,
		m.scorecardWrites,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveProvider records one provider call.
func (m *Metrics) ObserveProvider(dimension, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(dimension, outcome).Inc()
	m.providerDuration.WithLabelValues(dimension).Observe(elapsed.Seconds())
}

// ObserveScorecardWrite records a successful write of one scorecard field.
func (m *Metrics) ObserveScorecardWrite(field string) {
	if m == nil {
		return
	}
	m.scorecardWrites.WithLabelValues(field).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts every request passing through next.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.ObserveHTTP(r.Method, rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush supports streaming handlers behind the middleware.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
