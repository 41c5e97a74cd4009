// Package metrics exports service events as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/triage/internal/app"
)

// Metrics implements app.Observer on a private registry.
type Metrics struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	rollbacks *prometheus.CounterVec
	store     *prometheus.HistogramVec
	storeErrs *prometheus.CounterVec
	scoring   *prometheus.HistogramVec
	requests  *prometheus.CounterVec
}

// New registers the triage collectors and the Go runtime collectors on a new
// registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_mutations_total",
			Help: "Queue and intake mutations by action and outcome.",
		}, []string{"action", "outcome"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_rollbacks_total",
			Help: "Local recoveries after a failed store write, by mode.",
		}, []string{"mode"}),
		store: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triage_store_seconds",
			Help:    "Record store call latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		storeErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_store_errors_total",
			Help: "Failed record store calls by operation.",
		}, []string{"op"}),
		scoring: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triage_scoring_seconds",
			Help:    "Scoring request latency by result.",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_score_requests_total",
			Help: "Requests served by the scoring endpoint by status code.",
		}, []string{"code"}),
	}
	m.registry.MustRegister(
		m.mutations,
		m.rollbacks,
		m.store,
		m.storeErrs,
		m.scoring,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// MutationFinished counts one mutation attempt.
func (m *Metrics) MutationFinished(action, outcome string) {
	m.mutations.WithLabelValues(action, outcome).Inc()
}

// RolledBack counts one local recovery.
func (m *Metrics) RolledBack(mode string) {
	m.rollbacks.WithLabelValues(mode).Inc()
}

// StoreCall observes one record store call.
func (m *Metrics) StoreCall(op string, elapsed time.Duration, err error) {
	m.store.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		m.storeErrs.WithLabelValues(op).Inc()
	}
}

// Scored observes one scoring request.
func (m *Metrics) Scored(elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.scoring.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ScoreRequest counts one request to the scoring endpoint.
func (m *Metrics) ScoreRequest(code string) {
	m.requests.WithLabelValues(code).Inc()
}

var _ app.Observer = (*Metrics)(nil)
