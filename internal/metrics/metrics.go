// Package metrics defines the Prometheus collectors for the service.
// All methods are safe on a nil *Metrics so library callers can skip
// instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "goalgraph"

// Metrics holds every collector the service reports.
type Metrics struct {
	// RequestsTotal counts HTTP requests by route and status code.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration measures HTTP handling time by route.
	RequestDuration *prometheus.HistogramVec
	// ComputeDuration measures engine operations (validate, timeline,
	// optimize) by outcome.
	ComputeDuration *prometheus.HistogramVec
	// CacheLookups counts result-cache lookups by operation and result.
	CacheLookups *prometheus.CounterVec
	// CyclesDetected counts cycles reported by validation.
	CyclesDetected prometheus.Counter
	// GraphGoals observes how many goals each computation covered.
	GraphGoals prometheus.Histogram
	// EdgeMutations counts dependency writes by action.
	EdgeMutations *prometheus.CounterVec
}

// New registers the collectors with reg. Pass a fresh registry in tests to
// avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ComputeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "compute_duration_seconds",
			Help:      "Engine computation latency by operation and outcome.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2},
		}, []string{"operation", "outcome"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by operation and result (hit, miss).",
		}, []string{"operation", "result"}),
		CyclesDetected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_detected_total",
			Help:      "Dependency cycles reported by validation.",
		}),
		GraphGoals: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "graph_goals",
			Help:      "Goals per computation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		EdgeMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "dependency_mutations_total",
			Help:      "Dependency edge writes by action and outcome.",
		}, []string{"action", "outcome"}),
	}
}

func (m *Metrics) ObserveRequest(route string, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveCompute(op string, err error, goals int, d time.Duration) {
	if m == nil {
		return
	}
	m.ComputeDuration.WithLabelValues(op, outcome(err)).Observe(d.Seconds())
	m.GraphGoals.Observe(float64(goals))
}

func (m *Metrics) CacheResult(op string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(op, result).Inc()
}

func (m *Metrics) AddCycles(n int) {
	if m == nil || n == 0 {
		return
	}
	m.CyclesDetected.Add(float64(n))
}

func (m *Metrics) EdgeMutation(action string, err error) {
	if m == nil {
		return
	}
	m.EdgeMutations.WithLabelValues(action, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
