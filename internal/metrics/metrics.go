// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reg prometheus.Registerer

	analyzerDuration *prometheus.HistogramVec
	analyzerFailures *prometheus.CounterVec
	suggestions      *prometheus.CounterVec
	assistRequests   *prometheus.CounterVec
	tasksProcessed   *prometheus.CounterVec
}

// New registers the instruments on reg under namespace
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		analyzerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyzer_duration_seconds",
			Help:      "Time spent in each analyzer stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"analyzer"}),
		analyzerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzer_failures_total",
			Help:      "Analyzer stages that failed and were skipped.",
		}, []string{"analyzer"}),
		suggestions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_total",
			Help:      "Suggestions returned, by type.",
		}, []string{"type"}),
		assistRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assist_requests_total",
			Help:      "AI assist calls, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		tasksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_tasks_processed_total",
			Help:      "Background tasks processed, by kind and status.",
		}, []string{"kind", "status"}),
	}
}

// RegisterDBStats exports connection pool statistics for db
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) error {
	if m == nil {
		return nil
	}
	return m.reg.Register(collectors.NewDBStatsCollector(db, name))
}

// ObserveAnalyzer records the duration of one analyzer stage
func (m *Metrics) ObserveAnalyzer(name string, d time.Duration) {
	if m == nil {
		return
	}
	m.analyzerDuration.WithLabelValues(name).Observe(d.Seconds())
}

// AnalyzerFailed counts a failed analyzer stage
func (m *Metrics) AnalyzerFailed(name string) {
	if m == nil {
		return
	}
	m.analyzerFailures.WithLabelValues(name).Inc()
}

// AddSuggestions counts n suggestions of the given type
func (m *Metrics) AddSuggestions(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.suggestions.WithLabelValues(kind).Add(float64(n))
}

// AssistRequest counts an AI assist call
func (m *Metrics) AssistRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.assistRequests.WithLabelValues(operation, outcome).Inc()
}

// TaskProcessed counts a finished background task
func (m *Metrics) TaskProcessed(kind, status string) {
	if m == nil {
		return
	}
	m.tasksProcessed.WithLabelValues(kind, status).Inc()
}
