package observability

import (
	"bytes"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for command and query execution.
// Each instance owns a private registry so tests can create as many as
// they like.
type Metrics struct {
	registry *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	QueriesTotal    *prometheus.CounterVec
	QueryCacheHits  prometheus.Counter
}

// NewMetrics creates and registers the collectors under namespace
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of commands executed",
			},
			[]string{"command", "outcome"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command execution duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"command"},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of queries executed",
			},
			[]string{"query", "outcome"},
		),
		QueryCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_hits_total",
				Help:      "Total number of queries answered from the cache",
			},
		),
	}

	registry.MustRegister(
		m.CommandsTotal,
		m.CommandDuration,
		m.QueriesTotal,
		m.QueryCacheHits,
	)
	return m
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordCommand counts one command execution and observes its duration
func (m *Metrics) RecordCommand(command, outcome string, d time.Duration) {
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordQuery counts one query execution
func (m *Metrics) RecordQuery(query, outcome string) {
	m.QueriesTotal.WithLabelValues(query, outcome).Inc()
}

// RecordCacheHit counts a query served from the cache
func (m *Metrics) RecordCacheHit() {
	m.QueryCacheHits.Inc()
}

// WriteText renders every collected metric in the Prometheus text format
func (m *Metrics) WriteText() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
