// Package metrics counts the DDL work done by the applier on a private
// Prometheus registry. A nil *Metrics is valid and records nothing, so
// callers never need to check whether metrics are enabled.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Table outcomes.
const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

// Metrics holds the tablesmith collectors.
type Metrics struct {
	reg        *prometheus.Registry
	statements *prometheus.CounterVec // tablesmith_statements_total{category}
	tables     *prometheus.CounterVec // tablesmith_tables_total{outcome}
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablesmith",
			Name:      "statements_total",
			Help:      "DDL and seed statements executed, by category.",
		}, []string{"category"}),
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablesmith",
			Name:      "tables_total",
			Help:      "Tables processed, by outcome.",
		}, []string{"outcome"}),
	}
	m.reg.MustRegister(m.statements, m.tables)
	return m
}

// Statement counts one executed statement.
func (m *Metrics) Statement(category string) {
	if m == nil {
		return
	}
	m.statements.WithLabelValues(category).Inc()
}

// Table counts one table outcome.
func (m *Metrics) Table(outcome string) {
	if m == nil {
		return
	}
	m.tables.WithLabelValues(outcome).Inc()
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// WriteFile writes the current values in the text exposition format, for
// the node_exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}

// Push sends the current values to a Prometheus Pushgateway.
func (m *Metrics) Push(gatewayURL, job string) error {
	if gatewayURL == "" {
		return fmt.Errorf("metrics: gateway URL is required")
	}
	if job == "" {
		job = "tablesmith"
	}
	if err := push.New(gatewayURL, job).Gatherer(m.reg).Push(); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", gatewayURL, err)
	}
	return nil
}
