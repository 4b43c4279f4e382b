// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"ecostock/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline run outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeFallback    = "fallback"
	OutcomeDataError   = "data_error"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Metrics groups the collectors used across the service. A nil *Metrics is
// valid and records nothing, which keeps tests free of registries.
type Metrics struct {
	registry *prometheus.Registry

	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	recordsByRisk    *prometheus.GaugeVec
	storeWrites      *prometheus.CounterVec
	requestCounter   *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry, along
// with the Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := NewWithRegisterer(registry)
	m.registry = registry
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// NewWithRegisterer creates the collectors and registers them on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecostock_pipeline_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		pipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ecostock_pipeline_duration_seconds",
				Help:    "Duration of pipeline runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		recordsByRisk: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ecostock_records_by_risk",
				Help: "Records per risk level in the most recent pipeline run",
			},
			[]string{"risk_level"},
		),
		storeWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecostock_store_writes_total",
				Help: "Total number of record store writes by operation and status",
			},
			[]string{"operation", "status"},
		),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecostock_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecostock_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.pipelineRuns,
		m.pipelineDuration,
		m.recordsByRisk,
		m.storeWrites,
		m.requestCounter,
		m.requestLatency,
	)

	return m
}

// ObservePipeline records one pipeline run.
func (m *Metrics) ObservePipeline(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
	m.pipelineDuration.Observe(elapsed.Seconds())
}

// SetRiskCounts replaces the per-level gauges with the counts in records.
func (m *Metrics) SetRiskCounts(records []model.AnnotatedRecord) {
	if m == nil {
		return
	}
	counts := map[model.RiskLevel]int{model.RiskHigh: 0, model.RiskMedium: 0, model.RiskLow: 0}
	for _, rec := range records {
		counts[rec.RiskLevel]++
	}
	for level, n := range counts {
		m.recordsByRisk.WithLabelValues(string(level)).Set(float64(n))
	}
}

// ObserveStoreWrite records an append or delete against the record store.
func (m *Metrics) ObserveStoreWrite(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.storeWrites.WithLabelValues(operation, status).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format. Metrics
// built with NewWithRegisterer fall back to the default gatherer.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
