// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package metrics defines the Prometheus collectors for the HTTP API and the
// evaluator, registered on an isolated registry so that default process
// collectors of embedding programs never collide with ours.
package metrics

import (
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"net/http"
	"strconv"
	"time"
)

type Metrics struct {
	Registry *prometheus.Registry

	// Evaluator metrics
	evaluations     *prometheus.CounterVec
	evaluationTimer prometheus.Histogram
	throws          prometheus.Counter
	rethrows        prometheus.Counter
	clauseMatches   prometheus.Counter
	finallyRuns     prometheus.Counter

	// Registry and cache metrics
	typeRegistrations prometheus.Counter
	registeredTypes   prometheus.Gauge
	compilerCacheSize prometheus.Gauge

	// HTTP metrics
	requests     *prometheus.CounterVec
	requestTimer *prometheus.HistogramVec
}

const (
	outcomeLabel  = "outcome"
	endpointLabel = "endpoint"
	statusLabel   = "status"
)

// New initializes a Metrics instance with every collector registered.
func New(namespace string) *Metrics {
	standardTimeBuckets := []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

	m := Metrics{}
	m.Registry = prometheus.NewRegistry()

	m.evaluations = newCounter(namespace, m.Registry,
		"evaluations",
		"Count of evaluated programs labeled by outcome.",
		[]string{outcomeLabel})

	m.evaluationTimer = newHistogram(namespace, m.Registry,
		"evaluation_time_seconds",
		"Seconds to evaluate a compiled program.",
		standardTimeBuckets)

	m.throws = newCounterWithoutLabels(namespace, m.Registry,
		"throws",
		"Count of error values constructed by throw statements.")

	m.rethrows = newCounterWithoutLabels(namespace, m.Registry,
		"rethrows",
		"Count of caught error values rethrown by handlers.")

	m.clauseMatches = newCounterWithoutLabels(namespace, m.Registry,
		"clause_matches",
		"Count of catch clauses entered.")

	m.finallyRuns = newCounterWithoutLabels(namespace, m.Registry,
		"finally_runs",
		"Count of finalizer blocks run.")

	m.typeRegistrations = newCounterWithoutLabels(namespace, m.Registry,
		"type_registrations",
		"Count of error types registered since process start.")

	m.registeredTypes = newGauge(namespace, m.Registry,
		"registered_types",
		"Number of error types currently registered.")

	m.compilerCacheSize = newGauge(namespace, m.Registry,
		"compiler_cache_entries",
		"Number of programs held by the compiler cache.")

	m.requests = newCounter(namespace, m.Registry,
		"requests",
		"Count of HTTP requests labeled by endpoint and status.",
		[]string{endpointLabel, statusLabel})

	m.requestTimer = newHistogramVec(namespace, m.Registry,
		"request_time_seconds",
		"Seconds to serve HTTP requests labeled by endpoint.",
		[]string{endpointLabel},
		standardTimeBuckets)

	return &m
}

func newCounter(namespace string, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounterVec(opts, labels)
	registry.MustRegister(counter)
	return counter
}

func newCounterWithoutLabels(namespace string, registry *prometheus.Registry, name, help string) prometheus.Counter {
	opts := prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounter(opts)
	registry.MustRegister(counter)
	return counter
}

func newHistogram(namespace string, registry *prometheus.Registry, name, help string, buckets []float64) prometheus.Histogram {
	opts := prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogram(opts)
	registry.MustRegister(histogram)
	return histogram
}

func newHistogramVec(namespace string, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogramVec(opts, labels)
	registry.MustRegister(histogram)
	return histogram
}

func newGauge(namespace string, registry *prometheus.Registry, name, help string) prometheus.Gauge {
	opts := prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}
	gauge := prometheus.NewGauge(opts)
	registry.MustRegister(gauge)
	return gauge
}

// RecordEvaluation observes one finished program run. The outcome is the case
// name of the outcome value, stats the counters collected during the run.
func (m *Metrics) RecordEvaluation(outcome string, stats cvm.Stats, length time.Duration) {
	m.evaluations.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
	m.evaluationTimer.Observe(length.Seconds())
	m.throws.Add(float64(stats.Throws))
	m.rethrows.Add(float64(stats.Rethrows))
	m.clauseMatches.Add(float64(stats.ClauseMatches))
	m.finallyRuns.Add(float64(stats.FinallyRuns))
}

func (m *Metrics) RecordTypeRegistrations(count int) {
	m.typeRegistrations.Add(float64(count))
}

func (m *Metrics) RecordRegistrySize(size int) {
	m.registeredTypes.Set(float64(size))
}

func (m *Metrics) RecordCompilerCacheSize(size int) {
	m.compilerCacheSize.Set(float64(size))
}

func (m *Metrics) RecordRequest(endpoint string, status int, length time.Duration) {
	m.requests.With(prometheus.Labels{
		endpointLabel: endpoint,
		statusLabel:   strconv.Itoa(status),
	}).Inc()
	m.requestTimer.With(prometheus.Labels{endpointLabel: endpoint}).Observe(length.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		ErrorLog:            promLogger{},
		MaxRequestsInFlight: 5,
	})
}

type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	log.Warn().Msg(fmt.Sprint(v...))
}
