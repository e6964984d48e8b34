// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for the runtime bridge and the
// HTTP surface. Labels are cardinality-bounded: op names and error kinds only,
// never handles or job IDs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RuntimeCallsTotal counts foreign-runtime calls by operation.
	RuntimeCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qbridge_runtime_calls_total",
		Help: "Total number of calls delegated to the foreign runtime, by op.",
	}, []string{"op"})

	// RuntimeErrorsTotal counts failed foreign-runtime calls by error kind.
	// Kinds: sdk, runtime, timeout, other.
	RuntimeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qbridge_runtime_errors_total",
		Help: "Total number of failed foreign-runtime calls, by error kind.",
	}, []string{"kind"})

	// RuntimeCallSeconds observes wall-clock latency of foreign-runtime calls.
	RuntimeCallSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qbridge_runtime_call_seconds",
		Help:    "Latency of foreign-runtime calls, by op.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"op"})

	// HandlesLive tracks foreign-object handles currently held by this process.
	HandlesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qbridge_handles_live",
		Help: "Number of foreign-object handles currently held.",
	})

	// RuntimeRestartsTotal counts worker process (re)spawns.
	RuntimeRestartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qbridge_runtime_restarts_total",
		Help: "Total number of foreign runtime worker spawns.",
	})

	// JobsTotal counts jobs observed reaching a terminal status.
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qbridge_jobs_total",
		Help: "Total number of jobs by terminal status.",
	}, []string{"status"})

	// HTTPRequestsTotal counts API requests by route and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qbridge_http_requests_total",
		Help: "Total number of HTTP requests, by route and status class.",
	}, []string{"route", "status"})

	// HTTPRequestSeconds observes API request latency by route.
	HTTPRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qbridge_http_request_seconds",
		Help:    "Latency of HTTP requests, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
