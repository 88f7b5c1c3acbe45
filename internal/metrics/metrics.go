// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package metrics provides Prometheus instrumentation for codetrack:
// Codeforces API calls, sync runs, catalog cache efficiency, and API
// endpoint latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Codeforces client metrics

	CodeforcesRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeforces_requests_total",
			Help: "Total number of Codeforces API requests",
		},
		[]string{"endpoint", "result"}, // result: success, failure, rejected
	)

	CodeforcesRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeforces_request_duration_seconds",
			Help:    "Duration of Codeforces API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Sync metrics

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of profile sync runs",
		},
		[]string{"trigger", "result"}, // trigger: scheduled, manual
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of single-profile syncs in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	SyncBatchProfiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_batch_profiles",
			Help: "Profiles processed by the last batch sync",
		},
		[]string{"result"}, // succeeded, failed
	)

	InactivityRemindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inactivity_reminders_sent_total",
			Help: "Total number of inactivity reminders sent successfully",
		},
	)

	InactivityReminderFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inactivity_reminder_failures_total",
			Help: "Total number of inactivity reminder delivery failures",
		},
	)

	// Catalog cache metrics

	CatalogCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Total number of catalog cache hits (fresh or stale)",
		},
		[]string{"cache", "state"}, // state: fresh, stale
	)

	CatalogRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_refreshes_total",
			Help: "Total number of catalog refresh attempts",
		},
		[]string{"cache", "result"},
	)

	CatalogSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of problems in the cached catalog snapshot",
		},
		[]string{"cache"},
	)

	// API metrics

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
