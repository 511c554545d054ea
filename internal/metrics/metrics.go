// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package metrics exposes Prometheus collectors for the CineGraph server.
// Collectors are registered on the default registry via promauto and
// served through the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinegraph",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinegraph",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// TrainDuration observes model training time per partition.
	TrainDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinegraph",
		Subsystem: "recommend",
		Name:      "train_duration_seconds",
		Help:      "Time spent training one partition bundle.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"partition"})

	// TrainRowsLoaded reports the raw rows the latest bundle was trained on.
	TrainRowsLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cinegraph",
		Subsystem: "recommend",
		Name:      "train_rows_loaded",
		Help:      "Interaction rows loaded for the latest training run.",
	}, []string{"partition"})

	// RecommendDuration observes end-to-end recommendation latency.
	RecommendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinegraph",
		Subsystem: "recommend",
		Name:      "request_duration_seconds",
		Help:      "Recommendation and explanation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "partition"})

	// ModelInvalidations counts bundle invalidations by trigger.
	ModelInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinegraph",
		Subsystem: "recommend",
		Name:      "model_invalidations_total",
		Help:      "Cached bundle invalidations.",
	}, []string{"trigger"})

	// InteractionsIngested counts accepted interaction events.
	InteractionsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinegraph",
		Subsystem: "ingest",
		Name:      "interactions_total",
		Help:      "Interaction events written to storage.",
	}, []string{"partition"})

	// FollowEdgesSynced counts follow edges written by sync operations.
	FollowEdgesSynced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinegraph",
		Subsystem: "ingest",
		Name:      "follow_edges_total",
		Help:      "Follow edges written by sync operations.",
	})

	// DatabaseQueryDuration observes storage query latency by query name.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinegraph",
		Subsystem: "database",
		Name:      "query_duration_seconds",
		Help:      "DuckDB query latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})
)
