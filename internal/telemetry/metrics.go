/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint, status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huginn_api_requests_total",
		Help: "HTTP API requests.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "huginn_api_request_duration_seconds",
		Help:    "HTTP API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections tracks in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "huginn_api_active_connections",
		Help: "In-flight HTTP API requests.",
	})

	// SlotsCreatedTotal counts persisted schedule slots by kind.
	SlotsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huginn_slots_created_total",
		Help: "Schedule slots persisted, by kind (single, recurring, split).",
	}, []string{"kind"})

	// SlotsDeletedTotal counts deleted schedule slots.
	SlotsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huginn_slots_deleted_total",
		Help: "Schedule slots deleted.",
	})

	// OverlapConflictsTotal counts rejected mutations due to overlap.
	OverlapConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huginn_overlap_conflicts_total",
		Help: "Slot mutations rejected because of an overlap conflict.",
	})

	// ExtensionRunsTotal counts extension job passes.
	ExtensionRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huginn_extension_runs_total",
		Help: "Recurring show extension job passes.",
	})

	// ExtensionSlotsTotal counts occurrences appended by the extension job.
	ExtensionSlotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huginn_extension_slots_total",
		Help: "Occurrences appended by the extension job.",
	})

	// RecorderTicksTotal counts supervisor poll ticks.
	RecorderTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huginn_recorder_ticks_total",
		Help: "Recorder supervisor poll ticks.",
	})

	// CapturesActive tracks currently running capture processes.
	CapturesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "huginn_captures_active",
		Help: "Capture processes currently running.",
	})

	// CapturesFinishedTotal counts finished captures by outcome.
	CapturesFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huginn_captures_finished_total",
		Help: "Finished captures, by outcome (completed, failed).",
	}, []string{"outcome"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
