// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package metrics provides Prometheus instrumentation for the tracker:
// session lifecycle, event dispatch, stall debouncing, deficiency and
// custom-event reporting. The simulator exposes these on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session lifecycle
	SessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playtrace_sessions_opened_total",
			Help: "Total number of analytics sessions opened",
		},
	)

	SessionsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playtrace_sessions_closed_total",
			Help: "Total number of analytics sessions closed",
		},
	)

	SessionInitFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playtrace_session_init_failures_total",
			Help: "Total number of failed session initializations",
		},
		[]string{"reason"}, // "already_active", "no_asset_name", "backend"
	)

	// Event dispatch
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playtrace_player_events_total",
			Help: "Total number of player events dispatched to tracker handlers",
		},
		[]string{"type"},
	)

	// Stall debouncing
	StallsReported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playtrace_stalls_reported_total",
			Help: "Total number of BUFFERING states reported to the backend",
		},
	)

	StallsDebounced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playtrace_stalls_debounced_total",
			Help: "Total number of debounce windows resolved without reporting BUFFERING",
		},
	)

	// Reporting
	DeficienciesReported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playtrace_deficiencies_reported_total",
			Help: "Total number of playback deficiencies reported",
		},
		[]string{"severity"},
	)

	CustomEventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playtrace_custom_events_total",
			Help: "Total number of custom events sent",
		},
		[]string{"scope"}, // "application" or "playback"
	)

	// Ad handling
	AdBreaksTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playtrace_ad_breaks_total",
			Help: "Total number of ad breaks tracked",
		},
		[]string{"position"},
	)

	AdBreaksDeferred = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playtrace_ad_breaks_deferred_total",
			Help: "Total number of pre-session ad-break starts deferred for replay",
		},
	)
)

// RecordSessionOpened increments the opened-session counter.
func RecordSessionOpened() {
	SessionsOpened.Inc()
}

// RecordSessionClosed increments the closed-session counter.
func RecordSessionClosed() {
	SessionsClosed.Inc()
}

// RecordSessionInitFailure records a failed initialization by reason.
func RecordSessionInitFailure(reason string) {
	SessionInitFailures.WithLabelValues(reason).Inc()
}

// RecordEvent records a dispatched player event by type.
func RecordEvent(eventType string) {
	EventsDispatched.WithLabelValues(eventType).Inc()
}

// RecordStallReported records a BUFFERING report.
func RecordStallReported() {
	StallsReported.Inc()
}

// RecordStallDebounced records a stall absorbed by the debounce window.
func RecordStallDebounced() {
	StallsDebounced.Inc()
}

// RecordDeficiency records a reported deficiency by severity.
func RecordDeficiency(severity string) {
	DeficienciesReported.WithLabelValues(severity).Inc()
}

// RecordCustomEvent records a custom event by scope.
func RecordCustomEvent(scope string) {
	CustomEventsSent.WithLabelValues(scope).Inc()
}

// RecordAdBreak records a tracked ad break by position.
func RecordAdBreak(position string) {
	AdBreaksTracked.WithLabelValues(position).Inc()
}

// RecordAdBreakDeferred records a deferred pre-session ad-break start.
func RecordAdBreakDeferred() {
	AdBreaksDeferred.Inc()
}
