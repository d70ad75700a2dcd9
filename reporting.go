// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package playtrace

import (
	"strconv"

	"github.com/tomtom215/playtrace/internal/analytics"
	"github.com/tomtom215/playtrace/internal/metrics"
	"github.com/tomtom215/playtrace/internal/player"
)

// Severity grades a reported deficiency.
type Severity = analytics.Severity

// Deficiency severities.
const (
	SeverityWarning = analytics.SeverityWarning
	SeverityFatal   = analytics.SeverityFatal
)

// ReportPlaybackDeficiency reports an error against the active session.
// Without an active session this is a no-op: deficiencies never create a
// session implicitly from the public API. endSessionAfter, true in the
// original API's default, closes the session once the deficiency is
// reported.
func (t *Tracker) ReportPlaybackDeficiency(message string, severity Severity, endSessionAfter bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inert {
		return
	}
	if !t.isSessionActive() {
		t.log.Warn().Str("message", message).
			Msg("Deficiency dropped, no active session")
		return
	}
	t.reportDeficiency(message, severity, endSessionAfter)
}

// reportDeficiency reports against the active session. Callers hold mu.
func (t *Tracker) reportDeficiency(message string, severity Severity, endSessionAfter bool) {
	t.client.ReportError(t.sessionKey, message, severity)
	metrics.RecordDeficiency(string(severity))
	t.log.Debug().
		Str("message", message).
		Str("severity", string(severity)).
		Bool("end_session", endSessionAfter).
		Msg("Deficiency reported")

	if endSessionAfter {
		t.endSession()
	}
}

// SendCustomApplicationEvent sends an application-level event. It is not
// tied to any session and is always permitted.
func (t *Tracker) SendCustomApplicationEvent(name string, attributes map[string]string) {
	if t.inert {
		return
	}
	t.client.SendCustomEvent(analytics.NoSessionKey, name, attributes)
	metrics.RecordCustomEvent("application")
}

// SendCustomPlaybackEvent sends an event against the current session.
// Without an active session it warns and drops the event.
func (t *Tracker) SendCustomPlaybackEvent(name string, attributes map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inert {
		return
	}
	if !t.isSessionActive() {
		t.log.Warn().Str("event", name).
			Msg("Custom playback event dropped, no active session")
		return
	}
	t.client.SendCustomEvent(t.sessionKey, name, attributes)
	metrics.RecordCustomEvent("playback")
}

// onCustomPlaybackEvent builds a handler forwarding a player event as a
// named custom playback event, passing its open-ended attributes through.
func (t *Tracker) onCustomPlaybackEvent(name string) player.Handler {
	return func(ev player.Event) {
		t.SendCustomPlaybackEvent(name, ev.Attributes)
	}
}

// formatPlayerError renders a player error event for the backend.
func formatPlayerError(ev player.Event) string {
	if ev.Code == 0 {
		return ev.Message
	}
	return strconv.Itoa(ev.Code) + ": " + ev.Message
}
