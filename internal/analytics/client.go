// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package analytics defines the boundary to the video-analytics backend:
// the session primitives the tracker drives, the player-state manager, the
// enumerations the backend understands, and two Client implementations — an
// in-memory Recorder for tests and dry runs, and the HTTP Gateway.
package analytics

import "math"

// SessionKey is the backend's opaque handle for one tracked viewing session.
type SessionKey string

// NoSessionKey is the sentinel meaning "no active session".
const NoSessionKey SessionKey = ""

// PlayerState is a playback state as understood by the backend.
type PlayerState string

// Backend player states.
const (
	StateStopped   PlayerState = "STOPPED"
	StatePlaying   PlayerState = "PLAYING"
	StatePaused    PlayerState = "PAUSED"
	StateBuffering PlayerState = "BUFFERING"
)

// AdPosition classifies an ad break relative to the content timeline.
type AdPosition string

// Ad positions.
const (
	AdPreroll  AdPosition = "PREROLL"
	AdMidroll  AdPosition = "MIDROLL"
	AdPostroll AdPosition = "POSTROLL"
)

// Severity grades a reported playback deficiency.
type Severity string

// Deficiency severities.
const (
	SeverityWarning Severity = "WARNING"
	SeverityFatal   Severity = "FATAL"
)

// StreamType classifies the stream for content metadata.
type StreamType string

// Stream types.
const (
	StreamTypeUnknown StreamType = ""
	StreamTypeVOD     StreamType = "VOD"
	StreamTypeLive    StreamType = "LIVE"
)

// ContentMetadata is the resolved per-session metadata snapshot pushed to the
// backend. Custom carries open-ended key/value tags.
type ContentMetadata struct {
	AssetName  string            `json:"asset_name"`
	ViewerID   string            `json:"viewer_id,omitempty"`
	StreamType StreamType        `json:"stream_type,omitempty"`
	Duration   float64           `json:"duration,omitempty"` // seconds; 0 for live
	StreamURL  string            `json:"stream_url,omitempty"`
	PlayerName string            `json:"player_name,omitempty"`
	Custom     map[string]string `json:"custom,omitempty"`
}

// Kbps converts a bitrate in bits per second to kilobits per second,
// rounded half-up. The backend's bitrate setter takes kbps.
func Kbps(bps int64) int {
	return int(math.Round(float64(bps) / 1000.0))
}

// PlayerStateManager receives playback-state updates for the session it is
// attached to.
type PlayerStateManager interface {
	// SetPlayerState reports the current playback state.
	SetPlayerState(state PlayerState)

	// SetBitrateKbps reports the current video bitrate in kbps.
	SetBitrateKbps(kbps int)

	// SetPlayerType registers the player product name.
	SetPlayerType(name string)

	// SetPlayerVersion registers the player version string.
	SetPlayerVersion(version string)

	// SetSeekStart marks the beginning of a seek to the target position
	// in seconds.
	SetSeekStart(targetSeconds float64)

	// SetSeekEnd marks the completion of a seek.
	SetSeekEnd()
}

// Client is the session-management surface of the analytics backend. Calls
// are synchronous and side-effecting; failures are the backend's to surface
// through its own channels and are not retried by the tracker.
type Client interface {
	// CreateSession opens a new session with the given metadata and
	// returns its key, or NoSessionKey with an error.
	CreateSession(meta ContentMetadata) (SessionKey, error)

	// UpdateContentMetadata pushes a fresh metadata snapshot to an open
	// session.
	UpdateContentMetadata(key SessionKey, meta ContentMetadata)

	// CleanupSession tears down an open session.
	CleanupSession(key SessionKey)

	// CreatePlayerStateManager allocates an unattached state manager.
	CreatePlayerStateManager() PlayerStateManager

	// ReleasePlayerStateManager frees a state manager obtained from
	// CreatePlayerStateManager.
	ReleasePlayerStateManager(psm PlayerStateManager)

	// AttachPlayer binds a state manager to an open session.
	AttachPlayer(key SessionKey, psm PlayerStateManager)

	// DetachPlayer unbinds the session's state manager.
	DetachPlayer(key SessionKey)

	// AdStart suspends ordinary playback monitoring for an ad at the
	// given position.
	AdStart(key SessionKey, position AdPosition)

	// AdEnd resumes ordinary playback monitoring after an ad.
	AdEnd(key SessionKey)

	// ReportError reports a playback deficiency against a session.
	ReportError(key SessionKey, message string, severity Severity)

	// SendCustomEvent sends a named event with attributes. key may be
	// NoSessionKey for application-level events not tied to a session.
	SendCustomEvent(key SessionKey, name string, attributes map[string]string)
}
