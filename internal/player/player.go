// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package player defines the boundary to the media player being instrumented:
// the fixed event vocabulary, the accessor surface the tracker reads, and a
// scripted in-process Fake used by tests and the simulator.
package player

// VRConfig describes VR-specific source configuration.
type VRConfig struct {
	ContentType string
}

// Source describes the currently loaded source.
type Source struct {
	Title    string
	URL      string
	ViewerID string
	VR       *VRConfig
}

// Config is the playback-affecting part of the player configuration.
type Config struct {
	Autoplay bool
	Preload  bool
}

// Player is the subscribe/unsubscribe event API plus the accessors the
// tracker derives metadata and playback state from. Implementations deliver
// events synchronously, in registration order per event type.
type Player interface {
	// On registers a handler for the given event type and returns the
	// handle identifying the subscription.
	On(t EventType, h Handler) HandlerID

	// Off removes the subscription identified by the handle. Unknown
	// handles are ignored.
	Off(t EventType, id HandlerID)

	// Source returns the currently loaded source, or nil when none is
	// loaded.
	Source() *Source

	// Duration returns the content duration in seconds. Live streams
	// report 0.
	Duration() float64

	// IsLive reports whether the current stream is live rather than VOD.
	IsLive() bool

	// IsPlaying reports whether the player is actively playing.
	IsPlaying() bool

	// IsPaused reports whether the player is paused.
	IsPaused() bool

	// Version returns the player version string.
	Version() string

	// Config returns the playback configuration.
	Config() Config
}
