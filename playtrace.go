// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package playtrace instruments a media player's lifecycle and forwards a
// normalized view of it to a video-analytics backend, maintaining one
// tracked viewing session per playback attempt.
//
// The Tracker subscribes to the player's lifecycle events and translates
// them into a single, well-ordered session timeline: it decides when to open
// and close the analytics session, debounces transient buffering, reconciles
// pre-roll ad breaks and quality changes that arrive before a session
// exists, and assembles content metadata from derived values and caller
// overrides.
//
//	tracker := playtrace.New(p, nil, "customer-key", playtrace.Options{
//	    GatewayURL: "https://collector.example.com",
//	})
//	defer tracker.Release()
//
// All handlers run to completion on the goroutine delivering the player
// event; the only asynchronous path is the stall-debounce timer, which is
// serialized through the tracker's lock.
package playtrace

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/playtrace/internal/analytics"
	"github.com/tomtom215/playtrace/internal/logging"
	"github.com/tomtom215/playtrace/internal/metadata"
	"github.com/tomtom215/playtrace/internal/player"
	"github.com/tomtom215/playtrace/internal/registry"
	"github.com/tomtom215/playtrace/internal/stall"
)

// Version is the integration version reported in session metadata.
const Version = "1.1.0"

const integrationVersion = "playtrace " + Version

// defaultPlayerName is registered with the backend when Options.PlayerName
// is not set.
const defaultPlayerName = "bitmovin-player"

// Errors surfaced by session-management calls.
var (
	// ErrNoClient means the tracker was constructed without a usable
	// analytics client and is inert.
	ErrNoClient = errors.New("playtrace: analytics client unavailable")

	// ErrSessionActive means InitializeSession was called while a
	// session is already active.
	ErrSessionActive = errors.New("playtrace: session already active")

	// ErrNoAssetName means no asset name could be resolved, so no
	// session can be created.
	ErrNoAssetName = metadata.ErrNoAssetName
)

// ContentMetadataOverrides is the caller-supplied metadata layer accepted by
// UpdateContentMetadata. Overrides win per key; Custom merges key by key.
type ContentMetadataOverrides = metadata.Overrides

// Options is the optional tracker configuration.
type Options struct {
	// DebugLoggingEnabled opens the tracker's debug log stream. Warnings
	// and errors log regardless.
	DebugLoggingEnabled bool

	// GatewayURL, when set and no explicit client is passed to New,
	// selects the HTTP gateway client for this collector URL.
	GatewayURL string

	// PlayerName is the player product name registered with the backend.
	// Default: "bitmovin-player".
	PlayerName string

	// StallDebounce is the window a stall must outlive before BUFFERING
	// is reported. Default: stall.DefaultWindow.
	StallDebounce time.Duration
}

// Tracker owns the session lifecycle for one player instance. All mutable
// session state (key, ad flag, pending ad break, stashed bitrate) lives
// here and is only touched under mu.
type Tracker struct {
	player player.Player
	client analytics.Client
	opts   Options
	log    zerolog.Logger

	registry *registry.Registry

	mu         sync.Mutex
	sessionKey analytics.SessionKey
	psm        analytics.PlayerStateManager
	meta       *metadata.Model
	debouncer  *stall.Debouncer

	// Ad suppression: true strictly between an ad-break start and its
	// finish/skip/error.
	adActive bool

	// trackingPaused suppresses state reporting between PauseTracking
	// and ResumeTracking.
	trackingPaused bool

	// pendingAdBreak holds an ad-break start received before any session
	// existed. Producer: ad-break-started handler. Consumer: the first
	// playing handler after session creation, which replays it once.
	pendingAdBreak *player.AdBreak

	// stashedBitrate holds a quality change received before any session
	// existed, in bits per second. Producer: quality-changed handlers.
	// Consumer: session initialization, which applies and clears it.
	stashedBitrate *int64

	// debounceArmed mirrors whether a debounce window is open, for
	// distinguishing absorbed stalls from never-armed clears.
	debounceArmed bool

	inert    bool
	released bool
}

// New constructs a tracker for the given player. client may be nil, in
// which case the HTTP gateway is built from customerKey and
// Options.GatewayURL. When neither a client nor a gateway URL is available
// the tracker logs the missing dependency and stays inert: no handlers are
// registered and every operation is a no-op.
func New(p player.Player, client analytics.Client, customerKey string, opts Options) *Tracker {
	if opts.PlayerName == "" {
		opts.PlayerName = defaultPlayerName
	}

	log := logging.With().Str("component", "tracker").Logger().
		Level(logging.LevelForDebug(opts.DebugLoggingEnabled))

	t := &Tracker{
		player:     p,
		client:     client,
		opts:       opts,
		log:        log,
		sessionKey: analytics.NoSessionKey,
		meta:       metadata.New(),
	}

	if p == nil {
		log.Error().Msg("No player instance supplied, tracker is inert")
		t.inert = true
		return t
	}

	if t.client == nil && opts.GatewayURL != "" {
		gw, err := analytics.NewGateway(analytics.GatewayConfig{
			URL:         opts.GatewayURL,
			CustomerKey: customerKey,
		})
		if err != nil {
			log.Error().Err(err).Msg("Gateway construction failed, tracker is inert")
			t.inert = true
			return t
		}
		t.client = gw
	}
	if t.client == nil {
		log.Error().Msg("No analytics client available, tracker is inert")
		t.inert = true
		return t
	}

	t.debouncer = stall.New(opts.StallDebounce, t.onStallDebounceFired)
	t.registry = registry.New(p)
	t.registerHandlers()

	log.Debug().Str("player_name", opts.PlayerName).Msg("Tracker attached to player")
	return t
}

// isSessionActive reports whether a session is open. Callers hold mu.
func (t *Tracker) isSessionActive() bool {
	return t.sessionKey != analytics.NoSessionKey
}

// SessionActive reports whether a session is currently open.
func (t *Tracker) SessionActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isSessionActive()
}

// InitializeSession explicitly opens a session before playback starts.
// It fails when a session is already active or when no asset name can be
// resolved from overrides or the loaded source.
func (t *Tracker) InitializeSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inert {
		return ErrNoClient
	}
	return t.initializeSession()
}

// EndSession closes the active session. No-op without one.
func (t *Tracker) EndSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inert {
		return
	}
	if !t.isSessionActive() {
		t.log.Warn().Msg("EndSession called without an active session")
		return
	}
	t.endSession()
}

// UpdateContentMetadata merges the supplied overrides into the metadata
// model. With an active session the resolved snapshot is pushed to the
// backend immediately; without one the overrides are retained and applied
// at the next session creation.
func (t *Tracker) UpdateContentMetadata(overrides ContentMetadataOverrides) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inert {
		return
	}
	t.meta.SetOverrides(overrides)
	if t.isSessionActive() {
		t.updateSession()
	}
}

// PauseTracking suspends monitoring without ending the session, expressed
// through the backend's ad primitives as the sanctioned suspension path.
func (t *Tracker) PauseTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inert || !t.isSessionActive() {
		t.log.Warn().Msg("PauseTracking called without an active session")
		return
	}
	if t.trackingPaused {
		return
	}
	t.trackingPaused = true
	t.clearStallTimer(false)
	t.client.DetachPlayer(t.sessionKey)
	t.client.AdStart(t.sessionKey, analytics.AdPreroll)
	t.log.Debug().Str("session_key", string(t.sessionKey)).Msg("Tracking paused")
}

// ResumeTracking resumes monitoring after PauseTracking.
func (t *Tracker) ResumeTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inert || !t.isSessionActive() {
		t.log.Warn().Msg("ResumeTracking called without an active session")
		return
	}
	if !t.trackingPaused {
		return
	}
	t.trackingPaused = false
	t.client.AdEnd(t.sessionKey)
	t.client.AttachPlayer(t.sessionKey, t.psm)
	t.log.Debug().Str("session_key", string(t.sessionKey)).Msg("Tracking resumed")
}

// Release tears the tracker down: every event subscription is released
// before any active session is ended, so no handler can fire against a
// half-torn-down tracker. Safe to call more than once.
func (t *Tracker) Release() {
	if t.inert {
		return
	}

	t.registry.Clear()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	t.clearStallTimer(false)
	if t.isSessionActive() {
		t.endSession()
	}
	t.log.Debug().Msg("Tracker released")
}
