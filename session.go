// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package playtrace

import (
	"fmt"

	"github.com/tomtom215/playtrace/internal/adbreak"
	"github.com/tomtom215/playtrace/internal/analytics"
	"github.com/tomtom215/playtrace/internal/metrics"
	"github.com/tomtom215/playtrace/internal/player"
)

// initializeSession opens a new session. Callers hold mu.
//
// Order matters: the session must exist before the state manager attaches,
// and the stashed bitrate applies only once the manager is live.
func (t *Tracker) initializeSession() error {
	if t.isSessionActive() {
		t.log.Warn().Str("session_key", string(t.sessionKey)).
			Msg("InitializeSession called while a session is active")
		metrics.RecordSessionInitFailure("already_active")
		return ErrSessionActive
	}

	t.meta.Derive(t.player, t.opts.PlayerName, integrationVersion)

	meta, err := t.meta.Build()
	if err != nil {
		t.log.Error().Err(err).Msg("Cannot create session without an asset name")
		metrics.RecordSessionInitFailure("no_asset_name")
		return fmt.Errorf("initialize session: %w", err)
	}

	key, err := t.client.CreateSession(meta)
	if err != nil || key == analytics.NoSessionKey {
		if err == nil {
			err = fmt.Errorf("backend returned no session key")
		}
		t.log.Error().Err(err).Msg("Session creation failed")
		metrics.RecordSessionInitFailure("backend")
		return fmt.Errorf("initialize session: %w", err)
	}
	t.sessionKey = key

	t.psm = t.client.CreatePlayerStateManager()
	t.psm.SetPlayerType(t.opts.PlayerName)
	t.psm.SetPlayerVersion(t.player.Version())

	t.client.UpdateContentMetadata(key, meta)
	t.psm.SetPlayerState(analytics.StateStopped)
	t.client.AttachPlayer(key, t.psm)

	if t.stashedBitrate != nil {
		t.psm.SetBitrateKbps(analytics.Kbps(*t.stashedBitrate))
		t.stashedBitrate = nil
	}

	metrics.RecordSessionOpened()
	t.log.Debug().
		Str("session_key", string(key)).
		Str("asset_name", meta.AssetName).
		Msg("Session opened")
	return nil
}

// endSession tears down the active session and resets all per-session
// state. Callers hold mu and have checked isSessionActive.
func (t *Tracker) endSession() {
	key := t.sessionKey

	t.clearStallTimer(false)
	t.client.DetachPlayer(key)
	t.client.CleanupSession(key)
	if t.psm != nil {
		t.client.ReleasePlayerStateManager(t.psm)
		t.psm = nil
	}

	t.sessionKey = analytics.NoSessionKey
	t.meta.Reset()
	t.stashedBitrate = nil
	t.pendingAdBreak = nil
	t.adActive = false
	t.trackingPaused = false

	metrics.RecordSessionClosed()
	t.log.Debug().Str("session_key", string(key)).Msg("Session closed")
}

// updateSession pushes the current metadata snapshot. Callers hold mu; the
// session is active.
func (t *Tracker) updateSession() {
	meta, err := t.meta.Build()
	if err != nil {
		t.log.Warn().Err(err).Msg("Skipping session update, metadata unresolvable")
		return
	}
	t.client.UpdateContentMetadata(t.sessionKey, meta)
}

// reportPlayerState forwards a playback state unless reporting is
// suppressed by an active ad or paused tracking. Callers hold mu.
func (t *Tracker) reportPlayerState(state analytics.PlayerState) {
	if !t.isSessionActive() || t.psm == nil || t.adActive || t.trackingPaused {
		return
	}
	t.psm.SetPlayerState(state)
}

// playingOrPaused resolves the reported state for events that end a seek,
// time shift or stall.
func (t *Tracker) playingOrPaused() analytics.PlayerState {
	if t.player.IsPlaying() {
		return analytics.StatePlaying
	}
	return analytics.StatePaused
}

// startStallTimer (re)arms the debounce window. Callers hold mu.
func (t *Tracker) startStallTimer() {
	t.debouncer.Start()
	t.debounceArmed = true
}

// clearStallTimer disarms the debounce window. absorbed marks the clear as
// a stall resolving inside the window, which is the case the debounce
// exists for. Callers hold mu.
func (t *Tracker) clearStallTimer(absorbed bool) {
	if t.debouncer == nil {
		return
	}
	t.debouncer.Clear()
	if t.debounceArmed && absorbed {
		metrics.RecordStallDebounced()
	}
	t.debounceArmed = false
}

// onStallDebounceFired runs on the timer goroutine when a debounce window
// elapses without a resolving event. The generation re-check under mu makes
// cancellation effective for callbacks that already left the timer.
func (t *Tracker) onStallDebounceFired(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.debouncer.Generation() {
		return
	}
	t.debounceArmed = false
	if t.released || !t.isSessionActive() {
		return
	}

	t.reportPlayerState(analytics.StateBuffering)
	metrics.RecordStallReported()
	t.log.Debug().Msg("Stall outlived debounce window, reported BUFFERING")
}

// handleQualityChanged applies a bitrate notification, stashing it when it
// arrives before any session exists. Callers hold mu.
func (t *Tracker) handleQualityChanged(bps int64) {
	if bps <= 0 {
		return
	}
	if !t.isSessionActive() || t.psm == nil {
		// First signal after player construction can precede the
		// session; keep the latest value for session initialization.
		t.stashedBitrate = &bps
		t.log.Debug().Int64("bitrate_bps", bps).Msg("Stashed pre-session bitrate")
		return
	}
	t.psm.SetBitrateKbps(analytics.Kbps(bps))
}

// handleAdBreakStarted routes an ad-break start: post-rolls close the
// session through the playback-finished path, pre-session breaks are
// deferred for replay, everything else starts ad tracking now. Callers
// hold mu.
func (t *Tracker) handleAdBreakStarted(br *player.AdBreak) {
	if br == nil {
		t.log.Warn().Msg("Ad-break start without break data, ignored")
		return
	}

	if adbreak.IsPostroll(br.ScheduleTime, t.player.Duration()) {
		// A post-roll is never tracked as an ad; it marks the end of
		// the content.
		t.clearStallTimer(false)
		if t.isSessionActive() {
			t.reportPlayerState(analytics.StateStopped)
			t.endSession()
		}
		return
	}

	if !t.isSessionActive() {
		// Pre-roll starts can beat the play event that creates the
		// session; defer and replay after the first playing event.
		t.pendingAdBreak = br
		metrics.RecordAdBreakDeferred()
		t.log.Debug().Float64("schedule_time", br.ScheduleTime).
			Msg("Deferred pre-session ad-break start")
		return
	}

	t.trackAdBreakStarted(br)
}

// trackAdBreakStarted reports an ad start and raises the suppression flag.
// Callers hold mu; the session is active.
func (t *Tracker) trackAdBreakStarted(br *player.AdBreak) {
	position := adbreak.Classify(br.ScheduleTime, t.player.Duration())
	t.adActive = true
	t.client.AdStart(t.sessionKey, position)
	metrics.RecordAdBreak(string(position))
	t.log.Debug().Str("position", string(position)).Msg("Ad break started")
}

// replayPendingAdBreak replays a deferred ad-break start exactly once.
// Callers hold mu; the session is active.
func (t *Tracker) replayPendingAdBreak() {
	if t.pendingAdBreak == nil {
		return
	}
	br := t.pendingAdBreak
	t.pendingAdBreak = nil
	t.trackAdBreakStarted(br)
}

// handleAdBreakEnded closes ad tracking on finish, skip or error. A still
// pending deferred start is dropped so it cannot replay after its break
// already ended. Callers hold mu.
func (t *Tracker) handleAdBreakEnded() {
	t.pendingAdBreak = nil

	if !t.adActive {
		return
	}
	t.adActive = false
	t.client.AdEnd(t.sessionKey)
	t.reportPlayerState(t.playingOrPaused())
	t.log.Debug().Msg("Ad break ended")
}
