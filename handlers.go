// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package playtrace

import (
	"github.com/tomtom215/playtrace/internal/analytics"
	"github.com/tomtom215/playtrace/internal/metrics"
	"github.com/tomtom215/playtrace/internal/player"
)

// registerHandlers subscribes the tracker to the player's full event
// vocabulary through the registry, so Release can tear everything down by
// releasing the registry's handles.
func (t *Tracker) registerHandlers() {
	sub := func(et player.EventType, h player.Handler) {
		t.registry.Add(et, func(ev player.Event) {
			metrics.RecordEvent(string(ev.Type))
			h(ev)
		})
	}

	sub(player.EventSourceLoaded, t.onSourceLoaded)
	sub(player.EventSourceUnloaded, t.onSourceUnloaded)
	sub(player.EventPlay, t.onPlay)
	sub(player.EventPlaying, t.onPlaying)
	sub(player.EventPaused, t.onPaused)
	sub(player.EventStallStarted, t.onStallStarted)
	sub(player.EventStallEnded, t.onStallEnded)
	sub(player.EventPlaybackFinished, t.onPlaybackFinished)
	sub(player.EventSeek, t.onSeek)
	sub(player.EventSeeked, t.onSeeked)
	sub(player.EventTimeShift, t.onTimeShift)
	sub(player.EventTimeShifted, t.onTimeShifted)
	sub(player.EventVideoQualityChanged, t.onQualityChanged)
	sub(player.EventAudioQualityChanged, t.onQualityChanged)
	sub(player.EventMuted, t.onCustomPlaybackEvent("muted"))
	sub(player.EventUnmuted, t.onCustomPlaybackEvent("unmuted"))
	sub(player.EventViewModeChanged, t.onCustomPlaybackEvent("viewModeChanged"))
	sub(player.EventCastStarted, t.onCustomPlaybackEvent("castStarted"))
	sub(player.EventCastStopped, t.onCustomPlaybackEvent("castStopped"))
	sub(player.EventAdBreakStarted, t.onAdBreakStarted)
	sub(player.EventAdBreakFinished, t.onAdBreakEnded)
	sub(player.EventAdSkipped, t.onAdBreakEnded)
	sub(player.EventAdError, t.onAdBreakEnded)
	sub(player.EventError, t.onPlayerError)
	sub(player.EventDestroy, t.onDestroy)
}

// onSourceLoaded refreshes the derived metadata layer and, with an active
// session, pushes the fresh snapshot.
func (t *Tracker) onSourceLoaded(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.meta.Derive(t.player, t.opts.PlayerName, integrationVersion)
	if t.isSessionActive() {
		t.updateSession()
	}
}

// onSourceUnloaded closes the session from the previous source. Sessions
// are never shared across sources, so this must run before any new source
// opens one.
func (t *Tracker) onSourceUnloaded(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isSessionActive() {
		t.endSession()
	}
}

// onPlay opens a session on first genuine play intent and arms the stall
// debounce: a bare play is only BUFFERING if nothing resolves it within
// the window.
func (t *Tracker) onPlay(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isSessionActive() {
		if err := t.initializeSession(); err != nil {
			t.log.Error().Err(err).Msg("Session creation on play failed")
			return
		}
	}
	t.startStallTimer()
}

// onPlaying reports PLAYING and replays a deferred pre-roll ad-break start,
// which by construction fires only after the session exists.
func (t *Tracker) onPlaying(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearStallTimer(true)
	if !t.isSessionActive() {
		return
	}
	t.reportPlayerState(analytics.StatePlaying)
	t.replayPendingAdBreak()
}

func (t *Tracker) onPaused(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearStallTimer(true)
	t.reportPlayerState(analytics.StatePaused)
}

// onStallStarted reports BUFFERING immediately; an explicit stall from the
// player is never debounced.
func (t *Tracker) onStallStarted(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearStallTimer(false)
	if !t.isSessionActive() {
		return
	}
	t.reportPlayerState(analytics.StateBuffering)
	metrics.RecordStallReported()
}

func (t *Tracker) onStallEnded(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearStallTimer(true)
	t.reportPlayerState(t.playingOrPaused())
}

// onPlaybackFinished reports STOPPED and ends the session.
func (t *Tracker) onPlaybackFinished(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearStallTimer(false)
	if !t.isSessionActive() {
		return
	}
	t.reportPlayerState(analytics.StateStopped)
	t.endSession()
}

func (t *Tracker) onSeek(ev player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isSessionActive() {
		return
	}
	if t.psm != nil && !t.adActive && !t.trackingPaused {
		t.psm.SetSeekStart(ev.SeekTarget)
	}
	t.startStallTimer()
}

func (t *Tracker) onSeeked(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearStallTimer(true)
	if !t.isSessionActive() {
		return
	}
	if t.psm != nil && !t.adActive && !t.trackingPaused {
		t.psm.SetSeekEnd()
	}
	t.reportPlayerState(t.playingOrPaused())
}

// Time shifts on live streams follow the seek path.
func (t *Tracker) onTimeShift(ev player.Event) {
	t.onSeek(ev)
}

func (t *Tracker) onTimeShifted(ev player.Event) {
	t.onSeeked(ev)
}

// onQualityChanged handles video and audio quality notifications. These can
// be the very first signal after player construction, before any session.
func (t *Tracker) onQualityChanged(ev player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handleQualityChanged(ev.Bitrate)
}

func (t *Tracker) onAdBreakStarted(ev player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handleAdBreakStarted(ev.AdBreak)
}

func (t *Tracker) onAdBreakEnded(player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handleAdBreakEnded()
}

// onPlayerError captures genuine player errors. A session is created first
// when none exists, so video-start failures reach the backend, then the
// deficiency is reported fatally and the session ends.
func (t *Tracker) onPlayerError(ev player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isSessionActive() {
		if err := t.initializeSession(); err != nil {
			t.log.Error().Err(err).Msg("Cannot open session to capture video-start failure")
			return
		}
	}
	t.reportDeficiency(formatPlayerError(ev), analytics.SeverityFatal, true)
}

func (t *Tracker) onDestroy(player.Event) {
	t.Release()
}
