// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package main

import (
	"context"
	"time"

	"github.com/tomtom215/playtrace"
	"github.com/tomtom215/playtrace/internal/analytics"
	"github.com/tomtom215/playtrace/internal/config"
	"github.com/tomtom215/playtrace/internal/player"
)

// scenario is one scripted playback run against a fresh fake player.
type scenario struct {
	description string
	run         func(ctx context.Context, cfg *config.Config, client analytics.Client) error
}

var scenarios = map[string]scenario{
	"basic": {
		description: "load, play, pause, resume, quality change, finish",
		run:         runBasic,
	},
	"preroll-reorder": {
		description: "ad break and quality change arrive before play",
		run:         runPrerollReorder,
	},
	"stall": {
		description: "absorbed stall, then one outliving the debounce window",
		run:         runStall,
	},
	"error": {
		description: "fatal player error mid-playback",
		run:         runError,
	},
}

// newRig builds a fake player with a loaded source and a tracker wired to it.
func newRig(cfg *config.Config, client analytics.Client) (*playtrace.Tracker, *player.Fake) {
	f := player.NewFake()
	f.Load(&player.Source{
		Title:    "Art of Motion",
		URL:      "https://cdn.example.com/art-of-motion.m3u8",
		ViewerID: "sim-viewer",
	}, 210, false)

	tr := playtrace.New(f, client, cfg.Tracker.CustomerKey, playtrace.Options{
		DebugLoggingEnabled: cfg.Tracker.DebugLogging,
		GatewayURL:          cfg.Tracker.GatewayURL,
		PlayerName:          cfg.Tracker.PlayerName,
		StallDebounce:       cfg.Tracker.StallDebounce,
	})
	return tr, f
}

// pace sleeps briefly between scripted steps so log output reads like a real
// playback timeline. Returns false when the context is done.
func pace(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func runBasic(ctx context.Context, cfg *config.Config, client analytics.Client) error {
	tr, f := newRig(cfg, client)
	defer tr.Release()

	tr.UpdateContentMetadata(playtrace.ContentMetadataOverrides{
		Custom: map[string]string{"scenario": "basic"},
	})

	f.EmitType(player.EventSourceLoaded)
	f.EmitType(player.EventPlay)
	f.Playing = true
	f.EmitType(player.EventPlaying)
	if !pace(ctx, 300*time.Millisecond) {
		return ctx.Err()
	}

	f.Playing = false
	f.Paused = true
	f.EmitType(player.EventPaused)
	if !pace(ctx, 200*time.Millisecond) {
		return ctx.Err()
	}

	f.Paused = false
	f.Playing = true
	f.EmitType(player.EventPlaying)

	ev := player.NewEvent(player.EventVideoQualityChanged)
	ev.Bitrate = 2_400_000
	f.Emit(ev)
	if !pace(ctx, 300*time.Millisecond) {
		return ctx.Err()
	}

	f.Playing = false
	f.EmitType(player.EventPlaybackFinished)
	return nil
}

func runPrerollReorder(ctx context.Context, cfg *config.Config, client analytics.Client) error {
	tr, f := newRig(cfg, client)
	defer tr.Release()

	f.EmitType(player.EventSourceLoaded)

	// Pre-roll ad break and initial quality land before play, as some
	// players emit them. Both must be carried into the session.
	ad := player.NewEvent(player.EventAdBreakStarted)
	ad.AdBreak = &player.AdBreak{ScheduleTime: 0}
	f.Emit(ad)

	q := player.NewEvent(player.EventVideoQualityChanged)
	q.Bitrate = 1_200_000
	f.Emit(q)

	f.EmitType(player.EventPlay)
	f.Playing = true
	f.EmitType(player.EventPlaying)
	if !pace(ctx, 300*time.Millisecond) {
		return ctx.Err()
	}

	f.EmitType(player.EventAdBreakFinished)
	if !pace(ctx, 300*time.Millisecond) {
		return ctx.Err()
	}

	f.Playing = false
	f.EmitType(player.EventPlaybackFinished)
	return nil
}

func runStall(ctx context.Context, cfg *config.Config, client analytics.Client) error {
	tr, f := newRig(cfg, client)
	defer tr.Release()

	f.EmitType(player.EventSourceLoaded)
	f.EmitType(player.EventPlay)
	f.Playing = true
	f.EmitType(player.EventPlaying)

	// Seek resolved inside the debounce window: absorbed, never reported.
	seek := player.NewEvent(player.EventSeek)
	seek.SeekTarget = 60
	f.Emit(seek)
	f.EmitType(player.EventSeeked)
	f.EmitType(player.EventPlaying)
	if !pace(ctx, cfg.Tracker.StallDebounce*2) {
		return ctx.Err()
	}

	// Genuine stall: reported immediately.
	f.Playing = false
	f.EmitType(player.EventStallStarted)
	if !pace(ctx, 500*time.Millisecond) {
		return ctx.Err()
	}
	f.EmitType(player.EventStallEnded)
	f.Playing = true
	f.EmitType(player.EventPlaying)
	if !pace(ctx, 300*time.Millisecond) {
		return ctx.Err()
	}

	f.Playing = false
	f.EmitType(player.EventPlaybackFinished)
	return nil
}

func runError(ctx context.Context, cfg *config.Config, client analytics.Client) error {
	tr, f := newRig(cfg, client)
	defer tr.Release()

	f.EmitType(player.EventSourceLoaded)
	f.EmitType(player.EventPlay)
	f.Playing = true
	f.EmitType(player.EventPlaying)
	if !pace(ctx, 300*time.Millisecond) {
		return ctx.Err()
	}

	f.Playing = false
	ev := player.NewEvent(player.EventError)
	ev.Code = 1016
	ev.Message = "source not supported"
	f.Emit(ev)
	return nil
}
