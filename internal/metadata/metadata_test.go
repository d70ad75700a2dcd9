// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package metadata

import (
	"errors"
	"testing"

	"github.com/tomtom215/playtrace/internal/analytics"
	"github.com/tomtom215/playtrace/internal/player"
)

func loadedPlayer() *player.Fake {
	f := player.NewFake()
	f.Load(&player.Source{
		Title:    "Art of Motion",
		URL:      "https://cdn.example.com/aom.m3u8",
		ViewerID: "viewer-7",
	}, 210, false)
	return f
}

func TestBuildFailsWithoutAssetName(t *testing.T) {
	m := New()

	_, err := m.Build()
	if !errors.Is(err, ErrNoAssetName) {
		t.Errorf("Expected ErrNoAssetName, got %v", err)
	}
}

func TestBuildDerivesFromSource(t *testing.T) {
	m := New()
	m.Derive(loadedPlayer(), "bitmovin-player", "playtrace 1.1.0")

	meta, err := m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if meta.AssetName != "Art of Motion" {
		t.Errorf("Expected asset name from source title, got %q", meta.AssetName)
	}
	if meta.ViewerID != "viewer-7" {
		t.Errorf("Expected viewer ID from source config, got %q", meta.ViewerID)
	}
	if meta.StreamType != analytics.StreamTypeVOD {
		t.Errorf("Expected VOD, got %v", meta.StreamType)
	}
	if meta.Duration != 210 {
		t.Errorf("Expected duration 210, got %v", meta.Duration)
	}
	if meta.Custom[TagIntegrationVersion] != "playtrace 1.1.0" {
		t.Errorf("Expected integration version tag, got %v", meta.Custom)
	}
	if meta.Custom[TagAutoplay] != "false" {
		t.Errorf("Expected autoplay tag, got %v", meta.Custom)
	}
}

func TestBuildUsesPlaceholderForUntitledSource(t *testing.T) {
	f := player.NewFake()
	f.Load(&player.Source{URL: "https://cdn.example.com/x.m3u8"}, 60, false)

	m := New()
	m.Derive(f, "bitmovin-player", "playtrace 1.1.0")

	meta, err := m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if meta.AssetName != UntitledAsset {
		t.Errorf("Expected placeholder asset name, got %q", meta.AssetName)
	}
}

func TestOverridesWinPerKey(t *testing.T) {
	m := New()
	m.Derive(loadedPlayer(), "bitmovin-player", "playtrace 1.1.0")
	m.SetOverrides(Overrides{
		AssetName: "Override Title",
		ViewerID:  "override-viewer",
	})

	meta, err := m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if meta.AssetName != "Override Title" {
		t.Errorf("Expected override asset name, got %q", meta.AssetName)
	}
	if meta.ViewerID != "override-viewer" {
		t.Errorf("Expected override viewer ID, got %q", meta.ViewerID)
	}
	// Derived values survive where no override was supplied.
	if meta.StreamURL != "https://cdn.example.com/aom.m3u8" {
		t.Errorf("Expected derived stream URL, got %q", meta.StreamURL)
	}
}

func TestCustomMapMergesPerKey(t *testing.T) {
	m := New()
	m.Derive(loadedPlayer(), "bitmovin-player", "playtrace 1.1.0")

	m.SetOverrides(Overrides{Custom: map[string]string{"genre": "sports"}})
	m.SetOverrides(Overrides{Custom: map[string]string{"channel": "extreme"}})

	meta, err := m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if meta.Custom["genre"] != "sports" || meta.Custom["channel"] != "extreme" {
		t.Errorf("Expected both custom keys after merge, got %v", meta.Custom)
	}
	// Derived tags coexist with override tags.
	if meta.Custom[TagPlayerType] != "bitmovin-player" {
		t.Errorf("Expected derived playerType tag to survive, got %v", meta.Custom)
	}

	// Override custom wins over a derived tag of the same key.
	m.SetOverrides(Overrides{Custom: map[string]string{TagPlayerType: "custom-player"}})
	meta, _ = m.Build()
	if meta.Custom[TagPlayerType] != "custom-player" {
		t.Errorf("Expected override to win for playerType, got %q", meta.Custom[TagPlayerType])
	}
}

func TestAssetNameLatchesAcrossDerivedRefreshes(t *testing.T) {
	f := loadedPlayer()
	m := New()
	m.Derive(f, "bitmovin-player", "playtrace 1.1.0")

	meta, err := m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if meta.AssetName != "Art of Motion" {
		t.Fatalf("Expected initial asset name, got %q", meta.AssetName)
	}

	// A metadata refresh mid-session must not rename the asset.
	f.CurrentSource.Title = "Renamed Mid-Session"
	m.Derive(f, "bitmovin-player", "playtrace 1.1.0")

	meta, err = m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if meta.AssetName != "Art of Motion" {
		t.Errorf("Expected latched asset name, got %q", meta.AssetName)
	}

	// An explicit override re-resolves it.
	m.SetOverrides(Overrides{AssetName: "Explicit"})
	meta, _ = m.Build()
	if meta.AssetName != "Explicit" {
		t.Errorf("Expected explicit override to win, got %q", meta.AssetName)
	}
}

func TestLiveStreamsReportZeroDuration(t *testing.T) {
	f := player.NewFake()
	f.Load(&player.Source{Title: "News Channel"}, 0, true)

	m := New()
	m.Derive(f, "bitmovin-player", "playtrace 1.1.0")

	meta, err := m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if meta.StreamType != analytics.StreamTypeLive {
		t.Errorf("Expected LIVE, got %v", meta.StreamType)
	}
	if meta.Duration != 0 {
		t.Errorf("Expected zero duration for live, got %v", meta.Duration)
	}
}

func TestResetYieldsPristineModel(t *testing.T) {
	m := New()
	m.Derive(loadedPlayer(), "bitmovin-player", "playtrace 1.1.0")
	m.SetOverrides(Overrides{AssetName: "Override", Custom: map[string]string{"k": "v"}})
	if _, err := m.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	m.Reset()

	if _, err := m.Build(); !errors.Is(err, ErrNoAssetName) {
		t.Errorf("Expected pristine model to fail asset resolution, got %v", err)
	}
}

func TestOverridesRetainedUntilReset(t *testing.T) {
	// Overrides supplied while no session is active are applied at the
	// next session creation, which reads the same model.
	m := New()
	m.SetOverrides(Overrides{AssetName: "Queued Override"})

	meta, err := m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if meta.AssetName != "Queued Override" {
		t.Errorf("Expected queued override to apply, got %q", meta.AssetName)
	}
}
