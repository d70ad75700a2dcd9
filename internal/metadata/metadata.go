// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package metadata assembles the per-session content metadata snapshot from
// two layers: values derived from the player and its loaded source, and
// caller-supplied overrides. Overrides win per key; the custom tag map is a
// shallow per-key merge, never a wholesale replace.
package metadata

import (
	"errors"
	"strconv"

	"github.com/tomtom215/playtrace/internal/analytics"
	"github.com/tomtom215/playtrace/internal/player"
)

// ErrNoAssetName is returned by Build when no asset name can be resolved
// from an override or a loaded source. A session must not be created in
// that state.
var ErrNoAssetName = errors.New("metadata: no asset name resolvable")

// UntitledAsset is the asset name used when a source is loaded but carries
// no title.
const UntitledAsset = "Untitled (no source title)"

// Derived custom tag keys.
const (
	TagIntegrationVersion = "integrationVersion"
	TagPlayerType         = "playerType"
	TagStreamType         = "streamType"
	TagAutoplay           = "autoplay"
	TagPreload            = "preload"
	TagVRContentType      = "vrContentType"
)

// Overrides carries caller-supplied metadata. Zero-valued fields are
// treated as "not supplied" and leave the previous override untouched.
type Overrides struct {
	AssetName  string
	ViewerID   string
	StreamType analytics.StreamType
	Duration   float64 // seconds
	StreamURL  string
	PlayerName string
	Custom     map[string]string
}

// Model holds the two metadata layers for the current session. It is owned
// by the session lifecycle controller and touched only under its lock.
type Model struct {
	overrides Overrides

	// Derived layer, refreshed on source-loaded and config changes.
	sourceLoaded bool
	sourceTitle  string
	streamURL    string
	viewerID     string
	duration     float64
	streamType   analytics.StreamType
	playerName   string
	custom       map[string]string

	// assetName latches on first successful resolution and survives
	// derived refreshes for the rest of the session.
	assetName string
}

// New creates an empty model.
func New() *Model {
	return &Model{custom: make(map[string]string)}
}

// SetOverrides shallow-merges the supplied overrides into the override
// layer. The Custom map merges key by key.
func (m *Model) SetOverrides(o Overrides) {
	if o.AssetName != "" {
		m.overrides.AssetName = o.AssetName
		// An explicit override re-resolves a latched asset name.
		m.assetName = o.AssetName
	}
	if o.ViewerID != "" {
		m.overrides.ViewerID = o.ViewerID
	}
	if o.StreamType != analytics.StreamTypeUnknown {
		m.overrides.StreamType = o.StreamType
	}
	if o.Duration > 0 {
		m.overrides.Duration = o.Duration
	}
	if o.StreamURL != "" {
		m.overrides.StreamURL = o.StreamURL
	}
	if o.PlayerName != "" {
		m.overrides.PlayerName = o.PlayerName
	}
	if len(o.Custom) > 0 {
		if m.overrides.Custom == nil {
			m.overrides.Custom = make(map[string]string, len(o.Custom))
		}
		for k, v := range o.Custom {
			m.overrides.Custom[k] = v
		}
	}
}

// Derive recomputes the derived layer from the player's current source and
// playback configuration. Called on source-loaded and whenever
// playback-affecting config changes. The latched asset name is not
// recomputed here.
//
// viewerID is sourced from the per-source configuration; the original
// integration's self-assignment no-op is intentionally not reproduced.
func (m *Model) Derive(p player.Player, playerName, integrationVersion string) {
	m.playerName = playerName

	src := p.Source()
	if src != nil {
		m.sourceLoaded = true
		m.sourceTitle = src.Title
		m.streamURL = src.URL
		m.viewerID = src.ViewerID
	}

	if p.IsLive() {
		m.streamType = analytics.StreamTypeLive
		m.duration = 0
	} else {
		m.streamType = analytics.StreamTypeVOD
		m.duration = p.Duration()
	}

	cfg := p.Config()
	m.custom = map[string]string{
		TagIntegrationVersion: integrationVersion,
		TagPlayerType:         playerName,
		TagStreamType:         string(m.streamType),
		TagAutoplay:           strconv.FormatBool(cfg.Autoplay),
		TagPreload:            strconv.FormatBool(cfg.Preload),
	}
	if src != nil && src.VR != nil {
		m.custom[TagVRContentType] = src.VR.ContentType
	}
}

// resolveAssetName applies the resolution rule: explicit override, then the
// latched value, then the loaded source's title falling back to the
// placeholder. Fails when no source is loaded and nothing else resolves.
func (m *Model) resolveAssetName() (string, error) {
	if m.overrides.AssetName != "" {
		return m.overrides.AssetName, nil
	}
	if m.assetName != "" {
		return m.assetName, nil
	}
	if m.sourceLoaded {
		if m.sourceTitle != "" {
			return m.sourceTitle, nil
		}
		return UntitledAsset, nil
	}
	return "", ErrNoAssetName
}

// Build produces the resolved snapshot for the backend: override value if
// present, else derived value, else the backend default (zero value). The
// asset name latches on first success.
func (m *Model) Build() (analytics.ContentMetadata, error) {
	name, err := m.resolveAssetName()
	if err != nil {
		return analytics.ContentMetadata{}, err
	}
	m.assetName = name

	meta := analytics.ContentMetadata{
		AssetName:  name,
		ViewerID:   pick(m.overrides.ViewerID, m.viewerID),
		StreamURL:  pick(m.overrides.StreamURL, m.streamURL),
		PlayerName: pick(m.overrides.PlayerName, m.playerName),
		StreamType: m.streamType,
		Duration:   m.duration,
	}
	if m.overrides.StreamType != analytics.StreamTypeUnknown {
		meta.StreamType = m.overrides.StreamType
	}
	if m.overrides.Duration > 0 {
		meta.Duration = m.overrides.Duration
	}

	custom := make(map[string]string, len(m.custom)+len(m.overrides.Custom))
	for k, v := range m.custom {
		custom[k] = v
	}
	for k, v := range m.overrides.Custom {
		custom[k] = v
	}
	meta.Custom = custom

	return meta, nil
}

// Reset clears both layers in preparation for the next session. Called
// exactly once per session teardown.
func (m *Model) Reset() {
	*m = Model{custom: make(map[string]string)}
}

func pick(override, derived string) string {
	if override != "" {
		return override
	}
	return derived
}
