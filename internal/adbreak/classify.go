// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package adbreak classifies ad breaks by their position in the content
// timeline.
package adbreak

import "github.com/tomtom215/playtrace/internal/analytics"

// Classify derives the ad position from the break's scheduled time and the
// content duration, both in seconds. Schedule times at or past the duration
// (including the infinite end-of-stream sentinel) classify as post-roll.
// Pure function, no state.
func Classify(scheduleTime, duration float64) analytics.AdPosition {
	switch {
	case scheduleTime <= 0:
		return analytics.AdPreroll
	case scheduleTime >= duration:
		return analytics.AdPostroll
	default:
		return analytics.AdMidroll
	}
}

// IsPostroll reports whether a break at scheduleTime is a post-roll for the
// given duration.
func IsPostroll(scheduleTime, duration float64) bool {
	return Classify(scheduleTime, duration) == analytics.AdPostroll
}
