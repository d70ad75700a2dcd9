// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package player

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// EventType identifies one of the player's fixed lifecycle events.
type EventType string

// The full set of lifecycle events a player emits. The tracker subscribes to
// all of them; ordering across types follows the player's emission order and
// is not guaranteed to be perfect (pre-roll ad breaks and quality changes can
// arrive before the first play).
const (
	EventSourceLoaded        EventType = "sourceloaded"
	EventSourceUnloaded      EventType = "sourceunloaded"
	EventPlay                EventType = "play"
	EventPlaying             EventType = "playing"
	EventPaused              EventType = "paused"
	EventStallStarted        EventType = "stallstarted"
	EventStallEnded          EventType = "stallended"
	EventPlaybackFinished    EventType = "playbackfinished"
	EventSeek                EventType = "seek"
	EventSeeked              EventType = "seeked"
	EventTimeShift           EventType = "timeshift"
	EventTimeShifted         EventType = "timeshifted"
	EventVideoQualityChanged EventType = "videoqualitychanged"
	EventAudioQualityChanged EventType = "audioqualitychanged"
	EventMuted               EventType = "muted"
	EventUnmuted             EventType = "unmuted"
	EventViewModeChanged     EventType = "viewmodechanged"
	EventCastStarted         EventType = "caststarted"
	EventCastStopped         EventType = "caststopped"
	EventAdBreakStarted      EventType = "adbreakstarted"
	EventAdBreakFinished     EventType = "adbreakfinished"
	EventAdSkipped           EventType = "adskipped"
	EventAdError             EventType = "aderror"
	EventError               EventType = "error"
	EventDestroy             EventType = "destroy"
)

// EndOfStream is the schedule-time sentinel marking a post-roll ad break.
func EndOfStream() float64 { return math.Inf(1) }

// AdBreak describes a scheduled ad break as reported by the player.
type AdBreak struct {
	// ScheduleTime is the position in the content timeline, in seconds,
	// at which the break is scheduled. EndOfStream() marks a post-roll.
	ScheduleTime float64
}

// Event is the canonical player event delivered to subscribed handlers.
// Payload fields are sparse: only the fields relevant to the event type are
// populated, everything else stays at its zero value.
type Event struct {
	// Identification
	ID        string
	Type      EventType
	Timestamp time.Time

	// Seek / time-shift payload
	SeekTarget float64 // target position in seconds
	Position   float64 // position when the event fired, in seconds

	// Quality-changed payload
	Bitrate int64 // bits per second of the new quality

	// Ad-break payload
	AdBreak *AdBreak

	// Error payload
	Code    int
	Message string

	// Attributes carries genuinely open-ended payloads (view mode names,
	// cast target descriptions). Nested payload keys are flattened with a
	// "." separator, e.g. "target.name".
	Attributes map[string]string
}

// NewEvent creates an event of the given type with identification filled in.
func NewEvent(t EventType) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now(),
	}
}

// Handler consumes a player event. Handlers run to completion on the
// goroutine delivering the event.
type Handler func(Event)

// HandlerID is the opaque handle a player issues for a subscription.
// Unsubscribing is expressed by releasing the handle, so a registry can tear
// down every subscription it made without comparing function values.
type HandlerID uint64
