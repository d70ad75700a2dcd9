// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package player

import "sort"

// Fake is a scripted, synchronous Player for tests and the simulator.
// Emit delivers an event to every registered handler for its type, in
// registration order, on the calling goroutine, before returning. State
// accessors return whatever the test last set, so a script can interleave
// state flips with event emission exactly the way a real player would.
//
// Fake is not safe for concurrent use; scripts drive it from one goroutine.
type Fake struct {
	nextID   HandlerID
	handlers map[EventType][]fakeSub

	CurrentSource *Source
	DurationSec   float64
	Live          bool
	Playing       bool
	Paused        bool
	PlayerVersion string
	Configuration Config
}

type fakeSub struct {
	id HandlerID
	h  Handler
}

// NewFake creates a fake player with no source loaded.
func NewFake() *Fake {
	return &Fake{
		nextID:        1,
		handlers:      make(map[EventType][]fakeSub),
		PlayerVersion: "8.187.0",
	}
}

// On registers a handler and returns its handle.
func (f *Fake) On(t EventType, h Handler) HandlerID {
	id := f.nextID
	f.nextID++
	f.handlers[t] = append(f.handlers[t], fakeSub{id: id, h: h})
	return id
}

// Off removes the subscription with the given handle, if present.
func (f *Fake) Off(t EventType, id HandlerID) {
	subs := f.handlers[t]
	for i, s := range subs {
		if s.id == id {
			f.handlers[t] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit delivers the event to all handlers registered for its type.
func (f *Fake) Emit(ev Event) {
	// Snapshot so handlers may subscribe/unsubscribe during dispatch.
	subs := append([]fakeSub(nil), f.handlers[ev.Type]...)
	for _, s := range subs {
		s.h(ev)
	}
}

// EmitType is shorthand for emitting a payload-free event.
func (f *Fake) EmitType(t EventType) {
	f.Emit(NewEvent(t))
}

// HandlerCount returns the number of live subscriptions across all types.
func (f *Fake) HandlerCount() int {
	n := 0
	for _, subs := range f.handlers {
		n += len(subs)
	}
	return n
}

// SubscribedTypes returns the sorted event types with at least one handler.
func (f *Fake) SubscribedTypes() []EventType {
	var types []EventType
	for t, subs := range f.handlers {
		if len(subs) > 0 {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Load sets the current source and resets playback state, mirroring what a
// real player does when a new source is loaded.
func (f *Fake) Load(src *Source, durationSec float64, live bool) {
	f.CurrentSource = src
	f.DurationSec = durationSec
	f.Live = live
	f.Playing = false
	f.Paused = false
}

// Source implements Player.
func (f *Fake) Source() *Source { return f.CurrentSource }

// Duration implements Player.
func (f *Fake) Duration() float64 { return f.DurationSec }

// IsLive implements Player.
func (f *Fake) IsLive() bool { return f.Live }

// IsPlaying implements Player.
func (f *Fake) IsPlaying() bool { return f.Playing }

// IsPaused implements Player.
func (f *Fake) IsPaused() bool { return f.Paused }

// Version implements Player.
func (f *Fake) Version() string { return f.PlayerVersion }

// Config implements Player.
func (f *Fake) Config() Config { return f.Configuration }
