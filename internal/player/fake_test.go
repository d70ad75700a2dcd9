// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package player

import "testing"

func TestFakeDispatchesInRegistrationOrder(t *testing.T) {
	f := NewFake()

	var order []int
	f.On(EventPlay, func(Event) { order = append(order, 1) })
	f.On(EventPlay, func(Event) { order = append(order, 2) })
	f.On(EventPlay, func(Event) { order = append(order, 3) })

	f.EmitType(EventPlay)

	if len(order) != 3 {
		t.Fatalf("Expected 3 handler invocations, got %d", len(order))
	}
	for i, got := range order {
		if got != i+1 {
			t.Errorf("Expected handler %d at position %d, got %d", i+1, i, got)
		}
	}
}

func TestFakeOffRemovesOnlyThatSubscription(t *testing.T) {
	f := NewFake()

	calledA, calledB := 0, 0
	idA := f.On(EventPaused, func(Event) { calledA++ })
	f.On(EventPaused, func(Event) { calledB++ })

	f.Off(EventPaused, idA)
	f.EmitType(EventPaused)

	if calledA != 0 {
		t.Errorf("Expected removed handler not to fire, fired %d times", calledA)
	}
	if calledB != 1 {
		t.Errorf("Expected remaining handler to fire once, fired %d times", calledB)
	}
	if f.HandlerCount() != 1 {
		t.Errorf("Expected 1 live subscription, got %d", f.HandlerCount())
	}
}

func TestFakeOffUnknownHandleIsIgnored(t *testing.T) {
	f := NewFake()
	f.On(EventPlay, func(Event) {})

	f.Off(EventPlay, HandlerID(9999))
	f.Off(EventPaused, HandlerID(1))

	if f.HandlerCount() != 1 {
		t.Errorf("Expected subscription to survive unknown-handle removal, got %d", f.HandlerCount())
	}
}

func TestFakeUnsubscribeDuringDispatch(t *testing.T) {
	f := NewFake()

	var fired []string
	var idB HandlerID
	f.On(EventPlaying, func(Event) {
		fired = append(fired, "a")
		f.Off(EventPlaying, idB)
	})
	idB = f.On(EventPlaying, func(Event) { fired = append(fired, "b") })

	// The snapshot taken at Emit time still delivers to b this round.
	f.EmitType(EventPlaying)
	if len(fired) != 2 {
		t.Fatalf("Expected both handlers in the first round, got %v", fired)
	}

	fired = nil
	f.EmitType(EventPlaying)
	if len(fired) != 1 || fired[0] != "a" {
		t.Errorf("Expected only handler a in the second round, got %v", fired)
	}
}

func TestFakeLoadResetsPlaybackState(t *testing.T) {
	f := NewFake()
	f.Playing = true

	f.Load(&Source{Title: "Art of Motion", URL: "https://cdn.example.com/aom.m3u8"}, 210, false)

	if f.IsPlaying() {
		t.Error("Expected playback state to reset on load")
	}
	if f.Source() == nil || f.Source().Title != "Art of Motion" {
		t.Error("Expected loaded source to be exposed")
	}
	if f.Duration() != 210 {
		t.Errorf("Expected duration 210, got %v", f.Duration())
	}
}
