// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package registry

import (
	"testing"

	"github.com/tomtom215/playtrace/internal/player"
)

func TestAddSubscribesOnPlayer(t *testing.T) {
	f := player.NewFake()
	r := New(f)

	called := 0
	r.Add(player.EventPlay, func(player.Event) { called++ })

	f.EmitType(player.EventPlay)

	if called != 1 {
		t.Errorf("Expected handler to fire once, fired %d times", called)
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 recorded subscription, got %d", r.Len())
	}
}

func TestClearReleasesEveryHandle(t *testing.T) {
	f := player.NewFake()
	r := New(f)

	called := 0
	h := func(player.Event) { called++ }
	r.Add(player.EventPlay, h)
	r.Add(player.EventPlaying, h)
	r.Add(player.EventPaused, h)
	r.Add(player.EventError, h)

	r.Clear()

	f.EmitType(player.EventPlay)
	f.EmitType(player.EventPlaying)
	f.EmitType(player.EventPaused)
	f.EmitType(player.EventError)

	if called != 0 {
		t.Errorf("Expected no handlers after Clear, %d fired", called)
	}
	if f.HandlerCount() != 0 {
		t.Errorf("Expected player to have 0 subscriptions, got %d", f.HandlerCount())
	}
	if r.Len() != 0 {
		t.Errorf("Expected registry to be empty, got %d", r.Len())
	}
}

func TestClearIsIdempotent(t *testing.T) {
	f := player.NewFake()
	r := New(f)
	r.Add(player.EventPlay, func(player.Event) {})

	r.Clear()
	r.Clear()

	if f.HandlerCount() != 0 {
		t.Errorf("Expected 0 subscriptions after double Clear, got %d", f.HandlerCount())
	}
}

func TestRemoveUnsubscribesSingleHandler(t *testing.T) {
	f := player.NewFake()
	r := New(f)

	calledA, calledB := 0, 0
	r.Add(player.EventPlay, func(player.Event) { calledA++ })
	r.Add(player.EventPlay, func(player.Event) { calledB++ })

	// The fake issues IDs starting at 1 in registration order.
	r.Remove(player.EventPlay, player.HandlerID(1))

	f.EmitType(player.EventPlay)

	if calledA != 0 {
		t.Errorf("Expected removed handler silent, fired %d times", calledA)
	}
	if calledB != 1 {
		t.Errorf("Expected remaining handler to fire once, fired %d times", calledB)
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 recorded subscription, got %d", r.Len())
	}
}
