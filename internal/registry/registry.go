// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package registry tracks every player-event subscription the tracker makes
// so teardown can be expressed as "release every handle this registry
// issued", independent of how the player tracks listeners.
package registry

import (
	"sync"

	"github.com/tomtom215/playtrace/internal/player"
)

type subscription struct {
	eventType player.EventType
	id        player.HandlerID
}

// Registry records subscriptions made on one player.
type Registry struct {
	player player.Player

	mu   sync.Mutex
	subs []subscription
}

// New creates a registry for the given player.
func New(p player.Player) *Registry {
	return &Registry{player: p}
}

// Add subscribes the handler on the player and records the issued handle.
func (r *Registry) Add(t player.EventType, h player.Handler) {
	id := r.player.On(t, h)

	r.mu.Lock()
	r.subs = append(r.subs, subscription{eventType: t, id: id})
	r.mu.Unlock()
}

// Remove unsubscribes the recorded handle for the given event type and
// handler ID. Unknown handles are ignored.
func (r *Registry) Remove(t player.EventType, id player.HandlerID) {
	r.mu.Lock()
	for i, s := range r.subs {
		if s.eventType == t && s.id == id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.player.Off(t, id)
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Clear unsubscribes every handler this registry added, regardless of event
// type. Idempotent. The recorded list is swapped out before iterating, so a
// concurrent Remove cannot cause a handle to be missed or released twice.
func (r *Registry) Clear() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, s := range subs {
		r.player.Off(s.eventType, s.id)
	}
}
