// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package stall implements the single-shot debounce timer that delays a
// BUFFERING report long enough to absorb stalls which resolve on their own,
// e.g. seeks served entirely from buffer.
package stall

import "time"

// DefaultWindow is the debounce delay used when none is configured.
const DefaultWindow = 100 * time.Millisecond

// Debouncer arms a one-shot timer whose firing reports buffering. It is not
// safe for concurrent use on its own: Start and Clear must be called under
// the owner's lock, and the fire callback must re-check Generation under
// that same lock before acting. The generation check is what guarantees a
// fire can never take effect once Clear has been called for that arming.
type Debouncer struct {
	window time.Duration
	fire   func(gen uint64)

	timer *time.Timer
	gen   uint64
}

// New creates a debouncer with the given window; 0 selects DefaultWindow.
// fire runs on the runtime timer goroutine and receives the generation the
// timer was armed with.
func New(window time.Duration, fire func(gen uint64)) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window, fire: fire}
}

// Start (re)arms the timer. Rearming while armed restarts the delay; only
// one timer is ever outstanding.
func (d *Debouncer) Start() {
	d.stop()
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// Clear disarms the timer without firing. An in-flight callback that
// already left AfterFunc is invalidated by the generation bump.
func (d *Debouncer) Clear() {
	d.stop()
	d.gen++
}

// Generation returns the current arming generation. A fire callback acts
// only if its generation still matches.
func (d *Debouncer) Generation() uint64 {
	return d.gen
}

func (d *Debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
