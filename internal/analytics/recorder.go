// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package analytics

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/playtrace/internal/logging"
)

// Call is one recorded backend invocation.
type Call struct {
	Op       string
	Key      SessionKey
	Meta     ContentMetadata
	State    PlayerState
	Kbps     int
	Position AdPosition
	Message  string
	Severity Severity
	Name     string
	Attrs    map[string]string
}

// Recorder is an in-memory Client that records every call. It backs unit
// tests and the simulator's dry-run mode. FailCreate forces CreateSession to
// fail, for exercising video-start-failure paths.
type Recorder struct {
	mu         sync.Mutex
	calls      []Call
	active     map[SessionKey]bool
	FailCreate bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{active: make(map[SessionKey]bool)}
}

// Calls returns a copy of all recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsOf returns the recorded calls matching the given operation name.
func (r *Recorder) CallsOf(op string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ActiveSessions returns the number of sessions created but not cleaned up.
func (r *Recorder) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, open := range r.active {
		if open {
			n++
		}
	}
	return n
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// CreateSession implements Client.
func (r *Recorder) CreateSession(meta ContentMetadata) (SessionKey, error) {
	if r.FailCreate {
		r.record(Call{Op: "CreateSession", Meta: meta, Message: "forced failure"})
		return NoSessionKey, fmt.Errorf("create session: backend rejected request")
	}
	key := SessionKey(uuid.New().String())
	r.mu.Lock()
	r.active[key] = true
	r.calls = append(r.calls, Call{Op: "CreateSession", Key: key, Meta: meta})
	r.mu.Unlock()
	return key, nil
}

// UpdateContentMetadata implements Client.
func (r *Recorder) UpdateContentMetadata(key SessionKey, meta ContentMetadata) {
	r.record(Call{Op: "UpdateContentMetadata", Key: key, Meta: meta})
}

// CleanupSession implements Client.
func (r *Recorder) CleanupSession(key SessionKey) {
	r.mu.Lock()
	r.active[key] = false
	r.calls = append(r.calls, Call{Op: "CleanupSession", Key: key})
	r.mu.Unlock()
}

// CreatePlayerStateManager implements Client.
func (r *Recorder) CreatePlayerStateManager() PlayerStateManager {
	r.record(Call{Op: "CreatePlayerStateManager"})
	return &recorderPSM{r: r}
}

// ReleasePlayerStateManager implements Client.
func (r *Recorder) ReleasePlayerStateManager(psm PlayerStateManager) {
	r.record(Call{Op: "ReleasePlayerStateManager"})
}

// AttachPlayer implements Client.
func (r *Recorder) AttachPlayer(key SessionKey, psm PlayerStateManager) {
	r.record(Call{Op: "AttachPlayer", Key: key})
}

// DetachPlayer implements Client.
func (r *Recorder) DetachPlayer(key SessionKey) {
	r.record(Call{Op: "DetachPlayer", Key: key})
}

// AdStart implements Client.
func (r *Recorder) AdStart(key SessionKey, position AdPosition) {
	r.record(Call{Op: "AdStart", Key: key, Position: position})
}

// AdEnd implements Client.
func (r *Recorder) AdEnd(key SessionKey) {
	r.record(Call{Op: "AdEnd", Key: key})
}

// ReportError implements Client.
func (r *Recorder) ReportError(key SessionKey, message string, severity Severity) {
	r.record(Call{Op: "ReportError", Key: key, Message: message, Severity: severity})
}

// SendCustomEvent implements Client.
func (r *Recorder) SendCustomEvent(key SessionKey, name string, attributes map[string]string) {
	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}
	r.record(Call{Op: "SendCustomEvent", Key: key, Name: name, Attrs: attrs})
}

// recorderPSM records state-manager calls back into its recorder.
type recorderPSM struct {
	r *Recorder
}

func (p *recorderPSM) SetPlayerState(state PlayerState) {
	p.r.record(Call{Op: "SetPlayerState", State: state})
}

func (p *recorderPSM) SetBitrateKbps(kbps int) {
	p.r.record(Call{Op: "SetBitrateKbps", Kbps: kbps})
}

func (p *recorderPSM) SetPlayerType(name string) {
	p.r.record(Call{Op: "SetPlayerType", Name: name})
}

func (p *recorderPSM) SetPlayerVersion(version string) {
	p.r.record(Call{Op: "SetPlayerVersion", Name: version})
}

func (p *recorderPSM) SetSeekStart(targetSeconds float64) {
	p.r.record(Call{Op: "SetSeekStart"})
}

func (p *recorderPSM) SetSeekEnd() {
	p.r.record(Call{Op: "SetSeekEnd"})
}

// LogCalls logs every recorded call at debug level. The simulator uses this
// after a dry run to show the produced session timeline.
func (r *Recorder) LogCalls() {
	for i, c := range r.Calls() {
		logging.Debug().
			Int("seq", i).
			Str("op", c.Op).
			Str("session_key", string(c.Key)).
			Str("state", string(c.State)).
			Msg("Recorded backend call")
	}
}
