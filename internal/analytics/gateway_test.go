// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package analytics

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

type capturedRequest struct {
	Method string
	Path   string
	Key    string
	Body   map[string]any
}

// newCollector spins up a fake collector that records every request and
// answers session creation with a fixed key.
func newCollector(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()

	var mu sync.Mutex
	var reqs []capturedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		reqs = append(reqs, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Key:    r.Header.Get("X-Customer-Key"),
			Body:   body,
		})
		mu.Unlock()

		if r.Method == http.MethodPost && r.URL.Path == "/v1/sessions" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"session_key":"sess-42"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func TestGatewayCreateSession(t *testing.T) {
	srv, requests := newCollector(t)
	defer srv.Close()

	g, err := NewGateway(GatewayConfig{URL: srv.URL, CustomerKey: "ck-test"})
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}

	key, err := g.CreateSession(ContentMetadata{AssetName: "Art of Motion"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if key != SessionKey("sess-42") {
		t.Errorf("Expected session key sess-42, got %q", key)
	}

	reqs := requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Key != "ck-test" {
		t.Errorf("Expected customer key header, got %q", reqs[0].Key)
	}
	if reqs[0].Body["asset_name"] != "Art of Motion" {
		t.Errorf("Expected asset name in body, got %v", reqs[0].Body)
	}
}

func TestGatewayRequiresConfig(t *testing.T) {
	if _, err := NewGateway(GatewayConfig{CustomerKey: "ck"}); err == nil {
		t.Error("Expected error for missing URL")
	}
	if _, err := NewGateway(GatewayConfig{URL: "http://localhost"}); err == nil {
		t.Error("Expected error for missing customer key")
	}
}

func TestGatewayStateManagerFlushesOnAttach(t *testing.T) {
	srv, requests := newCollector(t)
	defer srv.Close()

	g, err := NewGateway(GatewayConfig{URL: srv.URL, CustomerKey: "ck-test"})
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}

	psm := g.CreatePlayerStateManager()
	// Pre-attach updates must not hit the wire.
	psm.SetPlayerType("bitmovin-player")
	psm.SetPlayerVersion("8.187.0")
	if len(requests()) != 0 {
		t.Fatalf("Expected no requests before attach, got %d", len(requests()))
	}

	g.AttachPlayer(SessionKey("sess-42"), psm)

	reqs := requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected one flushed state request, got %d", len(reqs))
	}
	if reqs[0].Path != "/v1/sessions/sess-42/state" {
		t.Errorf("Expected state path, got %q", reqs[0].Path)
	}
	if reqs[0].Body["player_type"] != "bitmovin-player" || reqs[0].Body["player_version"] != "8.187.0" {
		t.Errorf("Expected cached player info in flush, got %v", reqs[0].Body)
	}

	// Post-attach updates go straight through.
	psm.SetPlayerState(StatePlaying)
	reqs = requests()
	if len(reqs) != 2 {
		t.Fatalf("Expected a second request after attach, got %d", len(reqs))
	}
	if reqs[1].Body["state"] != "PLAYING" {
		t.Errorf("Expected PLAYING state, got %v", reqs[1].Body)
	}
}

func TestGatewayBreakerOpensOnConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g, err := NewGateway(GatewayConfig{
		URL:                     srv.URL,
		CustomerKey:             "ck-test",
		BreakerFailureThreshold: 2,
	})
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := g.CreateSession(ContentMetadata{AssetName: "x"}); err == nil {
			t.Fatal("Expected failure from collector")
		}
	}

	// After the threshold the breaker is open; submissions fail fast.
	if _, err := g.submit(http.MethodPost, "/v1/sessions", nil); err == nil {
		t.Error("Expected open breaker to reject submission")
	}
}

func TestGatewayThrottleDropsExcessSubmissions(t *testing.T) {
	srv, requests := newCollector(t)
	defer srv.Close()

	g, err := NewGateway(GatewayConfig{
		URL:                 srv.URL,
		CustomerKey:         "ck-test",
		SubmitRatePerSecond: 1,
	})
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}

	// Burst of 1: the first goes through, the rest are dropped, no blocking.
	for i := 0; i < 5; i++ {
		g.SendCustomEvent(NoSessionKey, "burst", nil)
	}

	if got := len(requests()); got != 1 {
		t.Errorf("Expected exactly 1 request through the throttle, got %d", got)
	}
}
