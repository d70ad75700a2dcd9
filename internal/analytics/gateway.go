// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

package analytics

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/playtrace/internal/logging"
)

// GatewayConfig holds configuration for the HTTP gateway client.
type GatewayConfig struct {
	// URL is the collector base URL, e.g. https://collector.example.com.
	URL string

	// CustomerKey authenticates the integration and is sent on every
	// request.
	CustomerKey string

	// Timeout bounds each HTTP request. Default: 5s.
	Timeout time.Duration

	// SubmitRatePerSecond caps outbound submissions. Requests over the
	// cap are dropped, not queued; the tracker never blocks a player
	// callback on the network. 0 means unlimited.
	SubmitRatePerSecond float64

	// BreakerFailureThreshold is the number of consecutive failures that
	// opens the circuit. Default: 5.
	BreakerFailureThreshold uint32
}

// Gateway is the HTTP Client implementation. It is fire-and-forget by
// design: failed or throttled submissions are logged and dropped, never
// retried, because transport reliability belongs to the collector side.
type Gateway struct {
	cfg     GatewayConfig
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
}

// NewGateway creates a gateway client for the given collector.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("gateway: URL required")
	}
	if cfg.CustomerKey == "" {
		return nil, fmt.Errorf("gateway: customer key required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.SubmitRatePerSecond > 0 {
		burst := int(cfg.SubmitRatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.SubmitRatePerSecond), burst)
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "analytics-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Gateway circuit breaker state change")
		},
	})

	return &Gateway{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		limiter: limiter,
	}, nil
}

// submit sends one JSON request through the rate limiter and breaker.
// Returns the response body for callers that need one; most discard it.
func (g *Gateway) submit(method, path string, payload any) ([]byte, error) {
	if !g.limiter.Allow() {
		return nil, fmt.Errorf("gateway: submission throttled")
	}

	return g.breaker.Execute(func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("gateway: encode %s: %w", path, err)
			}
			body = bytes.NewReader(raw)
		}

		req, err := http.NewRequest(method, g.cfg.URL+path, body)
		if err != nil {
			return nil, fmt.Errorf("gateway: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Customer-Key", g.cfg.CustomerKey)

		resp, err := g.httpc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("gateway: %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("gateway: read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("gateway: %s %s: status %d", method, path, resp.StatusCode)
		}
		return raw, nil
	})
}

// send is submit for fire-and-forget calls: failures are logged and dropped.
func (g *Gateway) send(method, path string, payload any) {
	if _, err := g.submit(method, path, payload); err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Gateway submission dropped")
	}
}

type createSessionResponse struct {
	SessionKey string `json:"session_key"`
}

// CreateSession implements Client.
func (g *Gateway) CreateSession(meta ContentMetadata) (SessionKey, error) {
	raw, err := g.submit(http.MethodPost, "/v1/sessions", meta)
	if err != nil {
		return NoSessionKey, err
	}

	var resp createSessionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return NoSessionKey, fmt.Errorf("gateway: decode session response: %w", err)
	}
	if resp.SessionKey == "" {
		return NoSessionKey, fmt.Errorf("gateway: collector returned empty session key")
	}
	return SessionKey(resp.SessionKey), nil
}

// UpdateContentMetadata implements Client.
func (g *Gateway) UpdateContentMetadata(key SessionKey, meta ContentMetadata) {
	g.send(http.MethodPost, "/v1/sessions/"+string(key)+"/metadata", meta)
}

// CleanupSession implements Client.
func (g *Gateway) CleanupSession(key SessionKey) {
	g.send(http.MethodDelete, "/v1/sessions/"+string(key), nil)
}

// CreatePlayerStateManager implements Client.
func (g *Gateway) CreatePlayerStateManager() PlayerStateManager {
	return &gatewayPSM{g: g}
}

// ReleasePlayerStateManager implements Client.
func (g *Gateway) ReleasePlayerStateManager(psm PlayerStateManager) {
	if p, ok := psm.(*gatewayPSM); ok {
		p.detach()
	}
}

// AttachPlayer implements Client.
func (g *Gateway) AttachPlayer(key SessionKey, psm PlayerStateManager) {
	if p, ok := psm.(*gatewayPSM); ok {
		p.attach(key)
	}
}

// DetachPlayer implements Client.
func (g *Gateway) DetachPlayer(key SessionKey) {
	// State updates stop arriving once the tracker detaches; nothing to
	// tell the collector beyond the session teardown that follows.
}

type adEventBody struct {
	Action   string     `json:"action"` // start or end
	Position AdPosition `json:"position,omitempty"`
}

// AdStart implements Client.
func (g *Gateway) AdStart(key SessionKey, position AdPosition) {
	g.send(http.MethodPost, "/v1/sessions/"+string(key)+"/ads", adEventBody{Action: "start", Position: position})
}

// AdEnd implements Client.
func (g *Gateway) AdEnd(key SessionKey) {
	g.send(http.MethodPost, "/v1/sessions/"+string(key)+"/ads", adEventBody{Action: "end"})
}

type errorBody struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ReportError implements Client.
func (g *Gateway) ReportError(key SessionKey, message string, severity Severity) {
	g.send(http.MethodPost, "/v1/sessions/"+string(key)+"/errors", errorBody{Message: message, Severity: severity})
}

type customEventBody struct {
	SessionKey string            `json:"session_key,omitempty"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SendCustomEvent implements Client.
func (g *Gateway) SendCustomEvent(key SessionKey, name string, attributes map[string]string) {
	body := customEventBody{Name: name, Attributes: attributes}
	if key != NoSessionKey {
		body.SessionKey = string(key)
	}
	g.send(http.MethodPost, "/v1/events", body)
}

// stateBody is one player-state update. Only the fields relevant to the
// update are set.
type stateBody struct {
	State         PlayerState `json:"state,omitempty"`
	BitrateKbps   int         `json:"bitrate_kbps,omitempty"`
	PlayerType    string      `json:"player_type,omitempty"`
	PlayerVersion string      `json:"player_version,omitempty"`
	SeekStart     *float64    `json:"seek_start,omitempty"`
	SeekEnd       bool        `json:"seek_end,omitempty"`
}

// gatewayPSM forwards state updates for its attached session. Updates made
// before attachment (player type/version, an early bitrate) are cached and
// flushed when the tracker attaches the manager to a session.
type gatewayPSM struct {
	g *Gateway

	mu            sync.Mutex
	key           SessionKey
	playerType    string
	playerVersion string
	kbps          int
	state         PlayerState
}

func (p *gatewayPSM) attach(key SessionKey) {
	p.mu.Lock()
	p.key = key
	pending := stateBody{
		State:         p.state,
		BitrateKbps:   p.kbps,
		PlayerType:    p.playerType,
		PlayerVersion: p.playerVersion,
	}
	p.mu.Unlock()

	p.g.send(http.MethodPost, "/v1/sessions/"+string(key)+"/state", pending)
}

func (p *gatewayPSM) detach() {
	p.mu.Lock()
	p.key = NoSessionKey
	p.mu.Unlock()
}

func (p *gatewayPSM) post(body stateBody) {
	p.mu.Lock()
	key := p.key
	p.mu.Unlock()
	if key == NoSessionKey {
		return
	}
	p.g.send(http.MethodPost, "/v1/sessions/"+string(key)+"/state", body)
}

func (p *gatewayPSM) SetPlayerState(state PlayerState) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
	p.post(stateBody{State: state})
}

func (p *gatewayPSM) SetBitrateKbps(kbps int) {
	p.mu.Lock()
	p.kbps = kbps
	p.mu.Unlock()
	p.post(stateBody{BitrateKbps: kbps})
}

func (p *gatewayPSM) SetPlayerType(name string) {
	p.mu.Lock()
	p.playerType = name
	p.mu.Unlock()
	p.post(stateBody{PlayerType: name})
}

func (p *gatewayPSM) SetPlayerVersion(version string) {
	p.mu.Lock()
	p.playerVersion = version
	p.mu.Unlock()
	p.post(stateBody{PlayerVersion: version})
}

func (p *gatewayPSM) SetSeekStart(targetSeconds float64) {
	p.post(stateBody{SeekStart: &targetSeconds})
}

func (p *gatewayPSM) SetSeekEnd() {
	p.post(stateBody{SeekEnd: true})
}
