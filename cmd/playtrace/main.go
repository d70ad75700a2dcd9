// Playtrace - Player-Side Viewing Session Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playtrace

// Package main is the Playtrace playback simulator.
//
// The simulator drives a scripted fake player through one of several playback
// scenarios and runs the tracker against it, either in dry-run mode (the
// in-memory recorder, default) or against a real collector when a gateway URL
// is configured. It doubles as a smoke test of the whole session pipeline and
// as a traffic generator for collector development.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins):
//   - Environment variables (PLAYTRACE_ prefix)
//   - Config file (config.yaml, or PLAYTRACE_CONFIG)
//   - Built-in defaults
//
// # Scenarios
//
//   - basic: load, play, pause, resume, quality change, finish
//   - preroll-reorder: ad break and quality change arrive before play
//   - stall: short absorbed stall, then one that outlives the debounce window
//   - error: fatal player error mid-playback
//
// # Example Usage
//
// Dry run against the recorder:
//
//	PLAYTRACE_LOGGING_LEVEL=debug ./playtrace
//
// Against a collector:
//
//	export PLAYTRACE_TRACKER_GATEWAY_URL=https://collector.example.com
//	export PLAYTRACE_TRACKER_CUSTOMER_KEY=your-customer-key
//	export PLAYTRACE_SCENARIO_NAME=stall
//	./playtrace
//
// # Operational Endpoints
//
// While the scenario runs, an HTTP server exposes /healthz and Prometheus
// metrics on /metrics (default 127.0.0.1:9464). The server handles graceful
// shutdown on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/playtrace"
	"github.com/tomtom215/playtrace/internal/analytics"
	"github.com/tomtom215/playtrace/internal/config"
	"github.com/tomtom215/playtrace/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})

	logging.Info().
		Str("version", playtrace.Version).
		Str("scenario", cfg.Scenario.Name).
		Msg("Starting Playtrace simulator")

	// Dry-run against the recorder unless a collector is configured. The
	// tracker builds its own gateway from the URL, so the recorder is only
	// instantiated in dry-run mode.
	var client analytics.Client
	var rec *analytics.Recorder
	if cfg.Tracker.GatewayURL == "" {
		rec = analytics.NewRecorder()
		client = rec
		logging.Info().Msg("No gateway URL configured, running against the in-memory recorder")
	} else {
		logging.Info().Str("gateway_url", cfg.Tracker.GatewayURL).Msg("Running against collector")
	}

	srv := startOpsServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scenario, ok := scenarios[cfg.Scenario.Name]
	if !ok {
		logging.Fatal().Str("scenario", cfg.Scenario.Name).Msg("Unknown scenario")
	}

	logging.Info().
		Str("scenario", cfg.Scenario.Name).
		Str("description", scenario.description).
		Msg("Running scenario")

	if err := scenario.run(ctx, cfg, client); err != nil {
		logging.Error().Err(err).Str("scenario", cfg.Scenario.Name).Msg("Scenario failed")
	} else {
		logging.Info().Str("scenario", cfg.Scenario.Name).Msg("Scenario complete")
	}

	if rec != nil {
		rec.LogCalls()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Ops server shutdown failed")
	}
}

// startOpsServer serves /healthz and /metrics in the background.
func startOpsServer(cfg *config.Config) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("Ops server failed")
			os.Exit(1)
		}
	}()
	return srv
}
