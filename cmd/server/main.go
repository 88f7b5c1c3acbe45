// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package main is the entry point for the codetrack server.
//
// Codetrack tracks competitive-programming profiles against the Codeforces
// API: it synchronizes ratings, contest history, and submission statistics
// on a schedule, recommends practice problems matched to each profile's
// level, and reminds inactive members by email.
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and optional config file (Koanf v2)
//  2. Storage: BadgerDB profile store
//  3. Codeforces client: rate-limited HTTP client behind a circuit breaker
//  4. Catalog caches: problemset snapshots for recommendations and passthrough
//  5. Sync manager and scheduler
//  6. HTTP server: REST API under /api/v1 plus Prometheus /metrics
//
// Long-running components run under a suture supervision tree; SIGINT and
// SIGTERM trigger graceful shutdown with a bounded drain timeout.
//
// Example usage:
//
//	export CODETRACK_STORAGE_PATH=/data/codetrack
//	export CODETRACK_NOTIFY_ENABLED=true
//	export CODETRACK_NOTIFY_SMTP_HOST=smtp.example.com
//	export CODETRACK_NOTIFY_FROM=codetrack@example.com
//	./codetrack
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pshanbhag/codetrack/internal/api"
	"github.com/pshanbhag/codetrack/internal/catalog"
	"github.com/pshanbhag/codetrack/internal/codeforces"
	"github.com/pshanbhag/codetrack/internal/config"
	"github.com/pshanbhag/codetrack/internal/logging"
	"github.com/pshanbhag/codetrack/internal/notify"
	"github.com/pshanbhag/codetrack/internal/recommend"
	"github.com/pshanbhag/codetrack/internal/store"
	"github.com/pshanbhag/codetrack/internal/supervisor"
	syncer "github.com/pshanbhag/codetrack/internal/sync"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("storage_path", cfg.Storage.Path).
		Str("codeforces_url", cfg.Codeforces.BaseURL).
		Dur("sync_interval", cfg.Sync.Interval).
		Msg("Starting codetrack")

	var st store.ProfileStore
	if cfg.Storage.Path == "" {
		logging.Warn().Msg("No storage path configured, profiles are kept in memory only")
		st = store.NewMemoryStore()
	} else {
		badgerStore, err := store.OpenBadger(cfg.Storage.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("Failed to open profile store")
		}
		st = badgerStore
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing profile store")
		}
	}()

	client := codeforces.NewCircuitBreakerClient(&cfg.Codeforces)

	recommendCache := catalog.New("recommend", cfg.Catalog.TTL, client.FetchProblems)
	passthroughCache := catalog.New("problemset", cfg.Catalog.PassthroughTTL, client.FetchProblems)
	engine := recommend.NewEngine(recommendCache)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.Enabled {
		notifier = notify.NewEmailNotifier(&cfg.Notify)
		logging.Info().
			Str("smtp_host", cfg.Notify.SMTPHost).
			Int("smtp_port", cfg.Notify.SMTPPort).
			Msg("Inactivity reminders enabled")
	} else {
		logging.Info().Msg("Inactivity reminders disabled")
	}

	manager := syncer.NewManager(st, client, notifier, &cfg.Sync, &cfg.Codeforces)
	scheduler := syncer.NewScheduler(manager, &cfg.Sync)

	handler := api.NewHandler(st, manager, scheduler, engine, passthroughCache, client.State, version)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, &cfg.API),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if cfg.Catalog.WarmOnStartup {
		tree.AddBackgroundService(supervisor.NewCatalogWarmService(recommendCache, passthroughCache))
	}
	tree.AddBackgroundService(supervisor.NewSchedulerService(scheduler))
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
