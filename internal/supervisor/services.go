// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/pshanbhag/codetrack/internal/catalog"
	"github.com/pshanbhag/codetrack/internal/logging"
	syncer "github.com/pshanbhag/codetrack/internal/sync"
)

// HTTPServer matches the *http.Server lifecycle methods the service
// wrapper needs.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService adapts a blocking ListenAndServe server to suture's
// context-driven Serve contract, with graceful shutdown on cancel.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPService wraps an HTTP server as a supervised service.
func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The serve context is canceled, shutdown needs its own.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// SchedulerService runs the sync scheduler loop under supervision. The
// scheduler's Run already blocks on its context, so the wrapper is thin.
type SchedulerService struct {
	scheduler *syncer.Scheduler
}

// NewSchedulerService wraps the sync scheduler as a supervised service.
func NewSchedulerService(scheduler *syncer.Scheduler) *SchedulerService {
	return &SchedulerService{scheduler: scheduler}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	return s.scheduler.Run(ctx)
}

func (s *SchedulerService) String() string { return "sync-scheduler" }

// CatalogWarmService warms a catalog cache once at startup and exits.
// A cold upstream is logged, never fatal: the caches refresh lazily on
// first use anyway.
type CatalogWarmService struct {
	caches []*catalog.Cache
}

// NewCatalogWarmService wraps startup cache warming as a supervised
// one-shot service.
func NewCatalogWarmService(caches ...*catalog.Cache) *CatalogWarmService {
	return &CatalogWarmService{caches: caches}
}

// Serve implements suture.Service. It terminates the service via
// suture.ErrDoNotRestart once the warm-up attempt completes.
func (s *CatalogWarmService) Serve(ctx context.Context) error {
	for _, c := range s.caches {
		if err := c.Warm(ctx); err != nil {
			logging.Warn().Err(err).Msg("Catalog warm-up failed, cache stays lazy")
		}
	}
	return suture.ErrDoNotRestart
}

func (s *CatalogWarmService) String() string { return "catalog-warmup" }
