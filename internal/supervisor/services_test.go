// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/pshanbhag/codetrack/internal/catalog"
	"github.com/pshanbhag/codetrack/internal/models"
)

type fakeServer struct {
	listenErr   error
	shutdownErr error

	stop     chan struct{}
	shutdown bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdown = true
	close(f.stop)
	return f.shutdownErr
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newFakeServer()
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled after shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}

	if !server.shutdown {
		t.Error("expected Shutdown to be called")
	}
}

func TestHTTPServiceStartupFailure(t *testing.T) {
	server := newFakeServer()
	server.listenErr = errors.New("bind: address already in use")
	svc := NewHTTPService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("expected wrapped listen error, got %v", err)
	}
}

func TestCatalogWarmServiceDoesNotRestart(t *testing.T) {
	warm := catalog.New("warm", time.Hour, func(ctx context.Context) ([]models.Problem, error) {
		return []models.Problem{{ContestID: 1, Index: "A", Name: "One"}}, nil
	})
	cold := catalog.New("cold", time.Hour, func(ctx context.Context) ([]models.Problem, error) {
		return nil, errors.New("upstream down")
	})

	svc := NewCatalogWarmService(warm, cold)
	err := svc.Serve(context.Background())
	if !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("expected ErrDoNotRestart, got %v", err)
	}

	if warm.Len() != 1 {
		t.Errorf("expected warmed cache with one entry, got %d", warm.Len())
	}
	if cold.Len() != 0 {
		t.Errorf("expected cold cache to stay empty, got %d", cold.Len())
	}
}

func TestTreeSupervisesServices(t *testing.T) {
	tree := NewTree(nil, DefaultTreeConfig())
	if tree.Root() == nil {
		t.Fatal("expected a root supervisor")
	}

	server := newFakeServer()
	tree.AddAPIService(NewHTTPService(server, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
}
