// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package codeforces

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pshanbhag/codetrack/internal/config"
)

func newBreakerClient(baseURL string) *CircuitBreakerClient {
	return NewCircuitBreakerClient(&config.CodeforcesConfig{
		BaseURL:         baseURL,
		RequestTimeout:  5 * time.Second,
		SubmissionCount: 1000,
		RatePerSecond:   1000,
		RateBurst:       1000,
	})
}

func TestCircuitBreakerOpensOnRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newBreakerClient(srv.URL)

	for i := 0; i < 12; i++ {
		_, err := client.FetchUserInfo(context.Background(), "anyone")
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: expected ErrUnavailable, got %v", i, err)
		}
	}

	if got := client.State(); got != "open" {
		t.Fatalf("expected breaker open after repeated failures, got %q", got)
	}

	// Rejected calls still classify as unavailability for callers.
	if _, err := client.FetchUserInfo(context.Background(), "anyone"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from open breaker, got %v", err)
	}
}

func TestCircuitBreakerIgnoresInvalidHandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"FAILED","comment":"handles: User with handle ghost not found"}`))
	}))
	defer srv.Close()

	client := newBreakerClient(srv.URL)

	for i := 0; i < 15; i++ {
		_, err := client.FetchUserInfo(context.Background(), "ghost")
		if !errors.Is(err, ErrInvalidHandle) {
			t.Fatalf("call %d: expected ErrInvalidHandle, got %v", i, err)
		}
	}

	if got := client.State(); got != "closed" {
		t.Fatalf("invalid handles must not trip the breaker, state %q", got)
	}
}
