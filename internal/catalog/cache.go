// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package catalog caches the global Codeforces problem catalog.
//
// The catalog is a multi-thousand-entry snapshot shared by every consumer
// in the process. Refreshing it is expensive, so the cache trades
// freshness for availability: expired data is served whenever a refresh
// attempt fails, and only a cold cache (no snapshot yet) ever surfaces an
// error. Two instances run in production, a 24h one for recommendations
// and a 1h one for the problemset passthrough endpoint.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pshanbhag/codetrack/internal/logging"
	"github.com/pshanbhag/codetrack/internal/metrics"
	"github.com/pshanbhag/codetrack/internal/models"
)

// ErrCatalogUnavailable indicates the catalog could not be fetched and no
// previous snapshot exists to fall back on. Only possible on a cold cache.
var ErrCatalogUnavailable = errors.New("catalog: unavailable and no cached snapshot")

// Fetcher loads the full problem catalog from upstream.
type Fetcher func(ctx context.Context) ([]models.Problem, error)

// Cache is a TTL-bounded snapshot cache of the problem catalog.
//
// State machine: Empty -> Fresh -> (age > TTL) -> Stale -> refresh ->
// Fresh, or on refresh failure stays Stale and is still served. Reads of
// a fresh snapshot never block; refreshes are serialized so concurrent
// expiry triggers exactly one upstream fetch.
type Cache struct {
	name  string
	fetch Fetcher
	ttl   time.Duration

	refreshMu sync.Mutex // serializes upstream fetches

	mu          sync.RWMutex
	snapshot    []models.Problem
	lastRefresh time.Time
}

// New creates a catalog cache. The name labels metrics and log lines so
// the two production instances stay distinguishable.
func New(name string, ttl time.Duration, fetch Fetcher) *Cache {
	return &Cache{
		name:  name,
		fetch: fetch,
		ttl:   ttl,
	}
}

// Get returns the catalog snapshot, refreshing it when expired.
//
// A fresh snapshot returns immediately. An expired or missing snapshot
// triggers a refresh; when the refresh fails and a previous snapshot
// exists, the stale snapshot is returned with a nil error. The returned
// slice is shared, callers must not mutate it.
func (c *Cache) Get(ctx context.Context) ([]models.Problem, error) {
	if snapshot, ok := c.freshSnapshot(); ok {
		metrics.CatalogCacheHits.WithLabelValues(c.name, "fresh").Inc()
		return snapshot, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while this one waited.
	if snapshot, ok := c.freshSnapshot(); ok {
		metrics.CatalogCacheHits.WithLabelValues(c.name, "fresh").Inc()
		return snapshot, nil
	}

	problems, err := c.fetch(ctx)
	if err != nil {
		metrics.CatalogRefreshes.WithLabelValues(c.name, "failure").Inc()

		c.mu.RLock()
		snapshot, lastRefresh := c.snapshot, c.lastRefresh
		c.mu.RUnlock()

		if snapshot != nil {
			logging.Warn().
				Err(err).
				Str("cache", c.name).
				Time("last_refresh", lastRefresh).
				Msg("Catalog refresh failed, serving stale snapshot")
			metrics.CatalogCacheHits.WithLabelValues(c.name, "stale").Inc()
			return snapshot, nil
		}

		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	c.mu.Lock()
	c.snapshot = problems
	c.lastRefresh = time.Now()
	c.mu.Unlock()

	metrics.CatalogRefreshes.WithLabelValues(c.name, "success").Inc()
	metrics.CatalogSize.WithLabelValues(c.name).Set(float64(len(problems)))
	logging.Info().
		Str("cache", c.name).
		Int("problems", len(problems)).
		Msg("Catalog refreshed")

	return problems, nil
}

func (c *Cache) freshSnapshot() ([]models.Problem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil || time.Since(c.lastRefresh) > c.ttl {
		return nil, false
	}
	return c.snapshot, true
}

// Warm performs an initial refresh so the first caller does not pay the
// fetch latency. A warm-up failure leaves the cache cold and is reported
// to the caller; it is not fatal, the next Get retries.
func (c *Cache) Warm(ctx context.Context) error {
	_, err := c.Get(ctx)
	return err
}

// LastRefresh returns the time of the last successful refresh, zero when
// the cache is cold.
func (c *Cache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

// Len returns the size of the current snapshot.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshot)
}
