// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/pshanbhag/codetrack/internal/config"
	"github.com/pshanbhag/codetrack/internal/logging"
)

// Scheduler triggers batch syncs on a fixed interval. The interval can be
// changed at runtime through SetInterval; the change takes effect
// immediately by resetting the timer.
type Scheduler struct {
	manager      *Manager
	initialDelay time.Duration

	mu       stdsync.Mutex
	interval time.Duration
	updates  chan time.Duration
}

// NewScheduler creates a scheduler from configuration.
func NewScheduler(manager *Manager, cfg *config.SyncConfig) *Scheduler {
	return &Scheduler{
		manager:      manager,
		initialDelay: cfg.InitialDelay,
		interval:     cfg.Interval,
		updates:      make(chan time.Duration, 1),
	}
}

// Interval returns the currently configured interval.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval updates the schedule at runtime. The next batch fires one
// full new interval from now.
func (s *Scheduler) SetInterval(interval time.Duration) error {
	if interval <= 0 {
		return errors.New("sync: interval must be positive")
	}

	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()

	// Replace any pending update; only the latest matters.
	select {
	case <-s.updates:
	default:
	}
	s.updates <- interval

	logging.Info().Dur("interval", interval).Msg("Sync schedule updated")
	return nil
}

// Run executes the schedule loop until ctx is cancelled. The first batch
// fires after the initial delay, then every interval. Overlapping runs
// are impossible: a tick that arrives while a batch is still running
// coalesces through the manager's batch lock.
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	logging.Info().
		Dur("initial_delay", s.initialDelay).
		Dur("interval", s.Interval()).
		Msg("Sync scheduler started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case interval := <-s.updates:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(interval)

		case <-timer.C:
			if _, err := s.manager.SyncAll(ctx, "scheduled"); err != nil && !errors.Is(err, ErrBatchInProgress) {
				logging.Error().Err(err).Msg("Scheduled batch sync failed")
			}
			timer.Reset(s.Interval())
		}
	}
}
