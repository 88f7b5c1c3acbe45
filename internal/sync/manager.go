// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package sync orchestrates profile synchronization.
//
// One Manager owns every sync path: scheduled batch runs, manual batch
// triggers, and manual single-profile triggers all converge on SyncOne so
// the transaction semantics exist exactly once. Two syncs for the same
// profile never run concurrently; syncs for different profiles run under
// a bounded worker pool.
package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/pshanbhag/codetrack/internal/codeforces"
	"github.com/pshanbhag/codetrack/internal/config"
	"github.com/pshanbhag/codetrack/internal/logging"
	"github.com/pshanbhag/codetrack/internal/metrics"
	"github.com/pshanbhag/codetrack/internal/models"
	"github.com/pshanbhag/codetrack/internal/notify"
	"github.com/pshanbhag/codetrack/internal/stats"
	"github.com/pshanbhag/codetrack/internal/store"
)

// ErrBatchInProgress indicates a batch sync is already running; concurrent
// batch triggers coalesce instead of stacking.
var ErrBatchInProgress = errors.New("sync: batch already in progress")

// Manager runs the sync pipeline: ingestion, aggregation, persistence,
// inactivity detection.
type Manager struct {
	store    store.ProfileStore
	client   codeforces.ClientInterface
	notifier notify.Notifier

	recentWindow        int
	submissionCount     int
	workers             int
	batchTimeout        time.Duration
	inactivityThreshold time.Duration

	batchMu  stdsync.Mutex // held for the duration of a batch run
	profiles keyedMutex    // serializes syncs per profile ID

	failMu   stdsync.Mutex
	failures map[string]string // profile ID -> last sync error
}

// NewManager creates a sync manager.
func NewManager(st store.ProfileStore, client codeforces.ClientInterface, notifier notify.Notifier, syncCfg *config.SyncConfig, cfCfg *config.CodeforcesConfig) *Manager {
	return &Manager{
		store:               st,
		client:              client,
		notifier:            notifier,
		recentWindow:        syncCfg.RecentWindow,
		submissionCount:     cfCfg.SubmissionCount,
		workers:             syncCfg.Workers,
		batchTimeout:        syncCfg.BatchTimeout,
		inactivityThreshold: syncCfg.InactivityThreshold,
		failures:            make(map[string]string),
	}
}

// LastError returns the error message of the profile's most recent failed
// sync, or empty when the last sync succeeded. Listings surface it as a
// warning alongside the (possibly stale) profile data.
func (m *Manager) LastError(id string) string {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	return m.failures[id]
}

func (m *Manager) recordOutcome(id string, err error) {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	if err != nil {
		m.failures[id] = err.Error()
		return
	}
	delete(m.failures, id)
}

// SyncOne synchronizes a single profile by ID.
//
// The three upstream fetches run concurrently. An invalid handle aborts
// with no write; a failed rating history or submission fetch degrades to
// an empty slice so the rest of the record still updates. On success the
// profile's contest history, recent submissions, and derived statistics
// are atomically replaced, then the inactivity check runs.
func (m *Manager) SyncOne(ctx context.Context, id string) error {
	unlock := m.profiles.lock(id)
	defer unlock()

	start := time.Now()
	err := m.syncLocked(ctx, id)
	metrics.SyncDuration.Observe(time.Since(start).Seconds())
	m.recordOutcome(id, err)
	return err
}

func (m *Manager) syncLocked(ctx context.Context, id string) error {
	profile, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	log := logging.Ctx(ctx).With().Str("profile_id", id).Str("handle", profile.Handle).Logger()

	var (
		wg      stdsync.WaitGroup
		info    *codeforces.UserInfo
		infoErr error
		history []codeforces.RatingChange
		histErr error
		subs    []codeforces.Submission
		subsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		info, infoErr = m.client.FetchUserInfo(ctx, profile.Handle)
	}()
	go func() {
		defer wg.Done()
		history, histErr = m.client.FetchRatingHistory(ctx, profile.Handle)
	}()
	go func() {
		defer wg.Done()
		subs, subsErr = m.client.FetchSubmissions(ctx, profile.Handle, m.submissionCount)
	}()
	wg.Wait()

	if infoErr != nil {
		// No partial write: without user.info the record cannot be
		// trusted, and an invalid handle must surface to the caller.
		return fmt.Errorf("sync %s: %w", profile.Handle, infoErr)
	}
	if histErr != nil {
		log.Warn().Err(histErr).Msg("Rating history fetch failed, keeping empty history this cycle")
		history = nil
	}
	if subsErr != nil {
		log.Warn().Err(subsErr).Msg("Submission fetch failed, keeping empty log this cycle")
		subs = nil
	}

	data, recent, lastActivity := stats.Aggregate(subs, m.recentWindow)

	now := time.Now().UTC()
	profile.CurrentRating = info.Rating
	profile.MaxRating = info.MaxRating
	profile.ProblemsSolved = data.TotalSolved
	profile.ContestHistory = toContestHistory(history)
	profile.RecentSubmissions = recent
	profile.ProblemSolvingData = data
	profile.LastActivityAt = lastActivity
	profile.LastSyncedAt = &now
	profile.UpdatedAt = now

	if err := m.store.Update(ctx, profile); err != nil {
		return fmt.Errorf("persist sync for %s: %w", profile.Handle, err)
	}

	log.Info().
		Int("rating", profile.CurrentRating).
		Int("solved", data.TotalSolved).
		Int("contests", len(profile.ContestHistory)).
		Msg("Profile synced")

	m.checkInactivity(ctx, profile, now)
	return nil
}

// checkInactivity sends at most one reminder per sync cycle. Reminder
// state advances only when the send succeeds; a delivery failure is
// logged and never fails the sync.
func (m *Manager) checkInactivity(ctx context.Context, profile *models.Profile, now time.Time) {
	if !profile.Notifications.Enabled || profile.LastActivityAt == nil {
		return
	}

	inactive := now.Sub(*profile.LastActivityAt)
	if inactive < m.inactivityThreshold {
		return
	}

	days := int(inactive.Hours() / 24)
	if err := m.notifier.SendInactivityReminder(ctx, profile, days); err != nil {
		metrics.InactivityReminderFailures.Inc()
		logger := logging.Ctx(ctx)
		logger.Error().
			Err(err).
			Str("profile_id", profile.ID).
			Msg("Inactivity reminder failed")
		return
	}

	metrics.InactivityRemindersSent.Inc()
	profile.Notifications.SentCount++
	profile.Notifications.LastSentAt = &now
	if err := m.store.Update(ctx, profile); err != nil {
		logger := logging.Ctx(ctx)
		logger.Error().
			Err(err).
			Str("profile_id", profile.ID).
			Msg("Failed to persist reminder state")
	}
}

// SyncAll synchronizes every stored profile under a bounded worker pool.
//
// One profile's failure never aborts the batch; each outcome is captured
// in the result. A second SyncAll while one is running returns
// ErrBatchInProgress.
func (m *Manager) SyncAll(ctx context.Context, trigger string) (*models.BatchResult, error) {
	if !m.batchMu.TryLock() {
		return nil, ErrBatchInProgress
	}
	defer m.batchMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.batchTimeout)
	defer cancel()

	profiles, err := m.store.List(ctx)
	if err != nil {
		metrics.SyncRuns.WithLabelValues(trigger, "failure").Inc()
		return nil, fmt.Errorf("list profiles for batch: %w", err)
	}

	result := &models.BatchResult{StartedAt: time.Now().UTC()}
	outcomes := make([]models.SyncOutcome, len(profiles))

	jobs := make(chan int)
	var wg stdsync.WaitGroup
	for w := 0; w < m.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				profile := profiles[i]
				outcome := models.SyncOutcome{ProfileID: profile.ID, Handle: profile.Handle}
				if err := m.SyncOne(ctx, profile.ID); err != nil {
					outcome.Error = err.Error()
				}
				outcomes[i] = outcome
			}
		}()
	}

	for i := range profiles {
		select {
		case jobs <- i:
		case <-ctx.Done():
			outcomes[i] = models.SyncOutcome{
				ProfileID: profiles[i].ID,
				Handle:    profiles[i].Handle,
				Error:     "batch deadline exceeded",
			}
		}
	}
	close(jobs)
	wg.Wait()

	result.FinishedAt = time.Now().UTC()
	result.Outcomes = outcomes
	for _, outcome := range outcomes {
		if outcome.Error == "" {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	metrics.SyncBatchProfiles.WithLabelValues("success").Add(float64(result.Succeeded))
	metrics.SyncBatchProfiles.WithLabelValues("failure").Add(float64(result.Failed))
	if result.Failed == 0 {
		metrics.SyncRuns.WithLabelValues(trigger, "success").Inc()
	} else {
		metrics.SyncRuns.WithLabelValues(trigger, "partial").Inc()
	}

	logging.Info().
		Str("trigger", trigger).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("took", result.FinishedAt.Sub(result.StartedAt)).
		Msg("Batch sync finished")

	return result, nil
}

func toContestHistory(history []codeforces.RatingChange) []models.ContestResult {
	if len(history) == 0 {
		return nil
	}
	out := make([]models.ContestResult, 0, len(history))
	for _, rc := range history {
		out = append(out, models.ContestResult{
			ContestID:   rc.ContestID,
			ContestName: rc.ContestName,
			Rank:        rc.Rank,
			OldRating:   rc.OldRating,
			NewRating:   rc.NewRating,
			At:          rc.At(),
		})
	}
	return out
}

// keyedMutex serializes operations per string key.
type keyedMutex struct {
	mu    stdsync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   stdsync.Mutex
	refs int
}

// lock acquires the mutex for key and returns the release func. Entries
// are reference counted so the map does not grow with profile churn.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
