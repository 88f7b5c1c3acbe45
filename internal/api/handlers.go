// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package api exposes the HTTP surface: profile CRUD, sync triggers,
// recommendations, and health. All responses use the standard envelope.
package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pshanbhag/codetrack/internal/catalog"
	"github.com/pshanbhag/codetrack/internal/logging"
	"github.com/pshanbhag/codetrack/internal/models"
	"github.com/pshanbhag/codetrack/internal/recommend"
	"github.com/pshanbhag/codetrack/internal/store"
	syncer "github.com/pshanbhag/codetrack/internal/sync"
)

// Handler bundles the dependencies of every endpoint.
type Handler struct {
	store       store.ProfileStore
	manager     *syncer.Manager
	scheduler   *syncer.Scheduler
	engine      *recommend.Engine
	passthrough *catalog.Cache

	upstreamState func() string
	version       string
	startTime     time.Time
}

// NewHandler creates the API handler. upstreamState reports the circuit
// breaker state for health output; pass nil when no breaker is wired.
func NewHandler(st store.ProfileStore, manager *syncer.Manager, scheduler *syncer.Scheduler, engine *recommend.Engine, passthrough *catalog.Cache, upstreamState func() string, version string) *Handler {
	if upstreamState == nil {
		upstreamState = func() string { return "unknown" }
	}
	return &Handler{
		store:         st,
		manager:       manager,
		scheduler:     scheduler,
		engine:        engine,
		passthrough:   passthrough,
		upstreamState: upstreamState,
		version:       version,
		startTime:     time.Now(),
	}
}

// Health reports liveness plus dependency state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	catalogSize, catalogRefreshed := h.engine.CatalogStatus()
	health := map[string]interface{}{
		"status":         "ok",
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"upstream":       h.upstreamState(),
		"catalog": map[string]interface{}{
			"size":         catalogSize,
			"refreshed_at": catalogRefreshed,
		},
		"sync_interval": h.scheduler.Interval().String(),
	}

	respondSuccess(w, http.StatusOK, health, start)
}

// ListProfiles returns all profiles as summaries. A profile whose last
// sync failed carries a warning; the listing itself never hard-fails on
// sync errors.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	profiles, err := h.store.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	summaries := make([]models.ProfileSummary, 0, len(profiles))
	for _, profile := range profiles {
		summary := profile.Summary()
		summary.SyncWarning = h.manager.LastError(profile.ID)
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})

	respondSuccess(w, http.StatusOK, summaries, start)
}

type createProfileRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Email  string `json:"email" validate:"required,email"`
	Handle string `json:"handle" validate:"required,cfhandle"`

	NotificationsEnabled bool `json:"notifications_enabled"`
}

// CreateProfile registers a new profile and kicks off its first sync in
// the background; the response does not wait for Codeforces.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req createProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error:    apiErr,
		})
		return
	}

	now := time.Now().UTC()
	profile := &models.Profile{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Email:  req.Email,
		Handle: req.Handle,
		Notifications: models.NotificationState{
			Enabled: req.NotificationsEnabled,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.Create(r.Context(), profile); err != nil {
		respondDomainError(w, err)
		return
	}

	go h.backgroundSync(profile.ID, profile.Handle)

	respondSuccess(w, http.StatusCreated, profile, start)
}

// backgroundSync runs a detached single-profile sync, as after create or
// handle change. Outcomes land in the manager's failure tracking and the
// logs; the HTTP caller has already been answered.
func (h *Handler) backgroundSync(id, handle string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := h.manager.SyncOne(ctx, id); err != nil {
		logging.Warn().Err(err).Str("profile_id", id).Str("handle", handle).Msg("Background sync failed")
	}
}

// GetProfile returns the full profile record.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	profile, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, profile, start)
}

type updateProfileRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Email  string `json:"email" validate:"required,email"`
	Handle string `json:"handle" validate:"required,cfhandle"`

	NotificationsEnabled bool `json:"notifications_enabled"`
}

// UpdateProfile replaces the editable fields. A handle change re-indexes
// the profile and triggers a fresh background sync.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req updateProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error:    apiErr,
		})
		return
	}

	profile, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	handleChanged := profile.Handle != req.Handle
	profile.Name = req.Name
	profile.Email = req.Email
	profile.Handle = req.Handle
	profile.Notifications.Enabled = req.NotificationsEnabled
	profile.UpdatedAt = time.Now().UTC()

	if err := h.store.Update(r.Context(), profile); err != nil {
		respondDomainError(w, err)
		return
	}

	if handleChanged {
		go h.backgroundSync(profile.ID, profile.Handle)
	}

	respondSuccess(w, http.StatusOK, profile, start)
}

// DeleteProfile removes a profile.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "id")}, start)
}

// GetContests returns the contest history, optionally bounded to the
// last ?days=N days.
func (h *Handler) GetContests(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	profile, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	history := profile.ContestHistory
	if days := getIntParam(r, "days", 0); days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		filtered := make([]models.ContestResult, 0, len(history))
		for _, contest := range history {
			if contest.At.After(cutoff) {
				filtered = append(filtered, contest)
			}
		}
		history = filtered
	}

	respondSuccess(w, http.StatusOK, history, start)
}

// GetProblems returns the derived problem-solving statistics together
// with the recent submission window.
func (h *Handler) GetProblems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	profile, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"problem_solving_data": profile.ProblemSolvingData,
		"recent_submissions":   profile.RecentSubmissions,
		"last_activity_at":     profile.LastActivityAt,
	}, start)
}

// GetRecommendations returns the three recommendation buckets.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	profile, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	buckets, err := h.engine.Recommend(r.Context(), profile)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, buckets, start)
}

// GetProblemset serves the cached global problem catalog.
func (h *Handler) GetProblemset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	problems, err := h.passthrough.Get(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]interface{}{"problems": problems, "count": len(problems)},
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      true,
		},
	})
}

// SyncProfile runs a synchronous single-profile sync by handle.
func (h *Handler) SyncProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	profile, err := h.store.GetByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := h.manager.SyncOne(r.Context(), profile.ID); err != nil {
		respondDomainError(w, err)
		return
	}

	synced, err := h.store.Get(r.Context(), profile.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, synced, start)
}

// SyncAll triggers an asynchronous batch sync and returns immediately.
// A batch already in flight yields 409.
func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	go func() {
		if _, err := h.manager.SyncAll(context.Background(), "manual"); err != nil {
			logging.Warn().Err(err).Msg("Manual batch sync did not run")
		}
	}()

	respondSuccess(w, http.StatusAccepted, map[string]string{"status": "batch sync started"}, start)
}

type scheduleRequest struct {
	Interval string `json:"interval" validate:"required"`
}

// UpdateSchedule changes the scheduled sync interval at runtime.
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req scheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body", err)
		return
	}

	interval, err := time.ParseDuration(req.Interval)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "interval must be a duration like \"24h\"", err)
		return
	}
	if err := h.scheduler.SetInterval(interval); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]string{"interval": interval.String()}, start)
}
