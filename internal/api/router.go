// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pshanbhag/codetrack/internal/config"
)

// NewRouter assembles the full route tree with the global middleware
// stack. CORS sits globally so OPTIONS preflight is always answered.
func NewRouter(h *Handler, cfg *config.APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(cfg))
	r.Use(Instrument)
	r.Use(AccessLog)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(cfg))

			r.Route("/profiles", func(r chi.Router) {
				r.Get("/", h.ListProfiles)
				r.Post("/", h.CreateProfile)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetProfile)
					r.Put("/", h.UpdateProfile)
					r.Delete("/", h.DeleteProfile)
					r.Get("/contests", h.GetContests)
					r.Get("/problems", h.GetProblems)
					r.Get("/recommendations", h.GetRecommendations)
				})
			})

			r.Get("/problemset", h.GetProblemset)

			r.Post("/sync", h.SyncAll)
			r.Post("/sync/schedule", h.UpdateSchedule)
			r.Post("/sync/{handle}", h.SyncProfile)
		})
	})

	return r
}
