// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the chi router with the full middleware stack and
// all versioned API routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if !h.cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(
				h.cfg.Security.RateLimitReqs,
				h.cfg.Security.RateLimitWindow,
			))
		}
		r.Use(PrometheusMetrics)

		r.Get("/health", h.Health)

		r.Post("/interactions", h.CreateInteraction)
		r.Post("/interactions/batch", h.CreateInteractionBatch)
		r.Post("/interactions/replace-user", h.ReplaceUserInteractions)
		r.Post("/follows/sync", h.SyncFollows)

		r.Post("/train", h.Train)
		r.Get("/recommendations/{userID}", h.Recommendations)
		r.Get("/explain/{userID}/{itemID}", h.Explain)
		r.Post("/invalidate", h.Invalidate)
	})

	return r
}
