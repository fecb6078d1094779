// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/middleware"
)

// Router binds handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for handler using the server settings.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(NewChiMiddlewareConfig(cfg)),
	}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed", nil, nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders)
		r.Use(middleware.PrometheusMetrics)

		r.With(router.chiMiddleware.RateLimitCustom(RateLimitHealth)).Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Get("/posts", h.Posts)
			r.Route("/posts/{id}", func(r chi.Router) {
				r.Post("/vote", h.Vote)
				r.Post("/favorite", h.Favorite)
				r.Delete("/favorite", h.Unfavorite)
				r.Post("/hide", h.Hide)
				r.Get("/comments", h.Comments)
			})

			r.Get("/local/summary", h.Summary)
			r.Get("/local/posts", h.LocalPosts)
			r.Get("/local/posts/{id}", h.LocalPost)
			r.Get("/tags/{id}/related", h.RelatedTags)

			r.Get("/sync/status", h.SyncStatus)
			r.Get("/import/status", h.ImportStatus)
			r.Delete("/import", h.StopImport)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitSync))
			r.Post("/sync", h.TriggerSync)
			r.Post("/import", h.StartImport)
		})
	})

	return r
}
