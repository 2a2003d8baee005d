package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(prometheusMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/recommendations", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Get("/search", s.handleSearch)
		r.Get("/weights", s.handleGetWeights)
		r.Post("/weights", s.handleUpdateWeights)
		r.Post("/catalog/refresh", s.handleRefresh)
		r.Get("/catalog/stats", s.handleCatalogStats)
		r.Get("/listing/{id}", s.handleListing)
		r.Get("/{id}", s.handleRecommend)
	})

	return r
}
