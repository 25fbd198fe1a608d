// Package router wires the HTTP surface: middleware stack, health and
// metrics probes, and the /api/v1 message routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/notiteams/activity-api/internal/http/handlers"
	httpmiddleware "github.com/notiteams/activity-api/internal/http/middleware"
	"github.com/notiteams/activity-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	MessagesHandler *handlers.MessagesHandler
	HealthHandler   *handlers.HealthHandler
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusFound)
	})

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Check)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.MessagesHandler != nil {
		r.Route("/api/v1/message", func(r chi.Router) {
			r.Post("/", cfg.MessagesHandler.SendAny)
			r.Patch("/", cfg.MessagesHandler.Update)
			r.Delete("/", cfg.MessagesHandler.Delete)
			r.Post("/text", cfg.MessagesHandler.SendText)
			r.Post("/simple", cfg.MessagesHandler.SendSimple)
			r.Post("/card", cfg.MessagesHandler.SendCard)
		})
	}

	return r
}
