package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ereOn/home-control/internal/ui"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		// Local hardware channels
		r.Route("/led/{color}", func(r chi.Router) {
			r.Get("/", s.handleGetLed)
			r.Post("/", s.handleSetLed)
			r.Put("/", s.handleSetLed)
		})
		r.Route("/buzzer", func(r chi.Router) {
			r.Get("/", s.handleGetBuzzer)
			r.Post("/", s.handleSetBuzzer)
			r.Put("/", s.handleSetBuzzer)
		})

		// Upstream entities
		r.Route("/light/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetLight)
			r.Post("/", s.handleSetLight)
			r.Put("/", s.handleSetLight)
		})
		r.Get("/alarm", s.handleGetAlarm)

		// UI push channel
		r.Get("/ws", s.handleWebSocket)
	})

	// Everything else is the touchscreen UI: the embedded bundle, or a
	// configured web surface behind a plain relay (the source's own
	// frontend, or a UI dev server).
	if s.cfg.UI.ReverseProxyURL != "" {
		proxy, err := s.uiProxy(s.cfg.UI.ReverseProxyURL)
		if err != nil {
			s.logger.Error("invalid UI reverse proxy URL, serving embedded bundle",
				"url", s.cfg.UI.ReverseProxyURL,
				"error", err,
			)
			r.NotFound(ui.Handler(s.cfg.UI.Dir).ServeHTTP)
		} else {
			r.NotFound(proxy.ServeHTTP)
		}
	} else {
		r.NotFound(ui.Handler(s.cfg.UI.Dir).ServeHTTP)
	}

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
