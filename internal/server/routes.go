package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/ping", s.handlePing)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGetGraph)
		r.Get("/ws", s.handleWebSocket)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/commands", s.handleListCommands)
		r.Get("/remotes", s.handleListRemotes)

		r.Route("/refs", func(r chi.Router) {
			r.Post("/move", s.handleMoveRef)
			r.Get("/{name}/actions", s.handleGetActions)
			r.Post("/{name}/actions/{action}", s.handlePerformAction)
		})

		r.Post("/checkout", s.handleCheckout)
		r.Post("/branches", s.handleCreateBranch)
		r.Delete("/branches", s.handleDeleteBranch)
		r.Post("/tags", s.handleCreateTag)
		r.Delete("/tags", s.handleDeleteTag)
		r.Post("/reset", s.handleReset)
		r.Post("/push", s.handlePush)
		r.Post("/pull", s.handlePull)
		r.Post("/rebase", s.handleRebase)
	})

	return r
}
