// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/hubs", func(r chi.Router) {
			r.Get("/", s.handleListHubs)

			r.Route("/{hub}", func(r chi.Router) {
				r.Get("/", s.handleGetHub)
				r.Post("/connect", s.handleConnect)

				r.Post("/valves/open", s.handleAllValves(true))
				r.Post("/valves/close", s.handleAllValves(false))
				r.Post("/valves/{valve}/open", s.handleValve(true))
				r.Post("/valves/{valve}/close", s.handleValve(false))

				r.Put("/attributes/{name}", s.handleSetAttribute)
			})
		})
	})

	return r
}
