package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// MainAPI groups the main service handlers.
type MainAPI struct {
	Users    *UserHandler
	Events   *EventHandler
	Requests *RequestHandler
	Hits     HitRecorder
	AppName  string
	Logger   *slog.Logger
}

func baseRouter(logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	return r
}

// Router builds the main service routes. Callers may mount more (e.g.
// /metrics) on the returned mux.
func (a MainAPI) Router() *chi.Mux {
	r := baseRouter(a.Logger)

	r.Route("/admin", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", a.Users.Create)
			r.Get("/", a.Users.List)
			r.Delete("/{userId}", a.Users.Delete)
		})
		r.Route("/events", func(r chi.Router) {
			r.Get("/", a.Events.AdminSearch)
			r.Patch("/{eventId}", a.Events.AdminUpdate)
		})
	})

	r.Route("/users/{userId}", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", a.Events.Create)
			r.Get("/", a.Events.ListOwn)
			r.Get("/{eventId}", a.Events.GetOwn)
			r.Patch("/{eventId}", a.Events.UpdateOwn)
			r.Get("/{eventId}/requests", a.Requests.ListForEvent)
			r.Patch("/{eventId}/requests", a.Requests.Decide)
		})
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", a.Requests.ListOwn)
			r.Post("/", a.Requests.Create)
			r.Patch("/{requestId}/cancel", a.Requests.Cancel)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Use(TrackHits(a.Hits, a.AppName))
		r.Get("/", a.Events.PublicSearch)
		r.Get("/{eventId}", a.Events.PublicGet)
	})

	return r
}

// StatsRouter builds the stats service routes.
func StatsRouter(h *StatsHandler, logger *slog.Logger) *chi.Mux {
	r := baseRouter(logger)
	r.Post("/hit", h.Hit)
	r.Get("/stats", h.Views)
	return r
}
