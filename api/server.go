/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestLogger: Structured request logging via logrus
  4. CORS:       Cross-origin requests for the calendar frontend
  5. Identity:   Caller claims from headers (see auth.go)

ROUTE GROUPS:
  /api/absences/*    Absence request lifecycle and queries
  /api/calendar/*    Calendar events and cell eligibility
  /api/resources/*   Resource management
  /api/groups/*      Group management
  /api/filters       Caller's status filter sets

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id", "X-User-Roles", "X-Is-Approver"},
		AllowCredentials: true,
	}))
	r.Use(Identity)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/absences", func(r chi.Router) {
			r.Get("/", h.ListAbsences)
			r.Post("/", h.CreateAbsence)
			r.Get("/pending", h.ListPending)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetAbsence)
				r.Put("/", h.UpdateAbsence)
				r.Delete("/", h.DeleteAbsence)
				r.Post("/approve", h.ApproveAbsence)
				r.Post("/reject", h.RejectAbsence)
				r.Post("/cancel", h.CancelAbsence)
				r.Get("/menu", h.ContextMenu)
			})
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/", h.Calendar)
			r.Get("/cell-class", h.CellClass)
		})

		r.Get("/filters", h.Filters)

		r.Route("/resources", func(r chi.Router) {
			r.Get("/", h.ListResources)
			r.Post("/", h.CreateResource)
			r.Get("/{id}", h.GetResource)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
		})
	})

	return r
}

// RequestLogger logs one structured line per request.
func RequestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("request completed")
		})
	}
}
