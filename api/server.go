/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend development

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/accrual", h.GetAccrual)
			r.Get("/{id}/balances", h.ListBalances)
			r.Post("/{id}/balances/initialize", h.InitializeBalances)
			r.Get("/{id}/cashout/quote", h.GetCashOutQuote)
			r.Post("/{id}/cashout", h.SubmitCashOut)
			r.Post("/{id}/applications", h.SubmitApplication)
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/{id}", h.GetApplication)
			r.Post("/{id}/transition", h.TransitionApplication)
		})

		r.Route("/cashout", func(r chi.Router) {
			r.Post("/{id}/approve", h.ApproveCashOut)
			r.Post("/{id}/reject", h.RejectCashOut)
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/{id}/settings", h.GetSettings)
			r.Put("/{id}/settings", h.PutSettings)
		})

		r.Route("/leave-types", func(r chi.Router) {
			r.Get("/", h.ListLeaveTypes)
			r.Post("/", h.CreateLeaveType)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
