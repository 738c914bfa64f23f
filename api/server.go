/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/companies/signup       Public registration
  /api/companies/{id}/services  Public services catalog
  /api/contracts/{id}/event   Contract-secret authenticated
  /api/dev/*                  Dev seeding and reset (no auth)
  everything else             X-API-Key authenticated

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: The api key middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Contract-Secret"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/companies/signup", h.SignupCompany)
		r.Get("/companies/{id}/services", h.GetCompanyServices)
		r.Post("/contracts/{id}/event", h.FireContractEvent)

		// Dev routes (no auth, local tooling only)
		r.Route("/dev", func(r chi.Router) {
			r.Post("/seed", h.SeedDev)
			r.Post("/reset", h.ResetAll)
			r.Post("/demo", h.SeedDemoEcosystem)
		})

		// Company-key authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAPIKey)

			r.Route("/companies/me", func(r chi.Router) {
				r.Get("/", h.GetCompanyProfile)
				r.Put("/", h.UpdateCompanyProfile)
				r.Delete("/", h.DeleteCompany)
				r.Get("/wallet", h.GetMasterWallet)
			})

			r.Route("/users", func(r chi.Router) {
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Get("/{id}/interactions", h.GetUserInteractions)
				r.Get("/{id}/transfers", h.GetUserTransfers)
			})

			r.Route("/rules", func(r chi.Router) {
				r.Post("/", h.CreateRule)
				r.Get("/", h.ListRules)
				r.Post("/{id}/activate", h.ActivateRule)
				r.Post("/{id}/deactivate", h.DeactivateRule)
			})

			r.Post("/interactions", h.CreateInteraction)

			r.Route("/wallets", func(r chi.Router) {
				r.Get("/{ownerType}/{ownerID}", h.GetWallet)
				r.Post("/transfer", h.TransferTokens)
			})

			r.Route("/contracts", func(r chi.Router) {
				r.Post("/", h.CreateContract)
				r.Get("/", h.ListContracts)
				r.Post("/{id}/activate", h.EnableContract)
				r.Post("/{id}/deactivate", h.DisableContract)
			})
		})
	})

	return r
}
