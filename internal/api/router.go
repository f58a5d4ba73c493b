package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps bundles the services the API exposes.
type Deps struct {
	Auth      authService
	Cards     cardService
	Transfers transferService
}

// NewRouter constructs the chi router with all API endpoints registered.
func NewRouter(deps Deps) http.Handler {
	h := NewHandler(deps)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/auth/register", h.RegisterHandler)
	r.Post("/auth/login", h.LoginHandler)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/cards", h.ListMyCardsHandler)
		r.Get("/cards/{cardId}/balance", h.GetBalanceHandler)
		r.Post("/cards/{cardId}/block", h.BlockCardHandler)
		r.Post("/transfers", h.CreateTransferHandler)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Post("/admin/cards", h.CreateCardHandler)
			r.Get("/admin/cards", h.ListAllCardsHandler)
			r.Patch("/admin/cards/{cardId}/status", h.ChangeCardStatusHandler)
			r.Delete("/admin/cards/{cardId}", h.DeleteCardHandler)
		})
	})

	return r
}
