package clients

import (
	"github.com/go-chi/chi/v5"

	"github.com/denimstock/denimstock/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermClientsView))
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermClientsManage))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
	})
}
