package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/shared"
)

// Handler wires HTTP endpoints for stock listings.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermInventoryView))
		r.Get("/", h.listStock)
		r.Get("/low", h.lowStock)
	})
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	var filter StockFilter
	q := r.URL.Query()
	for name, dst := range map[string]*int64{"product_id": &filter.ProductID, "warehouse_id": &filter.WarehouseID} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			httpx.RespondError(w, shared.Invalid(name, "must be a positive integer"))
			return
		}
		*dst = id
	}
	rows, err := h.service.ListStock(r.Context(), filter)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stock": rows})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.LowStock(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"threshold": h.service.Threshold(), "stock": rows})
}
