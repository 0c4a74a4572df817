package sales

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/shared"
)

// Handler exposes the sales listing.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermInvoicesView, shared.PermReportsView)).Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := ParseDay(q.Get("from"))
	if err != nil {
		httpx.RespondError(w, shared.Invalid("from", "must be YYYY-MM-DD"))
		return
	}
	to, err := ParseDay(q.Get("to"))
	if err != nil {
		httpx.RespondError(w, shared.Invalid("to", "must be YYYY-MM-DD"))
		return
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	rows, err := h.service.List(r.Context(), ListFilter{From: from, To: to, Limit: limit})
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": rows})
}
