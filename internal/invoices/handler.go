package invoices

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/shared"
)

// Handler exposes invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
	rbac      rbac.Middleware
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator(), rbac: rbac}
}

// MountRoutes registers invoice routes on the /invoices subrouter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermInvoicesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermInvoicesManage))
		r.Post("/", h.create)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/items", h.addItem)
		r.Delete("/{id}/items/{itemID}", h.removeItem)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{PaymentStatus: r.URL.Query().Get("payment_status")}
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.Invalid("client_id", "must be a positive integer"))
			return
		}
		filter.ClientID = id
	}
	switch filter.PaymentStatus {
	case "", PaymentPending, PaymentPartial, PaymentPaid:
	default:
		httpx.RespondError(w, shared.Invalid("payment_status", "must be pending, partial or paid"))
		return
	}
	items, page, err := h.service.List(r.Context(), filter, shared.PageFromRequest(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": items, "pagination": page})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteInvoice(r.Context(), id); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in AddItemInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.AddItem(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "add invoice item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := httpx.IDParam(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "remove invoice item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}
