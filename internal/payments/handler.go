package payments

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/shared"
)

// IdempotencyHeader carries the client chosen key for a payment post.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes payment endpoints under /invoices and /clients.
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

// MountInvoiceRoutes registers POST /{id}/payments on the invoices subrouter.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermPaymentsRecord)).Post("/{id}/payments", h.addPayment)
}

// MountClientRoutes registers POST /{id}/payments on the clients subrouter.
func (h *Handler) MountClientRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermPaymentsRecord)).Post("/{id}/payments", h.addClientPayment)
}

func (h *Handler) bind(r *http.Request) (int64, Input, error) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		return 0, Input{}, err
	}
	var in Input
	if err := h.validator.Bind(r, &in); err != nil {
		return 0, Input{}, err
	}
	in.IdempotencyKey = r.Header.Get(IdempotencyHeader)
	return id, in, nil
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	id, in, err := h.bind(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, payment, err := h.service.AddPayment(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "add payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"payment": payment, "invoice": inv})
}

func (h *Handler) addClientPayment(w http.ResponseWriter, r *http.Request) {
	id, in, err := h.bind(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.AddClientPayment(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "add client payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}
