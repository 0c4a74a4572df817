package clients

import (
	"log/slog"
	"net/http"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/shared"
)

// Handler serves client endpoints.
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, page, err := h.service.List(r.Context(), r.URL.Query().Get("q"), shared.PageFromRequest(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list clients", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clients": items, "pagination": page})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "search clients", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "client detail", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := h.validator.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create client", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateClientRequest
	if err := h.validator.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
