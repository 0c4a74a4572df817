package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/reports"
	"github.com/denimstock/denimstock/internal/shared"
	"github.com/denimstock/denimstock/report"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// Handler serves export downloads.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers export routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermExportsDownload))
		r.Get("/inventory.csv", h.inventoryCSV)
		r.Get("/inventory.xlsx", h.inventoryXLSX)
		r.Get("/clients.csv", h.clientsCSV)
		r.Get("/sales/{file}", h.salesPDF)
		r.Get("/invoices/{file}", h.invoicePDF)
	})
}

func (h *Handler) inventoryCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.InventoryCSV(r.Context(), &buf); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "export inventory csv", err)
		return
	}
	attach(w, contentTypeCSV, "inventory.csv", buf.Bytes())
}

func (h *Handler) clientsCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ClientsCSV(r.Context(), &buf); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "export clients csv", err)
		return
	}
	attach(w, contentTypeCSV, "clients.csv", buf.Bytes())
}

func (h *Handler) inventoryXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.InventoryXLSX(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "export inventory xlsx", err)
		return
	}
	attach(w, contentTypeXLSX, "inventory.xlsx", data)
}

func (h *Handler) salesPDF(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".pdf")
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	period, err := reports.ParsePeriod(name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.service.SalesPDF(r.Context(), period)
	if err != nil {
		h.pdfError(w, "export sales pdf", err)
		return
	}
	attach(w, contentTypePDF, fmt.Sprintf("sales_%s.pdf", period), data)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".pdf")
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Invalid("id", "must be a positive integer"))
		return
	}
	data, err := h.service.InvoicePDF(r.Context(), id)
	if err != nil {
		h.pdfError(w, "export invoice pdf", err)
		return
	}
	attach(w, contentTypePDF, fmt.Sprintf("invoice_%d.pdf", id), data)
}

func (h *Handler) pdfError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, report.ErrNotConfigured) {
		h.logger.Warn(msg, slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF rendering unavailable", "no PDF renderer is configured")
		return
	}
	httpx.RespondErrorLogged(w, h.logger, msg, err)
}

func attach(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
