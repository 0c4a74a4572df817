package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/shared"
)

// Handler serves report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermReportsView))
		r.Get("/overview", h.overview)
		r.Get("/dashboard", h.dashboard)
		r.Get("/debtors", h.debtors)
		r.Get("/daily", h.daily)
		r.Get("/low-stock", h.lowStock)
		r.Get("/sales/{period}", h.salesByPeriod)
	})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.service.Overview(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "reports overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ov)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "reports dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) debtors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Debtors(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "reports debtors", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"debtors": rows})
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpx.RespondError(w, shared.Invalid("days", "must be a positive integer"))
			return
		}
		days = n
	}
	rows, err := h.service.DailySales(r.Context(), days)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "reports daily sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"daily_sales": rows})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.LowStock(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "reports low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stock": rows})
}

func (h *Handler) salesByPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.SalesByPeriod(r.Context(), period)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "reports sales by period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// InvalidateOnWrite bumps the report cache after a successful unsafe request.
func InvalidateOnWrite(cache *Cache, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status >= 300 {
				return
			}
			if err := cache.Bump(r.Context()); err != nil && logger != nil {
				logger.Warn("report cache bump failed", slog.Any("error", err))
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
