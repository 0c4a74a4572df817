package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/denimstock/denimstock/internal/auth"
	"github.com/denimstock/denimstock/internal/backup"
	"github.com/denimstock/denimstock/internal/clients"
	"github.com/denimstock/denimstock/internal/export"
	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/invoices"
	"github.com/denimstock/denimstock/internal/masterdata/products"
	"github.com/denimstock/denimstock/internal/masterdata/warehouses"
	"github.com/denimstock/denimstock/internal/observability"
	"github.com/denimstock/denimstock/internal/payments"
	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/reports"
	"github.com/denimstock/denimstock/internal/sales"
	"github.com/denimstock/denimstock/internal/settings"
	"github.com/denimstock/denimstock/internal/shared"
	"github.com/denimstock/denimstock/internal/users"
	"github.com/denimstock/denimstock/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	ReportCache    *reports.Cache
	Metrics        *observability.Metrics

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	WarehousesHandler  *warehouses.Handler
	ProductsHandler    *products.Handler
	InventoryHandler   *inventory.Handler
	ClientsHandler     *clients.Handler
	InvoicesHandler    *invoices.Handler
	PaymentsHandler    *payments.Handler
	SalesHandler       *sales.Handler
	ReportsHandler     *reports.Handler
	ExportHandler      *export.Handler
	SettingsHandler    *settings.Handler
	BackupHandler      *backup.Handler
	JobHandler         *jobs.Handler
	PermissionsHandler *rbac.PermissionsHandler
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// Writes that move stock, money or whole tables invalidate cached reports.
	invalidate := reports.InvalidateOnWrite(params.ReportCache, params.Logger)

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.WarehousesHandler != nil {
		r.Route("/warehouses", func(r chi.Router) {
			r.Use(invalidate)
			params.WarehousesHandler.MountRoutes(r)
		})
	}
	if params.ProductsHandler != nil {
		r.Route("/products", func(r chi.Router) {
			r.Use(invalidate)
			params.ProductsHandler.MountRoutes(r)
		})
	}
	if params.InventoryHandler != nil {
		r.Route("/stock", params.InventoryHandler.MountRoutes)
	}
	if params.ClientsHandler != nil {
		r.Route("/clients", func(r chi.Router) {
			r.Use(invalidate)
			params.ClientsHandler.MountRoutes(r)
			if params.PaymentsHandler != nil {
				params.PaymentsHandler.MountClientRoutes(r)
			}
		})
	}
	if params.InvoicesHandler != nil {
		r.Route("/invoices", func(r chi.Router) {
			r.Use(invalidate)
			params.InvoicesHandler.MountRoutes(r)
			if params.PaymentsHandler != nil {
				params.PaymentsHandler.MountInvoiceRoutes(r)
			}
		})
	}
	if params.SalesHandler != nil {
		r.Route("/sales", params.SalesHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.ExportHandler != nil {
		r.Route("/exports", params.ExportHandler.MountRoutes)
	}
	if params.SettingsHandler != nil {
		r.Route("/settings", params.SettingsHandler.MountRoutes)
	}
	if params.BackupHandler != nil {
		r.Route("/backup", func(r chi.Router) {
			r.Use(invalidate)
			params.BackupHandler.MountRoutes(r)
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
