package backup

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/shared"
)

// Handler serves backup endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers backup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermBackupManage))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/restore", h.restore)
		r.Get("/{name}", h.download)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	objects, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list backups", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"backups": objects})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.Create(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create backup", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, obj)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxArchiveSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpx.RespondError(w, shared.Invalid("archive", "multipart upload required"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	file, header, err := r.FormFile("archive")
	if err != nil {
		httpx.RespondError(w, shared.Invalid("archive", "file is required"))
		return
	}
	defer func() { _ = file.Close() }()
	m, err := h.service.Restore(r.Context(), file, header.Size)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "restore backup", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"restored": m})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := ValidName(name); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rc, err := h.service.Open(r.Context(), name)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "download backup", err)
		return
	}
	defer func() { _ = rc.Close() }()
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("stream backup", slog.String("name", name), slog.Any("error", err))
	}
}
