package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *httpx.Validator
	rbac           rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      httpx.NewValidator(),
		rbac:           rbac,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.issueCSRF)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.With(h.rbac.RequireAuth()).Get("/me", h.me)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type meResponse struct {
	shared.Principal
	Permissions []string `json:"permissions"`
}

func (h *Handler) issueCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "issue csrf token", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.validator.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Info("login rejected", slog.String("username", req.Username))
		httpx.RespondErrorLogged(w, h.logger, "authenticate", err)
		return
	}

	if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "renew session", err)
		return
	}
	principal := shared.Principal{UserID: user.ID, Username: user.Username, Role: user.Role}
	sess.SetPrincipal(principal)
	// the old token was bound to the previous session id
	sess.Delete(shared.CSRFSessionKey)
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "issue csrf token", err)
		return
	}
	h.logger.Info("login", slog.Int64("user_id", user.ID), slog.String("role", user.Role))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":       principal,
		"csrf_token": token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, meResponse{
		Principal:   principal,
		Permissions: h.rbac.Service.EffectivePermissions(principal.Role),
	})
}
