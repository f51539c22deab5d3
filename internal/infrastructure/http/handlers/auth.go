package handlers

import (
	"net/http"

	"github.com/foodtrack/api/internal/infrastructure/http/middleware"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/pkg/errors"
	"go.uber.org/zap"
)

// AuthHandlers handles registration, login and the caller's profile
type AuthHandlers struct {
	base
	users inbound.UserService
}

// NewAuthHandlers creates the authentication and profile handlers
func NewAuthHandlers(users inbound.UserService, validator *security.Validator, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		base:  base{validator: validator, logger: logger},
		users: users,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.RegisterCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.users.Register(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.LoginCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.users.Login(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.RefreshCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.users.Refresh(r.Context(), cmd.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		h.writeError(w, r, errors.NewUnauthorizedError(""))
		return
	}
	if err := h.users.Logout(r.Context(), claims); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me handles GET /api/v1/auth/profile and GET /api/v1/users/me
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	me, err := h.users.GetMe(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, me)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *AuthHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.UpdateUserCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	me, err := h.users.UpdateMe(r.Context(), userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, me)
}

// MarkTutorialSeen handles PATCH /api/v1/users/me/tutorial-seen
func (h *AuthHandlers) MarkTutorialSeen(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	me, err := h.users.MarkTutorialSeen(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, me)
}

// GetSettings handles GET /api/v1/users/me/settings
func (h *AuthHandlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	settings, err := h.users.GetSettings(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PATCH /api/v1/users/me/settings
func (h *AuthHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.UpdateSettingsCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	settings, err := h.users.UpdateSettings(r.Context(), userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}
