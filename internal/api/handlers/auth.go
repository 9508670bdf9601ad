// auth.go — обработчики /api/v1/auth и /api/v1/init-admin.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/pavian-registry/internal/api/errors"
	"github.com/bigkaa/pavian-registry/internal/service"
)

// registerResponse — ответ успешной регистрации.
type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// Login — POST /api/v1/auth/login. Публичный.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Register — POST /api/v1/auth/register. Публичный.
// Пользователь создаётся неодобренным.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	u, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered. Waiting for approval.",
		UserID:  u.ID,
	})
}

// Me — GET /api/v1/auth/me.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// InitAdmin — POST /api/v1/init-admin. Публичный, срабатывает один раз.
func (h *APIHandler) InitAdmin(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.InitAdmin(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
