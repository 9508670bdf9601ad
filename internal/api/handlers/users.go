// users.go — обработчики /api/v1/users.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListUsers — GET /api/v1/users. Доступ: view:admin-users.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

// ListPendingUsers — GET /api/v1/users/pending. Доступ: view:admin-users.
func (h *APIHandler) ListPendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListPending(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

// ApproveUser — POST /api/v1/users/{id}/approve. Доступ: action:approve-user.
func (h *APIHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.users.Approve(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User approved"})
}
