// invite_codes.go — обработчики /api/v1/invite-codes.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/pavian-registry/internal/api/errors"
	"github.com/bigkaa/pavian-registry/internal/service"
)

// ValidateInviteCode — GET /api/v1/invite-codes/validate/{code}. Публичный.
// Непригодный код — 200 с valid=false.
func (h *APIHandler) ValidateInviteCode(w http.ResponseWriter, r *http.Request) {
	res, err := h.invites.Validate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListInviteCodes — GET /api/v1/invite-codes. Доступ: view:admin-codes.
func (h *APIHandler) ListInviteCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.invites.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(codes))
}

// GenerateInviteCode — POST /api/v1/invite-codes/generate. Доступ: action:generate-code.
func (h *APIHandler) GenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req service.GenerateInviteCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	code, err := h.invites.Generate(r.Context(), actor, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}
