// products.go — обработчики /api/v1/products.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/pavian-registry/internal/api/errors"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// ListProducts — GET /api/v1/products. Доступ: view:products.
func (h *APIHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(products))
}

// GetProduct — GET /api/v1/products/{id}. Доступ: view:product-detail.
func (h *APIHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProduct — POST /api/v1/products. Доступ: action:create-product.
func (h *APIHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var data model.ProductData
	if err := decodeJSON(w, r, &data); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	p, err := h.products.Create(r.Context(), actor, data)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProduct — PUT /api/v1/products/{id}. Доступ: action:edit-product.
// Меняются только переданные поля, null игнорируется.
func (h *APIHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var patch model.ProductPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	p, err := h.products.Update(r.Context(), actor, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct — DELETE /api/v1/products/{id}. Доступ: action:delete-product.
func (h *APIHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Product deleted"})
}
