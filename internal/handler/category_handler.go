package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spendlog/backend/internal/service"
)

// CategoryHandler serves every user-managed category registry. The registry
// is selected by the {kind} path segment.
type CategoryHandler struct {
	categoryService CategoryServiceInterface
}

func NewCategoryHandler(categoryService CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// Create godoc
// @Summary Add a registry entry
// @Tags categories
// @Accept json
// @Produce json
// @Param kind path string true "Registry" Enums(supermarkets, restaurants, service-types, leisure-types, personal-care-types, shops, places, health-types, family-members, charity-types, fixed-expense-types)
// @Param input body service.CreateCategoryInput true "Entry"
// @Success 201 {object} model.CategoryItem
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /{kind} [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateCategoryInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	item, err := h.categoryService.Create(r.Context(), chi.URLParam(r, "kind"), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// List godoc
// @Summary List registry entries
// @Description List the entries of a registry sorted by name
// @Tags categories
// @Produce json
// @Param kind path string true "Registry"
// @Success 200 {array} model.CategoryItem
// @Failure 404 {object} ErrorResponse
// @Router /{kind} [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.categoryService.List(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// Delete godoc
// @Summary Delete a registry entry
// @Description Delete an entry no expense or recurring expense refers to
// @Tags categories
// @Param kind path string true "Registry"
// @Param id path string true "Entry ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /{kind}/{id} [delete]
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.categoryService.Delete(r.Context(), chi.URLParam(r, "kind"), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
