package handler

import (
	"net/http"

	"github.com/spendlog/backend/internal/service"
)

type OccasionalGroupHandler struct {
	groupService OccasionalGroupServiceInterface
}

func NewOccasionalGroupHandler(groupService OccasionalGroupServiceInterface) *OccasionalGroupHandler {
	return &OccasionalGroupHandler{groupService: groupService}
}

// Create godoc
// @Summary Create an occasional group
// @Tags occasional-groups
// @Accept json
// @Produce json
// @Param input body service.CreateGroupInput true "Group"
// @Success 201 {object} model.OccasionalGroup
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /occasional-groups [post]
func (h *OccasionalGroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateGroupInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	g, err := h.groupService.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, g)
}

// List godoc
// @Summary List occasional groups
// @Tags occasional-groups
// @Produce json
// @Param status query string false "open or closed"
// @Success 200 {array} model.OccasionalGroup
// @Failure 400 {object} ErrorResponse
// @Router /occasional-groups [get]
func (h *OccasionalGroupHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		status = &s
	}

	groups, err := h.groupService.List(r.Context(), status)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, groups)
}

// Get godoc
// @Summary Get an occasional group
// @Tags occasional-groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} model.OccasionalGroup
// @Failure 404 {object} ErrorResponse
// @Router /occasional-groups/{id} [get]
func (h *OccasionalGroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	g, err := h.groupService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, g)
}

// Update godoc
// @Summary Rename, close or reopen an occasional group
// @Tags occasional-groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param input body service.UpdateGroupInput true "Fields to change"
// @Success 200 {object} model.OccasionalGroup
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /occasional-groups/{id} [patch]
func (h *OccasionalGroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var input service.UpdateGroupInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	g, err := h.groupService.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, g)
}

// Delete godoc
// @Summary Delete an empty occasional group
// @Tags occasional-groups
// @Param id path string true "Group ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /occasional-groups/{id} [delete]
func (h *OccasionalGroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.groupService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
