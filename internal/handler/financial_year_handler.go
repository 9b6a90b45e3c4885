package handler

import (
	"net/http"

	"github.com/spendlog/backend/internal/service"
)

type FinancialYearHandler struct {
	financialYearService FinancialYearServiceInterface
}

func NewFinancialYearHandler(financialYearService FinancialYearServiceInterface) *FinancialYearHandler {
	return &FinancialYearHandler{financialYearService: financialYearService}
}

// Create godoc
// @Summary Create a financial year
// @Description Set the monthly goals of a year
// @Tags financial-years
// @Accept json
// @Produce json
// @Param input body service.FinancialYearInput true "Financial year"
// @Success 201 {object} model.FinancialYear
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /financial-years [post]
func (h *FinancialYearHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.FinancialYearInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	fy, err := h.financialYearService.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, fy)
}

// List godoc
// @Summary List financial years
// @Tags financial-years
// @Produce json
// @Param year query int false "Only this year"
// @Success 200 {array} model.FinancialYear
// @Failure 400 {object} ErrorResponse
// @Router /financial-years [get]
func (h *FinancialYearHandler) List(w http.ResponseWriter, r *http.Request) {
	var year *int
	if r.URL.Query().Get("year") != "" {
		y, err := queryInt(r, "year", 0)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		year = &y
	}

	years, err := h.financialYearService.List(r.Context(), year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, years)
}

// Get godoc
// @Summary Get a financial year
// @Tags financial-years
// @Produce json
// @Param id path string true "Financial Year ID"
// @Success 200 {object} model.FinancialYear
// @Failure 404 {object} ErrorResponse
// @Router /financial-years/{id} [get]
func (h *FinancialYearHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	fy, err := h.financialYearService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, fy)
}

// Update godoc
// @Summary Replace a financial year
// @Description Replace the goals of a financial year
// @Tags financial-years
// @Accept json
// @Produce json
// @Param id path string true "Financial Year ID"
// @Param input body service.FinancialYearInput true "Financial year"
// @Success 200 {object} model.FinancialYear
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /financial-years/{id} [put]
func (h *FinancialYearHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var input service.FinancialYearInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	fy, err := h.financialYearService.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, fy)
}
