package handler

import (
	"net/http"
	"time"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
	"github.com/spendlog/backend/internal/recurrence"
	"github.com/spendlog/backend/internal/service"
)

type RecurringHandler struct {
	recurringService RecurringServiceInterface
}

func NewRecurringHandler(recurringService RecurringServiceInterface) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService}
}

// Create godoc
// @Summary Create a recurring expense
// @Description Create a determined or undetermined monthly expense. Occurrences already due are generated immediately.
// @Tags recurring
// @Accept json
// @Produce json
// @Param input body service.CreateRecurringInput true "Recurring expense data"
// @Success 201 {object} model.RecurringExpense
// @Failure 400 {object} ErrorResponse
// @Router /recurring-expenses [post]
func (h *RecurringHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateRecurringInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	re, err := h.recurringService.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, re)
}

// List godoc
// @Summary List recurring expenses
// @Tags recurring
// @Produce json
// @Success 200 {array} model.RecurringExpense
// @Failure 500 {object} ErrorResponse
// @Router /recurring-expenses [get]
func (h *RecurringHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.recurringService.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// Get godoc
// @Summary Get a recurring expense
// @Tags recurring
// @Produce json
// @Param id path string true "Recurring Expense ID"
// @Success 200 {object} model.RecurringExpense
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /recurring-expenses/{id} [get]
func (h *RecurringHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	re, err := h.recurringService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, re)
}

// Update godoc
// @Summary Update a recurring expense
// @Description Patch a recurring expense. Changes apply to occurrences generated afterwards.
// @Tags recurring
// @Accept json
// @Produce json
// @Param id path string true "Recurring Expense ID"
// @Param input body service.UpdateRecurringInput true "Fields to change"
// @Success 200 {object} model.RecurringExpense
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /recurring-expenses/{id} [patch]
func (h *RecurringHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var input service.UpdateRecurringInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	re, err := h.recurringService.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, re)
}

// Delete godoc
// @Summary Delete a recurring expense
// @Description Delete a recurring expense. Its occurrences are kept as plain expenses.
// @Tags recurring
// @Param id path string true "Recurring Expense ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /recurring-expenses/{id} [delete]
func (h *RecurringHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.recurringService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Pause godoc
// @Summary Pause a recurring expense
// @Tags recurring
// @Produce json
// @Param id path string true "Recurring Expense ID"
// @Success 200 {object} model.RecurringExpense
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /recurring-expenses/{id}/pause [post]
func (h *RecurringHandler) Pause(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	re, err := h.recurringService.Pause(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, re)
}

// Resume godoc
// @Summary Resume a paused recurring expense
// @Description Resume generation from the current month. Sending installmentsTotal makes the expense determined.
// @Tags recurring
// @Accept json
// @Produce json
// @Param id path string true "Recurring Expense ID"
// @Param input body service.ResumeRecurringInput false "Optional installment total"
// @Success 200 {object} model.RecurringExpense
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /recurring-expenses/{id}/resume [post]
func (h *RecurringHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var input service.ResumeRecurringInput
	if err := decodeOptionalJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	re, err := h.recurringService.Resume(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, re)
}

// Occurrences godoc
// @Summary Occurrences of a recurring expense
// @Description List the generated occurrences of one recurring expense, optionally restricted to a year or month
// @Tags recurring
// @Produce json
// @Param id path string true "Recurring Expense ID"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12), requires year"
// @Success 200 {array} model.Occurrence
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /recurring-expenses/{id}/occurrences [get]
func (h *RecurringHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	window, err := parsePeriod(r, false)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	list, err := h.recurringService.Occurrences(r.Context(), id, window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, nonNil(list))
}

// PeriodOccurrences godoc
// @Summary Recurring occurrences of a period
// @Description List the occurrences of every recurring expense in a year or month
// @Tags expenses
// @Produce json
// @Param year query int true "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {array} model.Occurrence
// @Failure 400 {object} ErrorResponse
// @Router /expenses/recurring-occurrences [get]
func (h *RecurringHandler) PeriodOccurrences(w http.ResponseWriter, r *http.Request) {
	window, err := parsePeriod(r, true)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	list, err := h.recurringService.OccurrencesInWindow(r.Context(), *window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, nonNil(list))
}

// parsePeriod reads the year and month query parameters into a window. It
// returns nil when year is absent and not required.
func parsePeriod(r *http.Request, required bool) (*recurrence.Window, error) {
	var issues apperror.Issues
	year, err := queryInt(r, "year", 0)
	if err != nil {
		issues.Add("year", "must be an integer")
	}
	month, err := queryInt(r, "month", 0)
	if err != nil {
		issues.Add("month", "must be an integer")
	}
	if err := issues.Err(); err != nil {
		return nil, err
	}

	switch {
	case year == 0 && month == 0 && !required:
		return nil, nil
	case year == 0:
		issues.Add("year", "is required")
	case year < model.MinYear || year > model.MaxYear:
		issues.Addf("year", "must be between %d and %d", model.MinYear, model.MaxYear)
	}
	if month != 0 && (month < 1 || month > 12) {
		issues.Add("month", "must be between 1 and 12")
	}
	if err := issues.Err(); err != nil {
		return nil, err
	}

	w := recurrence.YearWindow(year)
	if month != 0 {
		w = recurrence.MonthWindow(year, time.Month(month))
	}
	return &w, nil
}

func nonNil(list []model.Occurrence) []model.Occurrence {
	if list == nil {
		return []model.Occurrence{}
	}
	return list
}
