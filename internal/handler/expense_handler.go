package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/spendlog/backend/internal/apperror"
	_ "github.com/spendlog/backend/internal/model" // swagger types
	"github.com/spendlog/backend/internal/service"
	"github.com/spendlog/backend/pkg/datetime"
)

type ExpenseHandler struct {
	expenseService ExpenseServiceInterface
}

func NewExpenseHandler(expenseService ExpenseServiceInterface) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// Create godoc
// @Summary Create an expense
// @Description Record a one-off routine or occasional expense
// @Tags expenses
// @Accept json
// @Produce json
// @Param input body service.ExpenseInput true "Expense data"
// @Success 201 {object} model.Expense
// @Failure 400 {object} ErrorResponse
// @Router /expenses [post]
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.ExpenseInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	e, err := h.expenseService.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, e)
}

// List godoc
// @Summary List expenses
// @Description Get a filtered page of expenses, newest first
// @Tags expenses
// @Produce json
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Param expenseType query string false "routine or occasional"
// @Param routineCategory query string false "Routine category"
// @Param occasionalGroupId query string false "Occasional group ID"
// @Param recurringOnly query bool false "Only occurrences of recurring expenses"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} service.ExpenseList
// @Failure 400 {object} ErrorResponse
// @Router /expenses [get]
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	input, err := parseListExpensesInput(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	list, err := h.expenseService.List(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, list)
}

func parseListExpensesInput(r *http.Request) (service.ListExpensesInput, error) {
	q := r.URL.Query()
	var input service.ListExpensesInput
	var issues apperror.Issues

	parseDate := func(name string) *time.Time {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		d, err := datetime.ParseDate(raw)
		if err != nil {
			issues.Add(name, "must be a date in YYYY-MM-DD format")
			return nil
		}
		return &d.Time
	}
	input.StartDate = parseDate("startDate")
	input.EndDate = parseDate("endDate")

	if v := q.Get("expenseType"); v != "" {
		input.ExpenseType = &v
	}
	if v := q.Get("routineCategory"); v != "" {
		input.RoutineCategory = &v
	}
	if v := q.Get("occasionalGroupId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			issues.Add("occasionalGroupId", "must be a UUID")
		} else {
			input.OccasionalGroupID = &id
		}
	}
	if v := q.Get("recurringOnly"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			issues.Add("recurringOnly", "must be true or false")
		}
		input.RecurringOnly = b
	}

	var err error
	if input.Page, err = queryInt(r, "page", 1); err != nil {
		issues.Add("page", "must be an integer")
	}
	if input.PageSize, err = queryInt(r, "pageSize", service.DefaultPageSize); err != nil {
		issues.Add("pageSize", "must be an integer")
	}

	return input, issues.Err()
}

// Get godoc
// @Summary Get an expense
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} model.Expense
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	e, err := h.expenseService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, e)
}

// Update godoc
// @Summary Update an expense
// @Description Replace the editable fields of an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param input body service.ExpenseInput true "Expense data"
// @Success 200 {object} model.Expense
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var input service.ExpenseInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	e, err := h.expenseService.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, e)
}

// Delete godoc
// @Summary Delete an expense
// @Tags expenses
// @Param id path string true "Expense ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.expenseService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAsPaid godoc
// @Summary Mark an occurrence as paid
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} model.Expense
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /expenses/{id}/mark-as-paid [patch]
func (h *ExpenseHandler) MarkAsPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	e, err := h.expenseService.MarkAsPaid(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, e)
}

// MarkAsPending godoc
// @Summary Mark an occurrence as pending
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} model.Expense
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /expenses/{id}/mark-as-pending [patch]
func (h *ExpenseHandler) MarkAsPending(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	e, err := h.expenseService.MarkAsPending(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, e)
}

// Recent godoc
// @Summary Recent expenses
// @Description Get the most recently purchased expenses
// @Tags expenses
// @Produce json
// @Param limit query int false "Number of expenses" default(10)
// @Success 200 {array} model.Expense
// @Failure 400 {object} ErrorResponse
// @Router /expenses/recent [get]
func (h *ExpenseHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultRecentLimit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	expenses, err := h.expenseService.Recent(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, expenses)
}

// Monthly godoc
// @Summary Expenses of a month
// @Description Get every expense of a month, including due occurrences
// @Tags expenses
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {array} model.Expense
// @Failure 400 {object} ErrorResponse
// @Router /expenses/monthly/{year}/{month} [get]
func (h *ExpenseHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	year, ok := pathInt(w, r, "year")
	if !ok {
		return
	}
	month, ok := pathInt(w, r, "month")
	if !ok {
		return
	}

	expenses, err := h.expenseService.Monthly(r.Context(), year, month)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, expenses)
}

// Yearly godoc
// @Summary Expenses of a year
// @Description Get every expense of a year, including due occurrences
// @Tags expenses
// @Produce json
// @Param year path int true "Year"
// @Success 200 {array} model.Expense
// @Failure 400 {object} ErrorResponse
// @Router /expenses/yearly/{year} [get]
func (h *ExpenseHandler) Yearly(w http.ResponseWriter, r *http.Request) {
	year, ok := pathInt(w, r, "year")
	if !ok {
		return
	}

	expenses, err := h.expenseService.Yearly(r.Context(), year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, expenses)
}
