package handler

import (
	"net/http"

	"github.com/spendlog/backend/internal/apperror"
	_ "github.com/spendlog/backend/internal/stats" // swagger types
)

// StatsHandler serves aggregated spending figures.
type StatsHandler struct {
	statsService StatsServiceInterface
}

func NewStatsHandler(statsService StatsServiceInterface) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Monthly godoc
// @Summary Monthly stats
// @Description Totals and category breakdown of a month compared with its goals
// @Tags stats
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} service.MonthlyStats
// @Failure 400 {object} ErrorResponse
// @Router /stats/monthly [get]
func (h *StatsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
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
		respondServiceError(w, r, err)
		return
	}

	result, err := h.statsService.Monthly(r.Context(), year, month)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Annual godoc
// @Summary Annual stats
// @Description Totals, monthly series and category breakdown of a year compared with twelve months of goals
// @Tags stats
// @Produce json
// @Param year path int true "Year"
// @Success 200 {object} service.AnnualStats
// @Failure 400 {object} ErrorResponse
// @Router /stats/annual/{year} [get]
func (h *StatsHandler) Annual(w http.ResponseWriter, r *http.Request) {
	year, ok := pathInt(w, r, "year")
	if !ok {
		return
	}

	result, err := h.statsService.Annual(r.Context(), year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// CategoryBreakdown godoc
// @Summary Category breakdown
// @Description Yearly total of every category split by month
// @Tags stats
// @Produce json
// @Param year path int true "Year"
// @Success 200 {object} service.CategoryBreakdownStats
// @Failure 400 {object} ErrorResponse
// @Router /stats/category-breakdown/{year} [get]
func (h *StatsHandler) CategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	year, ok := pathInt(w, r, "year")
	if !ok {
		return
	}

	result, err := h.statsService.CategoryBreakdown(r.Context(), year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// MonthlyBreakdown godoc
// @Summary Monthly breakdown of a year
// @Description Category breakdown for each of the twelve months
// @Tags expenses
// @Produce json
// @Param year path int true "Year"
// @Success 200 {array} stats.MonthBreakdown
// @Failure 400 {object} ErrorResponse
// @Router /expenses/yearly/{year}/monthly-breakdown [get]
func (h *StatsHandler) MonthlyBreakdown(w http.ResponseWriter, r *http.Request) {
	year, ok := pathInt(w, r, "year")
	if !ok {
		return
	}

	result, err := h.statsService.MonthlyBreakdown(r.Context(), year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
