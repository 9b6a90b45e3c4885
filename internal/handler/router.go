package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Handlers groups every HTTP handler the API serves.
type Handlers struct {
	Expense       *ExpenseHandler
	Recurring     *RecurringHandler
	Stats         *StatsHandler
	Category      *CategoryHandler
	Group         *OccasionalGroupHandler
	FinancialYear *FinancialYearHandler
	Export        *ExportHandler
}

// NewRouter builds the API router with its middleware stack.
func NewRouter(allowedOrigins []string, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		// Health check
		// @Summary Health check
		// @Description Check if the API is running
		// @Tags health
		// @Produce json
		// @Success 200 {object} map[string]string
		// @Router /health [get]
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Expenses
		r.Get("/expenses", h.Expense.List)
		r.Post("/expenses", h.Expense.Create)
		r.Get("/expenses/recent", h.Expense.Recent)
		r.Get("/expenses/recurring-occurrences", h.Recurring.PeriodOccurrences)
		r.Get("/expenses/monthly/{year}/{month}", h.Expense.Monthly)
		r.Get("/expenses/yearly/{year}", h.Expense.Yearly)
		r.Get("/expenses/yearly/{year}/monthly-breakdown", h.Stats.MonthlyBreakdown)
		r.Get("/expenses/yearly/{year}/export/csv", h.Export.ExportExpensesCSV)
		r.Get("/expenses/yearly/{year}/export/xlsx", h.Export.ExportExpensesXLSX)
		r.Get("/expenses/{id}", h.Expense.Get)
		r.Put("/expenses/{id}", h.Expense.Update)
		r.Delete("/expenses/{id}", h.Expense.Delete)
		r.Patch("/expenses/{id}/mark-as-paid", h.Expense.MarkAsPaid)
		r.Patch("/expenses/{id}/mark-as-pending", h.Expense.MarkAsPending)

		// Recurring expenses
		r.Get("/recurring-expenses", h.Recurring.List)
		r.Post("/recurring-expenses", h.Recurring.Create)
		r.Get("/recurring-expenses/{id}", h.Recurring.Get)
		r.Patch("/recurring-expenses/{id}", h.Recurring.Update)
		r.Delete("/recurring-expenses/{id}", h.Recurring.Delete)
		r.Post("/recurring-expenses/{id}/pause", h.Recurring.Pause)
		r.Post("/recurring-expenses/{id}/resume", h.Recurring.Resume)
		r.Get("/recurring-expenses/{id}/occurrences", h.Recurring.Occurrences)

		// Stats
		r.Get("/stats/monthly", h.Stats.Monthly)
		r.Get("/stats/annual/{year}", h.Stats.Annual)
		r.Get("/stats/annual/{year}/export/pdf", h.Export.ExportAnnualReportPDF)
		r.Get("/stats/category-breakdown/{year}", h.Stats.CategoryBreakdown)

		// Occasional groups
		r.Get("/occasional-groups", h.Group.List)
		r.Post("/occasional-groups", h.Group.Create)
		r.Get("/occasional-groups/{id}", h.Group.Get)
		r.Patch("/occasional-groups/{id}", h.Group.Update)
		r.Delete("/occasional-groups/{id}", h.Group.Delete)

		// Financial years
		r.Get("/financial-years", h.FinancialYear.List)
		r.Post("/financial-years", h.FinancialYear.Create)
		r.Get("/financial-years/{id}", h.FinancialYear.Get)
		r.Put("/financial-years/{id}", h.FinancialYear.Update)

		// Category registries; unknown kinds answer 404
		r.Get("/{kind}", h.Category.List)
		r.Post("/{kind}", h.Category.Create)
		r.Delete("/{kind}/{id}", h.Category.Delete)
	})

	return r
}
