package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/spendlog/backend/internal/model"
	"github.com/spendlog/backend/internal/recurrence"
	"github.com/spendlog/backend/internal/service"
	"github.com/spendlog/backend/internal/stats"
)

// ExpenseServiceInterface for handler testing
type ExpenseServiceInterface interface {
	Create(ctx context.Context, in service.ExpenseInput) (*model.Expense, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, in service.ListExpensesInput) (*service.ExpenseList, error)
	Update(ctx context.Context, id uuid.UUID, in service.ExpenseInput) (*model.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkAsPaid(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	MarkAsPending(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	Recent(ctx context.Context, limit int) ([]model.Expense, error)
	Monthly(ctx context.Context, year, month int) ([]model.Expense, error)
	Yearly(ctx context.Context, year int) ([]model.Expense, error)
}

// RecurringServiceInterface for handler testing
type RecurringServiceInterface interface {
	Create(ctx context.Context, in service.CreateRecurringInput) (*model.RecurringExpense, error)
	Get(ctx context.Context, id uuid.UUID) (*model.RecurringExpense, error)
	List(ctx context.Context) ([]model.RecurringExpense, error)
	Update(ctx context.Context, id uuid.UUID, in service.UpdateRecurringInput) (*model.RecurringExpense, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Pause(ctx context.Context, id uuid.UUID) (*model.RecurringExpense, error)
	Resume(ctx context.Context, id uuid.UUID, in service.ResumeRecurringInput) (*model.RecurringExpense, error)
	Occurrences(ctx context.Context, id uuid.UUID, w *recurrence.Window) ([]model.Occurrence, error)
	OccurrencesInWindow(ctx context.Context, w recurrence.Window) ([]model.Occurrence, error)
}

// StatsServiceInterface for handler testing
type StatsServiceInterface interface {
	Monthly(ctx context.Context, year, month int) (*service.MonthlyStats, error)
	Annual(ctx context.Context, year int) (*service.AnnualStats, error)
	CategoryBreakdown(ctx context.Context, year int) (*service.CategoryBreakdownStats, error)
	MonthlyBreakdown(ctx context.Context, year int) ([]stats.MonthBreakdown, error)
}

// CategoryServiceInterface for handler testing
type CategoryServiceInterface interface {
	Create(ctx context.Context, kind string, in service.CreateCategoryInput) (*model.CategoryItem, error)
	List(ctx context.Context, kind string) ([]model.CategoryItem, error)
	Delete(ctx context.Context, kind string, id uuid.UUID) error
}

// OccasionalGroupServiceInterface for handler testing
type OccasionalGroupServiceInterface interface {
	Create(ctx context.Context, in service.CreateGroupInput) (*model.OccasionalGroup, error)
	Get(ctx context.Context, id uuid.UUID) (*model.OccasionalGroup, error)
	List(ctx context.Context, status *string) ([]model.OccasionalGroup, error)
	Update(ctx context.Context, id uuid.UUID, in service.UpdateGroupInput) (*model.OccasionalGroup, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FinancialYearServiceInterface for handler testing
type FinancialYearServiceInterface interface {
	Create(ctx context.Context, in service.FinancialYearInput) (*model.FinancialYear, error)
	Update(ctx context.Context, id uuid.UUID, in service.FinancialYearInput) (*model.FinancialYear, error)
	Get(ctx context.Context, id uuid.UUID) (*model.FinancialYear, error)
	List(ctx context.Context, year *int) ([]model.FinancialYear, error)
}

// ExportServiceInterface for handler testing
type ExportServiceInterface interface {
	ExpensesCSV(ctx context.Context, year int) ([]byte, error)
	ExpensesXLSX(ctx context.Context, year int) ([]byte, error)
	AnnualReportPDF(ctx context.Context, year int) ([]byte, error)
}
