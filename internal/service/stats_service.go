package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendlog/backend/internal/model"
	"github.com/spendlog/backend/internal/recurrence"
	"github.com/spendlog/backend/internal/stats"
)

// PeriodExpenseLister loads the expenses of a date range.
type PeriodExpenseLister interface {
	ListByPeriod(ctx context.Context, from, to time.Time) ([]model.Expense, error)
}

// GoalSource provides the financial year goals are compared against.
type GoalSource interface {
	ForYear(ctx context.Context, year int) (*model.FinancialYear, error)
}

// StatsService aggregates expenses for charts and tables.
type StatsService struct {
	expenses    PeriodExpenseLister
	goals       GoalSource
	occurrences OccurrenceSyncer
}

func NewStatsService(expenses PeriodExpenseLister, goals GoalSource, occurrences OccurrenceSyncer) *StatsService {
	return &StatsService{expenses: expenses, goals: goals, occurrences: occurrences}
}

type MonthlyStats struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	stats.Breakdown
	Goals *stats.Goals `json:"goals"`
}

type AnnualStats struct {
	Year int `json:"year"`
	stats.Breakdown
	Months []stats.MonthTotal `json:"months"`
	Goals  *stats.Goals       `json:"goals"`
}

type CategoryBreakdownStats struct {
	Year       int                    `json:"year"`
	Total      decimal.Decimal        `json:"total"`
	Categories []stats.CategorySeries `json:"categories"`
}

// Monthly summarizes one month and compares it with the year's monthly goals.
func (s *StatsService) Monthly(ctx context.Context, year, month int) (*MonthlyStats, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	expenses, err := s.load(ctx, recurrence.MonthWindow(year, time.Month(month)))
	if err != nil {
		return nil, err
	}
	fy, err := s.goals.ForYear(ctx, year)
	if err != nil {
		return nil, err
	}

	b := stats.Summarize(expenses)
	return &MonthlyStats{Year: year, Month: month, Breakdown: b, Goals: stats.CompareGoals(b, fy, 1)}, nil
}

// Annual summarizes one year with its monthly series. Goals are the monthly
// goals multiplied by twelve.
func (s *StatsService) Annual(ctx context.Context, year int) (*AnnualStats, error) {
	if err := validateYearMonth(year, 1); err != nil {
		return nil, err
	}
	expenses, err := s.load(ctx, recurrence.YearWindow(year))
	if err != nil {
		return nil, err
	}
	fy, err := s.goals.ForYear(ctx, year)
	if err != nil {
		return nil, err
	}

	b := stats.Summarize(expenses)
	return &AnnualStats{
		Year:      year,
		Breakdown: b,
		Months:    stats.MonthlySeries(expenses, year),
		Goals:     stats.CompareGoals(b, fy, 12),
	}, nil
}

// CategoryBreakdown returns each category's yearly total split by month.
func (s *StatsService) CategoryBreakdown(ctx context.Context, year int) (*CategoryBreakdownStats, error) {
	if err := validateYearMonth(year, 1); err != nil {
		return nil, err
	}
	expenses, err := s.load(ctx, recurrence.YearWindow(year))
	if err != nil {
		return nil, err
	}

	series := stats.CategoryBreakdown(expenses, year)
	total := decimal.Zero
	for _, c := range series {
		total = total.Add(c.Total)
	}
	return &CategoryBreakdownStats{Year: year, Total: total, Categories: series}, nil
}

// MonthlyBreakdown returns a category breakdown for each month of year.
func (s *StatsService) MonthlyBreakdown(ctx context.Context, year int) ([]stats.MonthBreakdown, error) {
	if err := validateYearMonth(year, 1); err != nil {
		return nil, err
	}
	expenses, err := s.load(ctx, recurrence.YearWindow(year))
	if err != nil {
		return nil, err
	}
	return stats.MonthlyBreakdowns(expenses, year), nil
}

func (s *StatsService) load(ctx context.Context, w recurrence.Window) ([]model.Expense, error) {
	if s.occurrences != nil {
		if err := s.occurrences.SyncWindow(ctx, w); err != nil {
			return nil, fmt.Errorf("materializing occurrences: %w", err)
		}
	}
	expenses, err := s.expenses.ListByPeriod(ctx, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("loading expenses for stats: %w", err)
	}
	return expenses, nil
}
