package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
)

// FinancialYearRepositoryInterface defines the contract for financial year data access.
type FinancialYearRepositoryInterface interface {
	Create(ctx context.Context, fy *model.FinancialYear) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.FinancialYear, error)
	GetByYear(ctx context.Context, year int) (*model.FinancialYear, error)
	List(ctx context.Context, year *int) ([]model.FinancialYear, error)
	Update(ctx context.Context, fy *model.FinancialYear) error
}

// FinancialYearService manages yearly spending goals.
type FinancialYearService struct {
	repo FinancialYearRepositoryInterface
}

func NewFinancialYearService(repo FinancialYearRepositoryInterface) *FinancialYearService {
	return &FinancialYearService{repo: repo}
}

// FinancialYearInput replaces every field of a financial year. Monthly goals
// are keyed by routine category or "occasional".
type FinancialYearInput struct {
	Year             int                 `json:"year"`
	TotalMonthlyGoal decimal.Decimal     `json:"totalMonthlyGoal"`
	MonthlyGoals     []model.MonthlyGoal `json:"monthlyGoals"`
}

func (in FinancialYearInput) validate() error {
	var issues apperror.Issues
	if in.Year < model.MinYear || in.Year > model.MaxYear {
		issues.Addf("year", "must be between %d and %d", model.MinYear, model.MaxYear)
	}
	if in.TotalMonthlyGoal.IsNegative() {
		issues.Add("totalMonthlyGoal", "must not be negative")
	}
	seen := make(map[string]bool, len(in.MonthlyGoals))
	for i, g := range in.MonthlyGoals {
		field := fmt.Sprintf("monthlyGoals[%d]", i)
		switch {
		case !model.IsCategoryKey(g.Category):
			issues.Addf(field+".category", "unknown category %q", g.Category)
		case seen[g.Category]:
			issues.Addf(field+".category", "duplicate goal for %q", g.Category)
		}
		seen[g.Category] = true
		if g.Amount.IsNegative() {
			issues.Add(field+".amount", "must not be negative")
		}
	}
	return issues.Err()
}

func (in FinancialYearInput) goals() []model.MonthlyGoal {
	goals := make([]model.MonthlyGoal, len(in.MonthlyGoals))
	copy(goals, in.MonthlyGoals)
	return goals
}

func (s *FinancialYearService) Create(ctx context.Context, in FinancialYearInput) (*model.FinancialYear, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	fy := &model.FinancialYear{
		Year:             in.Year,
		TotalMonthlyGoal: in.TotalMonthlyGoal,
		MonthlyGoals:     in.goals(),
	}
	if err := s.repo.Create(ctx, fy); err != nil {
		return nil, fmt.Errorf("creating financial year %d: %w", in.Year, err)
	}
	return fy, nil
}

// Update replaces the year, its total goal and all category goals.
func (s *FinancialYearService) Update(ctx context.Context, id uuid.UUID, in FinancialYearInput) (*model.FinancialYear, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	fy, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching financial year %s for update: %w", id, err)
	}
	fy.Year = in.Year
	fy.TotalMonthlyGoal = in.TotalMonthlyGoal
	fy.MonthlyGoals = in.goals()

	if err := s.repo.Update(ctx, fy); err != nil {
		return nil, fmt.Errorf("updating financial year %s: %w", id, err)
	}
	return fy, nil
}

func (s *FinancialYearService) Get(ctx context.Context, id uuid.UUID) (*model.FinancialYear, error) {
	fy, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting financial year %s: %w", id, err)
	}
	return fy, nil
}

func (s *FinancialYearService) List(ctx context.Context, year *int) ([]model.FinancialYear, error) {
	years, err := s.repo.List(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("listing financial years: %w", err)
	}
	return years, nil
}

// ForYear returns the goals of year, or nil when none were defined.
func (s *FinancialYearService) ForYear(ctx context.Context, year int) (*model.FinancialYear, error) {
	fy, err := s.repo.GetByYear(ctx, year)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting financial year %d: %w", year, err)
	}
	return fy, nil
}
