package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
)

var (
	ErrFinancialYearNotFound = apperror.NotFound("financial year")
	ErrDuplicateYear         = apperror.Conflict("financial year already exists")
)

type FinancialYearRepository struct {
	db *sqlx.DB
}

func NewFinancialYearRepository(db *sqlx.DB) *FinancialYearRepository {
	return &FinancialYearRepository{db: db}
}

// Create stores the year and its goals in one transaction.
func (r *FinancialYearRepository) Create(ctx context.Context, fy *model.FinancialYear) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO financial_years (id, year, total_monthly_goal, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at`

	fy.ID = uuid.New()
	err = tx.QueryRowxContext(ctx, query, fy.ID, fy.Year, fy.TotalMonthlyGoal).Scan(&fy.CreatedAt, &fy.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateYear
	}
	if err != nil {
		return err
	}

	if err := insertGoals(ctx, tx, fy); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *FinancialYearRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.FinancialYear, error) {
	var fy model.FinancialYear
	err := r.db.GetContext(ctx, &fy, `SELECT * FROM financial_years WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFinancialYearNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadGoals(ctx, &fy); err != nil {
		return nil, err
	}
	return &fy, nil
}

func (r *FinancialYearRepository) GetByYear(ctx context.Context, year int) (*model.FinancialYear, error) {
	var fy model.FinancialYear
	err := r.db.GetContext(ctx, &fy, `SELECT * FROM financial_years WHERE year = $1`, year)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFinancialYearNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadGoals(ctx, &fy); err != nil {
		return nil, err
	}
	return &fy, nil
}

// List returns financial years ordered by year, optionally a single year.
func (r *FinancialYearRepository) List(ctx context.Context, year *int) ([]model.FinancialYear, error) {
	years := []model.FinancialYear{}
	query := `
		SELECT * FROM financial_years
		WHERE ($1::integer IS NULL OR year = $1)
		ORDER BY year`
	if err := r.db.SelectContext(ctx, &years, query, year); err != nil {
		return nil, err
	}
	for i := range years {
		if err := r.loadGoals(ctx, &years[i]); err != nil {
			return nil, err
		}
	}
	return years, nil
}

// Update replaces the goal and every monthly goal atomically.
func (r *FinancialYearRepository) Update(ctx context.Context, fy *model.FinancialYear) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE financial_years
		SET year = $2, total_monthly_goal = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err = tx.QueryRowxContext(ctx, query, fy.ID, fy.Year, fy.TotalMonthlyGoal).Scan(&fy.CreatedAt, &fy.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrFinancialYearNotFound
	case isUniqueViolation(err):
		return ErrDuplicateYear
	case err != nil:
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM financial_year_goals WHERE financial_year_id = $1`, fy.ID); err != nil {
		return fmt.Errorf("clear goals: %w", err)
	}
	if err := insertGoals(ctx, tx, fy); err != nil {
		return err
	}
	return tx.Commit()
}

func insertGoals(ctx context.Context, tx *sqlx.Tx, fy *model.FinancialYear) error {
	query := `INSERT INTO financial_year_goals (financial_year_id, category, amount) VALUES ($1, $2, $3)`
	for _, g := range fy.MonthlyGoals {
		if _, err := tx.ExecContext(ctx, query, fy.ID, g.Category, g.Amount); err != nil {
			return fmt.Errorf("insert goal %s: %w", g.Category, err)
		}
	}
	return nil
}

func (r *FinancialYearRepository) loadGoals(ctx context.Context, fy *model.FinancialYear) error {
	fy.MonthlyGoals = []model.MonthlyGoal{}
	query := `SELECT category, amount FROM financial_year_goals WHERE financial_year_id = $1 ORDER BY category`
	return r.db.SelectContext(ctx, &fy.MonthlyGoals, query, fy.ID)
}
