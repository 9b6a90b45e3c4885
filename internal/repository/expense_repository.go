package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
)

var ErrExpenseNotFound = apperror.NotFound("expense")

type ExpenseRepository struct {
	db *sqlx.DB
}

func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *model.Expense) error {
	query := `
		INSERT INTO expenses (id, amount, purchase_date, payment_method, expense_type, routine_category,
			category_ref_id, occasional_group_id, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at`

	e.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		e.ID, e.Amount, e.PurchaseDate, e.PaymentMethod, e.ExpenseType, e.RoutineCategory,
		e.CategoryRefID, e.OccasionalGroupID, e.Description,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// CreateOccurrence inserts a materialized installment. It reports false when
// the installment already exists, which makes concurrent generation safe.
func (r *ExpenseRepository) CreateOccurrence(ctx context.Context, e *model.Expense) (bool, error) {
	query := `
		INSERT INTO expenses (id, amount, purchase_date, payment_method, expense_type, routine_category,
			category_ref_id, occasional_group_id, description, recurring_expense_id, installment_number,
			payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (recurring_expense_id, installment_number) DO NOTHING
		RETURNING created_at, updated_at`

	e.ID = uuid.New()
	err := r.db.QueryRowxContext(ctx, query,
		e.ID, e.Amount, e.PurchaseDate, e.PaymentMethod, e.ExpenseType, e.RoutineCategory,
		e.CategoryRefID, e.OccasionalGroupID, e.Description, e.RecurringExpenseID, e.InstallmentNumber,
		e.PaymentStatus,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var e model.Expense
	query := `SELECT * FROM expenses WHERE id = $1`
	err := r.db.GetContext(ctx, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExpenseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type ExpenseFilters struct {
	StartDate         *time.Time
	EndDate           *time.Time
	ExpenseType       *string
	RoutineCategory   *string
	OccasionalGroupID *uuid.UUID
	RecurringOnly     bool
	Limit             int
	Offset            int
}

const expenseFilterWhere = `
		WHERE ($1::date IS NULL OR purchase_date >= $1)
		AND ($2::date IS NULL OR purchase_date <= $2)
		AND ($3::text IS NULL OR expense_type = $3)
		AND ($4::text IS NULL OR routine_category = $4)
		AND ($5::uuid IS NULL OR occasional_group_id = $5)
		AND (NOT $6::boolean OR recurring_expense_id IS NOT NULL)`

func (r *ExpenseRepository) List(ctx context.Context, f ExpenseFilters) ([]model.Expense, error) {
	expenses := []model.Expense{}
	query := `SELECT * FROM expenses` + expenseFilterWhere + `
		ORDER BY purchase_date DESC, created_at DESC
		LIMIT $7 OFFSET $8`

	err := r.db.SelectContext(ctx, &expenses, query,
		f.StartDate, f.EndDate, f.ExpenseType, f.RoutineCategory, f.OccasionalGroupID, f.RecurringOnly,
		f.Limit, f.Offset,
	)
	return expenses, err
}

func (r *ExpenseRepository) Count(ctx context.Context, f ExpenseFilters) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM expenses` + expenseFilterWhere
	err := r.db.GetContext(ctx, &total, query,
		f.StartDate, f.EndDate, f.ExpenseType, f.RoutineCategory, f.OccasionalGroupID, f.RecurringOnly,
	)
	return total, err
}

// ListByPeriod returns every expense purchased within [from, to], oldest first.
func (r *ExpenseRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]model.Expense, error) {
	expenses := []model.Expense{}
	query := `
		SELECT * FROM expenses
		WHERE purchase_date >= $1 AND purchase_date <= $2
		ORDER BY purchase_date, created_at`
	err := r.db.SelectContext(ctx, &expenses, query, from, to)
	return expenses, err
}

func (r *ExpenseRepository) Recent(ctx context.Context, limit int) ([]model.Expense, error) {
	expenses := []model.Expense{}
	query := `SELECT * FROM expenses ORDER BY purchase_date DESC, created_at DESC LIMIT $1`
	err := r.db.SelectContext(ctx, &expenses, query, limit)
	return expenses, err
}

// Update rewrites the user-editable fields. Recurrence linkage and payment
// status are left alone.
func (r *ExpenseRepository) Update(ctx context.Context, e *model.Expense) error {
	query := `
		UPDATE expenses
		SET amount = $2, purchase_date = $3, payment_method = $4, expense_type = $5, routine_category = $6,
			category_ref_id = $7, occasional_group_id = $8, description = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		e.ID, e.Amount, e.PurchaseDate, e.PaymentMethod, e.ExpenseType, e.RoutineCategory,
		e.CategoryRefID, e.OccasionalGroupID, e.Description,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrExpenseNotFound
	}
	return err
}

// SetPaymentStatus changes the status of a linked occurrence and nothing else.
func (r *ExpenseRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) (time.Time, error) {
	query := `
		UPDATE expenses
		SET payment_status = $2, updated_at = NOW()
		WHERE id = $1 AND recurring_expense_id IS NOT NULL
		RETURNING updated_at`

	var updatedAt time.Time
	err := r.db.QueryRowxContext(ctx, query, id, status).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrExpenseNotFound
	}
	return updatedAt, err
}

func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// InstallmentNumbers lists the installment numbers stored for a recurrence.
func (r *ExpenseRepository) InstallmentNumbers(ctx context.Context, recurringID uuid.UUID) ([]int, error) {
	numbers := []int{}
	query := `
		SELECT installment_number FROM expenses
		WHERE recurring_expense_id = $1 AND installment_number IS NOT NULL
		ORDER BY installment_number`
	err := r.db.SelectContext(ctx, &numbers, query, recurringID)
	return numbers, err
}

func (r *ExpenseRepository) CountPaid(ctx context.Context, recurringID uuid.UUID) (int, error) {
	var paid int
	query := `SELECT COUNT(*) FROM expenses WHERE recurring_expense_id = $1 AND payment_status = 'paid'`
	err := r.db.GetContext(ctx, &paid, query, recurringID)
	return paid, err
}

// ListOccurrences returns linked rows purchased within [from, to] together
// with their recurrence, optionally restricted to one recurrence.
func (r *ExpenseRepository) ListOccurrences(ctx context.Context, from, to time.Time, recurringID *uuid.UUID) ([]model.Occurrence, error) {
	occurrences := []model.Occurrence{}
	query := `
		SELECT e.*, re.name AS recurring_name, re.recurrence_type, re.installments_total
		FROM expenses e
		JOIN recurring_expenses re ON re.id = e.recurring_expense_id
		WHERE e.purchase_date >= $1 AND e.purchase_date <= $2
		AND ($3::uuid IS NULL OR e.recurring_expense_id = $3)
		ORDER BY e.purchase_date, re.name, e.installment_number`
	err := r.db.SelectContext(ctx, &occurrences, query, from, to, recurringID)
	return occurrences, err
}
