package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
)

var ErrRecurringNotFound = apperror.NotFound("recurring expense")

type RecurringRepository struct {
	db *sqlx.DB
}

func NewRecurringRepository(db *sqlx.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

func (r *RecurringRepository) Create(ctx context.Context, re *model.RecurringExpense) error {
	query := `
		INSERT INTO recurring_expenses (id, name, amount, start_date, payment_method, expense_type,
			routine_category, category_ref_id, occasional_group_id, description, recurrence_type,
			installments_total, installments_paid_adjustment, installments_paid, installments_truly_paid,
			installments_generated, anchor_date, anchor_installment, next_occurrence_date, paused_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())
		RETURNING created_at, updated_at`

	re.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		re.ID, re.Name, re.Amount, re.StartDate, re.PaymentMethod, re.ExpenseType,
		re.RoutineCategory, re.CategoryRefID, re.OccasionalGroupID, re.Description, re.RecurrenceType,
		re.InstallmentsTotal, re.InstallmentsPaidAdjustment, re.InstallmentsPaid, re.InstallmentsTrulyPaid,
		re.InstallmentsGenerated, re.AnchorDate, re.AnchorInstallment, re.NextOccurrenceDate, re.PausedAt,
	).Scan(&re.CreatedAt, &re.UpdatedAt)
}

func (r *RecurringRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringExpense, error) {
	var re model.RecurringExpense
	query := `SELECT * FROM recurring_expenses WHERE id = $1`
	err := r.db.GetContext(ctx, &re, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecurringNotFound
	}
	if err != nil {
		return nil, err
	}
	return &re, nil
}

func (r *RecurringRepository) List(ctx context.Context) ([]model.RecurringExpense, error) {
	list := []model.RecurringExpense{}
	query := `SELECT * FROM recurring_expenses ORDER BY LOWER(name), created_at`
	err := r.db.SelectContext(ctx, &list, query)
	return list, err
}

// ListActive returns every definition that can still generate occurrences.
func (r *RecurringRepository) ListActive(ctx context.Context) ([]model.RecurringExpense, error) {
	list := []model.RecurringExpense{}
	query := `
		SELECT * FROM recurring_expenses
		WHERE recurrence_type <> 'paused'
		AND (installments_total IS NULL OR installments_generated < installments_total)
		ORDER BY created_at`
	err := r.db.SelectContext(ctx, &list, query)
	return list, err
}

// Update rewrites the definition, including its schedule state. The generated
// high-water mark only moves forward, so a concurrent reconciliation is never
// undone; the stored value is read back into re.
func (r *RecurringRepository) Update(ctx context.Context, re *model.RecurringExpense) error {
	query := `
		UPDATE recurring_expenses
		SET name = $2, amount = $3, start_date = $4, payment_method = $5, expense_type = $6,
			routine_category = $7, category_ref_id = $8, occasional_group_id = $9, description = $10,
			recurrence_type = $11, installments_total = $12, installments_paid_adjustment = $13,
			installments_paid = $14, installments_truly_paid = $15,
			installments_generated = GREATEST(installments_generated, $16),
			anchor_date = $17, anchor_installment = $18, next_occurrence_date = $19, paused_at = $20,
			updated_at = NOW()
		WHERE id = $1
		RETURNING installments_generated, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		re.ID, re.Name, re.Amount, re.StartDate, re.PaymentMethod, re.ExpenseType,
		re.RoutineCategory, re.CategoryRefID, re.OccasionalGroupID, re.Description,
		re.RecurrenceType, re.InstallmentsTotal, re.InstallmentsPaidAdjustment,
		re.InstallmentsPaid, re.InstallmentsTrulyPaid, re.InstallmentsGenerated,
		re.AnchorDate, re.AnchorInstallment, re.NextOccurrenceDate, re.PausedAt,
	).Scan(&re.InstallmentsGenerated, &re.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecurringNotFound
	}
	return err
}

// Progress is the derived state refreshed after every reconciliation.
type Progress struct {
	Generated int
	TrulyPaid int
	Paid      int
	Next      *time.Time
}

// UpdateProgress stores counters and the next due date. The generated
// high-water mark only moves forward.
func (r *RecurringRepository) UpdateProgress(ctx context.Context, id uuid.UUID, p Progress) error {
	query := `
		UPDATE recurring_expenses
		SET installments_generated = GREATEST(installments_generated, $2),
			installments_truly_paid = $3, installments_paid = $4, next_occurrence_date = $5,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, p.Generated, p.TrulyPaid, p.Paid, p.Next)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecurringNotFound
	}
	return nil
}

// Delete removes the definition. Its materialized rows are kept and become
// ordinary one-off expenses.
func (r *RecurringRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	detach := `
		UPDATE expenses
		SET recurring_expense_id = NULL, installment_number = NULL, payment_status = NULL, updated_at = NOW()
		WHERE recurring_expense_id = $1`
	if _, err := tx.ExecContext(ctx, detach, id); err != nil {
		return fmt.Errorf("detach occurrences: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM recurring_expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecurringNotFound
	}
	return tx.Commit()
}
