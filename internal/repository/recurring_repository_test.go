package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlog/backend/internal/model"
)

var recurringColumns = []string{
	"id", "name", "amount", "start_date", "payment_method", "expense_type", "routine_category",
	"category_ref_id", "occasional_group_id", "description", "recurrence_type", "installments_total",
	"installments_paid_adjustment", "installments_paid", "installments_truly_paid", "installments_generated",
	"anchor_date", "anchor_installment", "next_occurrence_date", "paused_at", "created_at", "updated_at",
}

func TestRecurringRepository_Create(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewRecurringRepository(db)

	total := 12
	start := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	re := &model.RecurringExpense{
		Name:               "Phone",
		Amount:             decimal.NewFromInt(80),
		StartDate:          start,
		PaymentMethod:      model.PaymentMethodCreditCard,
		Classification:     model.Routine(model.CategoryOther, nil),
		RecurrenceType:     model.RecurrenceDetermined,
		InstallmentsTotal:  &total,
		AnchorDate:         start,
		AnchorInstallment:  1,
		NextOccurrenceDate: &start,
	}

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO recurring_expenses`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, repo.Create(context.Background(), re))
	assert.NotEqual(t, uuid.Nil, re.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecurringRepository_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		defer func() { _ = db.Close() }()
		repo := NewRecurringRepository(db)

		id := uuid.New()
		start := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(recurringColumns).
			AddRow(id.String(), "Gym", "99.90", start, "debit_card", "routine", "leisure", uuid.New().String(), nil,
				"", "undetermined", nil, 0, 2, 2, 3, start, 1, start.AddDate(0, 3, 0), nil, time.Now(), time.Now())
		mock.ExpectQuery(`SELECT \* FROM recurring_expenses WHERE id = \$1`).WithArgs(id).WillReturnRows(rows)

		re, err := repo.GetByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, "Gym", re.Name)
		assert.Equal(t, model.RecurrenceUndetermined, re.RecurrenceType)
		assert.Nil(t, re.InstallmentsTotal)
		assert.Equal(t, 3, re.InstallmentsGenerated)
		require.NotNil(t, re.NextOccurrenceDate)
		assert.Equal(t, time.April, re.NextOccurrenceDate.Month())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		defer func() { _ = db.Close() }()
		repo := NewRecurringRepository(db)

		mock.ExpectQuery(`SELECT \* FROM recurring_expenses`).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrRecurringNotFound)
	})
}

func TestRecurringRepository_ListActive(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewRecurringRepository(db)

	mock.ExpectQuery(`WHERE recurrence_type <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(recurringColumns))

	list, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecurringRepository_Update(t *testing.T) {
	t.Parallel()

	t.Run("generated mark never moves back", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		defer func() { _ = db.Close() }()
		repo := NewRecurringRepository(db)

		updated := time.Date(2024, time.May, 2, 9, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`installments_generated = GREATEST\(installments_generated, \$16\)`).
			WillReturnRows(sqlmock.NewRows([]string{"installments_generated", "updated_at"}).AddRow(5, updated))

		// A concurrent reconciliation already stored five installments.
		re := &model.RecurringExpense{ID: uuid.New(), InstallmentsGenerated: 3}
		require.NoError(t, repo.Update(context.Background(), re))
		assert.Equal(t, 5, re.InstallmentsGenerated)
		assert.Equal(t, updated, re.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		defer func() { _ = db.Close() }()
		repo := NewRecurringRepository(db)

		mock.ExpectQuery(`UPDATE recurring_expenses`).WillReturnError(sql.ErrNoRows)

		err := repo.Update(context.Background(), &model.RecurringExpense{ID: uuid.New()})
		assert.ErrorIs(t, err, ErrRecurringNotFound)
	})
}

func TestRecurringRepository_UpdateProgress(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewRecurringRepository(db)

	id := uuid.New()
	next := time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`SET installments_generated = GREATEST\(installments_generated, \$2\)`).
		WithArgs(id, 6, 4, 5, &next).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProgress(context.Background(), id, Progress{Generated: 6, TrulyPaid: 4, Paid: 5, Next: &next})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecurringRepository_Delete(t *testing.T) {
	t.Parallel()

	t.Run("detaches occurrences then deletes", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		defer func() { _ = db.Close() }()
		repo := NewRecurringRepository(db)

		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE expenses\s+SET recurring_expense_id = NULL`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectExec(`DELETE FROM recurring_expenses WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.Delete(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found rolls back", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		defer func() { _ = db.Close() }()
		repo := NewRecurringRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE expenses`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM recurring_expenses`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrRecurringNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("detach failure", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		defer func() { _ = db.Close() }()
		repo := NewRecurringRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE expenses`).WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), uuid.New())
		assert.ErrorContains(t, err, "detach occurrences")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
