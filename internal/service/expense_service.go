// Package service implements the business rules of the expense tracker. It
// validates input, coordinates repositories and keeps recurring expenses and
// their materialized occurrences consistent.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
	"github.com/spendlog/backend/internal/recurrence"
	"github.com/spendlog/backend/internal/repository"
	"github.com/spendlog/backend/pkg/datetime"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
	DefaultPageSize    = 20
	MaxPageSize        = 100
	maxDescriptionLen  = 500
)

// ExpenseRepositoryInterface defines the contract for expense data access.
// Implementations must be safe for concurrent use.
type ExpenseRepositoryInterface interface {
	Create(ctx context.Context, e *model.Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, filters repository.ExpenseFilters) ([]model.Expense, error)
	Count(ctx context.Context, filters repository.ExpenseFilters) (int, error)
	ListByPeriod(ctx context.Context, from, to time.Time) ([]model.Expense, error)
	Recent(ctx context.Context, limit int) ([]model.Expense, error)
	Update(ctx context.Context, e *model.Expense) error
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) (time.Time, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OccurrenceSyncer keeps recurring definitions and their occurrences in step
// with the expense store.
type OccurrenceSyncer interface {
	SyncWindow(ctx context.Context, w recurrence.Window) error
	RefreshCounters(ctx context.Context, recurringID uuid.UUID) error
}

// ExpenseService handles business logic for expenses.
type ExpenseService struct {
	repo        ExpenseRepositoryInterface
	checker     classificationChecker
	occurrences OccurrenceSyncer
}

// NewExpenseService creates a new ExpenseService. occurrences may be nil, in
// which case period reads do not materialize due occurrences first.
func NewExpenseService(repo ExpenseRepositoryInterface, categories CategoryLookup, groups GroupLookup, occurrences OccurrenceSyncer) *ExpenseService {
	return &ExpenseService{
		repo:        repo,
		checker:     classificationChecker{categories: categories, groups: groups},
		occurrences: occurrences,
	}
}

// ExpenseInput carries every user-editable field of an expense. It is used
// for both creation and full replacement.
type ExpenseInput struct {
	Amount            decimal.Decimal        `json:"amount"`
	PurchaseDate      datetime.Date          `json:"purchaseDate"`
	PaymentMethod     model.PaymentMethod    `json:"paymentMethod"`
	ExpenseType       model.ExpenseType      `json:"expenseType"`
	RoutineCategory   *model.RoutineCategory `json:"routineCategory"`
	CategoryRefID     *uuid.UUID             `json:"categoryRefId"`
	OccasionalGroupID *uuid.UUID             `json:"occasionalGroupId"`
	Description       string                 `json:"description"`
}

func (in ExpenseInput) classification() model.Classification {
	return model.Classification{
		ExpenseType:       in.ExpenseType,
		RoutineCategory:   in.RoutineCategory,
		CategoryRefID:     in.CategoryRefID,
		OccasionalGroupID: in.OccasionalGroupID,
	}
}

type ListExpensesInput struct {
	StartDate         *time.Time
	EndDate           *time.Time
	ExpenseType       *string
	RoutineCategory   *string
	OccasionalGroupID *uuid.UUID
	RecurringOnly     bool
	Page              int
	PageSize          int
}

// ExpenseList is one page of expenses.
type ExpenseList struct {
	Expenses []model.Expense `json:"expenses"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

func (s *ExpenseService) validate(ctx context.Context, in ExpenseInput, previousGroup *uuid.UUID) error {
	var issues apperror.Issues
	if !in.Amount.IsPositive() {
		issues.Add("amount", "must be greater than zero")
	}
	switch {
	case in.PurchaseDate.IsZero():
		issues.Add("purchaseDate", "is required")
	case !inYearRange(in.PurchaseDate.Time):
		issues.Addf("purchaseDate", "year must be between %d and %d", model.MinYear, model.MaxYear)
	}
	if !in.PaymentMethod.IsValid() {
		issues.Addf("paymentMethod", "unknown payment method %q", in.PaymentMethod)
	}
	if len(in.Description) > maxDescriptionLen {
		issues.Addf("description", "must be at most %d characters", maxDescriptionLen)
	}
	if err := s.checker.check(ctx, in.classification(), previousGroup, &issues); err != nil {
		return err
	}
	return issues.Err()
}

// Create validates and stores a one-off expense.
func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput) (*model.Expense, error) {
	if err := s.validate(ctx, in, nil); err != nil {
		return nil, err
	}

	e := &model.Expense{
		Amount:         in.Amount,
		PurchaseDate:   in.PurchaseDate.Time,
		PaymentMethod:  in.PaymentMethod,
		Classification: in.classification(),
		Description:    strings.TrimSpace(in.Description),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	return e, nil
}

// List returns a filtered page of expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, in ListExpensesInput) (*ExpenseList, error) {
	var issues apperror.Issues
	if in.ExpenseType != nil && *in.ExpenseType != string(model.ExpenseTypeRoutine) && *in.ExpenseType != string(model.ExpenseTypeOccasional) {
		issues.Add("expenseType", "must be 'routine' or 'occasional'")
	}
	if in.RoutineCategory != nil && !model.RoutineCategory(*in.RoutineCategory).IsValid() {
		issues.Addf("routineCategory", "unknown category %q", *in.RoutineCategory)
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		issues.Add("endDate", "must not be before startDate")
	}
	if err := issues.Err(); err != nil {
		return nil, err
	}

	if in.Page < 1 {
		in.Page = 1
	}
	if in.PageSize < 1 {
		in.PageSize = DefaultPageSize
	}
	if in.PageSize > MaxPageSize {
		in.PageSize = MaxPageSize
	}

	filters := repository.ExpenseFilters{
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		ExpenseType:       in.ExpenseType,
		RoutineCategory:   in.RoutineCategory,
		OccasionalGroupID: in.OccasionalGroupID,
		RecurringOnly:     in.RecurringOnly,
		Limit:             in.PageSize,
		Offset:            (in.Page - 1) * in.PageSize,
	}

	expenses, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("counting expenses: %w", err)
	}

	return &ExpenseList{Expenses: expenses, Total: total, Page: in.Page, PageSize: in.PageSize}, nil
}

// Update replaces the editable fields of an expense. Occurrences keep their
// recurrence link, installment number and payment status.
func (s *ExpenseService) Update(ctx context.Context, id uuid.UUID, in ExpenseInput) (*model.Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	if err := s.validate(ctx, in, e.OccasionalGroupID); err != nil {
		return nil, err
	}

	e.Amount = in.Amount
	e.PurchaseDate = in.PurchaseDate.Time
	e.PaymentMethod = in.PaymentMethod
	e.Classification = in.classification()
	e.Description = strings.TrimSpace(in.Description)

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("updating expense: %w", err)
	}
	return e, nil
}

// Delete removes an expense. Deleting an occurrence refreshes the paid
// counters of its recurrence.
func (s *ExpenseService) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("getting expense: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	if e.IsOccurrence() && s.occurrences != nil {
		if err := s.occurrences.RefreshCounters(ctx, *e.RecurringExpenseID); err != nil {
			return fmt.Errorf("refreshing recurrence counters: %w", err)
		}
	}
	return nil
}

// MarkAsPaid flips the payment status of an occurrence to paid.
func (s *ExpenseService) MarkAsPaid(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	return s.setPaymentStatus(ctx, id, model.PaymentStatusPaid)
}

// MarkAsPending flips the payment status of an occurrence back to pending.
func (s *ExpenseService) MarkAsPending(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	return s.setPaymentStatus(ctx, id, model.PaymentStatusPending)
}

func (s *ExpenseService) setPaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) (*model.Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	if !e.IsOccurrence() {
		return nil, apperror.BadRequest("only recurring occurrences have a payment status")
	}
	if e.PaymentStatus != nil && *e.PaymentStatus == status {
		return e, nil
	}

	updatedAt, err := s.repo.SetPaymentStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("setting payment status: %w", err)
	}
	e.PaymentStatus = &status
	e.UpdatedAt = updatedAt

	if s.occurrences != nil {
		if err := s.occurrences.RefreshCounters(ctx, *e.RecurringExpenseID); err != nil {
			return nil, fmt.Errorf("refreshing recurrence counters: %w", err)
		}
	}
	return e, nil
}

// Recent returns the latest expenses. limit defaults to 10 and is capped at 50.
func (s *ExpenseService) Recent(ctx context.Context, limit int) ([]model.Expense, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	expenses, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("getting recent expenses: %w", err)
	}
	return expenses, nil
}

// Monthly returns the expenses of one month, materializing due occurrences
// first.
func (s *ExpenseService) Monthly(ctx context.Context, year, month int) ([]model.Expense, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	return s.inWindow(ctx, recurrence.MonthWindow(year, time.Month(month)))
}

// Yearly returns the expenses of one year, materializing due occurrences
// first.
func (s *ExpenseService) Yearly(ctx context.Context, year int) ([]model.Expense, error) {
	if err := validateYearMonth(year, 1); err != nil {
		return nil, err
	}
	return s.inWindow(ctx, recurrence.YearWindow(year))
}

func (s *ExpenseService) inWindow(ctx context.Context, w recurrence.Window) ([]model.Expense, error) {
	if s.occurrences != nil {
		if err := s.occurrences.SyncWindow(ctx, w); err != nil {
			return nil, fmt.Errorf("materializing occurrences: %w", err)
		}
	}
	expenses, err := s.repo.ListByPeriod(ctx, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("listing expenses by period: %w", err)
	}
	return expenses, nil
}

// inYearRange bounds dates so a single request cannot backfill centuries of
// occurrences.
func inYearRange(t time.Time) bool {
	return t.Year() >= model.MinYear && t.Year() <= model.MaxYear
}

func validateYearMonth(year, month int) error {
	var issues apperror.Issues
	if year < model.MinYear || year > model.MaxYear {
		issues.Addf("year", "must be between %d and %d", model.MinYear, model.MaxYear)
	}
	if month < 1 || month > 12 {
		issues.Add("month", "must be between 1 and 12")
	}
	return issues.Err()
}
