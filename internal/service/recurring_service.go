package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/logger"
	"github.com/spendlog/backend/internal/model"
	"github.com/spendlog/backend/internal/recurrence"
	"github.com/spendlog/backend/internal/repository"
	"github.com/spendlog/backend/pkg/datetime"
)

const (
	maxRecurringNameLen = 120
	reconcileParallel   = 4
)

// RecurringRepositoryInterface defines the contract for recurring expense data access.
// Implementations must be safe for concurrent use.
type RecurringRepositoryInterface interface {
	Create(ctx context.Context, re *model.RecurringExpense) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringExpense, error)
	List(ctx context.Context) ([]model.RecurringExpense, error)
	ListActive(ctx context.Context) ([]model.RecurringExpense, error)
	Update(ctx context.Context, re *model.RecurringExpense) error
	UpdateProgress(ctx context.Context, id uuid.UUID, p repository.Progress) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OccurrenceStore provides access to the expense rows materialized from
// recurring definitions.
type OccurrenceStore interface {
	CreateOccurrence(ctx context.Context, e *model.Expense) (bool, error)
	InstallmentNumbers(ctx context.Context, recurringID uuid.UUID) ([]int, error)
	CountPaid(ctx context.Context, recurringID uuid.UUID) (int, error)
	ListOccurrences(ctx context.Context, from, to time.Time, recurringID *uuid.UUID) ([]model.Occurrence, error)
}

// RecurringService handles recurring expense definitions and the
// materialization of their monthly occurrences.
type RecurringService struct {
	repo        RecurringRepositoryInterface
	occurrences OccurrenceStore
	checker     classificationChecker
	policy      recurrence.Policy
	now         func() time.Time
}

// NewRecurringService creates a new RecurringService. policy decides whether
// deleted occurrences are recreated.
func NewRecurringService(repo RecurringRepositoryInterface, occurrences OccurrenceStore, categories CategoryLookup, groups GroupLookup, policy recurrence.Policy) *RecurringService {
	return &RecurringService{
		repo:        repo,
		occurrences: occurrences,
		checker:     classificationChecker{categories: categories, groups: groups},
		policy:      policy,
		now:         time.Now,
	}
}

type CreateRecurringInput struct {
	Name                       string                 `json:"name"`
	Amount                     decimal.Decimal        `json:"amount"`
	StartDate                  datetime.Date          `json:"startDate"`
	PaymentMethod              model.PaymentMethod    `json:"paymentMethod"`
	ExpenseType                model.ExpenseType      `json:"expenseType"`
	RoutineCategory            *model.RoutineCategory `json:"routineCategory"`
	CategoryRefID              *uuid.UUID             `json:"categoryRefId"`
	OccasionalGroupID          *uuid.UUID             `json:"occasionalGroupId"`
	Description                string                 `json:"description"`
	RecurrenceType             model.RecurrenceType   `json:"recurrenceType"`
	InstallmentsTotal          *int                   `json:"installmentsTotal"`
	InstallmentsPaidAdjustment int                    `json:"installmentsPaidAdjustment"`
}

// UpdateRecurringInput is a partial update. Sending expenseType replaces the
// whole classification with the fields of the request.
type UpdateRecurringInput struct {
	Name                       *string                `json:"name"`
	Amount                     *decimal.Decimal       `json:"amount"`
	StartDate                  *datetime.Date         `json:"startDate"`
	PaymentMethod              *model.PaymentMethod   `json:"paymentMethod"`
	ExpenseType                *model.ExpenseType     `json:"expenseType"`
	RoutineCategory            *model.RoutineCategory `json:"routineCategory"`
	CategoryRefID              *uuid.UUID             `json:"categoryRefId"`
	OccasionalGroupID          *uuid.UUID             `json:"occasionalGroupId"`
	Description                *string                `json:"description"`
	RecurrenceType             *model.RecurrenceType  `json:"recurrenceType"`
	InstallmentsTotal          *int                   `json:"installmentsTotal"`
	InstallmentsPaidAdjustment *int                   `json:"installmentsPaidAdjustment"`
}

type ResumeRecurringInput struct {
	InstallmentsTotal *int `json:"installmentsTotal"`
}

// Create validates and stores a recurring definition, then materializes the
// occurrences already due.
func (s *RecurringService) Create(ctx context.Context, in CreateRecurringInput) (*model.RecurringExpense, error) {
	re := &model.RecurringExpense{
		Name:          strings.TrimSpace(in.Name),
		Amount:        in.Amount,
		StartDate:     in.StartDate.Time,
		PaymentMethod: in.PaymentMethod,
		Classification: model.Classification{
			ExpenseType:       in.ExpenseType,
			RoutineCategory:   in.RoutineCategory,
			CategoryRefID:     in.CategoryRefID,
			OccasionalGroupID: in.OccasionalGroupID,
		},
		Description:                strings.TrimSpace(in.Description),
		RecurrenceType:             in.RecurrenceType,
		InstallmentsTotal:          in.InstallmentsTotal,
		InstallmentsPaidAdjustment: in.InstallmentsPaidAdjustment,
	}

	var issues apperror.Issues
	switch {
	case in.StartDate.IsZero():
		issues.Add("startDate", "is required")
	case !inYearRange(in.StartDate.Time):
		issues.Addf("startDate", "year must be between %d and %d", model.MinYear, model.MaxYear)
	}
	if re.RecurrenceType == model.RecurrencePaused {
		issues.Add("recurrenceType", "must be 'undetermined' or 'determined'")
	}
	if err := s.validate(ctx, re, nil, &issues); err != nil {
		return nil, err
	}
	if err := issues.Err(); err != nil {
		return nil, err
	}

	re.AnchorDate = re.StartDate
	re.AnchorInstallment = 1
	next := re.StartDate
	re.NextOccurrenceDate = &next
	re.InstallmentsPaid = recurrence.Tally(0, re.InstallmentsPaidAdjustment, re.InstallmentsTotal).Paid

	if err := s.repo.Create(ctx, re); err != nil {
		return nil, fmt.Errorf("creating recurring expense: %w", err)
	}
	if _, err := s.reconcile(ctx, re, s.currentHorizon()); err != nil {
		return nil, err
	}
	return re, nil
}

// validate checks the fields shared by create and update. previousGroup is
// the occasional group the definition already belonged to.
func (s *RecurringService) validate(ctx context.Context, re *model.RecurringExpense, previousGroup *uuid.UUID, issues *apperror.Issues) error {
	if re.Name == "" {
		issues.Add("name", "is required")
	} else if len(re.Name) > maxRecurringNameLen {
		issues.Addf("name", "must be at most %d characters", maxRecurringNameLen)
	}
	if !re.Amount.IsPositive() {
		issues.Add("amount", "must be greater than zero")
	}
	if !re.PaymentMethod.IsValid() {
		issues.Addf("paymentMethod", "unknown payment method %q", re.PaymentMethod)
	}
	if len(re.Description) > maxDescriptionLen {
		issues.Addf("description", "must be at most %d characters", maxDescriptionLen)
	}

	switch re.RecurrenceType {
	case model.RecurrenceDetermined:
		switch {
		case re.InstallmentsTotal == nil || *re.InstallmentsTotal < 1:
			issues.Add("installmentsTotal", "must be a positive number for determined recurrences")
		case *re.InstallmentsTotal < re.InstallmentsGenerated:
			issues.Addf("installmentsTotal", "must be at least the %d installments already generated", re.InstallmentsGenerated)
		case re.InstallmentsPaidAdjustment > *re.InstallmentsTotal:
			issues.Add("installmentsPaidAdjustment", "must not exceed installmentsTotal")
		}
		if re.InstallmentsPaidAdjustment < 0 {
			issues.Add("installmentsPaidAdjustment", "must not be negative")
		}
	case model.RecurrenceUndetermined, model.RecurrencePaused:
		if re.InstallmentsTotal != nil {
			issues.Add("installmentsTotal", "is only allowed for determined recurrences")
		}
		if re.InstallmentsPaidAdjustment != 0 {
			issues.Add("installmentsPaidAdjustment", "is only allowed for determined recurrences")
		}
	default:
		issues.Addf("recurrenceType", "unknown recurrence type %q", re.RecurrenceType)
	}

	return s.checker.check(ctx, re.Classification, previousGroup, issues)
}

func (s *RecurringService) Get(ctx context.Context, id uuid.UUID) (*model.RecurringExpense, error) {
	re, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting recurring expense %s: %w", id, err)
	}
	return re, nil
}

func (s *RecurringService) List(ctx context.Context) ([]model.RecurringExpense, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing recurring expenses: %w", err)
	}
	return list, nil
}

// Update applies a partial update. Amount, classification and description
// only affect occurrences generated afterwards.
func (s *RecurringService) Update(ctx context.Context, id uuid.UUID, in UpdateRecurringInput) (*model.RecurringExpense, error) {
	re, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching recurring expense %s for update: %w", id, err)
	}
	previousGroup := re.OccasionalGroupID
	wasPaused := re.RecurrenceType == model.RecurrencePaused

	var issues apperror.Issues
	if in.Name != nil {
		re.Name = strings.TrimSpace(*in.Name)
	}
	if in.Amount != nil {
		re.Amount = *in.Amount
	}
	if in.PaymentMethod != nil {
		re.PaymentMethod = *in.PaymentMethod
	}
	if in.Description != nil {
		re.Description = strings.TrimSpace(*in.Description)
	}
	if in.StartDate != nil && !in.StartDate.Equal(re.StartDate) {
		switch {
		case in.StartDate.IsZero():
			issues.Add("startDate", "must not be empty")
		case !inYearRange(in.StartDate.Time):
			issues.Addf("startDate", "year must be between %d and %d", model.MinYear, model.MaxYear)
		case re.InstallmentsGenerated > 0:
			issues.Add("startDate", "cannot change once occurrences have been generated")
		default:
			re.StartDate = in.StartDate.Time
			re.AnchorDate = re.StartDate
			re.AnchorInstallment = 1
		}
	}

	if in.ExpenseType != nil {
		re.Classification = model.Classification{
			ExpenseType:       *in.ExpenseType,
			RoutineCategory:   in.RoutineCategory,
			CategoryRefID:     in.CategoryRefID,
			OccasionalGroupID: in.OccasionalGroupID,
		}
	} else {
		if in.RoutineCategory != nil {
			re.RoutineCategory = in.RoutineCategory
		}
		if in.CategoryRefID != nil {
			re.CategoryRefID = in.CategoryRefID
		}
		if in.OccasionalGroupID != nil {
			re.OccasionalGroupID = in.OccasionalGroupID
		}
	}

	if in.RecurrenceType != nil && *in.RecurrenceType != re.RecurrenceType {
		re.RecurrenceType = *in.RecurrenceType
		switch re.RecurrenceType {
		case model.RecurrencePaused:
			s.pause(re)
		case model.RecurrenceUndetermined:
			re.InstallmentsTotal = nil
			re.InstallmentsPaidAdjustment = 0
		}
	}
	if in.InstallmentsTotal != nil {
		total := *in.InstallmentsTotal
		re.InstallmentsTotal = &total
	}
	if in.InstallmentsPaidAdjustment != nil {
		re.InstallmentsPaidAdjustment = *in.InstallmentsPaidAdjustment
	}

	if err := s.validate(ctx, re, previousGroup, &issues); err != nil {
		return nil, err
	}
	if err := issues.Err(); err != nil {
		return nil, err
	}

	if wasPaused && re.RecurrenceType != model.RecurrencePaused {
		s.resume(re)
	}
	re.NextOccurrenceDate = recurrence.FromDefinition(re).Next()

	if err := s.repo.Update(ctx, re); err != nil {
		return nil, fmt.Errorf("updating recurring expense %s: %w", id, err)
	}
	if _, err := s.reconcile(ctx, re, s.currentHorizon()); err != nil {
		return nil, err
	}
	return re, nil
}

// Delete removes a definition. Its occurrences stay as one-off expenses.
func (s *RecurringService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting recurring expense %s: %w", id, err)
	}
	return nil
}

// Pause stops generation. The installment total and paid adjustment are
// cleared. Pausing a paused recurrence is a no-op.
func (s *RecurringService) Pause(ctx context.Context, id uuid.UUID) (*model.RecurringExpense, error) {
	re, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching recurring expense %s to pause: %w", id, err)
	}
	if re.RecurrenceType == model.RecurrencePaused {
		return re, nil
	}

	re.RecurrenceType = model.RecurrencePaused
	s.pause(re)

	if err := s.repo.Update(ctx, re); err != nil {
		return nil, fmt.Errorf("pausing recurring expense %s: %w", id, err)
	}
	if _, err := s.reconcile(ctx, re, time.Time{}); err != nil {
		return nil, err
	}
	return re, nil
}

// Resume restarts generation from the current month. With a total the
// recurrence becomes determined, otherwise undetermined.
func (s *RecurringService) Resume(ctx context.Context, id uuid.UUID, in ResumeRecurringInput) (*model.RecurringExpense, error) {
	re, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching recurring expense %s to resume: %w", id, err)
	}
	if re.RecurrenceType != model.RecurrencePaused {
		return nil, apperror.BadRequest("recurring expense is not paused")
	}

	re.RecurrenceType = model.RecurrenceUndetermined
	if in.InstallmentsTotal != nil {
		total := *in.InstallmentsTotal
		re.RecurrenceType = model.RecurrenceDetermined
		re.InstallmentsTotal = &total
	}

	var issues apperror.Issues
	if err := s.validate(ctx, re, re.OccasionalGroupID, &issues); err != nil {
		return nil, err
	}
	if err := issues.Err(); err != nil {
		return nil, err
	}

	s.resume(re)
	re.NextOccurrenceDate = recurrence.FromDefinition(re).Next()

	if err := s.repo.Update(ctx, re); err != nil {
		return nil, fmt.Errorf("resuming recurring expense %s: %w", id, err)
	}
	if _, err := s.reconcile(ctx, re, s.currentHorizon()); err != nil {
		return nil, err
	}
	return re, nil
}

func (s *RecurringService) pause(re *model.RecurringExpense) {
	now := s.now().UTC()
	re.InstallmentsTotal = nil
	re.InstallmentsPaidAdjustment = 0
	re.PausedAt = &now
	re.NextOccurrenceDate = nil
}

func (s *RecurringService) resume(re *model.RecurringExpense) {
	sched := recurrence.FromDefinition(re).Resume(s.now())
	re.AnchorDate = sched.AnchorDate
	re.AnchorInstallment = sched.AnchorInstallment
	re.PausedAt = nil
}

// Occurrences materializes what is due for one recurrence and returns its
// rows dated inside w. A nil window covers everything up to the current month.
func (s *RecurringService) Occurrences(ctx context.Context, id uuid.UUID, w *recurrence.Window) ([]model.Occurrence, error) {
	re, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting recurring expense %s: %w", id, err)
	}

	window := recurrence.Window{To: s.currentHorizon()}
	if w != nil {
		window = *w
	}
	if _, err := s.reconcile(ctx, re, recurrence.Horizon(window, s.now())); err != nil {
		return nil, err
	}

	list, err := s.occurrences.ListOccurrences(ctx, window.From, window.To, &id)
	if err != nil {
		return nil, fmt.Errorf("listing occurrences of %s: %w", id, err)
	}
	return list, nil
}

// OccurrencesInWindow materializes every recurrence up to the window's
// horizon and returns all linked rows dated inside it.
func (s *RecurringService) OccurrencesInWindow(ctx context.Context, w recurrence.Window) ([]model.Occurrence, error) {
	if err := s.SyncWindow(ctx, w); err != nil {
		return nil, err
	}
	list, err := s.occurrences.ListOccurrences(ctx, w.From, w.To, nil)
	if err != nil {
		return nil, fmt.Errorf("listing occurrences: %w", err)
	}
	return list, nil
}

// SyncWindow materializes the occurrences every recurrence owes up to the
// horizon of w.
func (s *RecurringService) SyncWindow(ctx context.Context, w recurrence.Window) error {
	_, err := s.reconcileAll(ctx, recurrence.Horizon(w, s.now()))
	return err
}

// ReconcileAll brings every recurrence up to date through the current month
// and returns how many occurrences were created.
func (s *RecurringService) ReconcileAll(ctx context.Context) (int, error) {
	return s.reconcileAll(ctx, s.currentHorizon())
}

// RefreshCounters recomputes the paid counters of a recurrence without
// generating anything.
func (s *RecurringService) RefreshCounters(ctx context.Context, recurringID uuid.UUID) error {
	re, err := s.repo.GetByID(ctx, recurringID)
	if err != nil {
		return fmt.Errorf("getting recurring expense %s: %w", recurringID, err)
	}
	_, err = s.reconcile(ctx, re, time.Time{})
	return err
}

func (s *RecurringService) currentHorizon() time.Time {
	return datetime.EndOfMonth(s.now().UTC())
}

func (s *RecurringService) reconcileAll(ctx context.Context, horizon time.Time) (int, error) {
	list, err := s.candidates(ctx)
	if err != nil {
		return 0, err
	}

	created := make([]int, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileParallel)
	for i := range list {
		i := i
		g.Go(func() error {
			n, err := s.reconcile(gctx, &list[i], horizon)
			created[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range created {
		total += n
	}
	return total, nil
}

// candidates lists the recurrences that may owe occurrences. Capped
// recurrences only matter when deleted installments are recreated.
func (s *RecurringService) candidates(ctx context.Context) ([]model.RecurringExpense, error) {
	var (
		list []model.RecurringExpense
		err  error
	)
	if s.policy == recurrence.PolicyRegenerate {
		list, err = s.repo.List(ctx)
	} else {
		list, err = s.repo.ListActive(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("listing recurring expenses to reconcile: %w", err)
	}
	return list, nil
}

// reconcile inserts the installments of re that are due up to horizon and
// refreshes its derived counters. A zero horizon only refreshes counters.
func (s *RecurringService) targetsClosedGroup(ctx context.Context, re *model.RecurringExpense) (bool, error) {
	if re.ExpenseType != model.ExpenseTypeOccasional || re.OccasionalGroupID == nil {
		return false, nil
	}
	g, err := s.checker.groups.GetByID(ctx, *re.OccasionalGroupID)
	if errors.Is(err, apperror.ErrNotFound) {
		// A deleted group receives nothing either.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading occasional group of %s: %w", re.ID, err)
	}
	return g.Status == model.GroupStatusClosed, nil
}

func (s *RecurringService) reconcile(ctx context.Context, re *model.RecurringExpense, horizon time.Time) (int, error) {
	numbers, err := s.occurrences.InstallmentNumbers(ctx, re.ID)
	if err != nil {
		return 0, fmt.Errorf("loading installments of %s: %w", re.ID, err)
	}
	existing := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		existing[n] = true
	}

	plan := recurrence.Derive(recurrence.FromDefinition(re), existing, horizon, s.policy)
	if len(plan.Create) > 0 {
		closed, err := s.targetsClosedGroup(ctx, re)
		if err != nil {
			return 0, err
		}
		if closed {
			// Nothing lands in a closed group. The held slots are generated
			// if the group reopens.
			held := re.InstallmentsGenerated
			for n := range existing {
				held = max(held, n)
			}
			plan = recurrence.Plan{Generated: held, Next: re.NextOccurrenceDate}
		}
	}

	created := 0
	for _, slot := range plan.Create {
		ok, err := s.occurrences.CreateOccurrence(ctx, occurrenceOf(re, slot))
		if err != nil {
			return created, fmt.Errorf("materializing installment %d of %s: %w", slot.Installment, re.ID, err)
		}
		if ok {
			created++
		}
	}

	trulyPaid, err := s.occurrences.CountPaid(ctx, re.ID)
	if err != nil {
		return created, fmt.Errorf("counting paid installments of %s: %w", re.ID, err)
	}
	counters := recurrence.Tally(trulyPaid, re.InstallmentsPaidAdjustment, re.InstallmentsTotal)

	progress := repository.Progress{
		Generated: plan.Generated,
		TrulyPaid: counters.TrulyPaid,
		Paid:      counters.Paid,
		Next:      plan.Next,
	}
	if err := s.repo.UpdateProgress(ctx, re.ID, progress); err != nil {
		return created, fmt.Errorf("updating progress of %s: %w", re.ID, err)
	}

	if plan.Generated > re.InstallmentsGenerated {
		re.InstallmentsGenerated = plan.Generated
	}
	re.InstallmentsTrulyPaid = counters.TrulyPaid
	re.InstallmentsPaid = counters.Paid
	re.NextOccurrenceDate = plan.Next

	if created > 0 {
		logger.FromContext(ctx).Debug("materialized occurrences",
			"recurring_expense_id", re.ID,
			"created", created,
			"generated", re.InstallmentsGenerated,
		)
	}
	return created, nil
}

// occurrenceOf snapshots the definition into a pending expense row.
func occurrenceOf(re *model.RecurringExpense, slot recurrence.Slot) *model.Expense {
	id := re.ID
	n := slot.Installment
	status := model.PaymentStatusPending
	description := re.Description
	if description == "" {
		description = re.Name
	}
	return &model.Expense{
		Amount:             re.Amount,
		PurchaseDate:       slot.Date,
		PaymentMethod:      re.PaymentMethod,
		Classification:     re.Classification,
		Description:        description,
		RecurringExpenseID: &id,
		InstallmentNumber:  &n,
		PaymentStatus:      &status,
	}
}
