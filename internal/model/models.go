package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseType string

const (
	ExpenseTypeRoutine    ExpenseType = "routine"
	ExpenseTypeOccasional ExpenseType = "occasional"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodDebitCard    PaymentMethod = "debit_card"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPix          PaymentMethod = "pix"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodDebitCard, PaymentMethodCreditCard,
		PaymentMethodBankTransfer, PaymentMethodPix, PaymentMethodOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
)

type Expense struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PurchaseDate  time.Time       `db:"purchase_date" json:"purchaseDate"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"paymentMethod"`
	Classification
	Description        string         `db:"description" json:"description"`
	RecurringExpenseID *uuid.UUID     `db:"recurring_expense_id" json:"recurringExpenseId,omitempty"`
	InstallmentNumber  *int           `db:"installment_number" json:"installmentNumber,omitempty"`
	PaymentStatus      *PaymentStatus `db:"payment_status" json:"paymentStatus,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updatedAt"`
}

// IsOccurrence reports whether the expense was materialized from a recurrence.
func (e *Expense) IsOccurrence() bool {
	return e.RecurringExpenseID != nil
}

// IsPaid reports whether a linked occurrence has been paid. One-off expenses
// carry no payment status and are never reported as paid.
func (e *Expense) IsPaid() bool {
	return e.PaymentStatus != nil && *e.PaymentStatus == PaymentStatusPaid
}

type RecurrenceType string

const (
	RecurrenceUndetermined RecurrenceType = "undetermined"
	RecurrencePaused       RecurrenceType = "paused"
	RecurrenceDetermined   RecurrenceType = "determined"
)

// IsValid reports whether t is a known recurrence type.
func (t RecurrenceType) IsValid() bool {
	switch t {
	case RecurrenceUndetermined, RecurrencePaused, RecurrenceDetermined:
		return true
	}
	return false
}

// RecurringExpense is a monthly template that materializes Expense rows.
type RecurringExpense struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	StartDate     time.Time       `db:"start_date" json:"startDate"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"paymentMethod"`
	Classification
	Description                string         `db:"description" json:"description"`
	RecurrenceType             RecurrenceType `db:"recurrence_type" json:"recurrenceType"`
	InstallmentsTotal          *int           `db:"installments_total" json:"installmentsTotal"`
	InstallmentsPaidAdjustment int            `db:"installments_paid_adjustment" json:"installmentsPaidAdjustment"`
	InstallmentsPaid           int            `db:"installments_paid" json:"installmentsPaid"`
	InstallmentsTrulyPaid      int            `db:"installments_truly_paid" json:"installmentsTrulyPaid"`
	InstallmentsGenerated      int            `db:"installments_generated" json:"installmentsGenerated"`
	AnchorDate                 time.Time      `db:"anchor_date" json:"-"`
	AnchorInstallment          int            `db:"anchor_installment" json:"-"`
	NextOccurrenceDate         *time.Time     `db:"next_occurrence_date" json:"nextOccurrenceDate"`
	PausedAt                   *time.Time     `db:"paused_at" json:"pausedAt,omitempty"`
	CreatedAt                  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt                  time.Time      `db:"updated_at" json:"updatedAt"`
}

// Occurrence is a materialized recurring expense row together with the
// recurrence it belongs to.
type Occurrence struct {
	Expense
	RecurringName     string         `db:"recurring_name" json:"recurringName"`
	RecurrenceType    RecurrenceType `db:"recurrence_type" json:"recurrenceType"`
	InstallmentsTotal *int           `db:"installments_total" json:"installmentsTotal"`
}

type GroupStatus string

const (
	GroupStatusOpen   GroupStatus = "open"
	GroupStatusClosed GroupStatus = "closed"
)

// OccasionalGroup clusters ad-hoc expenses such as a trip.
type OccasionalGroup struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	Status    GroupStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}

// CategoryItem is a row of one of the category registries.
type CategoryItem struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	Kind      CategoryKind `db:"-" json:"kind"`
	Name      string       `db:"name" json:"name"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

// Years accepted for financial years and period queries.
const (
	MinYear = 2000
	MaxYear = 2100
)

// FinancialYear holds the spending goals of a calendar year.
type FinancialYear struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	Year             int             `db:"year" json:"year"`
	TotalMonthlyGoal decimal.Decimal `db:"total_monthly_goal" json:"totalMonthlyGoal"`
	MonthlyGoals     []MonthlyGoal   `db:"-" json:"monthlyGoals"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
}

// MonthlyGoal is the monthly spending target of one category key.
type MonthlyGoal struct {
	Category string          `db:"category" json:"category"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
}

// GoalFor returns the monthly goal for a category key, if one is set.
func (fy *FinancialYear) GoalFor(category string) (decimal.Decimal, bool) {
	for _, g := range fy.MonthlyGoals {
		if g.Category == category {
			return g.Amount, true
		}
	}
	return decimal.Zero, false
}
