// Package recurrence derives which monthly occurrences of a recurring expense
// are due. It is pure: callers load the definition and its materialized rows,
// ask for a Plan, and persist the result.
package recurrence

import (
	"fmt"
	"time"

	"github.com/spendlog/backend/internal/model"
	"github.com/spendlog/backend/pkg/datetime"
)

// Policy decides what happens to an installment that was materialized and
// later deleted by the user.
type Policy string

const (
	// PolicyTombstone keeps deleted installments deleted. The generated
	// high-water mark never moves backwards, so nothing below it is recreated.
	PolicyTombstone Policy = "tombstone"
	// PolicyRegenerate recreates missing installments of the current anchored
	// segment as pending on the next reconciliation.
	PolicyRegenerate Policy = "regenerate"
)

// ParsePolicy validates a policy name. An empty name selects PolicyTombstone.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyTombstone:
		return PolicyTombstone, nil
	case PolicyRegenerate:
		return PolicyRegenerate, nil
	}
	return "", fmt.Errorf("unknown occurrence delete policy %q", s)
}

// Window is an inclusive range of instants a caller asks occurrences for.
type Window struct {
	From time.Time
	To   time.Time
}

// MonthWindow covers one calendar month.
func MonthWindow(year int, month time.Month) Window {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{From: first, To: datetime.EndOfMonth(first)}
}

// YearWindow covers one calendar year.
func YearWindow(year int) Window {
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Window{From: first, To: datetime.EndOfYear(first)}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Horizon is the last instant generation may reach for a query over w: the
// end of the window, but never past the end of the current month.
func Horizon(w Window, now time.Time) time.Time {
	limit := datetime.EndOfMonth(now.UTC())
	if w.To.Before(limit) {
		return w.To
	}
	return limit
}

// Schedule is the part of a recurring definition that drives generation.
type Schedule struct {
	Type      model.RecurrenceType
	StartDate time.Time
	Total     *int
	// Generated is the high-water mark of materialized installment numbers.
	Generated int
	// AnchorDate is the date of installment AnchorInstallment. Every later
	// installment falls one month after the previous one, on StartDate's day.
	AnchorDate        time.Time
	AnchorInstallment int
}

// FromDefinition extracts the schedule of a recurring expense.
func FromDefinition(r *model.RecurringExpense) Schedule {
	s := Schedule{
		Type:              r.RecurrenceType,
		StartDate:         r.StartDate,
		Total:             r.InstallmentsTotal,
		Generated:         r.InstallmentsGenerated,
		AnchorDate:        r.AnchorDate,
		AnchorInstallment: r.AnchorInstallment,
	}
	if s.AnchorInstallment < 1 || s.AnchorDate.IsZero() {
		s.AnchorDate = r.StartDate
		s.AnchorInstallment = 1
	}
	return s
}

// DateOf returns the due date of installment n. n must not be below the anchor.
func (s Schedule) DateOf(n int) time.Time {
	return datetime.AddMonthsClamped(s.AnchorDate, n-s.AnchorInstallment, s.StartDate.Day())
}

func (s Schedule) capped(n int) bool {
	return s.Type == model.RecurrenceDetermined && s.Total != nil && n > *s.Total
}

// Next returns the date of the next installment after the high-water mark,
// or nil when the recurrence is paused or has reached its total.
func (s Schedule) Next() *time.Time {
	if s.Type == model.RecurrencePaused || s.capped(s.Generated+1) {
		return nil
	}
	d := s.DateOf(s.Generated + 1)
	return &d
}

// Resume re-anchors the sequence so the next installment is due in the
// current month (or later, if one was already generated for it). Months spent
// paused are skipped rather than back-filled.
func (s Schedule) Resume(now time.Time) Schedule {
	now = now.UTC()
	thisMonth := datetime.MonthDay(now.Year(), now.Month(), s.StartDate.Day())
	next := s.DateOf(s.Generated + 1)
	if next.Before(thisMonth) {
		next = thisMonth
	}
	s.AnchorDate = next
	s.AnchorInstallment = s.Generated + 1
	return s
}

// Slot is one installment to materialize.
type Slot struct {
	Installment int
	Date        time.Time
}

// Plan is the outcome of Derive.
type Plan struct {
	Create    []Slot
	Generated int
	Next      *time.Time
}

// Derive computes which installments are due up to horizon and are not yet
// materialized. existing holds the installment numbers currently stored for
// the recurrence.
func Derive(s Schedule, existing map[int]bool, horizon time.Time, policy Policy) Plan {
	for n := range existing {
		if n > s.Generated {
			s.Generated = n
		}
	}

	plan := Plan{Generated: s.Generated}
	if s.Type == model.RecurrencePaused {
		return plan
	}

	if policy == PolicyRegenerate {
		for n := s.AnchorInstallment; n <= s.Generated; n++ {
			if existing[n] || s.capped(n) {
				continue
			}
			if d := s.DateOf(n); !d.After(horizon) {
				plan.Create = append(plan.Create, Slot{Installment: n, Date: d})
			}
		}
	}

	for n := s.Generated + 1; !s.capped(n); n++ {
		d := s.DateOf(n)
		if d.After(horizon) {
			break
		}
		plan.Create = append(plan.Create, Slot{Installment: n, Date: d})
		plan.Generated = n
	}

	s.Generated = plan.Generated
	plan.Next = s.Next()
	return plan
}

// Counters are the paid tallies stored on a definition.
type Counters struct {
	TrulyPaid int
	Paid      int
}

// Tally combines the number of linked rows marked paid with the
// administrative adjustment, capping at total when one is set.
func Tally(trulyPaid, adjustment int, total *int) Counters {
	paid := trulyPaid + adjustment
	if total != nil && paid > *total {
		paid = *total
	}
	if paid < 0 {
		paid = 0
	}
	return Counters{TrulyPaid: trulyPaid, Paid: paid}
}
