package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlog/backend/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(i int) *int { return &i }

func schedule(typ model.RecurrenceType, start time.Time, total *int) Schedule {
	return Schedule{
		Type:              typ,
		StartDate:         start,
		Total:             total,
		AnchorDate:        start,
		AnchorInstallment: 1,
	}
}

func slotDates(slots []Slot) []time.Time {
	out := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Date)
	}
	return out
}

// apply folds a plan back into the schedule the way the service persists it.
func apply(s Schedule, existing map[int]bool, p Plan) Schedule {
	for _, slot := range p.Create {
		existing[slot.Installment] = true
	}
	s.Generated = p.Generated
	return s
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyTombstone, false},
		{"tombstone", PolicyTombstone, false},
		{"regenerate", PolicyRegenerate, false},
		{"forever", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()

	feb := MonthWindow(2024, time.February)
	assert.Equal(t, date(2024, time.February, 1), feb.From)
	assert.True(t, feb.Contains(date(2024, time.February, 29)))
	assert.True(t, feb.Contains(time.Date(2024, time.February, 29, 23, 59, 0, 0, time.UTC)))
	assert.False(t, feb.Contains(date(2024, time.March, 1)))
	assert.False(t, feb.Contains(date(2024, time.January, 31)))

	year := YearWindow(2024)
	assert.True(t, year.Contains(date(2024, time.January, 1)))
	assert.True(t, year.Contains(date(2024, time.December, 31)))
	assert.False(t, year.Contains(date(2025, time.January, 1)))
}

func TestHorizon(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

	t.Run("past window ends at window", func(t *testing.T) {
		h := Horizon(MonthWindow(2024, time.March), now)
		assert.Equal(t, MonthWindow(2024, time.March).To, h)
	})

	t.Run("future window capped at current month", func(t *testing.T) {
		h := Horizon(YearWindow(2024), now)
		assert.Equal(t, MonthWindow(2024, time.June).To, h)
	})
}

func TestDateOf_ClampsToMonthLength(t *testing.T) {
	t.Parallel()

	s := schedule(model.RecurrenceUndetermined, date(2024, time.January, 31), nil)

	assert.Equal(t, date(2024, time.January, 31), s.DateOf(1))
	assert.Equal(t, date(2024, time.February, 29), s.DateOf(2))
	assert.Equal(t, date(2024, time.March, 31), s.DateOf(3))
	assert.Equal(t, date(2024, time.April, 30), s.DateOf(4))
	assert.Equal(t, date(2025, time.February, 28), s.DateOf(14))
}

func TestDerive_DeterminedStopsAtTotal(t *testing.T) {
	t.Parallel()

	s := schedule(model.RecurrenceDetermined, date(2024, time.January, 1), intPtr(3))
	now := date(2024, time.June, 10)

	p := Derive(s, map[int]bool{}, Horizon(MonthWindow(2024, time.June), now), PolicyTombstone)

	assert.Equal(t, []time.Time{
		date(2024, time.January, 1),
		date(2024, time.February, 1),
		date(2024, time.March, 1),
	}, slotDates(p.Create))
	assert.Equal(t, 3, p.Generated)
	assert.Nil(t, p.Next)

	for _, slot := range p.Create {
		assert.False(t, MonthWindow(2024, time.April).Contains(slot.Date))
		assert.False(t, MonthWindow(2024, time.May).Contains(slot.Date))
		assert.False(t, MonthWindow(2024, time.June).Contains(slot.Date))
	}
}

func TestDerive_DeterminedNeverExceedsTotal(t *testing.T) {
	t.Parallel()

	s := schedule(model.RecurrenceDetermined, date(2020, time.March, 5), intPtr(12))
	existing := map[int]bool{}

	for year := 2020; year <= 2026; year++ {
		p := Derive(s, existing, Horizon(YearWindow(year), date(2026, time.December, 1)), PolicyTombstone)
		s = apply(s, existing, p)
	}

	assert.Len(t, existing, 12)
	assert.Equal(t, 12, s.Generated)
	assert.Nil(t, s.Next())
}

func TestDerive_UndeterminedIsIdempotent(t *testing.T) {
	t.Parallel()

	s := schedule(model.RecurrenceUndetermined, date(2024, time.January, 31), nil)
	now := date(2024, time.April, 10)
	horizon := Horizon(MonthWindow(2024, time.April), now)
	existing := map[int]bool{}

	first := Derive(s, existing, horizon, PolicyTombstone)
	require.Len(t, first.Create, 4)
	assert.Equal(t, []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.March, 31),
		date(2024, time.April, 30),
	}, slotDates(first.Create))
	for i, slot := range first.Create {
		assert.Equal(t, i+1, slot.Installment)
	}
	require.NotNil(t, first.Next)
	assert.Equal(t, date(2024, time.May, 31), *first.Next)

	s = apply(s, existing, first)
	second := Derive(s, existing, horizon, PolicyTombstone)
	assert.Empty(t, second.Create)
	assert.Equal(t, 4, second.Generated)
}

func TestDerive_NeverPastCurrentMonth(t *testing.T) {
	t.Parallel()

	s := schedule(model.RecurrenceUndetermined, date(2024, time.January, 15), nil)
	p := Derive(s, map[int]bool{}, Horizon(YearWindow(2024), date(2024, time.March, 2)), PolicyTombstone)

	require.Len(t, p.Create, 3)
	assert.Equal(t, date(2024, time.March, 15), p.Create[2].Date)
}

func TestDerive_FutureStart(t *testing.T) {
	t.Parallel()

	s := schedule(model.RecurrenceUndetermined, date(2024, time.August, 10), nil)
	p := Derive(s, map[int]bool{}, Horizon(MonthWindow(2024, time.June), date(2024, time.June, 1)), PolicyTombstone)

	assert.Empty(t, p.Create)
	assert.Equal(t, 0, p.Generated)
	require.NotNil(t, p.Next)
	assert.Equal(t, date(2024, time.August, 10), *p.Next)
}

func TestDerive_PausedGeneratesNothing(t *testing.T) {
	t.Parallel()

	s := schedule(model.RecurrencePaused, date(2024, time.January, 1), nil)
	s.Generated = 2

	p := Derive(s, map[int]bool{1: true, 2: true}, Horizon(YearWindow(2024), date(2024, time.December, 1)), PolicyRegenerate)

	assert.Empty(t, p.Create)
	assert.Equal(t, 2, p.Generated)
	assert.Nil(t, p.Next)
}

func TestDerive_DeletedOccurrence(t *testing.T) {
	t.Parallel()

	s := schedule(model.RecurrenceUndetermined, date(2024, time.January, 1), nil)
	s.Generated = 3
	existing := map[int]bool{1: true, 3: true}
	horizon := Horizon(MonthWindow(2024, time.March), date(2024, time.March, 20))

	t.Run("tombstone keeps it deleted", func(t *testing.T) {
		p := Derive(s, existing, horizon, PolicyTombstone)
		assert.Empty(t, p.Create)
		assert.Equal(t, 3, p.Generated)
	})

	t.Run("regenerate recreates it", func(t *testing.T) {
		p := Derive(s, existing, horizon, PolicyRegenerate)
		require.Len(t, p.Create, 1)
		assert.Equal(t, Slot{Installment: 2, Date: date(2024, time.February, 1)}, p.Create[0])
		assert.Equal(t, 3, p.Generated)
	})
}

func TestDerive_HighWaterFollowsStoredRows(t *testing.T) {
	t.Parallel()

	s := schedule(model.RecurrenceUndetermined, date(2024, time.January, 1), nil)
	s.Generated = 1

	p := Derive(s, map[int]bool{1: true, 2: true}, Horizon(MonthWindow(2024, time.February), date(2024, time.February, 5)), PolicyTombstone)

	assert.Empty(t, p.Create)
	assert.Equal(t, 2, p.Generated)
}

func TestResume(t *testing.T) {
	t.Parallel()

	t.Run("skips paused months", func(t *testing.T) {
		s := schedule(model.RecurrenceUndetermined, date(2024, time.January, 15), nil)
		s.Generated = 2

		r := s.Resume(time.Date(2024, time.May, 3, 9, 0, 0, 0, time.UTC))
		assert.Equal(t, date(2024, time.May, 15), r.AnchorDate)
		assert.Equal(t, 3, r.AnchorInstallment)

		p := Derive(r, map[int]bool{1: true, 2: true}, Horizon(MonthWindow(2024, time.May), date(2024, time.May, 20)), PolicyRegenerate)
		require.Len(t, p.Create, 1)
		assert.Equal(t, Slot{Installment: 3, Date: date(2024, time.May, 15)}, p.Create[0])
	})

	t.Run("does not double up the current month", func(t *testing.T) {
		s := schedule(model.RecurrenceUndetermined, date(2024, time.January, 15), nil)
		s.Generated = 2

		r := s.Resume(date(2024, time.February, 20))
		assert.Equal(t, date(2024, time.March, 15), r.AnchorDate)
		assert.Equal(t, 3, r.AnchorInstallment)
	})

	t.Run("keeps a future start", func(t *testing.T) {
		s := schedule(model.RecurrenceUndetermined, date(2024, time.September, 30), nil)

		r := s.Resume(date(2024, time.June, 1))
		assert.Equal(t, date(2024, time.September, 30), r.AnchorDate)
		assert.Equal(t, 1, r.AnchorInstallment)
	})

	t.Run("clamps the anchor day", func(t *testing.T) {
		s := schedule(model.RecurrenceUndetermined, date(2023, time.October, 31), nil)
		s.Generated = 1

		r := s.Resume(date(2024, time.February, 2))
		assert.Equal(t, date(2024, time.February, 29), r.AnchorDate)
		assert.Equal(t, date(2024, time.March, 31), r.DateOf(3))
	})
}

func TestFromDefinition(t *testing.T) {
	t.Parallel()

	def := &model.RecurringExpense{
		RecurrenceType:        model.RecurrenceDetermined,
		StartDate:             date(2024, time.January, 10),
		InstallmentsTotal:     intPtr(6),
		InstallmentsGenerated: 2,
	}

	s := FromDefinition(def)
	assert.Equal(t, def.StartDate, s.AnchorDate)
	assert.Equal(t, 1, s.AnchorInstallment)
	assert.Equal(t, 2, s.Generated)

	def.AnchorDate = date(2024, time.May, 10)
	def.AnchorInstallment = 3
	s = FromDefinition(def)
	assert.Equal(t, date(2024, time.June, 10), s.DateOf(4))
}

func TestTally(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		trulyPaid  int
		adjustment int
		total      *int
		want       Counters
	}{
		{"no adjustment", 2, 0, nil, Counters{TrulyPaid: 2, Paid: 2}},
		{"with adjustment", 2, 3, intPtr(10), Counters{TrulyPaid: 2, Paid: 5}},
		{"capped at total", 4, 3, intPtr(6), Counters{TrulyPaid: 4, Paid: 6}},
		{"nothing paid", 0, 0, intPtr(6), Counters{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Tally(tt.trulyPaid, tt.adjustment, tt.total))
		})
	}
}
