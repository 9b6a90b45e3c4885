package datetime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-12-25")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.December, 25), d)

	for _, bad := range []string{"not-a-date", "25/12/2024", "2024-02-30"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes day only", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(NewDate(2024, time.March, 5))
		require.NoError(t, err)
		assert.Equal(t, `"2024-03-05"`, string(data))
	})

	t.Run("zero encodes as null", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(Date{})
		require.NoError(t, err)
		assert.Equal(t, "null", string(data))
	})

	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"date only", `"2024-12-25"`, NewDate(2024, time.December, 25), false},
		{"timestamp truncated to its day", `"2024-12-25T22:30:00-03:00"`, NewDate(2024, time.December, 25), false},
		{"null", `null`, Date{}, false},
		{"empty", `""`, Date{}, false},
		{"garbage", `"soon"`, Date{}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestDate_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2024-01-09", NewDate(2024, time.January, 9).String())
	assert.Empty(t, Date{}.String())
}

func TestMonthBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   time.Time
		lastDay int
	}{
		{"December", time.Date(2024, 12, 15, 8, 0, 0, 0, time.UTC), 31},
		{"February leap year", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), 29},
		{"February non-leap year", time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC), 28},
		{"April", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 30},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			start := StartOfMonth(tt.input)
			end := EndOfMonth(tt.input)
			assert.Equal(t, time.Date(tt.input.Year(), tt.input.Month(), 1, 0, 0, 0, 0, time.UTC), start)
			assert.Equal(t, tt.lastDay, end.Day())
			assert.Equal(t, start.AddDate(0, 1, 0), end.Add(time.Nanosecond))
			assert.Equal(t, tt.lastDay, DaysInMonth(tt.input.Year(), tt.input.Month()))
		})
	}
}

func TestEndOfYear(t *testing.T) {
	t.Parallel()
	end := EndOfYear(time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end.Add(time.Nanosecond))
}

func TestMonthDay(t *testing.T) {
	t.Parallel()
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), MonthDay(2023, time.February, 31))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), MonthDay(2024, time.February, 30))
	assert.Equal(t, time.Date(2024, 7, 12, 0, 0, 0, 0, time.UTC), MonthDay(2024, time.July, 12))
	// month overflow normalizes into the next year
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), MonthDay(2024, 13, 31))
}

func TestAddMonthsClamped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		from   time.Time
		months int
		day    int
		want   time.Time
	}{
		{"plain", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1, 15, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"clamps to leap february", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, 31, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"restores anchor day", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 1, 31, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"crosses year", time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC), 3, 30, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"zero months", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), 0, 10, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AddMonthsClamped(tt.from, tt.months, tt.day))
		})
	}
}
