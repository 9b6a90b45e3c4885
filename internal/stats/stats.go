// Package stats folds expense lists into totals, category breakdowns, monthly
// series and goal comparisons. Every function is a single pass over its input.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendlog/backend/internal/model"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotal is the spending of one category key.
type CategoryTotal struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// Breakdown summarizes a set of expenses.
type Breakdown struct {
	Total      decimal.Decimal `json:"total"`
	Pending    decimal.Decimal `json:"pending"`
	Count      int             `json:"count"`
	Categories []CategoryTotal `json:"categories"`
}

// Summarize totals expenses per category key (routine category or
// "occasional"). Categories are ordered by amount, largest first, and their
// percentages add up to exactly 100 when anything was spent.
func Summarize(expenses []model.Expense) Breakdown {
	b := Breakdown{Total: decimal.Zero, Pending: decimal.Zero, Categories: []CategoryTotal{}}
	index := make(map[string]int)

	for i := range expenses {
		e := &expenses[i]
		key := e.CategoryKey()
		pos, ok := index[key]
		if !ok {
			pos = len(b.Categories)
			index[key] = pos
			b.Categories = append(b.Categories, CategoryTotal{Category: key, Amount: decimal.Zero})
		}
		b.Categories[pos].Amount = b.Categories[pos].Amount.Add(e.Amount)
		b.Categories[pos].Count++
		b.Total = b.Total.Add(e.Amount)
		b.Count++
		if e.IsOccurrence() && !e.IsPaid() {
			b.Pending = b.Pending.Add(e.Amount)
		}
	}

	sort.SliceStable(b.Categories, func(i, j int) bool {
		if c := b.Categories[i].Amount.Cmp(b.Categories[j].Amount); c != 0 {
			return c > 0
		}
		return b.Categories[i].Category < b.Categories[j].Category
	})

	amounts := make([]decimal.Decimal, len(b.Categories))
	for i, c := range b.Categories {
		amounts[i] = c.Amount
	}
	for i, p := range Percentages(amounts, b.Total) {
		b.Categories[i].Percentage = p
	}
	return b
}

// Percentages splits 100% across parts with two decimals using the largest
// remainder method, so the rounded shares always add up to 100.00. A zero or
// negative total yields zero shares.
func Percentages(parts []decimal.Decimal, total decimal.Decimal) []float64 {
	out := make([]float64, len(parts))
	if !total.IsPositive() || len(parts) == 0 {
		return out
	}

	const scale = 10000 // hundredths of a percent
	type share struct {
		idx       int
		units     int64
		remainder decimal.Decimal
	}
	shares := make([]share, len(parts))
	var assigned int64
	for i, p := range parts {
		exact := p.Mul(decimal.NewFromInt(scale)).Div(total)
		floor := exact.Floor()
		shares[i] = share{idx: i, units: floor.IntPart(), remainder: exact.Sub(floor)}
		assigned += floor.IntPart()
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].remainder.Cmp(shares[j].remainder) > 0
	})
	for i := 0; assigned < scale && i < len(shares); i++ {
		shares[i].units++
		assigned++
	}

	for _, s := range shares {
		out[s.idx] = float64(s.units) / 100
	}
	return out
}

// MonthTotal is the spending of one month.
type MonthTotal struct {
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// MonthlySeries returns twelve entries, January first, totalling the
// expenses of year by purchase month. Expenses of other years are ignored.
func MonthlySeries(expenses []model.Expense, year int) []MonthTotal {
	series := make([]MonthTotal, 12)
	for i := range series {
		series[i] = MonthTotal{Month: i + 1, Total: decimal.Zero}
	}
	for i := range expenses {
		d := expenses[i].PurchaseDate
		if d.Year() != year {
			continue
		}
		m := &series[int(d.Month())-1]
		m.Total = m.Total.Add(expenses[i].Amount)
		m.Count++
	}
	return series
}

// MonthBreakdown is the category breakdown of one month.
type MonthBreakdown struct {
	Month int `json:"month"`
	Breakdown
}

// MonthlyBreakdowns buckets the expenses of year by month and summarizes
// each bucket.
func MonthlyBreakdowns(expenses []model.Expense, year int) []MonthBreakdown {
	buckets := make([][]model.Expense, 12)
	for i := range expenses {
		d := expenses[i].PurchaseDate
		if d.Year() != year {
			continue
		}
		buckets[d.Month()-1] = append(buckets[d.Month()-1], expenses[i])
	}
	out := make([]MonthBreakdown, 12)
	for i, bucket := range buckets {
		out[i] = MonthBreakdown{Month: int(time.January) + i, Breakdown: Summarize(bucket)}
	}
	return out
}

// GoalComparison sets actual spending against a goal.
type GoalComparison struct {
	Category   string          `json:"category,omitempty"`
	Goal       decimal.Decimal `json:"goal"`
	Actual     decimal.Decimal `json:"actual"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
	Exceeded   bool            `json:"exceeded"`
}

// Compare builds a comparison of actual against goal. Percentage is the share
// of the goal already spent, rounded to two decimals; it is zero when no goal
// is set.
func Compare(category string, goal, actual decimal.Decimal) GoalComparison {
	c := GoalComparison{
		Category:  category,
		Goal:      goal,
		Actual:    actual,
		Remaining: goal.Sub(actual),
		Exceeded:  actual.GreaterThan(goal),
	}
	if goal.IsPositive() {
		c.Percentage = actual.Div(goal).Mul(hundred).Round(2).InexactFloat64()
	}
	return c
}

// Goals is the comparison of a breakdown against a financial year.
type Goals struct {
	Total      GoalComparison   `json:"total"`
	Categories []GoalComparison `json:"categories"`
}

// CompareGoals compares b against the monthly goals of fy multiplied by
// months (1 for a month, 12 for a year). Every category with either a goal or
// spending is listed. It returns nil when fy is nil.
func CompareGoals(b Breakdown, fy *model.FinancialYear, months int) *Goals {
	if fy == nil {
		return nil
	}
	factor := decimal.NewFromInt(int64(months))

	actual := make(map[string]decimal.Decimal, len(b.Categories))
	for _, c := range b.Categories {
		actual[c.Category] = c.Amount
	}

	g := &Goals{
		Total:      Compare("", fy.TotalMonthlyGoal.Mul(factor), b.Total),
		Categories: make([]GoalComparison, 0, len(fy.MonthlyGoals)+len(b.Categories)),
	}
	seen := make(map[string]bool, len(fy.MonthlyGoals))
	for _, mg := range fy.MonthlyGoals {
		seen[mg.Category] = true
		spent, ok := actual[mg.Category]
		if !ok {
			spent = decimal.Zero
		}
		g.Categories = append(g.Categories, Compare(mg.Category, mg.Amount.Mul(factor), spent))
	}
	for _, c := range b.Categories {
		if !seen[c.Category] {
			g.Categories = append(g.Categories, Compare(c.Category, decimal.Zero, c.Amount))
		}
	}
	return g
}

// CategorySeries is the yearly spending of one category key, month by month.
type CategorySeries struct {
	Category   string            `json:"category"`
	Total      decimal.Decimal   `json:"total"`
	Percentage float64           `json:"percentage"`
	Months     []decimal.Decimal `json:"months"`
}

// CategoryBreakdown returns one series per category key spent in year,
// largest total first. Each series has twelve months, January first.
func CategoryBreakdown(expenses []model.Expense, year int) []CategorySeries {
	var inYear []model.Expense
	for i := range expenses {
		if expenses[i].PurchaseDate.Year() == year {
			inYear = append(inYear, expenses[i])
		}
	}

	summary := Summarize(inYear)
	out := make([]CategorySeries, len(summary.Categories))
	index := make(map[string]int, len(summary.Categories))
	for i, c := range summary.Categories {
		months := make([]decimal.Decimal, 12)
		for m := range months {
			months[m] = decimal.Zero
		}
		out[i] = CategorySeries{Category: c.Category, Total: c.Amount, Percentage: c.Percentage, Months: months}
		index[c.Category] = i
	}
	for i := range inYear {
		e := &inYear[i]
		s := &out[index[e.CategoryKey()]]
		m := int(e.PurchaseDate.Month()) - 1
		s.Months[m] = s.Months[m].Add(e.Amount)
	}
	return out
}
