package budget

import (
	"sort"
	"time"

	"budgetr/internal/core"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the spend of one category, converted to the display
// frequency.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Percent  int
}

// Summary is the dashboard view of a set of records at one frequency.
type Summary struct {
	Frequency      core.Frequency
	Label          string
	TotalSpent     decimal.Decimal
	NetIncome      decimal.Decimal
	AverageMonthly decimal.Decimal // base unit, not converted
	Remaining      decimal.Decimal
	Categories     []CategoryTotal
}

// Summarize aggregates records for display at frequency f. netMonthlyIncome is
// in the monthly base unit.
func Summarize(records []core.Expenditure, f core.Frequency, netMonthlyIncome decimal.Decimal, now time.Time) Summary {
	m := MultiplierFor(f)

	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, r := range records {
		total = total.Add(r.Amount)
		c := r.CategoryOrDefault()
		byCategory[c] = byCategory[c].Add(r.Amount)
	}

	avg := EstimateAverageMonthly(records, now)

	s := Summary{
		Frequency:      f,
		Label:          f.Label(),
		TotalSpent:     total.Mul(m),
		NetIncome:      netMonthlyIncome.Mul(m),
		AverageMonthly: avg,
		Remaining:      decimal.Max(decimal.Zero, netMonthlyIncome.Sub(avg).Mul(m)),
		Categories:     categoryTotals(byCategory, total, m),
	}
	return s
}

func categoryTotals(byCategory map[string]decimal.Decimal, total, m decimal.Decimal) []CategoryTotal {
	denom := total
	if denom.IsZero() {
		denom = decimal.NewFromInt(1)
	}
	hundred := decimal.NewFromInt(100)

	out := make([]CategoryTotal, 0, len(byCategory))
	for name, amount := range byCategory {
		out = append(out, CategoryTotal{
			Category: name,
			Amount:   amount.Mul(m),
			Percent:  int(amount.Div(denom).Mul(hundred).Round(0).IntPart()),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// SortForDisplay orders records by priority, then creation time, then ID.
func SortForDisplay(records []core.Expenditure) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
