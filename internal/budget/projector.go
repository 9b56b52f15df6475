// Package budget holds the frequency-normalized budget math: converting monthly
// amounts to a display frequency, estimating average monthly spend, and
// projecting whether a savings goal is reachable.
//
// Every function is pure. The current time is passed in by the caller, so the
// same inputs always produce the same outputs and the package is safe for
// concurrent use without locking.
package budget

import (
	"errors"
	"fmt"
	"time"

	"budgetr/internal/core"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when a goal is missing its amount or date.
var ErrInvalidInput = errors.New("invalid input")

var (
	twelve = decimal.NewFromInt(12)

	multipliers = map[core.Frequency]decimal.Decimal{
		core.Month:    decimal.NewFromInt(1),
		core.Year:     twelve,
		core.Biweekly: twelve.Div(decimal.NewFromInt(26)),
		core.Weekly:   twelve.Div(decimal.NewFromInt(52)),
	}
)

// GoalInput describes a savings goal and the household figures it is checked
// against. Money values are in the monthly base unit.
type GoalInput struct {
	TargetAmount       decimal.Decimal
	TargetDate         time.Time
	CurrentSavings     decimal.Decimal
	NetMonthlyIncome   decimal.Decimal
	UseAverageExpenses bool
}

// GoalProjection is the result of ProjectGoal.
type GoalProjection struct {
	MonthsRemaining           int
	AmountRemaining           decimal.Decimal
	RequiredMonthly           decimal.Decimal
	AverageMonthly            decimal.Decimal
	EstimatedAvailableMonthly decimal.Decimal
	OnTrack                   bool
	Shortfall                 decimal.Decimal
}

// MultiplierFor returns the factor that converts a monthly amount to f.
// Unrecognized frequencies, including the empty string, use the monthly factor.
func MultiplierFor(f core.Frequency) decimal.Decimal {
	if m, ok := multipliers[core.ParseFrequency(string(f))]; ok {
		return m
	}
	return multipliers[core.Month]
}

// ConvertMonthlyAmount converts a monthly base amount for display. Apply it once
// per displayed value.
func ConvertMonthlyAmount(amount decimal.Decimal, f core.Frequency) decimal.Decimal {
	return amount.Mul(MultiplierFor(f))
}

// MonthDiff counts calendar months from 'from' to 'to' using only year and
// month, so Jan 15 -> Mar 2 is 2. The result is negative when 'to' is earlier.
func MonthDiff(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// EstimateAverageMonthly divides total spend by the number of distinct
// calendar months that contain at least one record. Months without activity
// do not dilute the average. Records without a date are attributed to their
// creation time, or to now.
func EstimateAverageMonthly(records []core.Expenditure, now time.Time) decimal.Decimal {
	if len(records) == 0 {
		return decimal.Zero
	}

	type bucket struct {
		year  int
		month time.Month
	}
	buckets := make(map[bucket]struct{})
	total := decimal.Zero
	for _, r := range records {
		d := r.EffectiveDate(now)
		buckets[bucket{d.Year(), d.Month()}] = struct{}{}
		total = total.Add(r.Amount)
	}

	n := len(buckets)
	if n < 1 {
		n = 1
	}
	return total.Div(decimal.NewFromInt(int64(n)))
}

// ProjectGoal checks whether the goal can be reached by its target date.
// A non-positive target amount or a zero target date returns ErrInvalidInput.
func ProjectGoal(in GoalInput, records []core.Expenditure, now time.Time) (GoalProjection, error) {
	if !in.TargetAmount.IsPositive() {
		return GoalProjection{}, fmt.Errorf("%w: goal amount must be greater than zero", ErrInvalidInput)
	}
	if in.TargetDate.IsZero() {
		return GoalProjection{}, fmt.Errorf("%w: goal date is required", ErrInvalidInput)
	}

	months := MonthDiff(now, in.TargetDate)
	if months < 0 {
		months = -months
	}
	if months < 1 {
		months = 1
	}

	remaining := decimal.Max(decimal.Zero, in.TargetAmount.Sub(in.CurrentSavings))
	required := remaining.Div(decimal.NewFromInt(int64(months)))

	avg := decimal.Zero
	if in.UseAverageExpenses {
		avg = EstimateAverageMonthly(records, now)
	}
	available := decimal.Max(decimal.Zero, in.NetMonthlyIncome.Sub(avg))

	p := GoalProjection{
		MonthsRemaining:           months,
		AmountRemaining:           remaining,
		RequiredMonthly:           required,
		AverageMonthly:            avg,
		EstimatedAvailableMonthly: available,
		OnTrack:                   available.GreaterThanOrEqual(required),
		Shortfall:                 decimal.Zero,
	}
	if !p.OnTrack {
		p.Shortfall = required.Sub(available)
	}
	return p, nil
}
