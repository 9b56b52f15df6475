package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Month    Frequency = "month"
	Year     Frequency = "year"
	Biweekly Frequency = "biweekly"
	Weekly   Frequency = "weekly"
)

// UncategorizedLabel is the category assigned to records saved without one.
const UncategorizedLabel = "Uncategorized"

// DefaultPriority is used when a record is added without an explicit priority.
const DefaultPriority = 99

type (
	// Frequency is the display period selected by the user. Amounts are always
	// stored on a monthly basis; the frequency only changes how they are shown.
	Frequency string

	Expenditure struct {
		ID          string
		Description string
		Amount      decimal.Decimal // monthly base unit
		Category    string
		Priority    int
		Date        time.Time
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
)

// MaxDescriptionLength is the longest description accepted, in bytes.
const MaxDescriptionLength = 200

// ParseFrequency normalizes a stored or user supplied frequency. Unknown values
// are returned as-is so callers can still fall back to the monthly multiplier.
func ParseFrequency(s string) Frequency {
	return Frequency(strings.ToLower(strings.TrimSpace(s)))
}

// IsKnown reports whether f is one of the four supported frequencies.
func (f Frequency) IsKnown() bool {
	switch f {
	case Month, Year, Biweekly, Weekly:
		return true
	default:
		return false
	}
}

// Label returns the short human readable name used in headings.
func (f Frequency) Label() string {
	switch f {
	case Month:
		return "Month"
	case Year:
		return "Year"
	case Biweekly:
		return "Bi-Week"
	case Weekly:
		return "Week"
	}
	s := string(f)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (f Frequency) String() string {
	return string(f)
}

// EffectiveDate is the date the record is attributed to: Date, then CreatedAt,
// then now.
func (e Expenditure) EffectiveDate(now time.Time) time.Time {
	if !e.Date.IsZero() {
		return e.Date
	}
	if !e.CreatedAt.IsZero() {
		return e.CreatedAt
	}
	return now
}

// CategoryOrDefault returns the trimmed category or UncategorizedLabel.
func (e Expenditure) CategoryOrDefault() string {
	if c := strings.TrimSpace(e.Category); c != "" {
		return c
	}
	return UncategorizedLabel
}

// Normalize fills in the defaults applied to every new record.
func (e Expenditure) Normalize(now time.Time) Expenditure {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = e.CategoryOrDefault()
	if e.Priority == 0 {
		e.Priority = DefaultPriority
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.Date.IsZero() {
		e.Date = e.CreatedAt
	}
	return e
}

func (e Expenditure) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescriptionLong
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
