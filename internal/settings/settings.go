// Package settings reads and writes the user preferences that feed the budget
// math: display frequency, net monthly income and current savings.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgetr/internal/core"
	"budgetr/internal/store"

	"github.com/shopspring/decimal"
)

// Keys understood by the settings store.
const (
	KeyFrequency        = "frequency"
	KeyNetMonthlyIncome = "netMonthlyIncome"
	KeyCurrentSavings   = "currentSavings"

	// legacyKeyNetMonthly is the key older installs wrote income under.
	legacyKeyNetMonthly = "netMonthly"
)

// ErrInvalidValue is returned when a setting value cannot be parsed.
var ErrInvalidValue = errors.New("invalid setting value")

// ErrUnknownKey is returned by Set for keys outside the supported set.
var ErrUnknownKey = errors.New("unknown setting")

// Snapshot is a parsed, defaulted view of every setting.
type Snapshot struct {
	Frequency        core.Frequency
	NetMonthlyIncome decimal.Decimal
	CurrentSavings   decimal.Decimal
}

// Defaults returns the values used for keys that were never written.
func Defaults() Snapshot {
	return Snapshot{
		Frequency:        core.Month,
		NetMonthlyIncome: decimal.Zero,
		CurrentSavings:   decimal.Zero,
	}
}

// Load reads every setting from st. Missing or unparseable values fall back to
// their defaults; only store failures are returned as errors.
func Load(ctx context.Context, st store.SettingsStore) (Snapshot, error) {
	snap := Defaults()

	if v, ok, err := st.Get(ctx, KeyFrequency); err != nil {
		return snap, fmt.Errorf("read %s: %w", KeyFrequency, err)
	} else if ok && strings.TrimSpace(v) != "" {
		snap.Frequency = core.ParseFrequency(v)
	}

	income, ok, err := st.Get(ctx, KeyNetMonthlyIncome)
	if err != nil {
		return snap, fmt.Errorf("read %s: %w", KeyNetMonthlyIncome, err)
	}
	if !ok {
		if income, ok, err = st.Get(ctx, legacyKeyNetMonthly); err != nil {
			return snap, fmt.Errorf("read %s: %w", legacyKeyNetMonthly, err)
		}
	}
	if ok {
		if d, parsed := core.ParseLenient(income); parsed {
			snap.NetMonthlyIncome = d
		}
	}

	if v, ok, err := st.Get(ctx, KeyCurrentSavings); err != nil {
		return snap, fmt.Errorf("read %s: %w", KeyCurrentSavings, err)
	} else if ok {
		if d, parsed := core.ParseLenient(v); parsed {
			snap.CurrentSavings = d
		}
	}

	return snap, nil
}

// Normalize validates a raw value for key and returns the string to persist.
// Numeric values are parsed leniently, so "$1,200.50" is stored as "1200.5".
// Frequencies are stored lowercase; unrecognized ones are kept and display at
// the monthly factor. An empty frequency stores "month" and an empty
// currentSavings stores "0".
func Normalize(key, raw string) (string, error) {
	switch key {
	case KeyFrequency:
		f := core.ParseFrequency(raw)
		if f == "" {
			return core.Month.String(), nil
		}
		return f.String(), nil
	case KeyNetMonthlyIncome:
		d, ok := core.ParseLenient(raw)
		if !ok {
			return "", fmt.Errorf("%w: net monthly income %q", ErrInvalidValue, raw)
		}
		return d.String(), nil
	case KeyCurrentSavings:
		if strings.TrimSpace(raw) == "" {
			return "0", nil
		}
		d, ok := core.ParseLenient(raw)
		if !ok {
			return "", fmt.Errorf("%w: current savings %q", ErrInvalidValue, raw)
		}
		return d.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Set normalizes raw and writes it. An invalid value leaves the stored value
// untouched.
func Set(ctx context.Context, st store.SettingsStore, key, raw string) (string, error) {
	v, err := Normalize(key, raw)
	if err != nil {
		return "", err
	}
	if err := st.Set(ctx, key, v); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return v, nil
}
