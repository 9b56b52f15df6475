package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetr/internal/amqp"
	"budgetr/internal/budget"
	"budgetr/internal/cache"
	"budgetr/internal/core"
	applog "budgetr/internal/log"
	"budgetr/internal/settings"
	"budgetr/internal/store"

	"github.com/shopspring/decimal"
)

// EventPublisher sends change notifications. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.ChangeEvent) error
}

// GoalRequest is the user supplied part of a goal projection. Savings and
// income come from the stored settings.
type GoalRequest struct {
	TargetAmount       decimal.Decimal
	TargetDate         time.Time
	UseAverageExpenses bool
}

// BudgetService reads store snapshots, hands plain values to the budget
// package and publishes change events after successful writes.
type BudgetService struct {
	records   store.RecordStore
	settings  store.SettingsStore
	publisher EventPublisher
	dashboard cache.Cache[budget.Summary]
	now       func() time.Time
}

// Option configures a BudgetService.
type Option func(*BudgetService)

// WithPublisher enables change events.
func WithPublisher(p EventPublisher) Option {
	return func(s *BudgetService) { s.publisher = p }
}

// WithDashboardCache caches dashboard summaries per frequency until the next
// write.
func WithDashboardCache(c cache.Cache[budget.Summary]) Option {
	return func(s *BudgetService) { s.dashboard = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *BudgetService) { s.now = now }
}

func NewBudgetService(records store.RecordStore, st store.SettingsStore, opts ...Option) *BudgetService {
	s := &BudgetService{records: records, settings: st, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddExpenditure validates, stores and announces a new record.
func (s *BudgetService) AddExpenditure(ctx context.Context, e core.Expenditure) (core.Expenditure, error) {
	e = e.Normalize(s.now())
	if err := e.Validate(); err != nil {
		return core.Expenditure{}, err
	}

	id, err := s.records.Append(ctx, e)
	if err != nil {
		return core.Expenditure{}, fmt.Errorf("save expenditure: %w", err)
	}
	e.ID = id

	s.invalidate()
	s.publish(ctx, amqp.NewRecordEvent(amqp.EventExpenditureCreated, id))
	return e, nil
}

// DeleteExpenditure removes a record. Unknown ids return store.ErrNotFound.
func (s *BudgetService) DeleteExpenditure(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete expenditure: %w", err)
	}

	s.invalidate()
	s.publish(ctx, amqp.NewRecordEvent(amqp.EventExpenditureDeleted, id))
	return nil
}

// GetExpenditure returns one record.
func (s *BudgetService) GetExpenditure(ctx context.Context, id string) (core.Expenditure, error) {
	return s.records.Get(ctx, id)
}

// ListExpenditures returns every record ordered for display.
func (s *BudgetService) ListExpenditures(ctx context.Context) ([]core.Expenditure, error) {
	records, err := s.records.ListExpenditures(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenditures: %w", err)
	}
	budget.SortForDisplay(records)
	return records, nil
}

// DisplayExpenditures returns every record ordered for display with amounts
// converted from the monthly base unit to the active frequency.
func (s *BudgetService) DisplayExpenditures(ctx context.Context, override core.Frequency) ([]core.Expenditure, core.Frequency, error) {
	snap, err := settings.Load(ctx, s.settings)
	if err != nil {
		return nil, "", fmt.Errorf("load settings: %w", err)
	}
	f := activeFrequency(snap, override)

	records, err := s.ListExpenditures(ctx)
	if err != nil {
		return nil, "", err
	}
	for i := range records {
		records[i].Amount = budget.ConvertMonthlyAmount(records[i].Amount, f)
	}
	return records, f, nil
}

func activeFrequency(snap settings.Snapshot, override core.Frequency) core.Frequency {
	if override != "" {
		return core.ParseFrequency(string(override))
	}
	return snap.Frequency
}

// Dashboard summarizes every record at the stored frequency, or at override
// when it is non-empty.
func (s *BudgetService) Dashboard(ctx context.Context, override core.Frequency) (budget.Summary, error) {
	snap, err := settings.Load(ctx, s.settings)
	if err != nil {
		return budget.Summary{}, fmt.Errorf("load settings: %w", err)
	}
	f := activeFrequency(snap, override)

	key := f.String() + "|" + snap.NetMonthlyIncome.String()
	if s.dashboard != nil {
		if sum, ok := s.dashboard.Get(key); ok {
			return sum, nil
		}
	}

	records, err := s.records.ListExpenditures(ctx)
	if err != nil {
		return budget.Summary{}, fmt.Errorf("list expenditures: %w", err)
	}
	sum := budget.Summarize(records, f, snap.NetMonthlyIncome, s.now())

	if s.dashboard != nil {
		s.dashboard.Set(key, sum)
	}
	return sum, nil
}

// Settings returns the parsed settings snapshot.
func (s *BudgetService) Settings(ctx context.Context) (settings.Snapshot, error) {
	return settings.Load(ctx, s.settings)
}

// UpdateSetting validates and stores one setting and returns the stored
// value. Invalid values return settings.ErrInvalidValue and leave the
// previous value in place.
func (s *BudgetService) UpdateSetting(ctx context.Context, key, raw string) (string, error) {
	v, err := settings.Set(ctx, s.settings, key, raw)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Setting updated", "key", key, "value", v)
	s.invalidate()
	s.publish(ctx, amqp.NewSettingsEvent(key))
	return v, nil
}

// ProjectGoal projects req against the stored savings and income. Records are
// only read when the average is requested.
func (s *BudgetService) ProjectGoal(ctx context.Context, req GoalRequest) (budget.GoalProjection, error) {
	snap, err := settings.Load(ctx, s.settings)
	if err != nil {
		return budget.GoalProjection{}, fmt.Errorf("load settings: %w", err)
	}

	var records []core.Expenditure
	if req.UseAverageExpenses {
		if records, err = s.records.ListExpenditures(ctx); err != nil {
			return budget.GoalProjection{}, fmt.Errorf("list expenditures: %w", err)
		}
	}

	return budget.ProjectGoal(budget.GoalInput{
		TargetAmount:       req.TargetAmount,
		TargetDate:         req.TargetDate,
		CurrentSavings:     snap.CurrentSavings,
		NetMonthlyIncome:   snap.NetMonthlyIncome,
		UseAverageExpenses: req.UseAverageExpenses,
	}, records, s.now())
}

func (s *BudgetService) invalidate() {
	if s.dashboard != nil {
		s.dashboard.Purge()
	}
}

// publish never fails the caller: the write already succeeded.
func (s *BudgetService) publish(ctx context.Context, ev *amqp.ChangeEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping change event", "type", ev.Type)
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"type", ev.Type,
			applog.FieldRecordID, ev.RecordID,
			applog.FieldSettingKey, ev.SettingKey,
			applog.FieldError, err)
	}
}
